package tickmath

import (
	"errors"
	"fmt"
	"math/big"
)

// Tick domain shared by every V3-style pool regardless of fee tier.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is the sqrt price at MinTick.
	MinSqrtRatio = big.NewInt(4295128739)

	// MaxSqrtRatio is the sqrt price at MaxTick.
	MaxSqrtRatio = mustBig("1461446703485210103287273052203988822378723970342")

	// Q96 is the fixed-point scale of sqrt prices (2^96).
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	ErrTickOutOfRange = errors.New("tick out of range")
	ErrPriceOverflow  = errors.New("sqrt price overflow")
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// mulShift factors: sqrt(1.0001^-(2^i)) in Q128 for i = 0..19.
var sqrtRatioFactors = [20]*big.Int{
	mustBigHex("fffcb933bd6fad37aa2d162d1a594001"),
	mustBigHex("fff97272373d413259a46990580e213a"),
	mustBigHex("fff2e50f5f656932ef12357cf3c7fdcc"),
	mustBigHex("ffe5caca7e10e4e61c3624eaa0941cd0"),
	mustBigHex("ffcb9843d60f6159c9db58835c926644"),
	mustBigHex("ff973b41fa98c081472e6896dfb254c0"),
	mustBigHex("ff2ea16466c96a3843ec78b326b52861"),
	mustBigHex("fe5dee046a99a2a811c461f1969c3053"),
	mustBigHex("fcbe86c7900a88aedcffc83b479aa3a4"),
	mustBigHex("f987a7253ac413176f2b074cf7815e54"),
	mustBigHex("f3392b0822b70005940c7a398e4b70f3"),
	mustBigHex("e7159475a2c29b7443b29c7fa6e889d9"),
	mustBigHex("d097f3bdfd2022b8845ad8f792aa5825"),
	mustBigHex("a9f746462d870fdf8a65dc1f90e061e5"),
	mustBigHex("70d869a156d2a1b890bb3df62baf32f7"),
	mustBigHex("31be135f97d08fd981231505542fcfa6"),
	mustBigHex("9aa508b5b7a84e1c677de54f3e99bc9"),
	mustBigHex("5d6af8dedb81196699c329225ee604"),
	mustBigHex("2216e584f5fa1ea926041bedfe98"),
	mustBigHex("48a170391f7dc42444e8fa2"),
}

// SqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 as a Q64.96 value.
// The computation is integer-only (bit-decomposition of the tick against a
// precomputed multiplication table) so results are bit-identical everywhere.
func SqrtRatioAtTick(tick int32) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	var ratio *big.Int
	if absTick&1 != 0 {
		ratio = new(big.Int).Set(sqrtRatioFactors[0])
	} else {
		ratio = new(big.Int).Lsh(big.NewInt(1), 128)
	}
	for i := 1; i < len(sqrtRatioFactors); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, sqrtRatioFactors[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128 down to Q96, rounding up so the result is a usable lower bound.
	rounded := new(big.Int).Rsh(ratio, 32)
	var rem big.Int
	if rem.And(ratio, big.NewInt((1<<32)-1)); rem.Sign() != 0 {
		rounded.Add(rounded, big.NewInt(1))
	}

	if rounded.BitLen() > 160 {
		return nil, fmt.Errorf("%w: tick %d", ErrPriceOverflow, tick)
	}
	return rounded, nil
}

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio does not exceed
// sqrtPriceX96, so SqrtRatioAtTick(t) <= p < SqrtRatioAtTick(t+1) always holds.
func TickAtSqrtRatio(sqrtPriceX96 *big.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) > 0 {
		return 0, fmt.Errorf("%w: %v", ErrPriceOverflow, sqrtPriceX96)
	}

	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := int32((int64(lo) + int64(hi) + 1) >> 1)
		ratio, err := SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if ratio.Cmp(sqrtPriceX96) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// CheckSqrtPrice validates that a value is a representable sqrt price.
func CheckSqrtPrice(sqrtPriceX96 *big.Int) error {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 || sqrtPriceX96.BitLen() > 160 {
		return fmt.Errorf("%w: %v", ErrPriceOverflow, sqrtPriceX96)
	}
	return nil
}

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: bad constant " + s)
	}
	return n
}

func mustBigHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("tickmath: bad constant " + s)
	}
	return n
}
