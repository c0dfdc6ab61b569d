package swap

import (
	"fmt"
	"math/big"

	"poolquote/internal/tickmath"
)

var (
	bigOne     = big.NewInt(1)
	feeDenom   = big.NewInt(1_000_000)
	maxUint160 = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 160), bigOne)
)

// mulDiv computes floor(a * b / den) with a full-width intermediate product.
func mulDiv(a, b, den *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Div(out, den)
}

// mulDivRoundingUp computes ceil(a * b / den).
func mulDivRoundingUp(a, b, den *big.Int) *big.Int {
	product := new(big.Int).Mul(a, b)
	out, rem := new(big.Int).QuoRem(product, den, new(big.Int))
	if rem.Sign() != 0 {
		out.Add(out, bigOne)
	}
	return out
}

// amount0Delta returns the token0 amount between two sqrt prices at constant
// liquidity: L * (sqrtB - sqrtA) / (sqrtB * sqrtA), in Q96 terms. Rounding
// direction is chosen by the caller so it always favors the pool.
func amount0Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)
	numerator2 := new(big.Int).Sub(sqrtB, sqrtA)

	if roundUp {
		interim := mulDivRoundingUp(numerator1, numerator2, sqrtB)
		return mulDivRoundingUp(interim, bigOne, sqrtA)
	}
	interim := mulDiv(numerator1, numerator2, sqrtB)
	return interim.Div(interim, sqrtA)
}

// amount1Delta returns the token1 amount between two sqrt prices at constant
// liquidity: L * (sqrtB - sqrtA) / 2^96.
func amount1Delta(sqrtA, sqrtB, liquidity *big.Int, roundUp bool) *big.Int {
	if sqrtA.Cmp(sqrtB) > 0 {
		sqrtA, sqrtB = sqrtB, sqrtA
	}
	diff := new(big.Int).Sub(sqrtB, sqrtA)
	if roundUp {
		return mulDivRoundingUp(liquidity, diff, tickmath.Q96)
	}
	return mulDiv(liquidity, diff, tickmath.Q96)
}

// nextSqrtPriceFromAmount0 solves the ending sqrt price after adding
// (add=true) or removing (add=false) an amount of token0, rounding up so the
// price moves no further than the exact result allows.
func nextSqrtPriceFromAmount0(sqrtP, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtP), nil
	}
	numerator1 := new(big.Int).Lsh(liquidity, 96)

	if add {
		product := new(big.Int).Mul(amount, sqrtP)
		denominator := new(big.Int).Add(numerator1, product)
		return mulDivRoundingUp(numerator1, sqrtP, denominator), nil
	}

	product := new(big.Int).Mul(amount, sqrtP)
	denominator := new(big.Int).Sub(numerator1, product)
	if denominator.Sign() <= 0 {
		return nil, fmt.Errorf("%w: token0 output exceeds reserves", ErrInsufficientLiquidity)
	}
	next := mulDivRoundingUp(numerator1, sqrtP, denominator)
	if next.Cmp(maxUint160) > 0 {
		return nil, fmt.Errorf("%w: next sqrt price exceeds 160 bits", tickmath.ErrPriceOverflow)
	}
	return next, nil
}

// nextSqrtPriceFromAmount1 solves the ending sqrt price after adding or
// removing an amount of token1, rounding down.
func nextSqrtPriceFromAmount1(sqrtP, liquidity, amount *big.Int, add bool) (*big.Int, error) {
	if add {
		quotient := new(big.Int).Lsh(amount, 96)
		quotient.Div(quotient, liquidity)
		next := quotient.Add(quotient, sqrtP)
		if next.Cmp(maxUint160) > 0 {
			return nil, fmt.Errorf("%w: next sqrt price exceeds 160 bits", tickmath.ErrPriceOverflow)
		}
		return next, nil
	}

	quotient := mulDivRoundingUp(new(big.Int).Lsh(amount, 96), bigOne, liquidity)
	next := new(big.Int).Sub(sqrtP, quotient)
	if next.Sign() <= 0 {
		return nil, fmt.Errorf("%w: token1 output exceeds reserves", ErrInsufficientLiquidity)
	}
	return next, nil
}

// nextSqrtPriceFromInput returns the price after consuming an exact input
// amount, net of fees. zeroForOne moves the price down.
func nextSqrtPriceFromInput(sqrtP, liquidity, amountIn *big.Int, zeroForOne bool) (*big.Int, error) {
	if zeroForOne {
		return nextSqrtPriceFromAmount0(sqrtP, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1(sqrtP, liquidity, amountIn, true)
}

// nextSqrtPriceFromOutput returns the price after producing an exact output
// amount.
func nextSqrtPriceFromOutput(sqrtP, liquidity, amountOut *big.Int, zeroForOne bool) (*big.Int, error) {
	if zeroForOne {
		return nextSqrtPriceFromAmount1(sqrtP, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0(sqrtP, liquidity, amountOut, false)
}
