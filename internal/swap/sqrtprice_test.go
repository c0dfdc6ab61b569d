package swap

import (
	"math/big"
	"testing"

	"poolquote/internal/tickmath"
)

func TestNextSqrtPriceFromInputToken0(t *testing.T) {
	liquidity := big.NewInt(1_000_000)
	sqrtP := new(big.Int).Set(tickmath.Q96)
	amount := big.NewInt(99_700)

	next, err := nextSqrtPriceFromInput(sqrtP, liquidity, amount, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// ceil(L<<96 * sqrtP / (L<<96 + amount*sqrtP)) at price 1 reduces to
	// ceil(L * 2^96 / (L + amount)).
	want, _ := new(big.Int).SetString("72045250990510446115798809072", 10)
	if next.Cmp(want) != 0 {
		t.Fatalf("next sqrt price = %s, want %s", next, want)
	}
	if next.Cmp(sqrtP) >= 0 {
		t.Fatalf("selling token0 must move the price down: %s >= %s", next, sqrtP)
	}

	// Rounding up the price means the consumed amount never exceeds the input.
	consumed := amount0Delta(next, sqrtP, liquidity, true)
	if consumed.Cmp(amount) > 0 {
		t.Fatalf("consumed %s exceeds input %s", consumed, amount)
	}
}

func TestNextSqrtPriceFromInputToken1(t *testing.T) {
	liquidity := big.NewInt(1_000_000)
	sqrtP := new(big.Int).Set(tickmath.Q96)
	amount := big.NewInt(50_000)

	next, err := nextSqrtPriceFromInput(sqrtP, liquidity, amount, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// price + amount<<96/L, exact at these values.
	want := new(big.Int).Add(sqrtP, new(big.Int).Div(new(big.Int).Lsh(amount, 96), liquidity))
	if next.Cmp(want) != 0 {
		t.Fatalf("next sqrt price = %s, want %s", next, want)
	}
	if next.Cmp(sqrtP) <= 0 {
		t.Fatalf("selling token1 must move the price up: %s <= %s", next, sqrtP)
	}
}
