package quote

import (
	"errors"
	"math/big"
	"testing"

	"poolquote/internal/swap"
)

func fakeResult(in, out int64) *swap.Result {
	return &swap.Result{
		AmountIn:        big.NewInt(in),
		AmountOut:       big.NewInt(out),
		FeeAmount:       big.NewInt(3),
		EndSqrtPriceX96: big.NewInt(1 << 30),
		EndTick:         42,
		CrossedTicks:    []int32{100},
	}
}

func TestBuildExactInputFloorsMinOut(t *testing.T) {
	req := swap.ExactInput(swap.SellToken0, big.NewInt(1_000_000))
	q, err := Build(req, fakeResult(1_000_000, 1_000_000), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MinAmountOut.Int64() != 995_000 {
		t.Fatalf("min out = %s, want 995000", q.MinAmountOut)
	}
	if q.MaxAmountIn != nil {
		t.Fatalf("max in should be unset for exact input")
	}

	// 7 bps of 999 floors: 999 * 9993 / 10000 = 998.30...
	q, err = Build(req, fakeResult(1_000_000, 999), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MinAmountOut.Int64() != 998 {
		t.Fatalf("min out = %s, want 998", q.MinAmountOut)
	}
}

func TestBuildExactOutputCeilsMaxIn(t *testing.T) {
	req := swap.ExactOutput(swap.SellToken1, big.NewInt(500))
	q, err := Build(req, fakeResult(999, 500), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 999 * 10007 / 10000 = 999.69... ceils to 1000.
	if q.MaxAmountIn.Int64() != 1000 {
		t.Fatalf("max in = %s, want 1000", q.MaxAmountIn)
	}
	if q.MinAmountOut != nil {
		t.Fatalf("min out should be unset for exact output")
	}
}

func TestBuildZeroSlippageIsIdentity(t *testing.T) {
	req := swap.ExactInput(swap.SellToken0, big.NewInt(123))
	res := fakeResult(123, 456)
	q, err := Build(req, res, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MinAmountOut.Cmp(res.AmountOut) != 0 {
		t.Fatalf("zero slippage min out = %s, want %s", q.MinAmountOut, res.AmountOut)
	}

	req = swap.ExactOutput(swap.SellToken0, big.NewInt(456))
	q, err = Build(req, res, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MaxAmountIn.Cmp(res.AmountIn) != 0 {
		t.Fatalf("zero slippage max in = %s, want %s", q.MaxAmountIn, res.AmountIn)
	}
}

func TestBuildRejectsBadSlippage(t *testing.T) {
	req := swap.ExactInput(swap.SellToken0, big.NewInt(1))
	if _, err := Build(req, fakeResult(1, 1), -1); !errors.Is(err, ErrInvalidSlippage) {
		t.Fatalf("expected ErrInvalidSlippage, got %v", err)
	}
	// Over 100% would push the minimum output below zero.
	if _, err := Build(req, fakeResult(1, 1), 10_001); !errors.Is(err, ErrInvalidSlippage) {
		t.Fatalf("expected ErrInvalidSlippage, got %v", err)
	}

	out := swap.ExactOutput(swap.SellToken0, big.NewInt(1))
	if _, err := Build(out, fakeResult(1, 1), -1); !errors.Is(err, ErrInvalidSlippage) {
		t.Fatalf("expected ErrInvalidSlippage, got %v", err)
	}
}

func TestBuildAllowsWideMaxInTolerance(t *testing.T) {
	// A caller willing to pay more than 2x: 1000 * 25000 / 10000 = 2500.
	req := swap.ExactOutput(swap.SellToken1, big.NewInt(500))
	q, err := Build(req, fakeResult(1000, 500), 15_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.MaxAmountIn.Int64() != 2500 {
		t.Fatalf("max in = %s, want 2500", q.MaxAmountIn)
	}
}

func TestBuildCopiesResult(t *testing.T) {
	req := swap.ExactInput(swap.SellToken0, big.NewInt(1))
	res := fakeResult(100, 200)
	q, err := Build(req, res, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res.AmountOut.SetInt64(0)
	res.CrossedTicks[0] = -1
	if q.AmountOut.Int64() != 200 || q.CrossedTicks[0] != 100 {
		t.Fatalf("quote aliases the simulation result")
	}
}
