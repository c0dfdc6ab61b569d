package swap

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"poolquote/internal/pool"
	"poolquote/internal/tickdata"
	"poolquote/internal/tickmath"
)

var (
	testToken0 = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testToken1 = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

// testPool builds a snapshot priced at tick 0 with 1,000,000 active liquidity
// and a single initialized tick at 100 that drops half of it.
func testPool(t *testing.T, fee uint32) *pool.State {
	t.Helper()
	ticks, err := tickdata.NewSet([]tickdata.Tick{
		{Index: 100, LiquidityNet: big.NewInt(-500_000), LiquidityGross: big.NewInt(500_000)},
	}, 10)
	if err != nil {
		t.Fatalf("tick set: %v", err)
	}
	price, err := tickmath.SqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("sqrt ratio: %v", err)
	}
	state, err := pool.New(pool.Config{
		Token0:       testToken0,
		Token1:       testToken1,
		Fee:          fee,
		TickSpacing:  10,
		SqrtPriceX96: price,
		Tick:         0,
		Liquidity:    big.NewInt(1_000_000),
		Ticks:        ticks,
	})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	return state
}

func TestSimulateExactInputCrossesTick(t *testing.T) {
	state := testPool(t, 3000)

	res, err := Simulate(state, ExactInput(SellToken1, big.NewInt(100_000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Steps != 2 {
		t.Fatalf("steps = %d, want 2", res.Steps)
	}
	if len(res.CrossedTicks) != 1 || res.CrossedTicks[0] != 100 {
		t.Fatalf("crossed ticks = %v, want [100]", res.CrossedTicks)
	}
	if res.EndLiquidity.Int64() != 500_000 {
		t.Fatalf("end liquidity = %s, want 500000", res.EndLiquidity)
	}
	if res.EndTick <= 100 {
		t.Fatalf("end tick = %d, want > 100", res.EndTick)
	}
	// Exact input consumes the request to the last unit, fees included.
	if res.AmountIn.Int64() != 100_000 {
		t.Fatalf("amount in = %s, want 100000", res.AmountIn)
	}
	if res.FeeAmount.Sign() <= 0 {
		t.Fatalf("fee = %s, want positive", res.FeeAmount)
	}
	if res.AmountOut.Sign() <= 0 {
		t.Fatalf("amount out = %s, want positive", res.AmountOut)
	}
	if res.AmountOut.Cmp(res.AmountIn) >= 0 {
		t.Fatalf("near price 1 output %s should trail input %s", res.AmountOut, res.AmountIn)
	}
}

func TestSimulateExactInputWithinRange(t *testing.T) {
	state := testPool(t, 3000)

	// Selling token0 moves the price down, away from the only initialized
	// tick, so the whole trade settles in one segment.
	res, err := Simulate(state, ExactInput(SellToken0, big.NewInt(100_000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Steps != 1 {
		t.Fatalf("steps = %d, want 1", res.Steps)
	}
	if len(res.CrossedTicks) != 0 {
		t.Fatalf("crossed ticks = %v, want none", res.CrossedTicks)
	}
	if res.EndTick >= 0 {
		t.Fatalf("end tick = %d, want < 0", res.EndTick)
	}
	if res.EndLiquidity.Int64() != 1_000_000 {
		t.Fatalf("end liquidity = %s, want unchanged", res.EndLiquidity)
	}
	if res.AmountIn.Int64() != 100_000 {
		t.Fatalf("amount in = %s, want 100000", res.AmountIn)
	}
}

func TestSimulateExactOutputExact(t *testing.T) {
	state := testPool(t, 3000)

	res, err := Simulate(state, ExactOutput(SellToken1, big.NewInt(3_000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AmountOut.Int64() != 3_000 {
		t.Fatalf("amount out = %s, want exactly 3000", res.AmountOut)
	}
	if res.AmountIn.Cmp(res.AmountOut) <= 0 {
		t.Fatalf("amount in %s should exceed amount out %s at price ~1 plus fees", res.AmountIn, res.AmountOut)
	}
	if res.FeeAmount.Sign() <= 0 {
		t.Fatalf("fee = %s, want positive", res.FeeAmount)
	}
}

func TestSimulateExactOutputInsufficientLiquidity(t *testing.T) {
	state := testPool(t, 3000)

	res, err := Simulate(state, ExactOutput(SellToken1, big.NewInt(10_000_000)))
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if res == nil {
		t.Fatalf("partial result missing")
	}
	if res.AmountOut.Sign() <= 0 || res.AmountOut.Int64() >= 10_000_000 {
		t.Fatalf("partial amount out = %s, want positive and below request", res.AmountOut)
	}
	if len(res.CrossedTicks) != 1 || res.CrossedTicks[0] != 100 {
		t.Fatalf("crossed ticks = %v, want [100]", res.CrossedTicks)
	}
}

func TestSimulateZeroFee(t *testing.T) {
	state := testPool(t, 0)

	res, err := Simulate(state, ExactInput(SellToken1, big.NewInt(50_000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FeeAmount.Sign() != 0 {
		t.Fatalf("fee = %s, want 0", res.FeeAmount)
	}
	if res.AmountIn.Int64() != 50_000 {
		t.Fatalf("amount in = %s, want 50000", res.AmountIn)
	}
}

func TestSimulateFeeReducesOutput(t *testing.T) {
	free, err := Simulate(testPool(t, 0), ExactInput(SellToken1, big.NewInt(50_000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	taxed, err := Simulate(testPool(t, 3000), ExactInput(SellToken1, big.NewInt(50_000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taxed.AmountOut.Cmp(free.AmountOut) >= 0 {
		t.Fatalf("fee did not reduce output: %s >= %s", taxed.AmountOut, free.AmountOut)
	}
}

func TestSimulateZeroLiquiditySegment(t *testing.T) {
	ticks, err := tickdata.NewSet([]tickdata.Tick{
		{Index: 100, LiquidityNet: big.NewInt(500_000), LiquidityGross: big.NewInt(500_000)},
	}, 10)
	if err != nil {
		t.Fatalf("tick set: %v", err)
	}
	price, err := tickmath.SqrtRatioAtTick(0)
	if err != nil {
		t.Fatalf("sqrt ratio: %v", err)
	}
	state, err := pool.New(pool.Config{
		Token0:       testToken0,
		Token1:       testToken1,
		Fee:          3000,
		TickSpacing:  10,
		SqrtPriceX96: price,
		Tick:         0,
		Liquidity:    big.NewInt(0),
		Ticks:        ticks,
	})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}

	// The price slides through the empty range for free and trades in the
	// range that begins at tick 100.
	res, err := Simulate(state, ExactInput(SellToken1, big.NewInt(10_000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Steps != 1 {
		t.Fatalf("steps = %d, want 1", res.Steps)
	}
	if len(res.CrossedTicks) != 1 || res.CrossedTicks[0] != 100 {
		t.Fatalf("crossed ticks = %v, want [100]", res.CrossedTicks)
	}
	if res.EndLiquidity.Int64() != 500_000 {
		t.Fatalf("end liquidity = %s, want 500000", res.EndLiquidity)
	}
	if res.EndTick < 100 {
		t.Fatalf("end tick = %d, want >= 100", res.EndTick)
	}
}

func TestSimulateRejectsBadRequest(t *testing.T) {
	state := testPool(t, 3000)

	cases := []struct {
		name string
		req  Request
	}{
		{"no amount", Request{Direction: SellToken0}},
		{"both amounts", Request{Direction: SellToken0, AmountIn: big.NewInt(1), AmountOut: big.NewInt(1)}},
		{"zero amount", ExactInput(SellToken0, big.NewInt(0))},
		{"negative amount", ExactOutput(SellToken1, big.NewInt(-5))},
		{"bad direction", Request{Direction: Direction(7), AmountIn: big.NewInt(1)}},
	}
	for _, tc := range cases {
		if _, err := Simulate(state, tc.req); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
