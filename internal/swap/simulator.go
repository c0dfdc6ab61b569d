// Package swap walks a validated pool snapshot tick by tick to price a
// hypothetical trade without touching the chain.
package swap

import (
	"errors"
	"fmt"
	"math/big"

	"poolquote/internal/pool"
	"poolquote/internal/tickdata"
	"poolquote/internal/tickmath"
)

// ErrInsufficientLiquidity means the loaded tick range ran out before the
// requested amount was fully consumed. The partial result is still returned
// so callers can decide whether to retry with a wider tick window.
var ErrInsufficientLiquidity = errors.New("insufficient liquidity")

// Direction names which token is being sold into the pool.
type Direction int

const (
	// SellToken0 trades token0 for token1 and moves the price down.
	SellToken0 Direction = iota
	// SellToken1 trades token1 for token0 and moves the price up.
	SellToken1
)

func (d Direction) String() string {
	if d == SellToken0 {
		return "sell-token0"
	}
	return "sell-token1"
}

// Request describes one trade to simulate. Exactly one of the amount fields
// is set, depending on which constructor built it.
type Request struct {
	Direction Direction
	AmountIn  *big.Int
	AmountOut *big.Int
}

// ExactInput builds a request that spends exactly amount of the sold token.
func ExactInput(direction Direction, amount *big.Int) Request {
	return Request{Direction: direction, AmountIn: amount}
}

// ExactOutput builds a request that receives exactly amount of the bought token.
func ExactOutput(direction Direction, amount *big.Int) Request {
	return Request{Direction: direction, AmountOut: amount}
}

func (r Request) validate() error {
	if r.Direction != SellToken0 && r.Direction != SellToken1 {
		return fmt.Errorf("unknown direction %d", r.Direction)
	}
	if (r.AmountIn == nil) == (r.AmountOut == nil) {
		return fmt.Errorf("exactly one of amount in or amount out must be set")
	}
	amount := r.AmountIn
	if amount == nil {
		amount = r.AmountOut
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	return nil
}

// Result is the outcome of a simulated swap. AmountIn includes FeeAmount.
type Result struct {
	AmountIn        *big.Int
	AmountOut       *big.Int
	FeeAmount       *big.Int
	EndSqrtPriceX96 *big.Int
	EndTick         int32
	EndLiquidity    *big.Int
	Steps           int
	CrossedTicks    []int32
}

// Simulate walks the snapshot's tick data segment by segment until the
// requested amount is consumed or the loaded range is exhausted. On
// ErrInsufficientLiquidity the partial result is returned alongside the error.
func Simulate(state *pool.State, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	exactIn := req.AmountIn != nil
	zeroForOne := req.Direction == SellToken0

	remaining := new(big.Int)
	if exactIn {
		remaining.Set(req.AmountIn)
	} else {
		remaining.Set(req.AmountOut)
	}

	limit := new(big.Int).Add(tickmath.MinSqrtRatio, bigOne)
	if !zeroForOne {
		limit = new(big.Int).Sub(tickmath.MaxSqrtRatio, bigOne)
	}

	res := &Result{
		AmountIn:        new(big.Int),
		AmountOut:       new(big.Int),
		FeeAmount:       new(big.Int),
		EndSqrtPriceX96: state.SqrtPriceX96(),
		EndTick:         state.Tick(),
		EndLiquidity:    state.Liquidity(),
	}
	ticks := state.Ticks()

	for remaining.Sign() > 0 && !limitReached(res.EndSqrtPriceX96, limit, zeroForOne) {
		var (
			nextTick tickdata.Tick
			haveTick bool
		)
		if zeroForOne {
			nextTick, haveTick = ticks.NextInitialized(res.EndTick+1, false)
		} else {
			nextTick, haveTick = ticks.NextInitialized(res.EndTick, true)
		}

		target := limit
		if haveTick {
			ratio, err := tickmath.SqrtRatioAtTick(nextTick.Index)
			if err != nil {
				return res, err
			}
			// Never step past the hard price bound.
			if zeroForOne && ratio.Cmp(limit) < 0 || !zeroForOne && ratio.Cmp(limit) > 0 {
				haveTick = false
			} else {
				target = ratio
			}
		}

		if res.EndLiquidity.Sign() == 0 {
			// Empty range: the price slides to the boundary for free.
			if !haveTick {
				break
			}
			res.EndSqrtPriceX96.Set(target)
			if err := crossTick(res, nextTick, zeroForOne); err != nil {
				return res, err
			}
			continue
		}

		step, err := computeSwapStep(res.EndSqrtPriceX96, target, res.EndLiquidity, remaining, state.Fee(), exactIn)
		if err != nil {
			return res, err
		}
		res.Steps++
		res.EndSqrtPriceX96 = step.sqrtPriceNext
		res.AmountIn.Add(res.AmountIn, step.amountIn)
		res.AmountIn.Add(res.AmountIn, step.feeAmount)
		res.AmountOut.Add(res.AmountOut, step.amountOut)
		res.FeeAmount.Add(res.FeeAmount, step.feeAmount)

		if exactIn {
			remaining.Sub(remaining, step.amountIn)
			remaining.Sub(remaining, step.feeAmount)
		} else {
			remaining.Sub(remaining, step.amountOut)
		}

		switch {
		case haveTick && res.EndSqrtPriceX96.Cmp(target) == 0:
			if err := crossTick(res, nextTick, zeroForOne); err != nil {
				return res, err
			}
		default:
			endTick, err := tickmath.TickAtSqrtRatio(res.EndSqrtPriceX96)
			if err != nil {
				return res, err
			}
			res.EndTick = endTick
		}
	}

	if remaining.Sign() > 0 {
		return res, fmt.Errorf("%w: %s left unfilled after %d steps", ErrInsufficientLiquidity, remaining, res.Steps)
	}
	return res, nil
}

func limitReached(price, limit *big.Int, zeroForOne bool) bool {
	if zeroForOne {
		return price.Cmp(limit) <= 0
	}
	return price.Cmp(limit) >= 0
}

// crossTick applies a boundary's net liquidity and moves the current tick
// into the adjacent range.
func crossTick(res *Result, t tickdata.Tick, zeroForOne bool) error {
	if zeroForOne {
		res.EndLiquidity.Sub(res.EndLiquidity, t.LiquidityNet)
		res.EndTick = t.Index - 1
	} else {
		res.EndLiquidity.Add(res.EndLiquidity, t.LiquidityNet)
		res.EndTick = t.Index
	}
	if res.EndLiquidity.Sign() < 0 {
		return fmt.Errorf("%w: liquidity underflow crossing tick %d", tickdata.ErrInvalidTickData, t.Index)
	}
	res.CrossedTicks = append(res.CrossedTicks, t.Index)
	return nil
}
