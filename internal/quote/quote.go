// Package quote turns a raw simulation result into an executable quote with
// slippage bounds applied.
package quote

import (
	"errors"
	"fmt"
	"math/big"

	"poolquote/internal/swap"
)

// ErrInvalidSlippage marks a negative slippage tolerance, or one past 10000
// bps on the minimum-output side where it would bound below zero.
var ErrInvalidSlippage = errors.New("invalid slippage")

const bpsDenom = 10_000

// Quote is a priced trade with worst-case bounds a caller can submit against.
// For exact input MinAmountOut is set; for exact output MaxAmountIn is set.
type Quote struct {
	Direction   swap.Direction
	ExactInput  bool
	AmountIn    *big.Int
	AmountOut   *big.Int
	FeeAmount   *big.Int
	SlippageBps int32

	MinAmountOut *big.Int
	MaxAmountIn  *big.Int

	EndSqrtPriceX96 *big.Int
	EndTick         int32
	CrossedTicks    []int32
}

// Build applies a slippage tolerance in basis points to a simulation result.
// The protected side rounds against the caller: minimum output floors,
// maximum input ceils. Zero slippage reproduces the simulated amounts
// unchanged.
func Build(req swap.Request, res *swap.Result, slippageBps int32) (*Quote, error) {
	if slippageBps < 0 {
		return nil, fmt.Errorf("%w: %d bps", ErrInvalidSlippage, slippageBps)
	}
	// A maximum-input bound above 2x is unusual but meaningful; a negative
	// minimum output is not.
	if req.AmountIn != nil && slippageBps > bpsDenom {
		return nil, fmt.Errorf("%w: %d bps exceeds the full output", ErrInvalidSlippage, slippageBps)
	}
	if res == nil {
		return nil, fmt.Errorf("nil simulation result")
	}

	q := &Quote{
		Direction:       req.Direction,
		ExactInput:      req.AmountIn != nil,
		AmountIn:        new(big.Int).Set(res.AmountIn),
		AmountOut:       new(big.Int).Set(res.AmountOut),
		FeeAmount:       new(big.Int).Set(res.FeeAmount),
		SlippageBps:     slippageBps,
		EndSqrtPriceX96: new(big.Int).Set(res.EndSqrtPriceX96),
		EndTick:         res.EndTick,
		CrossedTicks:    append([]int32(nil), res.CrossedTicks...),
	}

	bps := big.NewInt(int64(slippageBps))
	denom := big.NewInt(bpsDenom)

	if q.ExactInput {
		// floor(out * (10000 - bps) / 10000)
		minOut := new(big.Int).Mul(q.AmountOut, new(big.Int).Sub(denom, bps))
		q.MinAmountOut = minOut.Div(minOut, denom)
	} else {
		// ceil(in * (10000 + bps) / 10000)
		maxIn := new(big.Int).Mul(q.AmountIn, new(big.Int).Add(denom, bps))
		maxIn, rem := maxIn.QuoRem(maxIn, denom, new(big.Int))
		if rem.Sign() != 0 {
			maxIn.Add(maxIn, big.NewInt(1))
		}
		q.MaxAmountIn = maxIn
	}
	return q, nil
}
