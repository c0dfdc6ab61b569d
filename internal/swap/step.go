package swap

import "math/big"

// stepResult is one constant-liquidity price move toward a target.
type stepResult struct {
	sqrtPriceNext *big.Int
	amountIn      *big.Int
	amountOut     *big.Int
	feeAmount     *big.Int
}

// computeSwapStep advances the price from sqrtPrice toward sqrtTarget within a
// single constant-liquidity segment. For exact input the fee is carved out of
// the remaining amount before any price math; for exact output the fee is
// charged on top of the computed input. Rounding always favors the pool.
func computeSwapStep(sqrtPrice, sqrtTarget, liquidity, amountRemaining *big.Int, feePips uint32, exactIn bool) (stepResult, error) {
	zeroForOne := sqrtPrice.Cmp(sqrtTarget) >= 0
	fee := big.NewInt(int64(feePips))
	feeComplement := new(big.Int).Sub(feeDenom, fee)

	var res stepResult
	var reachedTarget bool

	if exactIn {
		remainingLessFee := mulDiv(amountRemaining, feeComplement, feeDenom)
		res.amountIn = amount0Delta(sqrtTarget, sqrtPrice, liquidity, true)
		if !zeroForOne {
			res.amountIn = amount1Delta(sqrtPrice, sqrtTarget, liquidity, true)
		}
		if remainingLessFee.Cmp(res.amountIn) >= 0 {
			res.sqrtPriceNext = new(big.Int).Set(sqrtTarget)
			reachedTarget = true
		} else {
			next, err := nextSqrtPriceFromInput(sqrtPrice, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return stepResult{}, err
			}
			res.sqrtPriceNext = next
		}
	} else {
		res.amountOut = amount1Delta(sqrtTarget, sqrtPrice, liquidity, false)
		if !zeroForOne {
			res.amountOut = amount0Delta(sqrtPrice, sqrtTarget, liquidity, false)
		}
		if amountRemaining.Cmp(res.amountOut) >= 0 {
			res.sqrtPriceNext = new(big.Int).Set(sqrtTarget)
			reachedTarget = true
		} else {
			next, err := nextSqrtPriceFromOutput(sqrtPrice, liquidity, amountRemaining, zeroForOne)
			if err != nil {
				return stepResult{}, err
			}
			res.sqrtPriceNext = next
		}
	}

	if zeroForOne {
		if !(reachedTarget && exactIn) {
			res.amountIn = amount0Delta(res.sqrtPriceNext, sqrtPrice, liquidity, true)
		}
		if !(reachedTarget && !exactIn) {
			res.amountOut = amount1Delta(res.sqrtPriceNext, sqrtPrice, liquidity, false)
		}
	} else {
		if !(reachedTarget && exactIn) {
			res.amountIn = amount1Delta(sqrtPrice, res.sqrtPriceNext, liquidity, true)
		}
		if !(reachedTarget && !exactIn) {
			res.amountOut = amount0Delta(sqrtPrice, res.sqrtPriceNext, liquidity, false)
		}
	}

	// Exact output never hands back more than was asked for.
	if !exactIn && res.amountOut.Cmp(amountRemaining) > 0 {
		res.amountOut = new(big.Int).Set(amountRemaining)
	}

	if exactIn && !reachedTarget {
		// Whatever the rounding left over inside this segment is taken as fee.
		res.feeAmount = new(big.Int).Sub(amountRemaining, res.amountIn)
	} else {
		res.feeAmount = mulDivRoundingUp(res.amountIn, fee, feeComplement)
	}
	return res, nil
}
