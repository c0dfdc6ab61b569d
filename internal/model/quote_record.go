package model

import "time"

// QuoteRecord is one persisted quote. Amounts are decimal strings.
type QuoteRecord struct {
	ChainID       uint64    `json:"chain_id"`
	PoolAddress   string    `json:"pool_address"`
	Block         uint64    `json:"block"`
	BlockTime     uint64    `json:"block_time"`
	Direction     string    `json:"direction"`
	ExactInput    bool      `json:"exact_input"`
	RequestAmount string    `json:"request_amount"`
	AmountIn      string    `json:"amount_in"`
	AmountOut     string    `json:"amount_out"`
	FeeAmount     string    `json:"fee_amount"`
	SlippageBps   int32     `json:"slippage_bps"`
	MinAmountOut  string    `json:"min_amount_out,omitempty"`
	MaxAmountIn   string    `json:"max_amount_in,omitempty"`
	EndSqrtPrice  string    `json:"end_sqrt_price_x96"`
	EndTick       int32     `json:"end_tick"`
	Steps         int       `json:"steps"`
	CrossedTicks  []int32   `json:"crossed_ticks,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
