package model

// TickRecord is one initialized tick inside a snapshot. Liquidity values are
// decimal strings so JSON round-trips never lose precision.
type TickRecord struct {
	Index          int32  `json:"index"`
	LiquidityNet   string `json:"liquidity_net"`
	LiquidityGross string `json:"liquidity_gross"`
}

// PoolSnapshot is a pool's state pinned at one block, as fetched from chain
// or loaded back from disk for offline simulation.
type PoolSnapshot struct {
	ChainID      uint64       `json:"chain_id"`
	Address      string       `json:"address"`
	Block        uint64       `json:"block"`
	BlockTime    uint64       `json:"block_time"`
	Token0       string       `json:"token0"`
	Token1       string       `json:"token1"`
	Fee          uint32       `json:"fee"`
	TickSpacing  int32        `json:"tick_spacing"`
	SqrtPriceX96 string       `json:"sqrt_price_x96"`
	Tick         int32        `json:"tick"`
	Liquidity    string       `json:"liquidity"`
	Ticks        []TickRecord `json:"ticks"`
	Complete     bool         `json:"complete"`

	Token0Meta *TokenMeta `json:"token0_meta,omitempty"`
	Token1Meta *TokenMeta `json:"token1_meta,omitempty"`
}

// TokenMeta is the ERC20 metadata attached to a snapshot's pair.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
