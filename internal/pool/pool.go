// Package pool holds the immutable, validated snapshot of a pool that one
// quote is computed against. A snapshot is never mutated; quoting against
// fresh prices means building a new one.
package pool

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"poolquote/internal/tickdata"
	"poolquote/internal/tickmath"
)

// ErrInconsistentPoolState marks a snapshot whose price, tick, and liquidity
// fields do not agree with each other.
var ErrInconsistentPoolState = errors.New("inconsistent pool state")

// Config carries the raw fields fetched from chain data.
type Config struct {
	Token0       common.Address
	Token1       common.Address
	Fee          uint32 // parts per million
	TickSpacing  int32
	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int
	Ticks        *tickdata.Set
}

// State is a validated, immutable pool snapshot.
type State struct {
	token0       common.Address
	token1       common.Address
	fee          uint32
	tickSpacing  int32
	sqrtPriceX96 *big.Int
	tick         int32
	liquidity    *big.Int
	ticks        *tickdata.Set
}

// New validates a snapshot. The current tick must be the one whose range
// contains the sqrt price, and over a complete tick set the active liquidity
// must equal the cumulative net liquidity at or below the current tick.
func New(cfg Config) (*State, error) {
	if bytes.Compare(cfg.Token0.Bytes(), cfg.Token1.Bytes()) >= 0 {
		return nil, fmt.Errorf("%w: tokens not ordered: %s >= %s", ErrInconsistentPoolState, cfg.Token0.Hex(), cfg.Token1.Hex())
	}
	if cfg.Fee >= 1_000_000 {
		return nil, fmt.Errorf("%w: fee %d ppm", ErrInconsistentPoolState, cfg.Fee)
	}
	if cfg.TickSpacing <= 0 {
		return nil, fmt.Errorf("%w: tick spacing %d", ErrInconsistentPoolState, cfg.TickSpacing)
	}
	if cfg.Ticks == nil {
		return nil, fmt.Errorf("%w: missing tick set", ErrInconsistentPoolState)
	}
	if cfg.Liquidity == nil || cfg.Liquidity.Sign() < 0 {
		return nil, fmt.Errorf("%w: liquidity %v", ErrInconsistentPoolState, cfg.Liquidity)
	}
	if err := tickmath.CheckSqrtPrice(cfg.SqrtPriceX96); err != nil {
		return nil, err
	}

	lower, err := tickmath.SqrtRatioAtTick(cfg.Tick)
	if err != nil {
		return nil, err
	}
	if cfg.SqrtPriceX96.Cmp(lower) < 0 {
		return nil, fmt.Errorf("%w: sqrt price %s below tick %d", ErrInconsistentPoolState, cfg.SqrtPriceX96, cfg.Tick)
	}
	if cfg.Tick < tickmath.MaxTick {
		upper, err := tickmath.SqrtRatioAtTick(cfg.Tick + 1)
		if err != nil {
			return nil, err
		}
		if cfg.SqrtPriceX96.Cmp(upper) >= 0 {
			return nil, fmt.Errorf("%w: sqrt price %s past tick %d", ErrInconsistentPoolState, cfg.SqrtPriceX96, cfg.Tick)
		}
	}

	if cfg.Ticks.Complete() {
		if net := cfg.Ticks.NetBelow(cfg.Tick); net.Cmp(cfg.Liquidity) != 0 {
			return nil, fmt.Errorf("%w: liquidity %s but ticks at or below %d sum to %s", ErrInconsistentPoolState, cfg.Liquidity, cfg.Tick, net)
		}
	}

	return &State{
		token0:       cfg.Token0,
		token1:       cfg.Token1,
		fee:          cfg.Fee,
		tickSpacing:  cfg.TickSpacing,
		sqrtPriceX96: new(big.Int).Set(cfg.SqrtPriceX96),
		tick:         cfg.Tick,
		liquidity:    new(big.Int).Set(cfg.Liquidity),
		ticks:        cfg.Ticks,
	}, nil
}

func (s *State) Token0() common.Address { return s.token0 }
func (s *State) Token1() common.Address { return s.token1 }
func (s *State) Fee() uint32            { return s.fee }
func (s *State) TickSpacing() int32     { return s.tickSpacing }
func (s *State) Tick() int32            { return s.tick }
func (s *State) Ticks() *tickdata.Set   { return s.ticks }

// SqrtPriceX96 returns a copy of the snapshot price.
func (s *State) SqrtPriceX96() *big.Int { return new(big.Int).Set(s.sqrtPriceX96) }

// Liquidity returns a copy of the active liquidity.
func (s *State) Liquidity() *big.Int { return new(big.Int).Set(s.liquidity) }
