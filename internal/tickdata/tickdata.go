// Package tickdata models the initialized ticks a swap may traverse, assembled
// from one or more fetched bitmap words and ordered by tick index.
package tickdata

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

// ErrInvalidTickData marks a malformed or inconsistent tick set. It is never
// auto-corrected: silently fixing tick data could misprice a trade.
var ErrInvalidTickData = errors.New("invalid tick data")

// Tick is one initialized tick.
type Tick struct {
	// Index is the tick index, always a multiple of the pool's tick spacing.
	Index int32
	// LiquidityNet is the signed liquidity delta applied when price crosses
	// this tick moving upward; its negation applies moving downward.
	LiquidityNet *big.Int
	// LiquidityGross is the total liquidity referencing this tick. It is not
	// consumed by the swap math but distinguishes initialized ticks from
	// placeholders.
	LiquidityGross *big.Int
}

// Set is an immutable, ordered collection of initialized ticks.
type Set struct {
	ticks    []Tick
	complete bool
}

// Option configures Set construction.
type Option func(*Set)

// Complete marks the set as covering the pool's full tick range, enabling the
// net-sum-zero consistency check.
func Complete() Option {
	return func(s *Set) { s.complete = true }
}

// NewSet validates and assembles a tick set. Ticks must arrive strictly
// ascending by index; duplicates, unsorted input, misaligned indices, or
// non-positive gross liquidity fail with ErrInvalidTickData rather than being
// silently corrected.
func NewSet(ticks []Tick, tickSpacing int32, opts ...Option) (*Set, error) {
	if tickSpacing <= 0 {
		return nil, fmt.Errorf("%w: tick spacing %d", ErrInvalidTickData, tickSpacing)
	}

	owned := make([]Tick, len(ticks))
	copy(owned, ticks)

	for i, tick := range owned {
		if tick.Index%tickSpacing != 0 {
			return nil, fmt.Errorf("%w: tick %d not aligned to spacing %d", ErrInvalidTickData, tick.Index, tickSpacing)
		}
		if tick.LiquidityGross == nil || tick.LiquidityGross.Sign() <= 0 {
			return nil, fmt.Errorf("%w: tick %d has no gross liquidity", ErrInvalidTickData, tick.Index)
		}
		if tick.LiquidityNet == nil {
			return nil, fmt.Errorf("%w: tick %d missing net liquidity", ErrInvalidTickData, tick.Index)
		}
		if i > 0 && owned[i-1].Index >= tick.Index {
			return nil, fmt.Errorf("%w: ticks not strictly ascending at index %d", ErrInvalidTickData, tick.Index)
		}
	}

	s := &Set{ticks: owned}
	for _, opt := range opts {
		opt(s)
	}

	if s.complete {
		sum := new(big.Int)
		for _, tick := range owned {
			sum.Add(sum, tick.LiquidityNet)
		}
		if sum.Sign() != 0 {
			return nil, fmt.Errorf("%w: net liquidity sums to %s over a complete range", ErrInvalidTickData, sum)
		}
	}

	return s, nil
}

// Len returns the number of ticks in the set.
func (s *Set) Len() int { return len(s.ticks) }

// Complete reports whether the set covers the pool's full tick range.
func (s *Set) Complete() bool { return s.complete }

// All returns the ticks in ascending index order. The slice is shared; callers
// must not mutate it.
func (s *Set) All() []Tick { return s.ticks }

// NextInitialized returns the next tick strictly past from in the given
// direction, or false when the set's known range is exhausted. Lookup is a
// binary search over the sorted sequence.
func (s *Set) NextInitialized(from int32, up bool) (Tick, bool) {
	if up {
		i := sort.Search(len(s.ticks), func(i int) bool { return s.ticks[i].Index > from })
		if i == len(s.ticks) {
			return Tick{}, false
		}
		return s.ticks[i], true
	}

	i := sort.Search(len(s.ticks), func(i int) bool { return s.ticks[i].Index >= from })
	if i == 0 {
		return Tick{}, false
	}
	return s.ticks[i-1], true
}

// NetBelow sums LiquidityNet over all ticks with index <= tick. Over a
// complete set this reconstructs the active liquidity at that tick.
func (s *Set) NetBelow(tick int32) *big.Int {
	sum := new(big.Int)
	for _, t := range s.ticks {
		if t.Index > tick {
			break
		}
		sum.Add(sum, t.LiquidityNet)
	}
	return sum
}

// Span returns the lowest and highest tick indices in the set, or false when
// the set is empty.
func (s *Set) Span() (low, high int32, ok bool) {
	if len(s.ticks) == 0 {
		return 0, 0, false
	}
	return s.ticks[0].Index, s.ticks[len(s.ticks)-1].Index, true
}
