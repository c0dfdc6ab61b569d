package tickdata

import (
	"errors"
	"math/big"
	"testing"
)

func tick(index int32, net int64) Tick {
	gross := net
	if gross < 0 {
		gross = -gross
	}
	return Tick{
		Index:          index,
		LiquidityNet:   big.NewInt(net),
		LiquidityGross: big.NewInt(gross),
	}
}

func TestNewSetValid(t *testing.T) {
	set, err := NewSet([]Tick{tick(-120, 500), tick(0, 1000), tick(60, -300)}, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("expected 3 ticks, got %d", set.Len())
	}
	low, high, ok := set.Span()
	if !ok || low != -120 || high != 60 {
		t.Fatalf("span mismatch: [%d, %d] ok=%v", low, high, ok)
	}
}

func TestNewSetRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		ticks   []Tick
		spacing int32
	}{
		{"unsorted", []Tick{tick(60, 1), tick(0, 1)}, 60},
		{"duplicate", []Tick{tick(0, 1), tick(0, 2)}, 60},
		{"misaligned", []Tick{tick(30, 1)}, 60},
		{"zero gross", []Tick{{Index: 0, LiquidityNet: big.NewInt(1), LiquidityGross: big.NewInt(0)}}, 60},
		{"nil net", []Tick{{Index: 0, LiquidityGross: big.NewInt(1)}}, 60},
		{"zero spacing", []Tick{tick(0, 1)}, 0},
	}
	for _, tc := range cases {
		if _, err := NewSet(tc.ticks, tc.spacing); !errors.Is(err, ErrInvalidTickData) {
			t.Fatalf("%s: expected ErrInvalidTickData, got %v", tc.name, err)
		}
	}
}

func TestNewSetCompleteRequiresZeroNetSum(t *testing.T) {
	balanced := []Tick{tick(-60, 1000), tick(60, -1000)}
	if _, err := NewSet(balanced, 60, Complete()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unbalanced := []Tick{tick(-60, 1000), tick(60, -999)}
	if _, err := NewSet(unbalanced, 60, Complete()); !errors.Is(err, ErrInvalidTickData) {
		t.Fatalf("expected ErrInvalidTickData, got %v", err)
	}

	// A partial window with nonzero net sum is fine.
	if _, err := NewSet(unbalanced, 60); err != nil {
		t.Fatalf("unexpected error for partial set: %v", err)
	}
}

func TestNextInitialized(t *testing.T) {
	set, err := NewSet([]Tick{tick(-120, 500), tick(0, 1000), tick(60, -300)}, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next, ok := set.NextInitialized(-1, true)
	if !ok || next.Index != 0 {
		t.Fatalf("up from -1: got %d ok=%v, want 0", next.Index, ok)
	}

	// Strictly past: sitting on an initialized tick skips it.
	next, ok = set.NextInitialized(0, true)
	if !ok || next.Index != 60 {
		t.Fatalf("up from 0: got %d ok=%v, want 60", next.Index, ok)
	}

	next, ok = set.NextInitialized(0, false)
	if !ok || next.Index != -120 {
		t.Fatalf("down from 0: got %d ok=%v, want -120", next.Index, ok)
	}

	next, ok = set.NextInitialized(1, false)
	if !ok || next.Index != 0 {
		t.Fatalf("down from 1: got %d ok=%v, want 0", next.Index, ok)
	}

	if _, ok := set.NextInitialized(60, true); ok {
		t.Fatalf("expected exhaustion above 60")
	}
	if _, ok := set.NextInitialized(-120, false); ok {
		t.Fatalf("expected exhaustion below -120")
	}
}

func TestNetBelow(t *testing.T) {
	set, err := NewSet([]Tick{tick(-120, 500), tick(0, 1000), tick(60, -300)}, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := set.NetBelow(-1); got.Int64() != 500 {
		t.Fatalf("NetBelow(-1) = %s, want 500", got)
	}
	if got := set.NetBelow(0); got.Int64() != 1500 {
		t.Fatalf("NetBelow(0) = %s, want 1500", got)
	}
	if got := set.NetBelow(1000); got.Int64() != 1200 {
		t.Fatalf("NetBelow(1000) = %s, want 1200", got)
	}
}
