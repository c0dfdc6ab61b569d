package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"poolquote/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.jsonl")
	s := NewJsonlStorage(path)

	first := model.QuoteRecord{
		ChainID:     1,
		PoolAddress: "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8",
		Block:       100,
		Direction:   "sell-token0",
		AmountIn:    "1000",
		AmountOut:   "997",
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
	}
	second := first
	second.Block = 101

	if err := s.PutQuotes(context.Background(), []model.QuoteRecord{first}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.PutQuotes(context.Background(), []model.QuoteRecord{second}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.QuoteRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.QuoteRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 || got[0].Block != 100 || got[1].Block != 101 {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "pool.json")
	snap := &model.PoolSnapshot{
		ChainID:      56,
		Address:      "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8",
		Block:        123,
		Token0:       "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Token1:       "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		Fee:          3000,
		TickSpacing:  10,
		SqrtPriceX96: "79228162514264337593543950336",
		Tick:         0,
		Liquidity:    "1000000",
		Ticks: []model.TickRecord{
			{Index: 100, LiquidityNet: "-500000", LiquidityGross: "500000"},
		},
	}

	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Address != snap.Address || got.Liquidity != snap.Liquidity || len(got.Ticks) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Ticks[0].LiquidityNet != "-500000" {
		t.Fatalf("tick mismatch: %+v", got.Ticks[0])
	}
}
