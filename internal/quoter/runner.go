// Package quoter wires snapshot fetching, simulation, and persistence into
// one quote flow.
package quoter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolquote/internal/model"
	"poolquote/internal/quote"
	"poolquote/internal/storage"
	"poolquote/internal/swap"
)

// SnapshotSource produces pool snapshots. The chain-backed reader implements
// it; tests substitute their own.
type SnapshotSource interface {
	Snapshot(ctx context.Context, pool common.Address, wordRadius int32, blockNumber uint64) (*model.PoolSnapshot, error)
}

// RunConfig holds one quote request.
type RunConfig struct {
	Pool          common.Address
	Direction     swap.Direction
	ExactOutput   bool
	Amount        *big.Int
	SlippageBps   int32
	WordRadius    int32
	MaxWordRadius int32
	Block         uint64
}

// Runner executes quote requests against a snapshot source, widening the tick
// window when the loaded range proves too narrow, and persists results.
type Runner struct {
	cfg    RunConfig
	source SnapshotSource
	sink   storage.QuoteSink
	logger *zap.Logger
}

func NewRunner(cfg RunConfig, source SnapshotSource, sink storage.QuoteSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, source: source, sink: sink, logger: logger}
}

// Run fetches a snapshot, simulates the request, and stores the quote. When
// the simulation runs out of loaded ticks the word radius doubles, up to the
// configured maximum, and the snapshot is refetched at the same block.
func (r *Runner) Run(ctx context.Context) (*quote.Quote, error) {
	if r.source == nil {
		return nil, fmt.Errorf("snapshot source is nil")
	}
	if r.cfg.Pool == (common.Address{}) {
		return nil, fmt.Errorf("pool address is required")
	}

	req := swap.ExactInput(r.cfg.Direction, r.cfg.Amount)
	if r.cfg.ExactOutput {
		req = swap.ExactOutput(r.cfg.Direction, r.cfg.Amount)
	}

	radius := r.cfg.WordRadius
	if radius < 0 {
		radius = 0
	}
	maxRadius := r.cfg.MaxWordRadius
	if maxRadius < radius {
		maxRadius = radius
	}
	block := r.cfg.Block

	for {
		snap, err := r.source.Snapshot(ctx, r.cfg.Pool, radius, block)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		// Later retries stay pinned to the block of the first snapshot.
		block = snap.Block

		state, err := BuildState(snap)
		if err != nil {
			return nil, fmt.Errorf("pool state: %w", err)
		}

		res, err := swap.Simulate(state, req)
		if err != nil {
			if errors.Is(err, swap.ErrInsufficientLiquidity) && !snap.Complete && radius < maxRadius {
				next := radius * 2
				if next <= radius {
					next = radius + 1
				}
				if next > maxRadius {
					next = maxRadius
				}
				r.logger.Warn("tick window exhausted, widening",
					zap.Int32("radius", radius),
					zap.Int32("next_radius", next),
					zap.Uint64("block", block),
				)
				radius = next
				continue
			}
			return nil, fmt.Errorf("simulate: %w", err)
		}

		q, err := quote.Build(req, res, r.cfg.SlippageBps)
		if err != nil {
			return nil, err
		}

		r.logger.Info("quote computed",
			zap.String("pool", snap.Address),
			zap.Uint64("block", snap.Block),
			zap.String("direction", q.Direction.String()),
			zap.String("amount_in", q.AmountIn.String()),
			zap.String("amount_out", q.AmountOut.String()),
			zap.String("fee", q.FeeAmount.String()),
			zap.Int("steps", res.Steps),
			zap.Int("crossed_ticks", len(q.CrossedTicks)),
		)

		if r.sink != nil {
			record := buildQuoteRecord(snap, r.cfg, q, res.Steps)
			if err := r.sink.PutQuotes(ctx, []model.QuoteRecord{record}); err != nil {
				return nil, fmt.Errorf("store quote: %w", err)
			}
		}
		return q, nil
	}
}

func buildQuoteRecord(snap *model.PoolSnapshot, cfg RunConfig, q *quote.Quote, steps int) model.QuoteRecord {
	record := model.QuoteRecord{
		ChainID:       snap.ChainID,
		PoolAddress:   snap.Address,
		Block:         snap.Block,
		BlockTime:     snap.BlockTime,
		Direction:     q.Direction.String(),
		ExactInput:    q.ExactInput,
		RequestAmount: cfg.Amount.String(),
		AmountIn:      q.AmountIn.String(),
		AmountOut:     q.AmountOut.String(),
		FeeAmount:     q.FeeAmount.String(),
		SlippageBps:   q.SlippageBps,
		EndSqrtPrice:  q.EndSqrtPriceX96.String(),
		EndTick:       q.EndTick,
		Steps:         steps,
		CrossedTicks:  q.CrossedTicks,
		CreatedAt:     time.Now().UTC(),
	}
	if q.MinAmountOut != nil {
		record.MinAmountOut = q.MinAmountOut.String()
	}
	if q.MaxAmountIn != nil {
		record.MaxAmountIn = q.MaxAmountIn.String()
	}
	return record
}

// ParseDirection maps a config string onto a swap direction.
func ParseDirection(value string) (swap.Direction, error) {
	switch value {
	case "sell0", "sell-token0", "0to1":
		return swap.SellToken0, nil
	case "sell1", "sell-token1", "1to0":
		return swap.SellToken1, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want sell0 or sell1)", value)
	}
}
