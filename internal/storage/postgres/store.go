package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolquote/internal/model"
)

// Store provides Postgres persistence for quotes.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutQuotes inserts or updates quote records, keyed by pool, block, and the
// request that produced them.
func (s *Store) PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(`
			INSERT INTO quotes (
				chain_id, pool_address, block, block_time, direction, exact_input,
				request_amount, amount_in, amount_out, fee_amount, slippage_bps,
				min_amount_out, max_amount_in, end_sqrt_price_x96, end_tick, steps,
				crossed_ticks, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,now())
			ON CONFLICT (chain_id, pool_address, block, direction, exact_input, request_amount, slippage_bps)
			DO UPDATE SET
				block_time = EXCLUDED.block_time,
				amount_in = EXCLUDED.amount_in,
				amount_out = EXCLUDED.amount_out,
				fee_amount = EXCLUDED.fee_amount,
				min_amount_out = EXCLUDED.min_amount_out,
				max_amount_in = EXCLUDED.max_amount_in,
				end_sqrt_price_x96 = EXCLUDED.end_sqrt_price_x96,
				end_tick = EXCLUDED.end_tick,
				steps = EXCLUDED.steps,
				crossed_ticks = EXCLUDED.crossed_ticks,
				updated_at = now()
		`,
			int64(q.ChainID),
			q.PoolAddress,
			int64(q.Block),
			int64(q.BlockTime),
			q.Direction,
			q.ExactInput,
			q.RequestAmount,
			q.AmountIn,
			q.AmountOut,
			q.FeeAmount,
			q.SlippageBps,
			nullable(q.MinAmountOut),
			nullable(q.MaxAmountIn),
			q.EndSqrtPrice,
			q.EndTick,
			q.Steps,
			q.CrossedTicks,
			q.CreatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range quotes {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
