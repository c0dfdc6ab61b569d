package dex

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolquote/internal/chain"
	"poolquote/internal/model"
	"poolquote/internal/tickbitmap"
	"poolquote/internal/tickmath"
)

// ReaderConfig controls RPC retry behavior and fan-out width.
type ReaderConfig struct {
	MaxRetries   int
	RetryBackoff time.Duration
	Concurrency  int
}

// Reader fetches a pool's state at a pinned block and assembles a snapshot.
// Tick data is narrowed to a window of bitmap words around the current tick;
// only words with initialized bits cost a ticks() call each.
type Reader struct {
	chain  *chain.Client
	cfg    ReaderConfig
	tokens *TokenMetaCache
	logger *zap.Logger
}

func NewReader(chainClient *chain.Client, cfg ReaderConfig, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Reader{
		chain:  chainClient,
		cfg:    cfg,
		tokens: NewTokenMetaCache(),
		logger: logger,
	}
}

// Snapshot reads pool state at blockNumber (0 pins the latest block) with
// tick data covering wordRadius bitmap words on each side of the current tick.
func (r *Reader) Snapshot(ctx context.Context, poolAddr common.Address, wordRadius int32, blockNumber uint64) (*model.PoolSnapshot, error) {
	if r.chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if wordRadius < 0 {
		return nil, fmt.Errorf("word radius must be non-negative, got %d", wordRadius)
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	if blockNumber == 0 {
		if err := r.retry(ctx, func(ctx context.Context) error {
			var err error
			blockNumber, err = r.chain.LatestBlockNumber(ctx)
			return err
		}); err != nil {
			return nil, fmt.Errorf("get latest block: %w", err)
		}
	}
	blockTime, err := r.chain.BlockTimestamp(ctx, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("block timestamp %d: %w", blockNumber, err)
	}
	block := new(big.Int).SetUint64(blockNumber)

	var meta PoolMeta
	if err := r.retry(ctx, func(ctx context.Context) error {
		var err error
		meta, err = FetchPoolMeta(ctx, r.chain, poolAddr)
		return err
	}); err != nil {
		return nil, fmt.Errorf("pool meta: %w", err)
	}
	if meta.TickSpacing <= 0 {
		return nil, fmt.Errorf("pool %s reports tick spacing %d", poolAddr.Hex(), meta.TickSpacing)
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}

	var sqrtPrice *big.Int
	var tick int32
	if err := r.retry(ctx, func(ctx context.Context) error {
		values, err := callPoolMethod(ctx, r.chain, poolAddr, poolABI, "slot0", block)
		if err != nil {
			return err
		}
		if len(values) < 2 {
			return fmt.Errorf("slot0 returned %d values", len(values))
		}
		sqrtPrice, err = asBigInt(values[0])
		if err != nil {
			return fmt.Errorf("sqrt price: %w", err)
		}
		tickInt, err := asBigInt(values[1])
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		tick, err = int24FromBig(tickInt)
		return err
	}); err != nil {
		return nil, fmt.Errorf("slot0: %w", err)
	}

	var liquidity *big.Int
	if err := r.retry(ctx, func(ctx context.Context) error {
		values, err := callPoolMethod(ctx, r.chain, poolAddr, poolABI, "liquidity", block)
		if err != nil {
			return err
		}
		liquidity, err = asBigInt(values[0])
		return err
	}); err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}

	tickLow, tickHigh, complete := tickWindow(tick, meta.TickSpacing, wordRadius)
	words, err := tickbitmap.WordRange(tickLow, tickHigh, meta.TickSpacing)
	if err != nil {
		return nil, fmt.Errorf("word range: %w", err)
	}

	r.logger.Debug("tick window",
		zap.String("pool", poolAddr.Hex()),
		zap.Int32("tick", tick),
		zap.Int32("tick_low", tickLow),
		zap.Int32("tick_high", tickHigh),
		zap.Int("words", len(words)),
	)

	tickIndices, err := r.fetchInitializedTicks(ctx, poolAddr, poolABI, block, words, meta.TickSpacing)
	if err != nil {
		return nil, err
	}
	records, err := r.fetchTickRecords(ctx, poolAddr, poolABI, block, tickIndices)
	if err != nil {
		return nil, err
	}

	snap := &model.PoolSnapshot{
		ChainID:      chainID.Uint64(),
		Address:      poolAddr.Hex(),
		Block:        blockNumber,
		BlockTime:    blockTime,
		Token0:       meta.Token0.Hex(),
		Token1:       meta.Token1.Hex(),
		Fee:          meta.Fee,
		TickSpacing:  meta.TickSpacing,
		SqrtPriceX96: sqrtPrice.String(),
		Tick:         tick,
		Liquidity:    liquidity.String(),
		Ticks:        records,
		Complete:     complete,
	}
	r.attachTokenMeta(ctx, snap, meta)

	r.logger.Info("snapshot built",
		zap.String("pool", poolAddr.Hex()),
		zap.Uint64("block", blockNumber),
		zap.Int32("tick", tick),
		zap.Int("initialized_ticks", len(records)),
		zap.Bool("complete", complete),
	)
	return snap, nil
}

// tickWindow clamps a word radius around the current tick to the valid tick
// range. The window is complete when it covers every usable tick.
func tickWindow(tick, tickSpacing, wordRadius int32) (int32, int32, bool) {
	span := int64(wordRadius) * int64(tickSpacing) * tickbitmap.WordSize
	low := int64(tick) - span
	high := int64(tick) + span
	complete := low <= int64(tickmath.MinTick) && high >= int64(tickmath.MaxTick)
	if low < int64(tickmath.MinTick) {
		low = int64(tickmath.MinTick)
	}
	if high > int64(tickmath.MaxTick) {
		high = int64(tickmath.MaxTick)
	}
	return int32(low), int32(high), complete
}

// fetchInitializedTicks reads one bitmap word per RPC call, fanning out up to
// the configured concurrency, and expands set bits into tick indices.
func (r *Reader) fetchInitializedTicks(ctx context.Context, poolAddr common.Address, poolABI abi.ABI, block *big.Int, words []int32, tickSpacing int32) ([]int32, error) {
	type wordResult struct {
		word   int32
		bitmap *big.Int
		err    error
	}

	results := make(chan wordResult, len(words))
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, word := range words {
		wg.Add(1)
		go func(word int32) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var bitmap *big.Int
			err := r.retry(ctx, func(ctx context.Context) error {
				values, err := callPoolMethod(ctx, r.chain, poolAddr, poolABI, "tickBitmap", block, int16(word))
				if err != nil {
					return err
				}
				bitmap, err = asBigInt(values[0])
				return err
			})
			results <- wordResult{word: word, bitmap: bitmap, err: err}
		}(word)
	}
	wg.Wait()
	close(results)

	var ticks []int32
	for res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("tick bitmap word %d: %w", res.word, res.err)
		}
		for bit := 0; bit < tickbitmap.WordSize; bit++ {
			if res.bitmap.Bit(bit) == 1 {
				ticks = append(ticks, tickbitmap.TickAt(res.word, uint8(bit), tickSpacing))
			}
		}
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	return ticks, nil
}

// fetchTickRecords resolves liquidity data for each initialized tick.
func (r *Reader) fetchTickRecords(ctx context.Context, poolAddr common.Address, poolABI abi.ABI, block *big.Int, tickIndices []int32) ([]model.TickRecord, error) {
	type tickResult struct {
		record model.TickRecord
		skip   bool
		err    error
	}

	results := make([]tickResult, len(tickIndices))
	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, index := range tickIndices {
		wg.Add(1)
		go func(i int, index int32) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := r.retry(ctx, func(ctx context.Context) error {
				values, err := callPoolMethod(ctx, r.chain, poolAddr, poolABI, "ticks", block, big.NewInt(int64(index)))
				if err != nil {
					return err
				}
				if len(values) < 8 {
					return fmt.Errorf("ticks returned %d values", len(values))
				}
				gross, err := asBigInt(values[0])
				if err != nil {
					return fmt.Errorf("liquidity gross: %w", err)
				}
				net, err := asBigInt(values[1])
				if err != nil {
					return fmt.Errorf("liquidity net: %w", err)
				}
				initialized, _ := values[7].(bool)
				if !initialized || gross.Sign() == 0 {
					results[i].skip = true
					return nil
				}
				results[i].record = model.TickRecord{
					Index:          index,
					LiquidityNet:   net.String(),
					LiquidityGross: gross.String(),
				}
				return nil
			})
			results[i].err = err
		}(i, index)
	}
	wg.Wait()

	records := make([]model.TickRecord, 0, len(tickIndices))
	for i, res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("tick %d: %w", tickIndices[i], res.err)
		}
		if res.skip {
			r.logger.Debug("bitmap bit set but tick uninitialized", zap.Int32("tick", tickIndices[i]))
			continue
		}
		records = append(records, res.record)
	}
	return records, nil
}

// attachTokenMeta decorates a snapshot with ERC20 metadata, best effort.
func (r *Reader) attachTokenMeta(ctx context.Context, snap *model.PoolSnapshot, meta PoolMeta) {
	for _, side := range []struct {
		token common.Address
		dst   **model.TokenMeta
	}{
		{meta.Token0, &snap.Token0Meta},
		{meta.Token1, &snap.Token1Meta},
	} {
		if cached, ok := r.tokens.Get(side.token); ok {
			copied := cached
			*side.dst = &copied
			continue
		}
		tokenMeta, err := FetchTokenMeta(ctx, r.chain, side.token, r.logger)
		if err != nil {
			r.logger.Warn("token metadata fetch failed", zap.String("token", side.token.Hex()), zap.Error(err))
			continue
		}
		r.tokens.Set(side.token, tokenMeta)
		copied := tokenMeta
		*side.dst = &copied
	}
}
