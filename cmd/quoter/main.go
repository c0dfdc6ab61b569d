package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolquote/internal/chain"
	"poolquote/internal/config"
	"poolquote/internal/dex"
	"poolquote/internal/model"
	"poolquote/internal/pool"
	"poolquote/internal/quote"
	"poolquote/internal/quoter"
	"poolquote/internal/storage"
	"poolquote/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Concentrated liquidity swap quoter",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch pool state and quote a swap",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "node RPC URL")
	quoteCmd.Flags().String("pool", "", "pool address (derived from tokens when empty)")
	quoteCmd.Flags().String("token-a", "", "one pair token, used to derive the pool address")
	quoteCmd.Flags().String("token-b", "", "other pair token, used to derive the pool address")
	quoteCmd.Flags().Uint32("fee", 0, "fee tier in ppm, used to derive the pool address")
	quoteCmd.Flags().String("amount", "", "trade amount in smallest token units")
	quoteCmd.Flags().String("direction", "sell0", "trade direction (sell0 or sell1)")
	quoteCmd.Flags().Bool("exact-out", false, "treat amount as exact output")
	quoteCmd.Flags().Int32("slippage-bps", 50, "slippage tolerance in basis points")
	quoteCmd.Flags().Int32("word-radius", 3, "bitmap words to load on each side of the current tick")
	quoteCmd.Flags().Int32("max-word-radius", 12, "widening limit when the tick window runs out")
	quoteCmd.Flags().Uint64("block", 0, "block to pin reads to, 0 means latest")
	quoteCmd.Flags().String("out", "./data/quotes.jsonl", "output JSONL path")
	quoteCmd.Flags().String("snapshot-out", "", "optional path to save the fetched snapshot")
	quoteCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for quote persistence")
	quoteCmd.Flags().Int("max-retries", 5, "maximum RPC retry attempts")
	quoteCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	quoteCmd.Flags().Int("concurrency", 8, "parallel RPC calls while loading tick data")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Quote a swap against a saved snapshot, no RPC needed",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("snapshot", "", "input snapshot JSON path")
	simulateCmd.Flags().String("amount", "", "trade amount in smallest token units")
	simulateCmd.Flags().String("direction", "sell0", "trade direction (sell0 or sell1)")
	simulateCmd.Flags().Bool("exact-out", false, "treat amount as exact output")
	simulateCmd.Flags().Int32("slippage-bps", 50, "slippage tolerance in basis points")
	simulateCmd.Flags().String("out", "", "optional output JSONL path")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the deterministic pool address for a pair and fee tier",
		RunE:  runDerive,
	}

	deriveCmd.Flags().String("factory", pool.DefaultFactory.Hex(), "factory address")
	deriveCmd.Flags().String("token-a", "", "one pair token")
	deriveCmd.Flags().String("token-b", "", "other pair token")
	deriveCmd.Flags().Uint32("fee", 3000, "fee tier in ppm")

	root.AddCommand(deriveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	poolAddr, err := resolvePool(cfg)
	if err != nil {
		return err
	}
	amount, err := parseAmount(cfg.Amount)
	if err != nil {
		return err
	}
	direction, err := quoter.ParseDirection(cfg.Direction)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	reader := dex.NewReader(chainClient, dex.ReaderConfig{
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Concurrency:  cfg.Concurrency,
	}, logger)
	source := &capturingSource{inner: reader}

	sinks := []storage.QuoteSink{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	runner := quoter.NewRunner(quoter.RunConfig{
		Pool:          poolAddr,
		Direction:     direction,
		ExactOutput:   cfg.ExactOut,
		Amount:        amount,
		SlippageBps:   cfg.SlippageBps,
		WordRadius:    cfg.WordRadius,
		MaxWordRadius: cfg.MaxWordRadius,
		Block:         cfg.Block,
	}, source, multiSink(sinks), logger)

	logger.Info("quote start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pool", poolAddr.Hex()),
		zap.String("direction", direction.String()),
		zap.String("amount", amount.String()),
		zap.Bool("exact_out", cfg.ExactOut),
		zap.Int32("slippage_bps", cfg.SlippageBps),
		zap.Int32("word_radius", cfg.WordRadius),
		zap.Uint64("block", cfg.Block),
	)

	q, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.SnapshotOut != "" && source.last != nil {
		if err := storage.WriteSnapshot(cfg.SnapshotOut, source.last); err != nil {
			return err
		}
		logger.Info("snapshot saved", zap.String("path", cfg.SnapshotOut))
	}

	printQuote(q)
	return nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	if snapshotPath == "" {
		return fmt.Errorf("snapshot path is required")
	}
	snap, err := storage.ReadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	amount, err := parseAmount(cfg.Amount)
	if err != nil {
		return err
	}
	direction, err := quoter.ParseDirection(cfg.Direction)
	if err != nil {
		return err
	}

	var sink storage.QuoteSink
	if cfg.Out != "" {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	runner := quoter.NewRunner(quoter.RunConfig{
		Pool:        common.HexToAddress(snap.Address),
		Direction:   direction,
		ExactOutput: cfg.ExactOut,
		Amount:      amount,
		SlippageBps: cfg.SlippageBps,
	}, fileSource{snap: snap}, sink, logger)

	q, err := runner.Run(context.Background())
	if err != nil {
		return err
	}
	printQuote(q)
	return nil
}

func runDerive(cmd *cobra.Command, _ []string) error {
	factoryStr, _ := cmd.Flags().GetString("factory")
	tokenA, _ := cmd.Flags().GetString("token-a")
	tokenB, _ := cmd.Flags().GetString("token-b")
	fee, _ := cmd.Flags().GetUint32("fee")

	factory, err := parseAddress(factoryStr, "factory")
	if err != nil {
		return err
	}
	a, err := parseAddress(tokenA, "token-a")
	if err != nil {
		return err
	}
	b, err := parseAddress(tokenB, "token-b")
	if err != nil {
		return err
	}

	addr, err := pool.DeriveAddress(factory, a, b, fee)
	if err != nil {
		return err
	}
	fmt.Println(addr.Hex())
	return nil
}

func resolvePool(cfg config.Config) (common.Address, error) {
	if cfg.Pool != "" {
		return parseAddress(cfg.Pool, "pool")
	}
	if cfg.TokenA == "" || cfg.TokenB == "" || cfg.Fee == 0 {
		return common.Address{}, fmt.Errorf("either pool or token-a, token-b, and fee are required")
	}
	a, err := parseAddress(cfg.TokenA, "token-a")
	if err != nil {
		return common.Address{}, err
	}
	b, err := parseAddress(cfg.TokenB, "token-b")
	if err != nil {
		return common.Address{}, err
	}
	return pool.DeriveAddress(pool.DefaultFactory, a, b, cfg.Fee)
}

func parseAddress(value, name string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid amount: %q", value)
	}
	return amount, nil
}

func printQuote(q *quote.Quote) {
	fmt.Printf("direction:   %s\n", q.Direction)
	fmt.Printf("amount in:   %s\n", q.AmountIn)
	fmt.Printf("amount out:  %s\n", q.AmountOut)
	fmt.Printf("fee:         %s\n", q.FeeAmount)
	if q.MinAmountOut != nil {
		fmt.Printf("min out:     %s (%d bps)\n", q.MinAmountOut, q.SlippageBps)
	}
	if q.MaxAmountIn != nil {
		fmt.Printf("max in:      %s (%d bps)\n", q.MaxAmountIn, q.SlippageBps)
	}
	fmt.Printf("end tick:    %d\n", q.EndTick)
	fmt.Printf("ticks crossed: %d\n", len(q.CrossedTicks))
}

// capturingSource remembers the last snapshot so it can be saved to disk.
type capturingSource struct {
	inner quoter.SnapshotSource
	last  *model.PoolSnapshot
}

func (c *capturingSource) Snapshot(ctx context.Context, poolAddr common.Address, wordRadius int32, blockNumber uint64) (*model.PoolSnapshot, error) {
	snap, err := c.inner.Snapshot(ctx, poolAddr, wordRadius, blockNumber)
	if err == nil {
		c.last = snap
	}
	return snap, err
}

// fileSource serves one snapshot loaded from disk, whatever the radius.
type fileSource struct {
	snap *model.PoolSnapshot
}

func (f fileSource) Snapshot(context.Context, common.Address, int32, uint64) (*model.PoolSnapshot, error) {
	return f.snap, nil
}

// multiSink fans a batch out to every configured sink.
type multiSink []storage.QuoteSink

func (m multiSink) PutQuotes(ctx context.Context, quotes []model.QuoteRecord) error {
	for _, sink := range m {
		if err := sink.PutQuotes(ctx, quotes); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
