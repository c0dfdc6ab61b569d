package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL        string
	Pool          string
	TokenA        string
	TokenB        string
	Fee           uint32
	Amount        string
	Direction     string
	ExactOut      bool
	SlippageBps   int32
	WordRadius    int32
	MaxWordRadius int32
	Block         uint64
	Out           string
	SnapshotOut   string
	PgDSN         string
	MaxRetries    int
	RetryBackoff  time.Duration
	Concurrency   int
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUOTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("direction", "sell0")
	v.SetDefault("slippage-bps", int32(50))
	v.SetDefault("word-radius", int32(3))
	v.SetDefault("max-word-radius", int32(12))
	v.SetDefault("out", "./data/quotes.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("concurrency", 8)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:        v.GetString("rpc"),
		Pool:          v.GetString("pool"),
		TokenA:        v.GetString("token-a"),
		TokenB:        v.GetString("token-b"),
		Fee:           v.GetUint32("fee"),
		Amount:        v.GetString("amount"),
		Direction:     v.GetString("direction"),
		ExactOut:      v.GetBool("exact-out"),
		SlippageBps:   v.GetInt32("slippage-bps"),
		WordRadius:    v.GetInt32("word-radius"),
		MaxWordRadius: v.GetInt32("max-word-radius"),
		Block:         v.GetUint64("block"),
		Out:           v.GetString("out"),
		SnapshotOut:   v.GetString("snapshot-out"),
		PgDSN:         v.GetString("pg-dsn"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		Concurrency:   v.GetInt("concurrency"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}
