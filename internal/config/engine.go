package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"
)

type EngineMode = string

const (
	PaperMode EngineMode = "paper"
	ForkMode  EngineMode = "fork"
)

type EngineConfig struct {
	// DBPath is the path to the BoltDB file holding ledgers, sessions and
	// execution records.
	// Default: "./data/arb-engine.db"
	DBPath string

	// PersistenceEnabled keeps state in memory only when false.
	// Default: true
	PersistenceEnabled bool

	// Mode selects where venue calls run: "paper" fills them against
	// constant-product pools, "fork" additionally loads token accounts over RPC.
	Mode EngineMode

	// MaxHops bounds route length.
	// Default: 8
	MaxHops int

	// Authority signs paper venue legs and owns the paper trader accounts.
	// A fresh key is generated when empty.
	Authority solana.PublicKey

	// HydrateAccounts are token accounts loaded into the bank at startup in fork mode.
	HydrateAccounts []solana.PublicKey

	// AccountCacheSize bounds the token account metadata cache.
	// Default: 4096
	AccountCacheSize int
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/arb-engine.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("ENGINE_PERSISTENCE_ENABLED", "true") == "true"
	c.Mode = strings.ToLower(common.GetEnvOrDefault("ENGINE_MODE", PaperMode))
	c.MaxHops = common.GetEnvOrDefaultInt("ENGINE_MAX_HOPS", 8)
	c.AccountCacheSize = common.GetEnvOrDefaultInt("ENGINE_ACCOUNT_CACHE_SIZE", 4096)

	if raw := strings.TrimSpace(os.Getenv("ENGINE_AUTHORITY")); raw != "" {
		authority, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return fmt.Errorf("invalid ENGINE_AUTHORITY: %w", err)
		}
		c.Authority = authority
	}

	accounts, err := parseKeyList(os.Getenv("ENGINE_HYDRATE_ACCOUNTS"))
	if err != nil {
		return fmt.Errorf("invalid ENGINE_HYDRATE_ACCOUNTS: %w", err)
	}
	c.HydrateAccounts = accounts
	return c.Validate()
}

func (c *EngineConfig) Validate() error {
	if c.Mode != PaperMode && c.Mode != ForkMode {
		return fmt.Errorf("invalid ENGINE_MODE %q", c.Mode)
	}
	if c.MaxHops <= 0 {
		return fmt.Errorf("ENGINE_MAX_HOPS must be positive, got %d", c.MaxHops)
	}
	return nil
}

func parseKeyList(raw string) ([]solana.PublicKey, error) {
	var out []solana.PublicKey
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, key)
	}
	return out, nil
}
