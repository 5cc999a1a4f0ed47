package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "pdtoken/pkg/platform/strings"
)

// Server captures process-level configuration. Chain parameters are fixed at
// startup; there is no runtime mutation surface.
type Server struct {
	Addr       string
	AdminToken string

	Chain    Chain
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// Chain holds the issuance parameters and the block clock settings.
type Chain struct {
	// ControllerAddress is the controller's own identity; it is never a
	// valid mint receiver or authorization target.
	ControllerAddress string
	// MaxIssuers caps concurrent authorizations.
	MaxIssuers int
	// TermLength is the validity window of an authorization, in blocks.
	TermLength uint64
	// BaseFactor is the global per-action mint ceiling as parts-per-10000
	// of current supply.
	BaseFactor uint64
	// SupplyFloor is the minimum total supply targeted opportunistically
	// on mint calls.
	SupplyFloor *big.Int
	// CooldownThresholdPct is the fraction of the term (in percent) an
	// issuer must serve before a voluntary exit avoids a cooldown.
	CooldownThresholdPct uint64
	// BlockInterval drives the standalone interval clock.
	BlockInterval time.Duration
}

// RedisConfig configures the optional Redis-backed cooldown store. An empty
// URL means Redis is not configured and the in-memory store is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional audit outbox store.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig configures the optional Kafka audit sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:       envOr("PDTOKEN_ADDR", ":8080"),
		AdminToken: os.Getenv("PDTOKEN_ADMIN_TOKEN"),
		Chain: Chain{
			ControllerAddress:    envOr("PDTOKEN_CONTROLLER_ADDRESS", "0x0000000000000000000000000000000000000001"),
			MaxIssuers:           int(envUint("PDTOKEN_MAX_ISSUERS", 10)),
			TermLength:           envUint("PDTOKEN_TERM_LENGTH_BLOCKS", 420_000),
			BaseFactor:           envUint("PDTOKEN_BASE_FACTOR_BPS", 500),
			CooldownThresholdPct: envUint("PDTOKEN_COOLDOWN_THRESHOLD_PCT", 95),
			BlockInterval:        envDuration("PDTOKEN_BLOCK_INTERVAL", 12*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("PDTOKEN_REDIS_URL"),
			PoolSize:     int(envUint("PDTOKEN_REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(envUint("PDTOKEN_REDIS_MIN_IDLE", 2)),
			DialTimeout:  envDuration("PDTOKEN_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PDTOKEN_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PDTOKEN_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("PDTOKEN_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers: brokerList(os.Getenv("PDTOKEN_KAFKA_BROKERS")),
			Topic:   envOr("PDTOKEN_KAFKA_TOPIC", "pdtoken.issuer-events"),
		},
	}

	floor, err := parseBig(envOr("PDTOKEN_SUPPLY_FLOOR", "1000000000000000000000000"))
	if err != nil {
		return Server{}, fmt.Errorf("PDTOKEN_SUPPLY_FLOOR: %w", err)
	}
	cfg.Chain.SupplyFloor = floor

	if cfg.Chain.MaxIssuers <= 0 {
		return Server{}, fmt.Errorf("PDTOKEN_MAX_ISSUERS must be positive")
	}
	if cfg.Chain.BaseFactor == 0 || cfg.Chain.BaseFactor > 10_000 {
		return Server{}, fmt.Errorf("PDTOKEN_BASE_FACTOR_BPS must be in (0, 10000]")
	}
	if cfg.Chain.CooldownThresholdPct > 100 {
		return Server{}, fmt.Errorf("PDTOKEN_COOLDOWN_THRESHOLD_PCT must be at most 100")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func parseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid non-negative integer %q", s)
	}
	return n, nil
}

func brokerList(s string) []string {
	if s == "" {
		return nil
	}
	out := pstrings.DedupeAndTrim(strings.Split(s, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
