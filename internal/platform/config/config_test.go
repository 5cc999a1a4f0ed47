package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", cfg.Chain.ControllerAddress)
	assert.Equal(t, 10, cfg.Chain.MaxIssuers)
	assert.Equal(t, uint64(420_000), cfg.Chain.TermLength)
	assert.Equal(t, uint64(500), cfg.Chain.BaseFactor)
	assert.Equal(t, uint64(95), cfg.Chain.CooldownThresholdPct)
	assert.Equal(t, 12*time.Second, cfg.Chain.BlockInterval)
	assert.Equal(t, "1000000000000000000000000", cfg.Chain.SupplyFloor.String())
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, "pdtoken.issuer-events", cfg.Kafka.Topic)
	assert.Nil(t, cfg.Kafka.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PDTOKEN_ADDR", ":9090")
	t.Setenv("PDTOKEN_ADMIN_TOKEN", "secret")
	t.Setenv("PDTOKEN_MAX_ISSUERS", "3")
	t.Setenv("PDTOKEN_TERM_LENGTH_BLOCKS", "1000")
	t.Setenv("PDTOKEN_BASE_FACTOR_BPS", "250")
	t.Setenv("PDTOKEN_SUPPLY_FLOOR", "500000")
	t.Setenv("PDTOKEN_BLOCK_INTERVAL", "2s")
	t.Setenv("PDTOKEN_KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "secret", cfg.AdminToken)
	assert.Equal(t, 3, cfg.Chain.MaxIssuers)
	assert.Equal(t, uint64(1000), cfg.Chain.TermLength)
	assert.Equal(t, uint64(250), cfg.Chain.BaseFactor)
	assert.Equal(t, "500000", cfg.Chain.SupplyFloor.String())
	assert.Equal(t, 2*time.Second, cfg.Chain.BlockInterval)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnvValidation(t *testing.T) {
	t.Run("base factor out of range", func(t *testing.T) {
		t.Setenv("PDTOKEN_BASE_FACTOR_BPS", "10001")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("cooldown threshold out of range", func(t *testing.T) {
		t.Setenv("PDTOKEN_COOLDOWN_THRESHOLD_PCT", "101")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("malformed supply floor", func(t *testing.T) {
		t.Setenv("PDTOKEN_SUPPLY_FLOOR", "not-a-number")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("malformed numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("PDTOKEN_MAX_ISSUERS", "banana")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, 10, cfg.Chain.MaxIssuers)
	})
}
