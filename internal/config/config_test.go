package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"pharmadispatch/internal/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	old := pflag.CommandLine
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	t.Cleanup(func() {
		pflag.CommandLine = old
	})
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_GROUP_ID",
		"DISPATCH_MAX_ACTIVE_DELIVERIES", "DISPATCH_SEARCH_RADIUS_KM",
		"FEE_DELIVERY_BASE", "FEE_DELIVERY_PER_KM", "FEE_DELIVERY_MIN", "FEE_DELIVERY_MAX",
		"FEE_SERVICE_ENABLED", "FEE_SERVICE_PCT", "FEE_SERVICE_MIN", "FEE_SERVICE_MAX",
		"FEE_PAYMENT_ENABLED", "FEE_PAYMENT_FIXED", "FEE_PAYMENT_PCT", "FEE_FALLBACK_DISTANCE_KM",
		"COMMISSION_AMOUNT",
		"NOTIFY_BASE_URL", "NOTIFY_MAX_ATTEMPTS", "NOTIFY_BASE_DELAY", "NOTIFY_MAX_DELAY",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_RATE", "RATE_LIMIT_BURST", "RATE_LIMIT_TTL", "RATE_LIMIT_MAX_BUCKETS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 8080, cfg.Port)

	require.Equal(t, "127.0.0.1", cfg.DB.Host)
	require.Equal(t, "5432", cfg.DB.Port)

	require.Empty(t, cfg.Kafka.Brokers)
	require.Equal(t, "order-events", cfg.Kafka.Topic)

	require.Equal(t, 3, cfg.Dispatch.MaxActiveDeliveries)
	require.Equal(t, 15.0, cfg.Dispatch.SearchRadiusKm)

	require.Equal(t, int64(200), cfg.Commission.Amount)

	require.Equal(t, int64(200), cfg.Fees.DeliveryBase)
	require.Equal(t, int64(100), cfg.Fees.DeliveryPerKm)
	require.True(t, cfg.Fees.ServiceEnabled)
	require.Equal(t, 2.0, cfg.Fees.ServicePct)

	require.False(t, cfg.RateLimit.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("DISPATCH_MAX_ACTIVE_DELIVERIES", "5")
	t.Setenv("DISPATCH_SEARCH_RADIUS_KM", "7.5")
	t.Setenv("COMMISSION_AMOUNT", "350")
	t.Setenv("FEE_SERVICE_ENABLED", "false")
	t.Setenv("NOTIFY_BASE_URL", "http://push.local")
	t.Setenv("NOTIFY_BASE_DELAY", "250ms")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "db", cfg.DB.Host)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, 5, cfg.Dispatch.MaxActiveDeliveries)
	require.Equal(t, 7.5, cfg.Dispatch.SearchRadiusKm)
	require.Equal(t, int64(350), cfg.Commission.Amount)
	require.False(t, cfg.Fees.ServiceEnabled)
	require.Equal(t, "http://push.local", cfg.Notify.BaseURL)
	require.Equal(t, 250*time.Millisecond, cfg.Notify.BaseDelay)
	require.True(t, cfg.RateLimit.Enabled)
}

func TestLoad_InvalidPort(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("PORT", "70000")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_InvalidPostgresPort(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("POSTGRES_PORT", "not-a-number")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_InvalidRadius(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("DISPATCH_SEARCH_RADIUS_KM", "-1")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_InvalidDuration(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("NOTIFY_BASE_DELAY", "soon")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_FeeBoundsValidated(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("FEE_DELIVERY_MIN", "6000")
	t.Setenv("FEE_DELIVERY_MAX", "5000")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}
