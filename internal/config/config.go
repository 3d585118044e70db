package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores PostgreSQL connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Kafka stores order-event consumer settings. Empty brokers disable the consumer.
type Kafka struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Dispatch stores courier matching settings.
type Dispatch struct {
	MaxActiveDeliveries int
	SearchRadiusKm      float64
}

// Fees stores the injected fee-calculator parameters. Amounts are in minor
// currency units, percentages in whole percent.
type Fees struct {
	DeliveryBase  int64
	DeliveryPerKm int64
	DeliveryMin   int64
	DeliveryMax   int64

	ServiceEnabled bool
	ServicePct     float64
	ServiceMin     int64
	ServiceMax     int64

	PaymentEnabled bool
	PaymentFixed   int64
	PaymentPct     float64

	// FallbackDistanceKm is used when an order has no pickup coordinates.
	FallbackDistanceKm float64
}

// Commission stores settlement parameters.
type Commission struct {
	// Amount is deducted from the courier wallet per completed delivery and
	// doubles as the minimum balance required to accept work.
	Amount int64
}

// Notify stores outbound push-gateway settings. Empty BaseURL disables it.
type Notify struct {
	BaseURL     string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Pprof stores basic auth credentials for the pprof endpoints. Loopback
// requests never need them.
type Pprof struct {
	User string
	Pass string
}

// RateLimit stores HTTP rate limiter settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Config stores all service settings.
type Config struct {
	Port       int
	DB         DB
	Kafka      Kafka
	Dispatch   Dispatch
	Fees       Fees
	Commission Commission
	Notify     Notify
	Pprof      Pprof
	RateLimit  RateLimit
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:       defaultPort,
		DB:         DefaultDB(),
		Kafka:      DefaultKafka(),
		Dispatch:   DefaultDispatch(),
		Fees:       DefaultFees(),
		Commission: DefaultCommission(),
		Notify:     DefaultNotify(),
		RateLimit:  DefaultRateLimit(),
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	if err := parseFlags(); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseFlags() error {
	// Unknown flags are skipped so the test binary's own flags do not
	// break loading.
	pflag.CommandLine.ParseErrorsWhitelist.UnknownFlags = true
	return pflag.CommandLine.Parse(os.Args[1:])
}

func applyEnv(cfg *Config) error {
	var err error

	if err = envInt("PORT", &cfg.Port); err != nil {
		return err
	}

	envStr("POSTGRES_HOST", &cfg.DB.Host)
	envStr("POSTGRES_PORT", &cfg.DB.Port)
	envStr("POSTGRES_USER", &cfg.DB.User)
	envStr("POSTGRES_PASSWORD", &cfg.DB.Pass)
	envStr("POSTGRES_DB", &cfg.DB.Name)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	envStr("KAFKA_TOPIC", &cfg.Kafka.Topic)
	envStr("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)

	if err = envInt("DISPATCH_MAX_ACTIVE_DELIVERIES", &cfg.Dispatch.MaxActiveDeliveries); err != nil {
		return err
	}
	if err = envFloat("DISPATCH_SEARCH_RADIUS_KM", &cfg.Dispatch.SearchRadiusKm); err != nil {
		return err
	}

	if err = envInt64("FEE_DELIVERY_BASE", &cfg.Fees.DeliveryBase); err != nil {
		return err
	}
	if err = envInt64("FEE_DELIVERY_PER_KM", &cfg.Fees.DeliveryPerKm); err != nil {
		return err
	}
	if err = envInt64("FEE_DELIVERY_MIN", &cfg.Fees.DeliveryMin); err != nil {
		return err
	}
	if err = envInt64("FEE_DELIVERY_MAX", &cfg.Fees.DeliveryMax); err != nil {
		return err
	}
	if err = envBool("FEE_SERVICE_ENABLED", &cfg.Fees.ServiceEnabled); err != nil {
		return err
	}
	if err = envFloat("FEE_SERVICE_PCT", &cfg.Fees.ServicePct); err != nil {
		return err
	}
	if err = envInt64("FEE_SERVICE_MIN", &cfg.Fees.ServiceMin); err != nil {
		return err
	}
	if err = envInt64("FEE_SERVICE_MAX", &cfg.Fees.ServiceMax); err != nil {
		return err
	}
	if err = envBool("FEE_PAYMENT_ENABLED", &cfg.Fees.PaymentEnabled); err != nil {
		return err
	}
	if err = envInt64("FEE_PAYMENT_FIXED", &cfg.Fees.PaymentFixed); err != nil {
		return err
	}
	if err = envFloat("FEE_PAYMENT_PCT", &cfg.Fees.PaymentPct); err != nil {
		return err
	}
	if err = envFloat("FEE_FALLBACK_DISTANCE_KM", &cfg.Fees.FallbackDistanceKm); err != nil {
		return err
	}

	if err = envInt64("COMMISSION_AMOUNT", &cfg.Commission.Amount); err != nil {
		return err
	}

	envStr("NOTIFY_BASE_URL", &cfg.Notify.BaseURL)
	if err = envInt("NOTIFY_MAX_ATTEMPTS", &cfg.Notify.MaxAttempts); err != nil {
		return err
	}
	if err = envDuration("NOTIFY_BASE_DELAY", &cfg.Notify.BaseDelay); err != nil {
		return err
	}
	if err = envDuration("NOTIFY_MAX_DELAY", &cfg.Notify.MaxDelay); err != nil {
		return err
	}

	envStr("PPROF_USER", &cfg.Pprof.User)
	envStr("PPROF_PASSWORD", &cfg.Pprof.Pass)

	if err = envBool("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled); err != nil {
		return err
	}
	if err = envFloat("RATE_LIMIT_RATE", &cfg.RateLimit.Rate); err != nil {
		return err
	}
	if err = envInt("RATE_LIMIT_BURST", &cfg.RateLimit.Burst); err != nil {
		return err
	}
	if err = envDuration("RATE_LIMIT_TTL", &cfg.RateLimit.TTL); err != nil {
		return err
	}
	if err = envInt("RATE_LIMIT_MAX_BUCKETS", &cfg.RateLimit.MaxBuckets); err != nil {
		return err
	}

	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := strconv.Atoi(c.DB.Port); err != nil {
		return fmt.Errorf("invalid postgres port: %q", c.DB.Port)
	}
	if c.Dispatch.MaxActiveDeliveries <= 0 {
		return fmt.Errorf("invalid dispatch max active deliveries: %d", c.Dispatch.MaxActiveDeliveries)
	}
	if c.Dispatch.SearchRadiusKm <= 0 {
		return fmt.Errorf("invalid dispatch search radius: %v", c.Dispatch.SearchRadiusKm)
	}
	if c.Commission.Amount < 0 {
		return fmt.Errorf("invalid commission amount: %d", c.Commission.Amount)
	}
	if c.Fees.DeliveryMin > c.Fees.DeliveryMax {
		return fmt.Errorf("delivery fee min %d exceeds max %d", c.Fees.DeliveryMin, c.Fees.DeliveryMax)
	}
	if c.Fees.ServiceEnabled && c.Fees.ServiceMin > c.Fees.ServiceMax {
		return fmt.Errorf("service fee min %d exceeds max %d", c.Fees.ServiceMin, c.Fees.ServiceMax)
	}
	return nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
