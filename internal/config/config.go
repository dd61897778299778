package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

type Config struct {
	HTTPPort        string
	DatabaseURL     string
	RunMigrations   bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	Currency      currency.Unit
	SettleTimeout time.Duration

	StripeSecretKey   string
	StripeAPIURL      string
	GatewayTimeout    time.Duration
	GatewayMaxRetries uint64

	KafkaBrokers   []string
	OutboxTopic    string
	OutboxInterval time.Duration
	OutboxBatch    int
}

// Load reads the given dotenv files, if present, and then the environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("godotenv.Load: %w", err)
	}

	return FromEnv()
}

func FromEnv() (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.HTTPPort = getEnv("HTTP_PORT", "8080")

	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}

	cfg.StripeSecretKey = getEnv("STRIPE_SECRET_KEY", "")
	if cfg.StripeSecretKey == "" {
		return Config{}, errors.New("STRIPE_SECRET_KEY is required")
	}
	cfg.StripeAPIURL = getEnv("STRIPE_API_URL", "")

	if cfg.RunMigrations, err = parseBool("RUN_MIGRATIONS", true); err != nil {
		return Config{}, err
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"REQUEST_TIMEOUT", 15 * time.Second, &cfg.RequestTimeout},
		{"SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.ShutdownTimeout},
		{"SETTLE_TIMEOUT", 30 * time.Second, &cfg.SettleTimeout},
		{"GATEWAY_TIMEOUT", 10 * time.Second, &cfg.GatewayTimeout},
		{"OUTBOX_INTERVAL", time.Second, &cfg.OutboxInterval},
	}
	for _, d := range durations {
		if *d.dest, err = parseDuration(d.key, d.def); err != nil {
			return Config{}, err
		}
	}

	cur := getEnv("CURRENCY", "USD")
	if cfg.Currency, err = currency.ParseISO(cur); err != nil {
		return Config{}, fmt.Errorf("CURRENCY[%s] is invalid: %w", cur, err)
	}

	retries, err := parseInt("GATEWAY_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, err
	}
	cfg.GatewayMaxRetries = uint64(retries)

	if cfg.OutboxBatch, err = parseInt("OUTBOX_BATCH_SIZE", 100); err != nil {
		return Config{}, err
	}
	if cfg.OutboxBatch == 0 {
		return Config{}, errors.New("OUTBOX_BATCH_SIZE is not positive")
	}

	cfg.KafkaBrokers = SplitBrokers(getEnv("KAFKA_BROKERS", ""))
	cfg.OutboxTopic = getEnv("OUTBOX_TOPIC", "course.purchased")

	return cfg, nil
}

// SplitBrokers parses a comma separated broker list, skipping blanks.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s[%s] is invalid: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s[%s] is not positive", key, raw)
	}
	return d, nil
}

func parseInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s[%s] is invalid: %w", key, raw, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s[%s] is negative", key, raw)
	}
	return n, nil
}

func parseBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s[%s] is invalid: %w", key, raw, err)
	}
	return b, nil
}
