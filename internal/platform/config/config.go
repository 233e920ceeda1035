package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the service configuration. Values come from environment
// variables so main stays lean; every threshold has a production default.
type Config struct {
	Addr string

	PostgresURL string
	RedisURL    string

	KafkaBrokers    []string
	AuditTopic      string
	OutboxPollEvery time.Duration

	RegisterBaseURL string

	// DirectoryFile seeds the user directory from a JSON account list
	// when no external identity system is wired.
	DirectoryFile string

	// DecisionExpiryDays is how long a decision stays on the public
	// register once published.
	DecisionExpiryDays int

	// CommentsCacheTTL bounds staleness of cached register comments.
	CommentsCacheTTL time.Duration

	// ExtensionLeadTime selects applications whose final action date is
	// this close (or past); ExtensionPeriod is how far the date moves.
	ExtensionLeadTime time.Duration
	ExtensionPeriod   time.Duration

	// WithdrawalThreshold is how long a case may sit with the applicant
	// before automatic withdrawal.
	WithdrawalThreshold time.Duration

	// ReconcileInterval is the scheduler cadence for all batch jobs.
	ReconcileInterval time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:                envString("COPPICE_ADDR", ":8080"),
		PostgresURL:         os.Getenv("COPPICE_POSTGRES_URL"),
		RedisURL:            os.Getenv("COPPICE_REDIS_URL"),
		KafkaBrokers:        envList("COPPICE_KAFKA_BROKERS"),
		AuditTopic:          envString("COPPICE_AUDIT_TOPIC", "coppice.audit"),
		OutboxPollEvery:     envDuration("COPPICE_OUTBOX_POLL_EVERY", 5*time.Second),
		RegisterBaseURL:     os.Getenv("COPPICE_REGISTER_BASE_URL"),
		DirectoryFile:       os.Getenv("COPPICE_DIRECTORY_FILE"),
		DecisionExpiryDays:  envInt("COPPICE_DECISION_EXPIRY_DAYS", 28),
		CommentsCacheTTL:    envDuration("COPPICE_COMMENTS_CACHE_TTL", 5*time.Minute),
		ExtensionLeadTime:   envDays("COPPICE_EXTENSION_LEAD_DAYS", 10),
		ExtensionPeriod:     envDays("COPPICE_EXTENSION_PERIOD_DAYS", 90),
		WithdrawalThreshold: envDays("COPPICE_WITHDRAWAL_THRESHOLD_DAYS", 14),
		ReconcileInterval:   envDuration("COPPICE_RECONCILE_INTERVAL", time.Hour),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDays(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * 24 * time.Hour
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
