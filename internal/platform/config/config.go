// Package config builds the process configuration from environment
// variables so main stays lean. Engine tunables are exposed here as well:
// the calibration constants are deployment policy, not code.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"certiva/internal/verification"
)

// Server captures HTTP server configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	JWTSigningKey   string
}

// Postgres captures database configuration. An empty DSN selects the
// in-memory stores (development mode).
type Postgres struct {
	DSN string
}

// Redis captures result-cache configuration. An empty URL disables result
// retention.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ResultTTL    time.Duration
}

// Kafka captures audit-trail configuration. Empty brokers keep the audit
// trail in memory.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Ledger captures the external ledger service configuration. An empty base
// URL means the ledger collaborator is not configured; the ledger check then
// fails like any unavailable collaborator.
type Ledger struct {
	BaseURL string
	Timeout time.Duration
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Ledger   Ledger
	LogLevel string
	Engine   verification.Config
}

// FromEnv reads the CERTIVA_* environment, applying defaults everywhere.
func FromEnv() Config {
	engine := verification.DefaultConfig()
	engine.ValidityThreshold = envInt("CERTIVA_VALIDITY_THRESHOLD", engine.ValidityThreshold)
	engine.MatchThreshold = envInt("CERTIVA_MATCH_THRESHOLD", engine.MatchThreshold)
	engine.CGPAToPercentageFactor = envFloat("CERTIVA_CGPA_FACTOR", engine.CGPAToPercentageFactor)
	engine.GradeDeviationLimit = envFloat("CERTIVA_GRADE_DEVIATION_LIMIT", engine.GradeDeviationLimit)
	engine.StatisticalMinSample = envInt("CERTIVA_STAT_MIN_SAMPLE", engine.StatisticalMinSample)
	engine.StatisticalCGPADeviation = envFloat("CERTIVA_STAT_CGPA_DEVIATION", engine.StatisticalCGPADeviation)

	return Config{
		Server: Server{
			Addr:            envString("CERTIVA_ADDR", ":8080"),
			ShutdownTimeout: envDuration("CERTIVA_SHUTDOWN_TIMEOUT", 10*time.Second),
			JWTSigningKey:   os.Getenv("CERTIVA_JWT_SIGNING_KEY"),
		},
		Postgres: Postgres{
			DSN: os.Getenv("CERTIVA_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("CERTIVA_REDIS_URL"),
			PoolSize:     envInt("CERTIVA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CERTIVA_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("CERTIVA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CERTIVA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CERTIVA_REDIS_WRITE_TIMEOUT", 3*time.Second),
			ResultTTL:    envDuration("CERTIVA_RESULT_TTL", 30*24*time.Hour),
		},
		Kafka: Kafka{
			Brokers: envList("CERTIVA_KAFKA_BROKERS"),
			Topic:   envString("CERTIVA_KAFKA_AUDIT_TOPIC", "certiva.audit.verifications"),
		},
		Ledger: Ledger{
			BaseURL: os.Getenv("CERTIVA_LEDGER_URL"),
			Timeout: envDuration("CERTIVA_LEDGER_TIMEOUT", 5*time.Second),
		},
		LogLevel: envString("CERTIVA_LOG_LEVEL", "info"),
		Engine:   engine,
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
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
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
