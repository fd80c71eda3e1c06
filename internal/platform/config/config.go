// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"

	"transcript/pkg/domain"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// ServerEnvironment holds every setting read from the environment, with defaults.
type ServerEnvironment struct {
	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=info"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=50"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=100"`

	// registry
	AuthorityAddress string        `env:"AUTHORITY_ADDRESS,required=true"`
	JWTSigningKey    string        `env:"JWT_SIGNING_KEY,required=true"`
	JWTIssuer        string        `env:"JWT_ISSUER,default=transcript-registry"`
	JWTTokenTTL      time.Duration `env:"JWT_TOKEN_TTL,default=1h"`
	StorageBackend   string        `env:"STORAGE_BACKEND,default=memory"`

	// database settings
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConnections    int           `env:"DB_MAX_CONNECTIONS,default=10"`
	DBMaxIdleConns      int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// verification cache
	RedisURL          string        `env:"REDIS_URL"`
	RedisPoolSize     int           `env:"REDIS_POOL_SIZE,default=10"`
	RedisDialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT,default=5s"`
	RedisReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT,default=3s"`
	RedisWriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT,default=3s"`
	CacheTTL          time.Duration `env:"CACHE_TTL,default=10m"`

	// event relay
	KafkaBrokers       []string      `env:"KAFKA_BROKERS,separator=|"`
	KafkaTopic         string        `env:"KAFKA_TOPIC,default=transcript-registry-events"`
	KafkaClientID      string        `env:"KAFKA_CLIENT_ID,default=transcript-registry"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL,default=1s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE,default=100"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns the validated configuration.
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Addr is the listen address of the HTTP server.
func (c *ServerEnvironment) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Authority parses AUTHORITY_ADDRESS. validateConfig guarantees it succeeds.
func (c *ServerEnvironment) Authority() domain.Address {
	addr, _ := domain.ParseAddress(c.AuthorityAddress)
	return addr
}

// RelayEnabled reports whether events are published to Kafka.
func (c *ServerEnvironment) RelayEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	authority, err := domain.ParseAddress(cfg.AuthorityAddress)
	if err != nil {
		return fmt.Errorf("invalid AUTHORITY_ADDRESS: %w", err)
	}
	if authority.IsZero() {
		return fmt.Errorf("AUTHORITY_ADDRESS must not be the zero address")
	}
	if len(cfg.JWTSigningKey) < 32 {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least 32 bytes")
	}

	switch cfg.StorageBackend {
	case StorageMemory:
		if cfg.RelayEnabled() {
			return fmt.Errorf("KAFKA_BROKERS requires STORAGE_BACKEND=%s", StoragePostgres)
		}
	case StoragePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %s", cfg.StorageBackend)
	}

	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMaxIdleConns < 0 || cfg.DBMaxIdleConns > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) must be between 0 and DB_MAX_CONNECTIONS (%d)",
			cfg.DBMaxIdleConns, cfg.DBMaxConnections)
	}
	if cfg.OutboxBatchSize < 1 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be at least 1")
	}
	if cfg.OutboxPollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive")
	}
	if cfg.RelayEnabled() && cfg.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}
