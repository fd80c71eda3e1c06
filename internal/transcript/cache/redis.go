// Package cache holds the Redis verification cache for token fingerprints.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"transcript/internal/transcript/models"
	"transcript/pkg/domain"
	"transcript/pkg/platform/circuit"
)

const (
	keyPrefix  = "transcript:token:"
	tombstone  = "-"
	defaultTTL = 10 * time.Minute
)

// rememberScript writes "<seq>:<value>" unless the key already holds an entry
// from a later event. Commits can reach the cache out of order; comparing
// sequence numbers keeps a late Minted from resurrecting a burned token.
var rememberScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local sep = string.find(cur, ':', 1, true)
  if sep and tonumber(string.sub(cur, 1, sep - 1)) > tonumber(ARGV[1]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1] .. ':' .. ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCache implements the registry's HashCache on Redis. Minted events
// store the fingerprint and burned events store a tombstone, both stamped
// with the event sequence number.
type RedisCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithTTL sets how long an entry lives. It bounds staleness when a write to
// the cache is lost.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *RedisCache) {
		if b != nil {
			c.breaker = b
		}
	}
}

// WithLogger sets the logger used for breaker transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Redis-backed cache. The client lifecycle is managed by the caller.
func New(client redis.UniversalClient, opts ...Option) *RedisCache {
	c := &RedisCache{
		client:  client,
		ttl:     defaultTTL,
		breaker: circuit.New("transcript-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// ErrCircuitOpen is returned by Lookup while the breaker distrusts Redis.
var ErrCircuitOpen = errors.New("cache circuit open")

// Lookup returns the cached fingerprint of tokenID. A tombstone or missing
// key is reported as a miss.
func (c *RedisCache) Lookup(ctx context.Context, tokenID domain.TokenID) (domain.PDFHash, bool, error) {
	raw, err := c.client.Get(ctx, key(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.PDFHash{}, false, c.succeeded()
	}
	if err != nil {
		c.failed(err)
		return domain.PDFHash{}, false, fmt.Errorf("cache get: %w", err)
	}
	if err := c.succeeded(); err != nil {
		return domain.PDFHash{}, false, err
	}

	_, value, err := decode(raw)
	if err != nil {
		return domain.PDFHash{}, false, err
	}
	if value == tombstone {
		return domain.PDFHash{}, false, nil
	}
	hash, err := domain.ParsePDFHash(value)
	if err != nil {
		return domain.PDFHash{}, false, fmt.Errorf("cache entry for %s: %w", tokenID, err)
	}
	return hash, true, nil
}

// Remember applies a committed event to the cache.
func (c *RedisCache) Remember(ctx context.Context, event models.Event) error {
	var value string
	switch event.Kind {
	case models.EventMinted:
		value = event.PDFHash.Hex()
	case models.EventBurned:
		value = tombstone
	default:
		return fmt.Errorf("cache: unknown event kind %q", event.Kind)
	}

	err := rememberScript.Run(ctx, c.client,
		[]string{key(event.TokenID)},
		strconv.FormatUint(event.Seq, 10), value, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		c.failed(err)
		return fmt.Errorf("cache remember: %w", err)
	}
	// Writes still count toward closing the circuit, but never fail on it.
	_ = c.succeeded()
	return nil
}

// succeeded records a Redis round trip and returns ErrCircuitOpen while the
// breaker has not yet closed again.
func (c *RedisCache) succeeded() error {
	usePrimary, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.Info("cache circuit closed", "breaker", c.breaker.Name())
	}
	if !usePrimary {
		return ErrCircuitOpen
	}
	return nil
}

func (c *RedisCache) failed(err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.Warn("cache circuit opened", "breaker", c.breaker.Name(), "error", err)
	}
}

func key(tokenID domain.TokenID) string {
	return keyPrefix + tokenID.String()
}

func decode(raw string) (uint64, string, error) {
	seqPart, value, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, "", fmt.Errorf("malformed cache entry %q", raw)
	}
	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed cache entry %q: %w", raw, err)
	}
	return seq, value, nil
}
