package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is an optional shared tier so several gateway processes reuse each
// other's live quotes instead of each hitting the upstreams.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

// NewRedis connects to addr and verifies the connection with PING.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{Client: rdb, TTL: ttl, Prefix: "quote:"}, nil
}

// Load returns the shared entry for symbol. A missing key is not an error.
func (r *Redis) Load(ctx context.Context, symbol string) (Entry, bool, error) {
	b, err := r.Client.Get(ctx, r.Prefix+key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", symbol, err)
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, false, fmt.Errorf("redis decode %s: %w", symbol, err)
	}
	return e, true, nil
}

// Store writes e under symbol; Redis expires it after TTL.
func (r *Redis) Store(ctx context.Context, symbol string, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", symbol, err)
	}
	if err := r.Client.Set(ctx, r.Prefix+key(symbol), b, r.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", symbol, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.Client.Close() }
