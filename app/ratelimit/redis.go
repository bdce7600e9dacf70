package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Memory = (*Redis)(nil)

// Redis shares the rate-limit state between proxy replicas.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and verifies the connection. An empty prefix
// defaults to "news-comb:".
func NewRedis(ctx context.Context, addr, prefix string) (*Redis, error) {
	if prefix == "" {
		prefix = "news-comb:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr, "prefix", prefix)

	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) stateKey() string {
	return r.prefix + "ratelimit:state"
}

func (r *Redis) Snapshot(ctx context.Context) (State, error) {
	fields, err := r.client.HGetAll(ctx, r.stateKey()).Result()
	if err != nil {
		return State{}, fmt.Errorf("failed to read rate limit state: %w", err)
	}
	return decodeState(fields)
}

func (r *Redis) Arm(ctx context.Context, state State) error {
	state.Limited = true

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.stateKey())
	pipe.HSet(ctx, r.stateKey(), encodeState(state))
	pipe.Expire(ctx, r.stateKey(), stateTTL(state))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store rate limit state: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.stateKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear rate limit state: %w", err)
	}
	return nil
}

func (r *Redis) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
		"type":   "redis",
	}

	if err := r.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}

	return health
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// stateTTL keeps the record around for a while after the window elapses so
// the last limit stays visible in diagnostics until the next live outcome.
func stateTTL(state State) time.Duration {
	ttl := 2 * state.RetryAfter
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}

// encodeState stores limited_at in nanoseconds and retry_after in milliseconds.
func encodeState(state State) map[string]interface{} {
	limited := "0"
	if state.Limited {
		limited = "1"
	}
	return map[string]interface{}{
		"limited":     limited,
		"limited_at":  strconv.FormatInt(state.LimitedAt.UnixNano(), 10),
		"retry_after": strconv.FormatInt(state.RetryAfter.Milliseconds(), 10),
		"message":     state.Message,
	}
}

func decodeState(fields map[string]string) (State, error) {
	if len(fields) == 0 {
		return State{}, nil
	}

	limitedAt, err := strconv.ParseInt(fields["limited_at"], 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("invalid limited_at %q: %w", fields["limited_at"], err)
	}

	retryAfter, err := strconv.ParseInt(fields["retry_after"], 10, 64)
	if err != nil {
		return State{}, fmt.Errorf("invalid retry_after %q: %w", fields["retry_after"], err)
	}

	return State{
		Limited:    fields["limited"] == "1",
		LimitedAt:  time.Unix(0, limitedAt),
		RetryAfter: time.Duration(retryAfter) * time.Millisecond,
		Message:    fields["message"],
	}, nil
}
