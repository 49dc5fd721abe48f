package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HatiCode/hostpulse/pkg/snapshot"
)

// RedisStore implements the Store interface using a Redis sorted set as a
// backend. The series lives in one sorted set per host, scored by capture
// time in unix nanoseconds, so List is a single ZRANGEBYSCORE. It suits
// deployments that already run Redis and want the series to survive host
// reimaging; the filesystem store remains the default.
type RedisStore struct {
	client    *redis.Client
	host      string
	retention time.Duration
}

// NewRedisStore creates a Redis-backed store.
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string for no auth)
//   - db: Redis database number (typically 0)
//   - host: series key segment identifying this host (required)
//   - retention: physical retention; entries older than this are trimmed
//     on append (0 keeps everything, matching the filesystem store)
//
// Returns an error wrapping ErrStoreUnavailable if the connection fails.
func NewRedisStore(addr, password string, db int, host string, retention time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if db < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}
	if host == "" {
		return nil, errors.New("host name required")
	}
	for _, c := range host {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.') {
			return nil, fmt.Errorf("invalid host name %q: only alphanumeric, dots, hyphens, and underscores allowed", host)
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: connect to redis at %s: %v", ErrStoreUnavailable, addr, err)
	}

	return &RedisStore{
		client:    client,
		host:      host,
		retention: retention,
	}, nil
}

func (r *RedisStore) seriesKey() string {
	return fmt.Sprintf("hostpulse:series:%s", r.host)
}

func (r *RedisStore) seqKey() string {
	return fmt.Sprintf("hostpulse:series:%s:seq", r.host)
}

// Append adds one snapshot to the host's sorted set. Each member carries a
// monotonic sequence prefix so that two snapshots with identical content
// and timestamp remain distinct entries, and ties list in arrival order.
func (r *RedisStore) Append(ctx context.Context, snap snapshot.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("%w: next sequence: %v", ErrStoreUnavailable, err)
	}

	member := fmt.Sprintf("%020d|%s", seq, data)
	score := float64(snap.Timestamp.UnixNano())

	if err := r.client.ZAdd(ctx, r.seriesKey(), redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("%w: append snapshot: %v", ErrStoreUnavailable, err)
	}

	if r.retention > 0 {
		cutoff := snap.Timestamp.Add(-r.retention).UnixNano()
		if err := r.client.ZRemRangeByScore(ctx, r.seriesKey(), "-inf", fmt.Sprintf("(%d", cutoff)).Err(); err != nil {
			return fmt.Errorf("%w: trim series: %v", ErrStoreUnavailable, err)
		}
	}

	return nil
}

// List returns all snapshots with timestamp strictly after since,
// ascending. Malformed members are skipped and counted.
func (r *RedisStore) List(ctx context.Context, since time.Time) (ListResult, error) {
	members, err := r.client.ZRangeByScore(ctx, r.seriesKey(), &redis.ZRangeBy{
		Min: fmt.Sprintf("(%d", since.UnixNano()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return ListResult{}, fmt.Errorf("%w: range series: %v", ErrStoreUnavailable, err)
	}

	var result ListResult
	for _, member := range members {
		_, data, found := strings.Cut(member, "|")
		if !found {
			result.Skipped++
			continue
		}

		var snap snapshot.Snapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil || snap.Timestamp.IsZero() {
			result.Skipped++
			continue
		}
		result.Snapshots = append(result.Snapshots, snap)
	}

	return result, nil
}

// Ping checks connectivity to the Redis server.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping redis: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
