package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/okian/ladder/internal/domain/model"
)

const (
	defaultRedisKey    = "ladder:events"
	redisPingTimeout   = 5 * time.Second
	redisTombstoneMark = "__deleted__:"
)

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisLog keeps the log as a redis list of JSON-encoded records.
type RedisLog struct {
	client *redis.Client
	key    string
}

// NewRedisLog connects and pings the server.
func NewRedisLog(ctx context.Context, opts RedisOptions) (*RedisLog, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if opts.Key == "" {
		opts.Key = defaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return newRedisLog(ctx, client, opts.Key)
}

func newRedisLog(ctx context.Context, client *redis.Client, key string) (*RedisLog, error) {
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis: %w", ErrUnavailable, err)
	}
	return &RedisLog{client: client, key: key}, nil
}

// ReadAll decodes the whole list.
func (r *RedisLog) ReadAll(ctx context.Context) ([]model.Record, error) {
	items, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: lrange: %w", ErrUnavailable, err)
	}
	records := make([]model.Record, 0, len(items))
	for _, item := range items {
		var rec model.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			// A row that cannot be decoded still occupies its position.
			rec = model.Record{}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Append pushes r to the tail of the list.
func (r *RedisLog) Append(ctx context.Context, rec model.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("%w: rpush: %w", ErrUnavailable, err)
	}
	return nil
}

// DeleteAt overwrites the element with a unique tombstone and removes it in
// one MULTI block; redis has no remove-by-index command.
func (r *RedisLog) DeleteAt(ctx context.Context, position int) error {
	idx, err := index(position)
	if err != nil {
		return err
	}
	n, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		return fmt.Errorf("%w: llen: %w", ErrUnavailable, err)
	}
	if int64(idx) >= n {
		return fmt.Errorf("%w: %d", ErrPositionOutOfRange, position)
	}
	tombstone := redisTombstoneMark + uuid.NewString()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LSet(ctx, r.key, int64(idx), tombstone)
		pipe.LRem(ctx, r.key, 1, tombstone)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: delete at %d: %w", ErrUnavailable, position, err)
	}
	return nil
}

// Kind returns KindRedis.
func (r *RedisLog) Kind() string { return KindRedis }

// Close closes the client.
func (r *RedisLog) Close() error { return r.client.Close() }
