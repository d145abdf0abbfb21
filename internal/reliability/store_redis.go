package reliability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisHashKey is the hash holding one JSON record per source.
const redisHashKey = "newsperspective:source_reliability"

// redisTimeout bounds each store round trip.
const redisTimeout = 5 * time.Second

// RedisStore persists the source map in a Redis hash.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and verifies the Redis backend.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", ErrPersistence, err)
	}

	return &RedisStore{client: client}, nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (map[string]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	raw, err := s.client.HGetAll(ctx, redisHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis hgetall: %v", ErrPersistence, err)
	}

	records := make(map[string]Record, len(raw))
	for source, payload := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("%w: parse record for %s: %v", ErrPersistence, source, err)
		}
		records[source] = rec
	}
	return records, nil
}

// Save implements Store. The whole hash is replaced so deleted sources do
// not linger.
func (s *RedisStore) Save(ctx context.Context, records map[string]Record) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	fields := make(map[string]any, len(records))
	for source, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: encode record for %s: %v", ErrPersistence, source, err)
		}
		fields[source] = payload
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisHashKey)
	if len(fields) > 0 {
		pipe.HSet(ctx, redisHashKey, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: redis save: %v", ErrPersistence, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
