package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sjsage522/gpuwatcher/internal/scraper"
)

// RedisStore keeps the fingerprint set in a Redis SET and appends each
// emitted offer to a stream, for deployments where another consumer reads
// the emission log.
type RedisStore struct {
	client *redis.Client
	setKey string
	stream string
}

// NewRedisStore creates a Redis-backed history store
func NewRedisStore(addr string, db int, stream string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisStore{
		client: client,
		setKey: stream + ":fingerprints",
		stream: stream,
	}
}

// Contains checks the fingerprint set
func (s *RedisStore) Contains(ctx context.Context, fingerprint string) (bool, error) {
	seen, err := s.client.SIsMember(ctx, s.setKey, fingerprint).Result()
	if err != nil {
		return false, fmt.Errorf("history: redis SISMEMBER: %w", err)
	}
	return seen, nil
}

// Append records the fingerprint and appends the offer to the stream
func (s *RedisStore) Append(ctx context.Context, offer scraper.Offer) error {
	data, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("history: marshal offer: %w", err)
	}

	if err := s.client.SAdd(ctx, s.setKey, offer.Fingerprint()).Err(); err != nil {
		return fmt.Errorf("history: redis SADD: %w", err)
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"offer": string(data),
		},
	}).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
