package approvals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ceassist/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisKey is the hash holding approvals when no key is configured.
const DefaultRedisKey = "ceassist:approvals"

// RedisStore keeps approvals as JSON values in a single Redis hash, one
// field per thread ID.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	logger zerolog.Logger
}

// NewRedisStore verifies the connection and returns a store on key.
func NewRedisStore(ctx context.Context, client redis.UniversalClient, key string, logger zerolog.Logger) (*RedisStore, error) {
	if key == "" {
		key = DefaultRedisKey
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{
		client: client,
		key:    key,
		logger: logger.With().Str("component", "approvals").Str("key", key).Logger(),
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, threadID string) (models.Approval, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	value, err := s.client.HGet(ctx, s.key, threadID).Result()
	if errors.Is(err, redis.Nil) {
		return models.Approval{}, false, nil
	}
	if err != nil {
		return models.Approval{}, false, fmt.Errorf("failed to read approval: %w", err)
	}

	var a models.Approval
	if err := json.Unmarshal([]byte(value), &a); err != nil {
		s.logger.Warn().Err(err).Str("thread_id", threadID).Msg("Ignoring malformed approval")
		return models.Approval{}, false, nil
	}
	return a, true, nil
}

func (s *RedisStore) Upsert(ctx context.Context, threadID string, approval models.Approval) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	data, err := json.Marshal(approval)
	if err != nil {
		return fmt.Errorf("failed to encode approval: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, threadID, data).Err(); err != nil {
		return fmt.Errorf("failed to store approval: %w", err)
	}
	return nil
}

func (s *RedisStore) All(ctx context.Context) (map[string]models.Approval, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read approvals: %w", err)
	}

	approvals := make(map[string]models.Approval, len(values))
	for threadID, value := range values {
		var a models.Approval
		if err := json.Unmarshal([]byte(value), &a); err != nil {
			s.logger.Warn().Err(err).Str("thread_id", threadID).Msg("Skipping malformed approval")
			continue
		}
		approvals[threadID] = a
	}
	return approvals, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
