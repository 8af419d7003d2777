// internal/counseling/supplementary/redis.go
package supplementary

import (
	"context"
	"encoding/json"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisSource stores each batch as one JSON element of a Redis list so that
// every worker replica sees the same uploads.
type RedisSource struct {
	client *redis.Client
	key    string
}

func NewRedisSource(client *redis.Client, key string) *RedisSource {
	return &RedisSource{client: client, key: key}
}

func (s *RedisSource) Append(ctx context.Context, batch models.SupplementaryBatch, replace bool) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return apperrors.NewSupplementaryStoreFailedError(err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if replace {
			pipe.Del(ctx, s.key)
		}
		pipe.RPush(ctx, s.key, data)
		return nil
	})
	if err != nil {
		return apperrors.NewSupplementaryStoreFailedError(err)
	}
	return nil
}

func (s *RedisSource) Batches(ctx context.Context) ([]models.SupplementaryBatch, error) {
	items, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, apperrors.NewSupplementaryStoreFailedError(err)
	}

	batches := make([]models.SupplementaryBatch, 0, len(items))
	for _, item := range items {
		var b models.SupplementaryBatch
		if err := json.Unmarshal([]byte(item), &b); err != nil {
			return nil, apperrors.NewSupplementaryStoreFailedError(err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

func (s *RedisSource) Entries(ctx context.Context) ([]models.SupplementaryEntry, error) {
	batches, err := s.Batches(ctx)
	if err != nil {
		return nil, err
	}
	return flattenBatches(batches), nil
}
