package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pdf2slides/internal/models"
	"pdf2slides/internal/redis"
)

const redisKeyPrefix = "job:"

// Redis stores jobs as JSON values that expire with the job TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (r *Redis) Save(ctx context.Context, job *models.Job) error {
	if err := validate(job); err != nil {
		return err
	}
	now := time.Now().UTC()
	stamp(job, r.ttl, now)
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	ttl := job.ExpiresAt.Sub(now)
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Put(ctx, redisKey(job.ID), data, ttl); err != nil {
		return fmt.Errorf("store job in redis: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, id string) (*models.Job, error) {
	raw, err := r.client.Fetch(ctx, redisKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job from redis: %w", err)
	}
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Remove(ctx, redisKey(id)); err != nil && !errors.Is(err, redis.ErrCacheMiss) {
		return fmt.Errorf("delete job from redis: %w", err)
	}
	return nil
}
