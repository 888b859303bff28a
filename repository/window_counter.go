package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type WindowCounter struct {
	cli redis.UniversalClient
}

func NewWindowCounter(cli redis.UniversalClient) WindowCounter {
	return WindowCounter{
		cli: cli,
	}
}

func (r WindowCounter) Get(ctx context.Context, key string) (int64, error) {
	value, err := r.cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.WithMessage(err, "redis get")
	}

	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.WithMessagef(err, "parse counter value '%s'", value)
	}
	return count, nil
}

func (r WindowCounter) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	err := r.cli.Set(ctx, key, strconv.FormatInt(value, 10), ttl).Err()
	if err != nil {
		return errors.WithMessage(err, "redis set")
	}
	return nil
}
