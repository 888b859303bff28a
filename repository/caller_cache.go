package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
	"push-gate-service/cache"
	"push-gate-service/domain"
)

type CallerCache struct {
	cache *cache.Cache
}

func NewCallerCache(duration time.Duration) CallerCache {
	return CallerCache{
		cache: cache.New(duration),
	}
}

func (r CallerCache) Get(ctx context.Context, token string) (*domain.Caller, error) {
	data, ok := r.cache.Get(token)
	if !ok {
		return nil, domain.ErrCallerCacheMiss
	}

	result := domain.Caller{}
	err := json.Unmarshal(data, &result)
	if err != nil {
		return nil, errors.WithMessage(err, "json unmarshal caller")
	}

	return &result, nil
}

func (r CallerCache) Set(ctx context.Context, token string, caller domain.Caller) error {
	value, err := json.Marshal(caller)
	if err != nil {
		return errors.WithMessage(err, "json marshal caller")
	}

	r.cache.Set(token, value)

	return nil
}
