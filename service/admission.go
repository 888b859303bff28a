package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"push-gate-service/conf"
	"push-gate-service/domain"
)

type WindowCounterRepo interface {
	Get(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
}

// Admission is a multi-scope fixed-window rate limiter. Scopes are checked
// in configuration order and the first denial wins; a denied scope's counter
// is not incremented because the increment happens on the allow path only.
//
// The read-then-write against the counter store is not atomic, so concurrent
// requests in the same window can both observe a stale count right at the
// threshold and under-count true concurrent load. Good enough for abuse
// dampening, not for hard quotas.
type Admission struct {
	repo   WindowCounterRepo
	scopes []conf.RateScope
	logger log.Logger
}

// NewAdmission accepts a nil repo; the limiter then allows every request.
func NewAdmission(repo WindowCounterRepo, scopes []conf.RateScope, logger log.Logger) Admission {
	return Admission{
		repo:   repo,
		scopes: scopes,
		logger: logger,
	}
}

// AllowRequest applies every configured scope to the request. Store
// failures allow the request through: availability wins over strictness
// when the counter store is down.
func (s Admission) AllowRequest(ctx context.Context, clientIp string, userId string) domain.RateLimitResult {
	for _, scope := range s.scopes {
		identity := ""
		switch scope.Subject {
		case conf.ScopeSubjectIp:
			identity = clientIp
		case conf.ScopeSubjectUser:
			if userId == "" {
				continue
			}
			identity = userId
		case conf.ScopeSubjectGlobal:
			identity = "global"
		default:
			continue
		}

		result, err := s.Check(ctx, scope, identity)
		if err != nil {
			s.logger.Warn(ctx, errors.WithMessagef(err, "admission: check scope '%s', fail open", scope.Name))
			continue
		}
		if !result.Allow {
			return *result
		}
	}

	return domain.RateLimitResult{Allow: true}
}

// Check applies a single scope at the current time.
func (s Admission) Check(ctx context.Context, scope conf.RateScope, identity string) (*domain.RateLimitResult, error) {
	return s.check(ctx, scope, identity, time.Now())
}

func (s Admission) check(ctx context.Context, scope conf.RateScope, identity string, now time.Time) (*domain.RateLimitResult, error) {
	if s.repo == nil {
		return &domain.RateLimitResult{Allow: true}, nil
	}

	nowSec := now.Unix()
	windowIndex := nowSec / scope.WindowSec
	key := fmt.Sprintf("rate_limit:%s:%s:%d", scope.Name, identity, windowIndex)

	count, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, errors.WithMessage(err, "get counter")
	}

	if count >= scope.Max {
		retryAfterSec := scope.WindowSec - nowSec%scope.WindowSec
		if retryAfterSec < 1 {
			retryAfterSec = 1
		}
		return &domain.RateLimitResult{
			Allow:      false,
			Scope:      scope.Name,
			RetryAfter: time.Duration(retryAfterSec) * time.Second,
		}, nil
	}

	ttl := 2 * time.Duration(scope.WindowSec) * time.Second
	err = s.repo.Set(ctx, key, count+1, ttl)
	if err != nil {
		return nil, errors.WithMessage(err, "set counter")
	}

	return &domain.RateLimitResult{Allow: true, Scope: scope.Name}, nil
}
