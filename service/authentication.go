package service

import (
	"context"

	"github.com/pkg/errors"
	"push-gate-service/domain"
)

type CallerCache interface {
	Get(ctx context.Context, token string) (*domain.Caller, error)
	Set(ctx context.Context, token string, caller domain.Caller) error
}

type IdentityRepo interface {
	Lookup(ctx context.Context, idToken string) (*domain.Caller, error)
}

type Auth struct {
	adminSecret string
	cache       CallerCache
	repo        IdentityRepo
}

func NewAuthentication(adminSecret string, cache CallerCache, repo IdentityRepo) Auth {
	return Auth{
		adminSecret: adminSecret,
		cache:       cache,
		repo:        repo,
	}
}

// Authenticate resolves the request's authority. A matching admin secret
// wins over a bearer token and skips identity lookup entirely. Identity
// lookup failures of any kind, network included, come back as an
// unauthenticated response with a reason, never as an error.
func (s Auth) Authenticate(ctx context.Context, adminSecret string, bearerToken string) (*domain.AuthenticateResponse, error) {
	if s.adminSecret != "" && adminSecret == s.adminSecret {
		return &domain.AuthenticateResponse{
			Authenticated: true,
			Caller:        &domain.Caller{Admin: true},
		}, nil
	}

	if bearerToken == "" {
		return &domain.AuthenticateResponse{
			Authenticated: false,
			ErrorReason:   "missing or invalid credentials",
		}, nil
	}

	caller, err := s.cache.Get(ctx, bearerToken)
	if errors.Is(err, domain.ErrCallerCacheMiss) {
		caller, err = s.repo.Lookup(ctx, bearerToken)
		if err != nil {
			return &domain.AuthenticateResponse{
				Authenticated: false,
				ErrorReason:   errors.WithMessage(err, "identity lookup").Error(),
			}, nil
		}
		err = s.cache.Set(ctx, bearerToken, *caller)
		if err != nil {
			return nil, errors.WithMessage(err, "caller cache set")
		}
		return &domain.AuthenticateResponse{
			Authenticated: true,
			Caller:        caller,
		}, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "caller cache get")
	}

	return &domain.AuthenticateResponse{
		Authenticated: true,
		Caller:        caller,
	}, nil
}
