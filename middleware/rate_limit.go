package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"push-gate-service/domain"
	"push-gate-service/httperrors"
	"push-gate-service/request"
)

type AdmissionLimiter interface {
	AllowRequest(ctx context.Context, clientIp string, userId string) domain.RateLimitResult
}

func RateLimit(admission AdmissionLimiter) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			caller, _ := ctx.GetCaller()

			result := admission.AllowRequest(ctx.Context(), ctx.ClientIp(), caller.UserId)
			if !result.Allow {
				retryAfterSec := int(result.RetryAfter.Seconds())
				if retryAfterSec < 1 {
					retryAfterSec = 1
				}
				return httperrors.New(
					http.StatusTooManyRequests,
					fmt.Sprintf("rate limit has been reached, try after %ds", retryAfterSec),
					errors.Errorf("rate limit: scope '%s' limit has been reached", result.Scope),
				).WithRetryAfter(retryAfterSec)
			}

			return next.Handle(ctx)
		})
	}
}
