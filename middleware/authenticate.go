package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"push-gate-service/domain"
	"push-gate-service/httperrors"
	"push-gate-service/request"
)

const (
	adminSecretHeader   = "X-Admin-Secret"
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

type Authenticator interface {
	Authenticate(ctx context.Context, adminSecret string, bearerToken string) (*domain.AuthenticateResponse, error)
}

func Authenticate(authenticator Authenticator) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			adminSecret := strings.TrimSpace(ctx.Request().Header.Get(adminSecretHeader))
			bearerToken := extractBearerToken(ctx.Request().Header.Get(authorizationHeader))

			resp, err := authenticator.Authenticate(ctx.Context(), adminSecret, bearerToken)
			if err != nil {
				// authentication failures are never a server error for the caller
				return httperrors.New(
					http.StatusUnauthorized,
					"authentication failed",
					errors.WithMessage(err, "authenticate: authenticate"),
				).WithDetail("authentication service failure")
			}
			if !resp.Authenticated {
				return httperrors.New(
					http.StatusUnauthorized,
					"authentication failed",
					errors.WithMessage(errors.New(resp.ErrorReason), "authenticate: authenticate"),
				).WithDetail(resp.ErrorReason)
			}
			ctx.Authenticate(request.Caller{
				Admin:  resp.Caller.Admin,
				UserId: resp.Caller.UserId,
				Email:  resp.Caller.Email,
			})

			return next.Handle(ctx)
		})
	}
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}
