package repository

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/http/httpcli"
)

const (
	jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

type TokenExchange struct {
	cli      *httpcli.Client
	endpoint string
}

func NewTokenExchange(cli *httpcli.Client, endpoint string) TokenExchange {
	return TokenExchange{
		cli:      cli,
		endpoint: endpoint,
	}
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Exchange trades a signed assertion for a short-lived access token
// via the JWT-bearer OAuth2 grant.
func (r TokenExchange) Exchange(ctx context.Context, assertion string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", assertion)

	resp := accessTokenResponse{}
	_, err := r.cli.Post(r.endpoint).
		Header("Content-Type", "application/x-www-form-urlencoded").
		RequestBody([]byte(form.Encode())).
		JsonResponseBody(&resp).
		StatusCodeToError().
		Do(ctx)
	if err != nil {
		return "", errors.WithMessage(err, "post token exchange")
	}

	if resp.AccessToken == "" {
		return "", errors.New("token exchange response contains no access_token")
	}

	return resp.AccessToken, nil
}
