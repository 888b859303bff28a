package repository

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/http/httpcli"
	"push-gate-service/domain"
)

const (
	lookupPath = "/v1/accounts:lookup"
)

type Identity struct {
	cli     *httpcli.Client
	baseUrl string
	apiKey  string
}

func NewIdentity(cli *httpcli.Client, baseUrl string, apiKey string) Identity {
	return Identity{
		cli:     cli,
		baseUrl: baseUrl,
		apiKey:  apiKey,
	}
}

type lookupRequest struct {
	IdToken string `json:"idToken"`
}

type lookupUser struct {
	LocalId string `json:"localId"`
	Email   string `json:"email"`
}

type lookupResponse struct {
	Users []lookupUser `json:"users"`
}

// Lookup resolves a bearer identity token to the user it was issued for.
func (r Identity) Lookup(ctx context.Context, idToken string) (*domain.Caller, error) {
	requestUrl := fmt.Sprintf("%s%s?key=%s", r.baseUrl, lookupPath, url.QueryEscape(r.apiKey))
	resp := lookupResponse{}
	_, err := r.cli.Post(requestUrl).
		JsonRequestBody(lookupRequest{IdToken: idToken}).
		JsonResponseBody(&resp).
		StatusCodeToError().
		Do(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "post identity lookup")
	}

	if len(resp.Users) == 0 || resp.Users[0].LocalId == "" {
		return nil, errors.New("identity lookup returned no user for token")
	}

	return &domain.Caller{
		UserId: resp.Users[0].LocalId,
		Email:  resp.Users[0].Email,
	}, nil
}
