package service

import (
	"context"
	"crypto/rsa"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	deliveryApiScope  = "https://www.googleapis.com/auth/firebase.messaging"
	assertionLifetime = time.Hour
)

type TokenExchangeRepo interface {
	Exchange(ctx context.Context, assertion string) (string, error)
}

// Credentials mints short-lived bearer tokens for the push delivery API:
// it signs a service-account assertion with RS256 and exchanges it at the
// token endpoint. Tokens are minted fresh per send batch, there is no
// cache underneath this contract.
type Credentials struct {
	repo     TokenExchangeRepo
	audience string
}

func NewCredentials(repo TokenExchangeRepo, audience string) Credentials {
	return Credentials{
		repo:     repo,
		audience: audience,
	}
}

func (s Credentials) Mint(ctx context.Context, serviceAccountEmail string, privateKeyPem string) (string, error) {
	privateKey, err := parsePrivateKey(privateKeyPem)
	if err != nil {
		return "", errors.WithMessage(err, "parse private key")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   serviceAccountEmail,
		"scope": deliveryApiScope,
		"aud":   s.audience,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		return "", errors.WithMessage(err, "sign assertion")
	}

	accessToken, err := s.repo.Exchange(ctx, assertion)
	if err != nil {
		return "", errors.WithMessage(err, "exchange assertion")
	}

	return accessToken, nil
}

// parsePrivateKey tolerates the ways a PEM is commonly corrupted on its way
// through environment configuration: literal \n sequences instead of
// newlines and stray quote characters around the value.
func parsePrivateKey(pemValue string) (*rsa.PrivateKey, error) {
	normalized := strings.TrimSpace(pemValue)
	normalized = strings.Trim(normalized, `"'`)
	normalized = strings.ReplaceAll(normalized, `\n`, "\n")

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(normalized))
	if err != nil {
		return nil, errors.WithMessage(err, "parse rsa private key from pem")
	}
	return privateKey, nil
}
