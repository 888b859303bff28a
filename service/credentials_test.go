package service_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/txix-open/isp-kit/http/httpcli"
	"push-gate-service/repository"
	"push-gate-service/service"
)

func TestMintSignsAndExchangesAssertion(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	privateKey, pemValue := newServiceAccountKey(require)

	receivedGrantType := ""
	receivedAssertion := ""
	srv := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		receivedGrantType = req.PostFormValue("grant_type")
		receivedAssertion = req.PostFormValue("assertion")
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"access_token":"delivery-token","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	credentials := service.NewCredentials(repository.NewTokenExchange(httpcli.New(), srv.URL), srv.URL)
	accessToken, err := credentials.Mint(context.Background(), "sa@example.iam", pemValue)
	require.NoError(err)
	require.EqualValues("delivery-token", accessToken)
	require.EqualValues("urn:ietf:params:oauth:grant-type:jwt-bearer", receivedGrantType)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(receivedAssertion, claims, func(token *jwt.Token) (any, error) {
		return &privateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(err)
	require.True(parsed.Valid)
	require.EqualValues("sa@example.iam", claims["iss"])
	require.EqualValues("https://www.googleapis.com/auth/firebase.messaging", claims["scope"])
	require.EqualValues(srv.URL, claims["aud"])
	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	require.EqualValues(3600, exp-iat)
}

func TestMintToleratesMangledPem(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	_, pemValue := newServiceAccountKey(require)

	srv := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"access_token":"delivery-token"}`))
	}))
	t.Cleanup(srv.Close)
	credentials := service.NewCredentials(repository.NewTokenExchange(httpcli.New(), srv.URL), srv.URL)

	// the key as it tends to arrive through environment configuration:
	// quoted and with escaped newlines
	mangled := `"` + strings.ReplaceAll(pemValue, "\n", `\n`) + `"`
	accessToken, err := credentials.Mint(context.Background(), "sa@example.iam", mangled)
	require.NoError(err)
	require.EqualValues("delivery-token", accessToken)
}

func TestMintRejectsGarbageKey(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		require.Fail("token endpoint must not be called with an unparsable key")
	}))
	t.Cleanup(srv.Close)
	credentials := service.NewCredentials(repository.NewTokenExchange(httpcli.New(), srv.URL), srv.URL)

	_, err := credentials.Mint(context.Background(), "sa@example.iam", "not a pem")
	require.Error(err)
}

func TestMintExchangeFailureCarriesUpstreamDetail(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	_, pemValue := newServiceAccountKey(require)

	srv := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	t.Cleanup(srv.Close)
	credentials := service.NewCredentials(repository.NewTokenExchange(httpcli.New(), srv.URL), srv.URL)

	_, err := credentials.Mint(context.Background(), "sa@example.iam", pemValue)
	require.Error(err)
	errResp := httpcli.ErrorResponse{}
	require.True(errors.As(err, &errResp))
	require.EqualValues(http.StatusBadRequest, errResp.StatusCode)
}

func newServiceAccountKey(require *require.Assertions) (*rsa.PrivateKey, string) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(err)
	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	require.NoError(err)
	pemValue := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return privateKey, string(pemValue)
}
