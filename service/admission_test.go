package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/txix-open/isp-kit/test"
	"push-gate-service/conf"
	"push-gate-service/repository"
	"push-gate-service/service"
)

func TestCheckAllowsUntilMax(t *testing.T) {
	t.Parallel()
	test, require := test.New(t)
	admission, _ := newAdmission(t, test)

	scope := conf.RateScope{Name: "perIP", Subject: conf.ScopeSubjectIp, Max: 3, WindowSec: 60}
	for range 3 {
		result, err := admission.Check(context.Background(), scope, "10.0.0.1")
		require.NoError(err)
		require.True(result.Allow)
	}

	result, err := admission.Check(context.Background(), scope, "10.0.0.1")
	require.NoError(err)
	require.False(result.Allow)
	require.EqualValues("perIP", result.Scope)
	require.GreaterOrEqual(result.RetryAfter, 1*time.Second)
	require.LessOrEqual(result.RetryAfter, 60*time.Second)
}

func TestCheckIdentitiesAreIndependent(t *testing.T) {
	t.Parallel()
	test, require := test.New(t)
	admission, _ := newAdmission(t, test)

	scope := conf.RateScope{Name: "perIP", Subject: conf.ScopeSubjectIp, Max: 1, WindowSec: 60}
	result, err := admission.Check(context.Background(), scope, "10.0.0.1")
	require.NoError(err)
	require.True(result.Allow)

	result, err = admission.Check(context.Background(), scope, "10.0.0.1")
	require.NoError(err)
	require.False(result.Allow)

	result, err = admission.Check(context.Background(), scope, "10.0.0.2")
	require.NoError(err)
	require.True(result.Allow)
}

func TestCheckCounterTtl(t *testing.T) {
	t.Parallel()
	test, require := test.New(t)
	admission, redisSrv := newAdmission(t, test)

	scope := conf.RateScope{Name: "contact", Subject: conf.ScopeSubjectGlobal, Max: 10, WindowSec: 30}
	_, err := admission.Check(context.Background(), scope, "global")
	require.NoError(err)

	keys := redisSrv.Keys()
	require.Len(keys, 1)
	require.EqualValues(60*time.Second, redisSrv.TTL(keys[0]))
}

func TestDeniedScopeIsNotIncremented(t *testing.T) {
	t.Parallel()
	test, require := test.New(t)
	admission, redisSrv := newAdmission(t, test)

	scope := conf.RateScope{Name: "perIP", Subject: conf.ScopeSubjectIp, Max: 1, WindowSec: 60}
	_, err := admission.Check(context.Background(), scope, "10.0.0.1")
	require.NoError(err)

	keys := redisSrv.Keys()
	require.Len(keys, 1)
	value, err := redisSrv.Get(keys[0])
	require.NoError(err)
	require.EqualValues("1", value)

	for range 5 {
		result, err := admission.Check(context.Background(), scope, "10.0.0.1")
		require.NoError(err)
		require.False(result.Allow)
	}

	value, err = redisSrv.Get(keys[0])
	require.NoError(err)
	require.EqualValues("1", value)
}

func TestAllowRequestSkipsUserScopeForAnonymous(t *testing.T) {
	t.Parallel()
	test, require := test.New(t)
	redisSrv := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: redisSrv.Addr()})
	scopes := []conf.RateScope{
		{Name: "perUser", Subject: conf.ScopeSubjectUser, Max: 1, WindowSec: 60},
	}
	admission := service.NewAdmission(repository.NewWindowCounter(cli), scopes, test.Logger())

	for range 5 {
		result := admission.AllowRequest(context.Background(), "10.0.0.1", "")
		require.True(result.Allow)
	}
	require.Empty(redisSrv.Keys())

	result := admission.AllowRequest(context.Background(), "10.0.0.1", "user-1")
	require.True(result.Allow)
	result = admission.AllowRequest(context.Background(), "10.0.0.1", "user-1")
	require.False(result.Allow)
}

func TestAllowRequestShortCircuitsOnFirstDenial(t *testing.T) {
	t.Parallel()
	test, require := test.New(t)
	redisSrv := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: redisSrv.Addr()})
	scopes := []conf.RateScope{
		{Name: "perIP", Subject: conf.ScopeSubjectIp, Max: 1, WindowSec: 60},
		{Name: "global", Subject: conf.ScopeSubjectGlobal, Max: 100, WindowSec: 60},
	}
	admission := service.NewAdmission(repository.NewWindowCounter(cli), scopes, test.Logger())

	result := admission.AllowRequest(context.Background(), "10.0.0.1", "")
	require.True(result.Allow)
	require.Len(redisSrv.Keys(), 2)

	result = admission.AllowRequest(context.Background(), "10.0.0.1", "")
	require.False(result.Allow)
	require.EqualValues("perIP", result.Scope)
	// global counter still holds the single count from the allowed request
	for _, key := range redisSrv.Keys() {
		value, err := redisSrv.Get(key)
		require.NoError(err)
		require.EqualValues("1", value)
	}
}

func TestFailOpenWithoutStore(t *testing.T) {
	t.Parallel()
	test, require := test.New(t)
	scopes := []conf.RateScope{
		{Name: "perIP", Subject: conf.ScopeSubjectIp, Max: 1, WindowSec: 60},
	}
	admission := service.NewAdmission(nil, scopes, test.Logger())

	for range 10 {
		result := admission.AllowRequest(context.Background(), "10.0.0.1", "")
		require.True(result.Allow)
	}
}

type failingCounterRepo struct{}

func (f failingCounterRepo) Get(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("store is down")
}

func (f failingCounterRepo) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return errors.New("store is down")
}

func TestFailOpenOnStoreError(t *testing.T) {
	t.Parallel()
	test, require := test.New(t)
	scopes := []conf.RateScope{
		{Name: "perIP", Subject: conf.ScopeSubjectIp, Max: 1, WindowSec: 60},
	}
	admission := service.NewAdmission(failingCounterRepo{}, scopes, test.Logger())

	for range 10 {
		result := admission.AllowRequest(context.Background(), "10.0.0.1", "")
		require.True(result.Allow)
	}
}

func newAdmission(t *testing.T, test *test.Test) (service.Admission, *miniredis.Miniredis) {
	redisSrv := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: redisSrv.Addr()})
	return service.NewAdmission(repository.NewWindowCounter(cli), nil, test.Logger()), redisSrv
}
