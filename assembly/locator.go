package assembly

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/txix-open/isp-kit/http/httpcli"
	"github.com/txix-open/isp-kit/log"
	"push-gate-service/conf"
	"push-gate-service/handler"
	"push-gate-service/httperrors"
	"push-gate-service/middleware"
	"push-gate-service/repository"
	"push-gate-service/service"
)

const (
	sendNotificationPath = "/send-notification"

	defaultIdentityEndpoint      = "https://identitytoolkit.googleapis.com"
	defaultTokenExchangeEndpoint = "https://oauth2.googleapis.com/token"
	defaultDeliveryEndpoint      = "https://fcm.googleapis.com"
)

type Locator struct {
	logger log.Logger
}

func NewLocator(logger log.Logger) Locator {
	return Locator{
		logger: logger,
	}
}

func (l Locator) Handler(config conf.Remote, redisCli redis.UniversalClient) http.Handler {
	httpClient := httpcli.New()

	identityRepo := repository.NewIdentity(
		httpClient,
		valueOrDefault(config.IdentityApi.Endpoint, defaultIdentityEndpoint),
		config.IdentityApi.ApiKey,
	)
	callerCache := repository.NewCallerCache(time.Duration(config.Caching.CallerDataInSec) * time.Second)
	authentication := service.NewAuthentication(config.AdminSecret, callerCache, identityRepo)

	var counterRepo service.WindowCounterRepo
	if redisCli != nil {
		counterRepo = repository.NewWindowCounter(redisCli)
	}
	admission := service.NewAdmission(counterRepo, config.RateLimits, l.logger)

	tokenExchangeEndpoint := valueOrDefault(config.TokenExchange.Endpoint, defaultTokenExchangeEndpoint)
	tokenExchangeRepo := repository.NewTokenExchange(httpClient, tokenExchangeEndpoint)
	credentials := service.NewCredentials(tokenExchangeRepo, tokenExchangeEndpoint)

	deliveryRepo := repository.NewDelivery(
		httpClient,
		valueOrDefault(config.Delivery.Endpoint, defaultDeliveryEndpoint),
	)
	dispatch := service.NewDispatch(deliveryRepo)

	notification := handler.NewNotification(credentials, dispatch, config.Delivery)

	chain := middleware.Chain(
		notification,
		middleware.RequestId(),
		middleware.Logger(l.logger, config.Logging.RequestLogEnable, config.Logging.BodyLogEnable),
		middleware.ErrorHandler(l.logger),
		middleware.Authenticate(authentication),
		middleware.RateLimit(admission),
	)
	entrypoint := middleware.Entrypoint(
		config.Http.MaxRequestBodySizeInMb*1024*1024, //nolint:gomnd
		chain,
		l.logger,
	)

	router := mux.NewRouter()
	router.Handle(sendNotificationPath, entrypoint).Methods(http.MethodPost, http.MethodOptions)
	router.NotFoundHandler = errorHandler(http.StatusNotFound, "not found")
	router.MethodNotAllowedHandler = errorHandler(http.StatusMethodNotAllowed, "method not allowed")
	return router
}

func errorHandler(statusCode int, message string) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		middleware.SetCorsHeaders(writer.Header())
		_ = httperrors.New(statusCode, message, errors.New(message)).WriteError(writer)
	})
}

func valueOrDefault(value string, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}
