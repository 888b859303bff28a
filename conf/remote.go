package conf

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/rc/schema"
	"github.com/txix-open/jsonschema"
)

const (
	ScopeSubjectIp     = "ip"
	ScopeSubjectUser   = "user"
	ScopeSubjectGlobal = "global"
)

func init() {
	schema.CustomGenerators.Register("logLevel", func(field reflect.StructField, t *jsonschema.Schema) {
		t.Type = "string"
		t.Enum = []any{"debug", "info", "error", "fatal"}
	})
}

type Remote struct {
	Http          Http          `schema:"HTTP settings"`
	Logging       Logging       `schema:"Logging settings"`
	Redis         *Redis        `schema:"Redis settings,required if rate limiting is enabled; when absent the limiter allows every request"`
	RateLimits    []RateScope   `schema:"Rate limiting scopes,checked in order on the send endpoint"`
	Caching       Caching       `schema:"Caching settings"`
	Delivery      Delivery      `schema:"Push delivery settings"`
	IdentityApi   IdentityApi   `schema:"Identity lookup API settings"`
	TokenExchange TokenExchange `schema:"OAuth2 token exchange settings"`
	AdminSecret   string        `schema:"Admin secret,callers presenting it in the X-Admin-Secret header bypass identity lookup"`
}

type Http struct {
	MaxRequestBodySizeInMb int64 `valid:"required" schema:"Maximum request body size,in megabytes"`
}

type Logging struct {
	LogLevel         log.Level `schemaGen:"logLevel" schema:"Log level,request logging is performed on debug level"`
	RequestLogEnable bool      `schema:"Enable request logging"`
	BodyLogEnable    bool      `schema:"Enable request and response body logging,request logging must be enabled"`
}

// RateScope is a single fixed-window admission rule. Subject selects the
// identity a window counter is keyed by: the caller's IP address, the
// authenticated user id or a process-wide constant.
type RateScope struct {
	Name      string `valid:"required" schema:"Scope name,used in counter keys"`
	Subject   string `valid:"required,in(ip|user|global)" schema:"Scope subject"`
	Max       int64  `valid:"required" schema:"Maximum requests per window"`
	WindowSec int64  `valid:"required" schema:"Window length,in seconds"`
}

type Caching struct {
	CallerDataInSec int `valid:"required" schema:"Resolved caller cache time,in seconds"`
}

// Delivery holds the push provider project credentials. The fields are
// validated on the send path, not on start, so a partially configured
// deployment still serves readable errors.
type Delivery struct {
	ProjectId           string `schema:"Push delivery project id"`
	ServiceAccountEmail string `schema:"Service account email,issuer of the signed assertion"`
	PrivateKeyPem       string `schema:"Service account private key,PEM; escaped newlines and stray quotes are tolerated"`
	Endpoint            string `schema:"Push delivery API base url,defaults to the provider v1 endpoint"`
}

type IdentityApi struct {
	ApiKey   string `schema:"Identity lookup API key"`
	Endpoint string `schema:"Identity lookup base url,defaults to the provider endpoint"`
}

type TokenExchange struct {
	Endpoint string `schema:"Token exchange url,defaults to the provider endpoint"`
}

type Redis struct {
	Address  string         `schema:"Address,required if sentinel is not specified"`
	Username string         `schema:"Username"`
	Password string         `schema:"Password"`
	Sentinel *RedisSentinel `schema:"Sentinel settings,required if address is not specified"`
}

type RedisSentinel struct {
	Addresses  []string `valid:"required" schema:"Cluster node addresses"`
	MasterName string   `valid:"required" schema:"Master name"`
	Username   string   `schema:"Sentinel username"`
	Password   string   `schema:"Sentinel password"`
}

func (r Remote) Validate() error {
	if r.Redis != nil && r.Redis.Sentinel == nil && r.Redis.Address == "" {
		return errors.New("invalid redis config. sentinel or address are required")
	}
	for _, scope := range r.RateLimits {
		if scope.WindowSec <= 0 {
			return errors.Errorf("invalid rate limit scope '%s': window must be positive", scope.Name)
		}
		if scope.Max <= 0 {
			return errors.Errorf("invalid rate limit scope '%s': max must be positive", scope.Name)
		}
	}
	return nil
}
