package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
)

type Caller struct {
	Admin  bool
	UserId string
	Email  string
}

type Context struct {
	request        *http.Request
	responseWriter http.ResponseWriter

	endpoint string

	authenticated bool
	caller        *Caller
}

func NewContext(request *http.Request, response http.ResponseWriter, endpoint string) *Context {
	return &Context{
		request:        request,
		responseWriter: response,
		endpoint:       endpoint,
	}
}

func (c *Context) Request() *http.Request {
	return c.request
}

func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.responseWriter
}

func (c *Context) SetResponseWriter(writer http.ResponseWriter) {
	c.responseWriter = writer
}

func (c *Context) Endpoint() string {
	return c.endpoint
}

func (c *Context) Authenticate(caller Caller) {
	c.authenticated = true
	c.caller = &caller
}

func (c *Context) GetCaller() (Caller, error) {
	if !c.authenticated {
		return Caller{}, ErrNotAuthenticated
	}
	return *c.caller, nil
}

// ClientIp returns the address the request originated from, preferring the
// first entry of X-Forwarded-For because the service is expected to run
// behind an edge load balancer.
func (c *Context) ClientIp() string {
	forwardedFor := c.request.Header.Get("X-Forwarded-For")
	if forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(c.request.RemoteAddr)
	if err != nil {
		return c.request.RemoteAddr
	}
	return host
}

func (c *Context) Context() context.Context {
	return c.request.Context()
}

func (c *Context) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}
