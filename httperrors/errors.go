package httperrors

import (
	"net/http"
	"strconv"

	"github.com/txix-open/isp-kit/json"
)

type HttpError struct {
	statusCode  int
	userMessage string
	detail      string
	retryAfter  int
	err         error
}

func New(statusCode int, userMessage string, internalError error) HttpError {
	return HttpError{
		statusCode:  statusCode,
		userMessage: userMessage,
		err:         internalError,
	}
}

func (e HttpError) Error() string {
	return e.err.Error()
}

func (e HttpError) WithDetail(detail string) HttpError {
	e.detail = detail
	return e
}

func (e HttpError) WithRetryAfter(seconds int) HttpError {
	e.retryAfter = seconds
	return e
}

func (e HttpError) WriteError(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	if e.retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.retryAfter))
	}
	w.WriteHeader(e.statusCode)
	data := map[string]any{
		"error": e.userMessage,
	}
	if e.detail != "" {
		data["detail"] = e.detail
	}
	return json.NewEncoder(w).Encode(data)
}
