package middleware

import (
	"net/http"
)

const (
	corsAllowedMethods = "POST, OPTIONS"
	corsAllowedHeaders = "Content-Type, Authorization, X-Admin-Secret"
)

// SetCorsHeaders marks the response readable by any browser origin.
// Every response goes out with these headers, error paths included,
// so the calling page can always read the body.
func SetCorsHeaders(header http.Header) {
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", corsAllowedMethods)
	header.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
}
