package domain

import (
	"time"
)

type RateLimitResult struct {
	Allow      bool
	Scope      string
	RetryAfter time.Duration
}
