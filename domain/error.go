package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrCallerCacheMiss = errors.New("caller not found in cache")
)
