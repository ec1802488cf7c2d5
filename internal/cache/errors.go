package cache

import "errors"

var (
	ErrCacheMiss = errors.New("cache miss")

	// ErrStaleVersion means the cart was written after the caller read the
	// version, so its lines were not stored
	ErrStaleVersion = errors.New("cart cache version changed")
)
