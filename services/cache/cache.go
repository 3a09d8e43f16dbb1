package cache

import (
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache: miss")

// CacheService holds short-lived operational state, currently the block keys
// set while the retailer is rate-limiting us.
type CacheService interface {
	// Get retrieves a value; ErrCacheMiss (or a backend miss error) when absent
	Get(key string) ([]byte, error)

	// Set stores a value with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value
	Delete(key string) error
}
