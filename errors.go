package goRateLimit

import (
	"errors"

	"github.com/MrEthical07/goRateLimit/internal/limiter"
	"github.com/MrEthical07/goRateLimit/store"
)

var (
	// ErrStoreNotConfigured is carried by an Outcome when the engine has no counter store.
	ErrStoreNotConfigured = limiter.ErrStoreNotConfigured
	// ErrStoreUnavailable is carried by an Outcome when a counter store call failed.
	ErrStoreUnavailable = limiter.ErrStoreUnavailable
	// ErrRedisUnavailable is wrapped by ErrStoreUnavailable when the Redis store could not be reached.
	ErrRedisUnavailable = store.ErrRedisUnavailable
	// ErrRecordCorrupt is wrapped by ErrStoreUnavailable when a stored counter could not be decoded.
	ErrRecordCorrupt = store.ErrRecordCorrupt
	// ErrInvalidPolicy is returned by ParsePolicyConfig and Config.Validate.
	ErrInvalidPolicy = errors.New("invalid rate-limit policy")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
)
