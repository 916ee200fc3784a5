// Package cache holds the Redis-backed read-path helpers: the availability
// result cache and the idempotency keys for booking creation.  Every type
// accepts a nil client and then behaves as an always-miss cache, so the
// service runs without Redis.
package cache

import (
	"fmt"
	"time"

	"github.com/iliyamo/travel-reservation/internal/model"
)

const (
	keyAvailGeneration = "avail:gen:%s:%d"
	keyAvailResult     = "avail:%s:%d:g%d:%s"
	keyIdemBooking     = "idem:booking:%d:%s"

	// DefaultAvailabilityTTL bounds how long a read-path result is reused.
	DefaultAvailabilityTTL = 15 * time.Second
	// DefaultIdempotencyTTL is how long a booking Idempotency-Key is remembered.
	DefaultIdempotencyTTL = 24 * time.Hour
)

func generationKey(rt model.ResourceType, id uint64) string {
	return fmt.Sprintf(keyAvailGeneration, rt, id)
}

func resultKey(rt model.ResourceType, id uint64, gen int64, variant string) string {
	return fmt.Sprintf(keyAvailResult, rt, id, gen, variant)
}

func idempotencyKey(userID uint64, key string) string {
	return fmt.Sprintf(keyIdemBooking, userID, key)
}
