package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker is stored while the first request for a key is in flight.
const pendingMarker = "pending"

// ClaimState is the outcome of Idempotency.Claim.
type ClaimState int

const (
	// ClaimAcquired means this request owns the key and must run.
	ClaimAcquired ClaimState = iota
	// ClaimInFlight means an earlier request with the key has not finished.
	ClaimInFlight
	// ClaimDone means an earlier request finished; the booking id is returned.
	ClaimDone
	// ClaimMismatch means the key was used with a different request body.
	ClaimMismatch
	// ClaimUnavailable means Redis is not configured or failed; run normally.
	ClaimUnavailable
)

// Idempotency remembers Idempotency-Key headers on booking creation.  Each
// key is stored as "{fingerprint}:{pending|booking id}" so a key reused
// with a different body is detected.
type Idempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIdempotency returns a store over rdb.  A nil rdb disables it.
func NewIdempotency(rdb *redis.Client, ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &Idempotency{rdb: rdb, ttl: ttl}
}

// Fingerprint hashes a request body.  Callers pass the decoded body so
// formatting differences do not change the result.
func Fingerprint(body any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Claim reserves key for userID and the request fingerprint.  When the key
// already finished for the same fingerprint, the stored booking id is
// returned.
func (s *Idempotency) Claim(ctx context.Context, userID uint64, key, fingerprint string) (ClaimState, string) {
	if s == nil || s.rdb == nil || key == "" {
		return ClaimUnavailable, ""
	}
	k := idempotencyKey(userID, key)
	for attempt := 0; attempt < 3; attempt++ {
		ok, err := s.rdb.SetNX(ctx, k, fingerprint+":"+pendingMarker, s.ttl).Result()
		if err != nil {
			return ClaimUnavailable, ""
		}
		if ok {
			return ClaimAcquired, ""
		}
		v, err := s.rdb.Get(ctx, k).Result()
		switch {
		case errors.Is(err, redis.Nil):
			// expired between SETNX and GET
			continue
		case err != nil:
			return ClaimUnavailable, ""
		}
		stored, state, _ := strings.Cut(v, ":")
		switch {
		case stored != fingerprint:
			return ClaimMismatch, ""
		case state == pendingMarker:
			return ClaimInFlight, ""
		default:
			return ClaimDone, state
		}
	}
	return ClaimUnavailable, ""
}

// Complete records the booking id created under key.
func (s *Idempotency) Complete(ctx context.Context, userID uint64, key, fingerprint, bookingID string) error {
	if s == nil || s.rdb == nil || key == "" {
		return nil
	}
	return s.rdb.Set(ctx, idempotencyKey(userID, key), fingerprint+":"+bookingID, s.ttl).Err()
}

// Release forgets key so the client may retry after a failure.
func (s *Idempotency) Release(ctx context.Context, userID uint64, key string) error {
	if s == nil || s.rdb == nil || key == "" {
		return nil
	}
	return s.rdb.Del(ctx, idempotencyKey(userID, key)).Err()
}
