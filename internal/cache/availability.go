package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-reservation/internal/availability"
	"github.com/iliyamo/travel-reservation/internal/model"
)

// Availability caches availability results per resource generation.  A
// write bumps the generation, which orphans every cached variant of the
// resource at once; the orphans expire through their TTL.
type Availability struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAvailability returns a cache over rdb.  A nil rdb disables caching.
func NewAvailability(rdb *redis.Client, ttl time.Duration) *Availability {
	if ttl <= 0 {
		ttl = DefaultAvailabilityTTL
	}
	return &Availability{rdb: rdb, ttl: ttl}
}

func (a *Availability) generation(ctx context.Context, rt model.ResourceType, id uint64) (int64, error) {
	gen, err := a.rdb.Get(ctx, generationKey(rt, id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns a cached result for the variant, if any, together with the
// generation it looked under.  Callers read the store after Get and pass
// that generation to Set, so a write that commits in between orphans the
// entry instead of hiding behind it.  The generation is negative when it
// could not be read.
func (a *Availability) Get(ctx context.Context, rt model.ResourceType, id uint64, variant string) (availability.Result, int64, bool) {
	if a == nil || a.rdb == nil {
		return availability.Result{}, -1, false
	}
	gen, err := a.generation(ctx, rt, id)
	if err != nil {
		logrus.WithError(err).Debug("availability cache: generation lookup failed")
		return availability.Result{}, -1, false
	}
	raw, err := a.rdb.Get(ctx, resultKey(rt, id, gen, variant)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logrus.WithError(err).Debug("availability cache: get failed")
		}
		return availability.Result{}, gen, false
	}
	var res availability.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return availability.Result{}, gen, false
	}
	return res, gen, true
}

// Set stores res under gen, the generation Get returned before the store
// was read.  A negative gen stores nothing.
func (a *Availability) Set(ctx context.Context, rt model.ResourceType, id uint64, gen int64, variant string, res availability.Result) {
	if a == nil || a.rdb == nil || gen < 0 {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := a.rdb.Set(ctx, resultKey(rt, id, gen, variant), raw, a.ttl).Err(); err != nil {
		logrus.WithError(err).Debug("availability cache: set failed")
	}
}

// Invalidate bumps the generation of the resource.
func (a *Availability) Invalidate(ctx context.Context, rt model.ResourceType, id uint64) {
	if a == nil || a.rdb == nil {
		return
	}
	if err := a.rdb.Incr(ctx, generationKey(rt, id)).Err(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"resource_type": rt, "resource_id": id}).
			Warn("availability cache: invalidate failed")
	}
}
