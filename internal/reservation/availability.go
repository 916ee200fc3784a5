package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/travel-reservation/internal/availability"
	"github.com/iliyamo/travel-reservation/internal/metrics"
	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// AvailabilityQuery asks whether a resource can take a party.  Hotels use
// CheckIn/CheckOut, seated services use Date.  Unit is optional on the
// read path: empty means every room or every fare class.
type AvailabilityQuery struct {
	ResourceType model.ResourceType
	ResourceID   uint64
	Unit         string
	CheckIn      time.Time
	CheckOut     time.Time
	Date         time.Time
	PartySize    int
}

func (q AvailabilityQuery) validate() error {
	if q.ResourceID == 0 {
		return newError(KindInvalidInput, "resource id is required")
	}
	if q.PartySize < 1 {
		return newError(KindInvalidInput, "party size must be at least 1")
	}
	switch {
	case q.ResourceType == model.ResourceHotel:
		if q.CheckIn.IsZero() || q.CheckOut.IsZero() {
			return newError(KindInvalidInput, "check_in and check_out are required")
		}
		if !model.NewStay(q.CheckIn, q.CheckOut).Valid() {
			return newError(KindInvalidInput, "check-out must be after check-in")
		}
	case q.ResourceType.IsSeated():
		if q.Date.IsZero() {
			return newError(KindInvalidInput, "date is required")
		}
	default:
		return newError(KindInvalidInput, "unknown resource type %q", q.ResourceType)
	}
	return nil
}

func (q AvailabilityQuery) cacheVariant() string {
	if q.ResourceType == model.ResourceHotel {
		return fmt.Sprintf("%s:%s:%s:%d", q.Unit, model.DateOf(q.CheckIn).Format(model.DateLayout),
			model.DateOf(q.CheckOut).Format(model.DateLayout), q.PartySize)
	}
	return fmt.Sprintf("%s:%s:%d", q.Unit, model.DateOf(q.Date).Format(model.DateLayout), q.PartySize)
}

// CheckAvailability runs the calculator in a read-only transaction.  It
// never writes, so it may be served from the cache; the write path always
// re-checks under locks.  The cache generation is taken before the store
// is read and the result is stored under it.
func (e *Engine) CheckAvailability(ctx context.Context, q AvailabilityQuery) (availability.Result, error) {
	if err := q.validate(); err != nil {
		return availability.Result{}, err
	}
	if q.ResourceType == model.ResourceHotel {
		if err := e.checkStayLength(model.NewStay(q.CheckIn, q.CheckOut)); err != nil {
			return availability.Result{}, err
		}
	}
	variant := q.cacheVariant()
	gen := int64(-1)
	if e.cache != nil {
		cached, g, ok := e.cache.Get(ctx, q.ResourceType, q.ResourceID, variant)
		if ok {
			metrics.AvailabilityCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
		gen = g
		metrics.AvailabilityCacheHits.WithLabelValues("miss").Inc()
	}

	var res availability.Result
	err := e.withTx(ctx, "check_availability", repository.TxOptions{ReadOnly: true}, func(tx repository.Tx) error {
		var err error
		if q.ResourceType == model.ResourceHotel {
			rt, lerr := tx.RoomType(ctx, q.ResourceID)
			if lerr != nil {
				return notFoundOr(lerr, "room type %d not found", q.ResourceID)
			}
			res, err = availability.Room(ctx, tx, rt, q.Unit, model.NewStay(q.CheckIn, q.CheckOut), q.PartySize)
			return err
		}
		svc, lerr := loadService(ctx, tx, q.ResourceType, q.ResourceID)
		if lerr != nil {
			return lerr
		}
		res, err = availability.Seats(ctx, tx, svc, q.Unit, q.Date, q.PartySize)
		return err
	})
	if err != nil {
		return availability.Result{}, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, q.ResourceType, q.ResourceID, gen, variant, res)
	}
	return res, nil
}

// loadService loads a seated service and checks it matches the requested mode.
func loadService(ctx context.Context, tx repository.Tx, mode model.ResourceType, id uint64) (*model.SeatedService, error) {
	svc, err := tx.SeatedService(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "%s %d not found", mode, id)
	}
	if svc.Mode != mode {
		return nil, newError(KindNotFound, "%s %d not found", mode, id)
	}
	return svc, nil
}

// notFoundOr rewrites repository.ErrNotFound into a NotFound error with a
// specific message and passes other errors through.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...), Err: err}
	}
	return err
}
