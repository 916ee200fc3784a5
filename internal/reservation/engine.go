// Package reservation is the booking engine: it answers availability
// queries, commits bookings under unit locks and cancels them under the
// refund schedule.  Every operation is a function of its inputs, the store
// and the clock; side effects that leave the process (events, cache,
// metrics) run only after the transaction has committed.
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-reservation/internal/availability"
	"github.com/iliyamo/travel-reservation/internal/cancellation"
	"github.com/iliyamo/travel-reservation/internal/logger"
	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/queue"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// DefaultCheckInTime is used when a room type has no check-in time.
const DefaultCheckInTime = "14:00"

// DefaultMaxStayNights bounds hotel stays when Config leaves it unset.
const DefaultMaxStayNights = 30

// RoleAdmin may view and cancel any booking.
const RoleAdmin = "ADMIN"

// Publisher delivers booking events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Envelope) error
}

// AvailabilityCache stores read-path results per resource generation.  Get
// reports the generation it looked under and Set stores under the
// generation the caller observed before reading the store; a negative
// generation means unknown and is never stored.  Invalidate must move the
// resource to a new generation.
type AvailabilityCache interface {
	Get(ctx context.Context, rt model.ResourceType, id uint64, variant string) (res availability.Result, gen int64, ok bool)
	Set(ctx context.Context, rt model.ResourceType, id uint64, gen int64, variant string, res availability.Result)
	Invalidate(ctx context.Context, rt model.ResourceType, id uint64)
}

// Config holds engine policy.
type Config struct {
	ServiceFee int64
	Policy     cancellation.Policy
	// DefaultCurrency prices catalog entries that carry no currency.
	DefaultCurrency string
	// MaxStayNights is the longest hotel stay accepted by availability
	// checks and bookings.  Every night is a lock key.
	MaxStayNights int
	// Now is the engine clock; nil means time.Now.
	Now func() time.Time
}

// Engine wires the store and the optional collaborators.
type Engine struct {
	store     repository.Store
	cfg       Config
	publisher Publisher
	cache     AvailabilityCache
}

// Option configures optional collaborators.
type Option func(*Engine)

// WithPublisher sends booking events after commit.
func WithPublisher(p Publisher) Option { return func(e *Engine) { e.publisher = p } }

// WithAvailabilityCache caches read-path availability results.
func WithAvailabilityCache(c AvailabilityCache) Option { return func(e *Engine) { e.cache = c } }

// New returns an engine over store.
func New(store repository.Store, cfg Config, opts ...Option) *Engine {
	if store == nil {
		panic("nil store passed to reservation.New")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxStayNights <= 0 {
		cfg.MaxStayNights = DefaultMaxStayNights
	}
	if cfg.Policy.FlatFeeByType == nil {
		cfg.Policy.FlatFeeByType = map[model.ResourceType]int64{}
	}
	e := &Engine{store: store, cfg: cfg}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) now() time.Time { return e.cfg.Now().UTC() }

// checkStayLength rejects stays longer than MaxStayNights without
// expanding them night by night.
func (e *Engine) checkStayLength(stay model.Stay) error {
	if stay.CheckIn.AddDate(0, 0, e.cfg.MaxStayNights).Before(stay.CheckOut) {
		return newError(KindInvalidInput, "stay is longer than %d nights", e.cfg.MaxStayNights)
	}
	return nil
}

// Requester identifies the caller of an owner-scoped operation.
type Requester struct {
	UserID uint64
	Role   string
}

func (r Requester) canAccess(b *model.Booking) bool {
	return r.Role == RoleAdmin || b.UserID == r.UserID
}

// classify turns store and calculator errors into engine errors.  Anything
// unexpected becomes Internal and is logged in full here.
func (e *Engine) classify(ctx context.Context, op string, err error) error {
	var engErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &engErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: "not found", Err: err}
	case errors.Is(err, repository.ErrLockTimeout), errors.Is(err, repository.ErrConflict), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindConflict, Message: "inventory is locked by a concurrent booking, retry", Err: err}
	case errors.Is(err, availability.ErrUnknownUnit):
		return &Error{Kind: KindNotFound, Message: "unit not found", Err: err}
	case errors.Is(err, availability.ErrInvalidStay):
		return &Error{Kind: KindInvalidInput, Message: availability.ErrInvalidStay.Error(), Err: err}
	}
	logger.FromContext(ctx).WithError(err).WithField("op", op).Error("reservation engine failure")
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (e *Engine) withTx(ctx context.Context, op string, opts repository.TxOptions, fn func(tx repository.Tx) error) error {
	tx, err := e.store.BeginTx(ctx, opts)
	if err != nil {
		return e.classify(ctx, op, err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.FromContext(ctx).WithError(rbErr).WithField("op", op).Warn("rollback failed")
			}
		}
	}()
	if err := fn(tx); err != nil {
		return e.classify(ctx, op, err)
	}
	if opts.ReadOnly {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return e.classify(ctx, op, err)
	}
	committed = true
	return nil
}

func (e *Engine) publish(ctx context.Context, build func() (queue.Envelope, error)) {
	if e.publisher == nil {
		return
	}
	log := logger.FromContext(ctx)
	ev, err := build()
	if err != nil {
		log.WithError(err).Warn("building booking event failed")
		return
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		log.WithError(err).WithFields(logrus.Fields{"event_type": ev.EventType, "event_id": ev.EventID}).
			Warn("publishing booking event failed")
	}
}

func (e *Engine) invalidate(ctx context.Context, rt model.ResourceType, id uint64) {
	if e.cache != nil {
		e.cache.Invalidate(ctx, rt, id)
	}
}
