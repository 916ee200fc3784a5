package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-reservation/internal/availability"
	"github.com/iliyamo/travel-reservation/internal/logger"
	"github.com/iliyamo/travel-reservation/internal/metrics"
	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/pricing"
	"github.com/iliyamo/travel-reservation/internal/queue"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// PaymentInfo is what the upstream payment step reports.  A transaction id
// means the payment was captured and the booking is confirmed immediately.
type PaymentInfo struct {
	Method        string
	TransactionID string
}

// CreateRequest asks for a booking.  For hotels an empty Unit assigns the
// first free room of the type; seated bookings must name a fare class.
type CreateRequest struct {
	UserID       uint64
	ResourceType model.ResourceType
	ResourceID   uint64
	Unit         string
	CheckIn      time.Time
	CheckOut     time.Time
	Date         time.Time
	PartySize    int
	Passengers   []model.Passenger
	AddOns       []model.AddOn
	Discount     int64
	Payment      PaymentInfo
}

func (r CreateRequest) validate() error {
	if r.UserID == 0 {
		return newError(KindUnauthorized, "user is required")
	}
	if r.ResourceID == 0 {
		return newError(KindInvalidInput, "resource id is required")
	}
	if r.PartySize < 1 {
		return newError(KindInvalidInput, "party size must be at least 1")
	}
	if len(r.Passengers) > 0 && len(r.Passengers) != r.PartySize {
		return newError(KindInvalidInput, "passengers must list exactly %d travellers", r.PartySize)
	}
	for _, a := range r.AddOns {
		if a.Price < 0 {
			return newError(KindInvalidInput, "add-on %q has a negative price", a.Name)
		}
	}
	if r.Discount < 0 {
		return newError(KindInvalidInput, "discount must not be negative")
	}
	switch {
	case r.ResourceType == model.ResourceHotel:
		if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
			return newError(KindInvalidInput, "check_in and check_out are required")
		}
		if !model.NewStay(r.CheckIn, r.CheckOut).Valid() {
			return newError(KindInvalidInput, "check-out must be after check-in")
		}
	case r.ResourceType.IsSeated():
		if r.Date.IsZero() {
			return newError(KindInvalidInput, "date is required")
		}
		if r.Unit == "" {
			return newError(KindInvalidInput, "fare class is required")
		}
	default:
		return newError(KindInvalidInput, "unknown resource type %q", r.ResourceType)
	}
	return nil
}

// CreateBooking validates the request, locks the unit's dates, re-runs the
// availability check inside the same transaction, prices the booking and
// appends it to the ledger.  Exactly one of two concurrent requests for the
// last unit succeeds; the other gets a Conflict.
func (e *Engine) CreateBooking(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.ResourceType == model.ResourceHotel {
		if err := e.checkStayLength(model.NewStay(req.CheckIn, req.CheckOut)); err != nil {
			return nil, err
		}
	}
	var booking *model.Booking
	err := e.withTx(ctx, "create_booking", repository.TxOptions{}, func(tx repository.Tx) error {
		var err error
		if req.ResourceType == model.ResourceHotel {
			booking, err = e.allocateRoom(ctx, tx, req)
		} else {
			booking, err = e.allocateSeats(ctx, tx, req)
		}
		if err != nil {
			return err
		}
		return tx.InsertBooking(ctx, booking)
	})
	if err != nil {
		if KindOf(err) == KindConflict {
			metrics.BookingConflicts.WithLabelValues(string(req.ResourceType)).Inc()
		}
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"booking_id":    booking.ID,
		"resource_type": booking.ResourceType,
		"resource_id":   booking.ResourceID,
		"unit":          booking.Unit,
		"status":        booking.Status,
		"total":         booking.Pricing.Total,
	}).Info("booking created")
	metrics.BookingsCreated.WithLabelValues(string(booking.ResourceType), string(booking.Status)).Inc()
	e.invalidate(ctx, booking.ResourceType, booking.ResourceID)
	e.publish(ctx, func() (queue.Envelope, error) {
		return queue.NewBookingCreated(booking, logger.CorrelationIDFromContext(ctx))
	})
	return booking, nil
}

func (e *Engine) allocateRoom(ctx context.Context, tx repository.Tx, req CreateRequest) (*model.Booking, error) {
	rt, err := tx.RoomType(ctx, req.ResourceID)
	if err != nil {
		return nil, notFoundOr(err, "room type %d not found", req.ResourceID)
	}
	stay := model.NewStay(req.CheckIn, req.CheckOut)
	if stay.CheckIn.Before(model.DateOf(e.now())) {
		return nil, newError(KindInvalidInput, "check-in date is in the past")
	}
	units, err := availability.RoomUnits(rt, req.Unit, stay)
	if err != nil {
		if errors.Is(err, availability.ErrUnknownUnit) {
			return nil, newError(KindNotFound, "room %q not found", req.Unit)
		}
		return nil, err
	}
	if len(units) == 0 {
		return nil, newError(KindNotFound, "room type %d has no rooms", rt.ID)
	}
	if req.PartySize > rt.MaxOccupancy {
		return nil, newError(KindCapacityExceeded, "party of %d exceeds room occupancy of %d", req.PartySize, rt.MaxOccupancy)
	}
	unit, err := claim(ctx, tx, units, req.PartySize)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		if req.Unit != "" {
			return nil, newError(KindConflict, "room %s is not available for the requested dates", req.Unit)
		}
		return nil, newError(KindConflict, "no %s room is available for the requested dates", rt.Name)
	}

	clock := rt.CheckInTime
	if clock == "" {
		clock = DefaultCheckInTime
	}
	departure, err := model.At(stay.CheckIn, clock)
	if err != nil {
		return nil, err
	}
	price := pricing.ForRoom(rt, len(stay.Nights()), e.cfg.ServiceFee, req.AddOns, req.Discount)
	return e.newBooking(req, unit.Label(), stay.CheckIn, stay.CheckOut, departure, price, rt.Refundable), nil
}

func (e *Engine) allocateSeats(ctx context.Context, tx repository.Tx, req CreateRequest) (*model.Booking, error) {
	svc, err := loadService(ctx, tx, req.ResourceType, req.ResourceID)
	if err != nil {
		return nil, err
	}
	date := model.DateOf(req.Date)
	if !svc.Schedule.RunsOn(date) {
		return nil, newError(KindInvalidInput, "%s %s does not operate on %s", svc.Mode, svc.Code, date.Format(model.DateLayout))
	}
	departure, err := model.At(date, svc.Schedule.DepartureTime)
	if err != nil {
		return nil, err
	}
	if departure.Before(e.now()) {
		return nil, newError(KindInvalidInput, "departure has already passed")
	}
	fc, ok := svc.FareClass(req.Unit)
	if !ok {
		return nil, newError(KindNotFound, "fare class %q not found", req.Unit)
	}
	if req.PartySize > fc.TotalSeats {
		return nil, newError(KindCapacityExceeded, "party of %d exceeds the %d seats of class %s", req.PartySize, fc.TotalSeats, fc.Code)
	}
	units, err := availability.SeatUnits(svc, fc.Code, date)
	if err != nil {
		return nil, err
	}
	unit, err := claim(ctx, tx, units, req.PartySize)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, newError(KindConflict, "not enough seats left in class %s", fc.Code)
	}
	price := pricing.ForSeats(svc, fc, req.PartySize, e.cfg.ServiceFee, req.AddOns, req.Discount)
	return e.newBooking(req, fc.Code, date, date.AddDate(0, 0, 1), departure, price, fc.Refundable), nil
}

// claim walks the candidate units in order and returns the first one that
// still fits after its lock keys are held.  With several candidates a
// lock-free pre-check skips units that are visibly taken.
func claim(ctx context.Context, tx repository.Tx, units []availability.Unit, partySize int) (availability.Unit, error) {
	for _, u := range units {
		if len(units) > 1 {
			remaining, err := u.Remaining(ctx, tx)
			if err != nil {
				return nil, err
			}
			if !u.Fits(remaining, partySize) {
				continue
			}
		}
		if err := tx.LockUnits(ctx, u.LockKeys()); err != nil {
			return nil, err
		}
		remaining, err := u.Remaining(ctx, tx)
		if err != nil {
			return nil, err
		}
		if u.Fits(remaining, partySize) {
			return u, nil
		}
	}
	return nil, nil
}

func (e *Engine) newBooking(req CreateRequest, unit string, start, end, departure time.Time, price model.Pricing, refundable bool) *model.Booking {
	now := e.now()
	if price.Currency == "" {
		price.Currency = e.cfg.DefaultCurrency
	}
	status := model.StatusPending
	paymentStatus := model.PaymentPending
	if req.Payment.TransactionID != "" {
		status = model.StatusConfirmed
		paymentStatus = model.PaymentCompleted
	}
	return &model.Booking{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Unit:         unit,
		StartDate:    start,
		EndDate:      end,
		DepartureAt:  departure,
		PartySize:    req.PartySize,
		Passengers:   req.Passengers,
		Pricing:      price,
		Payment: model.Payment{
			Method:        req.Payment.Method,
			TransactionID: req.Payment.TransactionID,
			Status:        paymentStatus,
		},
		Status:       status,
		Cancellation: model.Cancellation{IsCancellable: refundable},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
