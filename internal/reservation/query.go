package reservation

import (
	"context"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// GetBooking returns the stored booking.  The pricing snapshot is returned
// as written at creation time.
func (e *Engine) GetBooking(ctx context.Context, id string, who Requester) (*model.Booking, error) {
	if id == "" {
		return nil, newError(KindInvalidInput, "booking id is required")
	}
	var b *model.Booking
	err := e.withTx(ctx, "get_booking", repository.TxOptions{ReadOnly: true}, func(tx repository.Tx) error {
		var err error
		b, err = tx.Booking(ctx, id)
		if err != nil {
			return notFoundOr(err, "booking %s not found", id)
		}
		if !who.canAccess(b) {
			return newError(KindUnauthorized, "booking %s belongs to another user", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookings returns the user's bookings, newest first.
func (e *Engine) ListBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	if userID == 0 {
		return nil, newError(KindUnauthorized, "user is required")
	}
	var out []model.Booking
	err := e.withTx(ctx, "list_bookings", repository.TxOptions{ReadOnly: true}, func(tx repository.Tx) error {
		var err error
		out, err = tx.BookingsByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Booking{}
	}
	return out, nil
}
