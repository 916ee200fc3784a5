package reservation

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-reservation/internal/cancellation"
	"github.com/iliyamo/travel-reservation/internal/logger"
	"github.com/iliyamo/travel-reservation/internal/metrics"
	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/queue"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

// CancelRequest asks to cancel a booking on behalf of Requester.
type CancelRequest struct {
	BookingID string
	Requester Requester
	Reason    string
}

// CancelResult reports the charge and refund applied.
type CancelResult struct {
	Booking *model.Booking    `json:"booking"`
	Tier    cancellation.Tier `json:"tier"`
	Charge  int64             `json:"charge"`
	Refund  int64             `json:"refund"`
}

// CancelBooking moves a pending or confirmed booking to cancelled and
// records the charge from the refund schedule.  The inventory is released
// by the status change alone, since availability only counts active rows.
func (e *Engine) CancelBooking(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	if strings.TrimSpace(req.BookingID) == "" {
		return nil, newError(KindInvalidInput, "booking id is required")
	}
	var res *CancelResult
	err := e.withTx(ctx, "cancel_booking", repository.TxOptions{}, func(tx repository.Tx) error {
		b, err := tx.BookingForUpdate(ctx, req.BookingID)
		if err != nil {
			return notFoundOr(err, "booking %s not found", req.BookingID)
		}
		if !req.Requester.canAccess(b) {
			return newError(KindUnauthorized, "booking %s belongs to another user", b.ID)
		}
		if b.Status == model.StatusCancelled {
			return newError(KindInvalidState, "booking %s is already cancelled", b.ID)
		}
		if !model.CanTransition(b.Status, model.StatusCancelled) {
			return newError(KindInvalidState, "booking %s cannot be cancelled from status %s", b.ID, b.Status)
		}
		if !b.Cancellation.IsCancellable {
			return newError(KindNotCancellable, "booking %s is not cancellable", b.ID)
		}

		now := e.now()
		hoursUntil := b.DepartureAt.Sub(now).Hours()
		q := e.cfg.Policy.Quote(b.ResourceType, b.Pricing.Total, hoursUntil)

		b.Status = model.StatusCancelled
		b.Cancellation.Charge = q.Charge
		b.Cancellation.RefundAmount = q.Refund
		b.Cancellation.Reason = strings.TrimSpace(req.Reason)
		b.Cancellation.CancelledAt = &now
		b.Payment.RefundAmount = q.Refund
		if q.Refund > 0 && b.Payment.Status == model.PaymentCompleted {
			b.Payment.Status = model.PaymentRefundPending
		}
		b.UpdatedAt = now
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		res = &CancelResult{Booking: b, Tier: q.Tier, Charge: q.Charge, Refund: q.Refund}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b := res.Booking
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"booking_id": b.ID,
		"tier":       res.Tier,
		"charge":     res.Charge,
		"refund":     res.Refund,
	}).Info("booking cancelled")
	metrics.BookingsCancelled.WithLabelValues(string(b.ResourceType), string(res.Tier)).Inc()
	metrics.RefundedAmount.WithLabelValues(b.Pricing.Currency).Add(float64(res.Refund))
	e.invalidate(ctx, b.ResourceType, b.ResourceID)
	e.publish(ctx, func() (queue.Envelope, error) {
		return queue.NewBookingCancelled(b, logger.CorrelationIDFromContext(ctx))
	})
	return res, nil
}
