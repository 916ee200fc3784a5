// Package queue defines the booking events exchanged over the message broker
// and the background consumer that records them.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/travel-reservation/internal/model"
)

const (
	EventBookingConfirmed = "BookingConfirmed"
	EventBookingPending   = "BookingPending"
	EventBookingCancelled = "BookingCancelled"
)

// Producer is stamped on every envelope.
const Producer = "reservation-engine"

// Envelope wraps every event.  Payload holds one of the payload types below,
// selected by EventType.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// BookingPayload is carried by BookingConfirmed and BookingPending.  It has
// enough detail for downstream consumers to notify or report without
// querying the ledger.
type BookingPayload struct {
	BookingID    string             `json:"booking_id"`
	UserID       uint64             `json:"user_id"`
	ResourceType model.ResourceType `json:"resource_type"`
	ResourceID   uint64             `json:"resource_id"`
	Unit         string             `json:"unit"`
	StartDate    string             `json:"start_date"`
	EndDate      string             `json:"end_date"`
	DepartureAt  time.Time          `json:"departure_at"`
	PartySize    int                `json:"party_size"`
	Total        int64              `json:"total"`
	Currency     string             `json:"currency"`
	Status       model.Status       `json:"status"`
}

// BookingCancelledPayload is carried by BookingCancelled.
type BookingCancelledPayload struct {
	BookingPayload
	Charge      int64     `json:"charge"`
	Refund      int64     `json:"refund"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

func bookingPayload(b *model.Booking) BookingPayload {
	return BookingPayload{
		BookingID:    b.ID,
		UserID:       b.UserID,
		ResourceType: b.ResourceType,
		ResourceID:   b.ResourceID,
		Unit:         b.Unit,
		StartDate:    b.StartDate.Format(model.DateLayout),
		EndDate:      b.EndDate.Format(model.DateLayout),
		DepartureAt:  b.DepartureAt,
		PartySize:    b.PartySize,
		Total:        b.Pricing.Total,
		Currency:     b.Pricing.Currency,
		Status:       b.Status,
	}
}

func newEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      Producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// NewBookingCreated builds BookingConfirmed or BookingPending depending on
// the booking status.
func NewBookingCreated(b *model.Booking, correlationID string) (Envelope, error) {
	eventType := EventBookingConfirmed
	if b.Status == model.StatusPending {
		eventType = EventBookingPending
	}
	return newEnvelope(eventType, correlationID, bookingPayload(b))
}

// NewBookingCancelled builds a BookingCancelled event.
func NewBookingCancelled(b *model.Booking, correlationID string) (Envelope, error) {
	p := BookingCancelledPayload{
		BookingPayload: bookingPayload(b),
		Charge:         b.Cancellation.Charge,
		Refund:         b.Cancellation.RefundAmount,
		Reason:         b.Cancellation.Reason,
	}
	if b.Cancellation.CancelledAt != nil {
		p.CancelledAt = *b.Cancellation.CancelledAt
	}
	return newEnvelope(EventBookingCancelled, correlationID, p)
}

// DecodePayload unwraps the payload of an envelope into T.
func DecodePayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
