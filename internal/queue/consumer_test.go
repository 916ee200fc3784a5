package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-reservation/internal/model"
)

func booking() *model.Booking {
	return &model.Booking{
		ID:           "b-42",
		UserID:       3,
		ResourceType: model.ResourceHotel,
		ResourceID:   1,
		Unit:         "101",
		StartDate:    time.Date(2030, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2030, 3, 12, 0, 0, 0, 0, time.UTC),
		PartySize:    2,
		Pricing:      model.Pricing{Total: 4000, Currency: "INR"},
		Status:       model.StatusConfirmed,
	}
}

func TestNewBookingCreated_PicksTypeFromStatus(t *testing.T) {
	b := booking()
	ev, err := NewBookingCreated(b, "corr")
	require.NoError(t, err)
	assert.Equal(t, EventBookingConfirmed, ev.EventType)
	assert.Equal(t, Producer, ev.Producer)
	assert.Equal(t, "corr", ev.CorrelationID)
	assert.NotEmpty(t, ev.EventID)

	p, err := DecodePayload[BookingPayload](ev.Payload)
	require.NoError(t, err)
	assert.Equal(t, "2030-03-10", p.StartDate)
	assert.Equal(t, int64(4000), p.Total)

	b.Status = model.StatusPending
	ev, err = NewBookingCreated(b, "")
	require.NoError(t, err)
	assert.Equal(t, EventBookingPending, ev.EventType)
}

func TestBookingLog_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "booking.log")
	l := NewBookingLog(path)

	b := booking()
	created, err := NewBookingCreated(b, "")
	require.NoError(t, err)
	body, err := json.Marshal(created)
	require.NoError(t, err)
	require.NoError(t, l.Handle(body))

	now := time.Now()
	b.Status = model.StatusCancelled
	b.Cancellation = model.Cancellation{Charge: 1000, RefundAmount: 3000, Reason: "ill", CancelledAt: &now}
	cancelled, err := NewBookingCancelled(b, "")
	require.NoError(t, err)
	body, err = json.Marshal(cancelled)
	require.NoError(t, err)
	require.NoError(t, l.Handle(body))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Booking confirmed | booking_id=b-42")
	assert.Contains(t, lines[0], "total=4000 INR")
	assert.Contains(t, lines[1], "Booking cancelled | booking_id=b-42")
	assert.Contains(t, lines[1], "refund=3000 INR")
}

func TestBookingLog_RejectsMalformed(t *testing.T) {
	l := NewBookingLog(filepath.Join(t.TempDir(), "booking.log"))
	assert.Error(t, l.Handle([]byte("{")))
	assert.Error(t, l.Handle([]byte(`{"event_type":"Mystery","payload":{}}`)))
}
