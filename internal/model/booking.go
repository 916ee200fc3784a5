package model

import "time"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusNoShow     Status = "no_show"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:  {StatusCancelled: true, StatusCheckedIn: true, StatusNoShow: true, StatusCompleted: true},
	StatusCheckedIn:  {StatusCheckedOut: true},
	StatusCheckedOut: {StatusCompleted: true},
	StatusCancelled:  {},
	StatusCompleted:  {},
	StatusNoShow:     {},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// ActiveStatuses are the statuses whose bookings consume inventory.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusCheckedIn}

// Consumes reports whether a booking in this status holds inventory.
func (s Status) Consumes() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// PaymentStatus tracks the money side of a booking.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentCompleted     PaymentStatus = "completed"
	PaymentRefundPending PaymentStatus = "refund_pending"
)

// Passenger is one traveller or guest on a booking.
type Passenger struct {
	Name     string `json:"name"`
	Age      int    `json:"age,omitempty"`
	Document string `json:"document,omitempty"`
}

// AddOn is an optional extra (meal, luggage, breakfast) priced at booking time.
type AddOn struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Pricing is the snapshot captured when the booking is created.  It is
// never recomputed, so later catalog price changes leave it untouched.
type Pricing struct {
	BasePrice   int64   `json:"base_price"`
	Taxes       int64   `json:"taxes"`
	ServiceFee  int64   `json:"service_fee"`
	AddOns      []AddOn `json:"add_ons,omitempty"`
	AddOnsTotal int64   `json:"add_ons_total"`
	Discount    int64   `json:"discount"`
	Total       int64   `json:"total"`
	Currency    string  `json:"currency"`
}

// Payment records what the upstream payment provider reported.
type Payment struct {
	Method        string        `json:"method,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Status        PaymentStatus `json:"status"`
	RefundAmount  int64         `json:"refund_amount"`
}

// Cancellation holds the cancellation terms and, once cancelled, the outcome.
type Cancellation struct {
	IsCancellable bool       `json:"is_cancellable"`
	Charge        int64      `json:"charge"`
	RefundAmount  int64      `json:"refund_amount"`
	Reason        string     `json:"reason,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// Booking is one row of the booking ledger.  Rows are appended on
// creation and never deleted; only the status, payment and cancellation
// fields change afterwards.
//
// Fields:
//
//	ID           – bookings.id (UUID, externally visible).
//	UserID       – owner of the booking.
//	ResourceType – hotel, flight, train or bus.
//	ResourceID   – room type id or seated service id.
//	Unit         – room number or fare class code.
//	StartDate    – check-in date or travel date.
//	EndDate      – check-out date; travel date + 1 for seated bookings.
//	DepartureAt  – instant the cancellation schedule counts down to.
//	PartySize    – guests or passengers.
type Booking struct {
	ID           string       `json:"id"`
	UserID       uint64       `json:"user_id"`
	ResourceType ResourceType `json:"resource_type"`
	ResourceID   uint64       `json:"resource_id"`
	Unit         string       `json:"unit"`
	StartDate    time.Time    `json:"start_date"`
	EndDate      time.Time    `json:"end_date"`
	DepartureAt  time.Time    `json:"departure_at"`
	PartySize    int          `json:"party_size"`
	Passengers   []Passenger  `json:"passengers,omitempty"`
	Pricing      Pricing      `json:"pricing"`
	Payment      Payment      `json:"payment"`
	Status       Status       `json:"status"`
	Cancellation Cancellation `json:"cancellation"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Stay returns the booking's date interval.
func (b *Booking) Stay() Stay { return NewStay(b.StartDate, b.EndDate) }
