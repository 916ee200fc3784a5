package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// bookingRow mirrors the bookings table.  Passengers and add-ons are JSON
// columns; everything the ledger filters on is a plain column.
type bookingRow struct {
	ID            string       `db:"id"`
	UserID        uint64       `db:"user_id"`
	ResourceType  string       `db:"resource_type"`
	ResourceID    uint64       `db:"resource_id"`
	Unit          string       `db:"unit"`
	StartDate     time.Time    `db:"start_date"`
	EndDate       time.Time    `db:"end_date"`
	DepartureAt   time.Time    `db:"departure_at"`
	PartySize     int          `db:"party_size"`
	Passengers    []byte       `db:"passengers"`
	BasePrice     int64        `db:"base_price"`
	Taxes         int64        `db:"taxes"`
	ServiceFee    int64        `db:"service_fee"`
	AddOns        []byte       `db:"add_ons"`
	AddOnsTotal   int64        `db:"add_ons_total"`
	Discount      int64        `db:"discount"`
	Total         int64        `db:"total"`
	Currency      string       `db:"currency"`
	PaymentMethod string       `db:"payment_method"`
	PaymentTxnID  string       `db:"payment_txn_id"`
	PaymentStatus string       `db:"payment_status"`
	PaymentRefund int64        `db:"payment_refund"`
	Status        string       `db:"status"`
	IsCancellable bool         `db:"is_cancellable"`
	CancelCharge  int64        `db:"cancel_charge"`
	CancelRefund  int64        `db:"cancel_refund"`
	CancelReason  string       `db:"cancel_reason"`
	CancelledAt   sql.NullTime `db:"cancelled_at"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

const bookingColumns = `id, user_id, resource_type, resource_id, unit, start_date, end_date, departure_at,
	party_size, passengers, base_price, taxes, service_fee, add_ons, add_ons_total, discount, total, currency,
	payment_method, payment_txn_id, payment_status, payment_refund,
	status, is_cancellable, cancel_charge, cancel_refund, cancel_reason, cancelled_at, created_at, updated_at`

func toBookingRow(b *model.Booking) (bookingRow, error) {
	passengers := b.Passengers
	if passengers == nil {
		passengers = []model.Passenger{}
	}
	pj, err := json.Marshal(passengers)
	if err != nil {
		return bookingRow{}, fmt.Errorf("encoding passengers: %w", err)
	}
	addOns := b.Pricing.AddOns
	if addOns == nil {
		addOns = []model.AddOn{}
	}
	aj, err := json.Marshal(addOns)
	if err != nil {
		return bookingRow{}, fmt.Errorf("encoding add-ons: %w", err)
	}
	row := bookingRow{
		ID:            b.ID,
		UserID:        b.UserID,
		ResourceType:  string(b.ResourceType),
		ResourceID:    b.ResourceID,
		Unit:          b.Unit,
		StartDate:     model.DateOf(b.StartDate),
		EndDate:       model.DateOf(b.EndDate),
		DepartureAt:   b.DepartureAt.UTC(),
		PartySize:     b.PartySize,
		Passengers:    pj,
		BasePrice:     b.Pricing.BasePrice,
		Taxes:         b.Pricing.Taxes,
		ServiceFee:    b.Pricing.ServiceFee,
		AddOns:        aj,
		AddOnsTotal:   b.Pricing.AddOnsTotal,
		Discount:      b.Pricing.Discount,
		Total:         b.Pricing.Total,
		Currency:      b.Pricing.Currency,
		PaymentMethod: b.Payment.Method,
		PaymentTxnID:  b.Payment.TransactionID,
		PaymentStatus: string(b.Payment.Status),
		PaymentRefund: b.Payment.RefundAmount,
		Status:        string(b.Status),
		IsCancellable: b.Cancellation.IsCancellable,
		CancelCharge:  b.Cancellation.Charge,
		CancelRefund:  b.Cancellation.RefundAmount,
		CancelReason:  b.Cancellation.Reason,
		CreatedAt:     b.CreatedAt.UTC(),
		UpdatedAt:     b.UpdatedAt.UTC(),
	}
	if b.Cancellation.CancelledAt != nil {
		row.CancelledAt = sql.NullTime{Time: b.Cancellation.CancelledAt.UTC(), Valid: true}
	}
	return row, nil
}

func (r bookingRow) toModel() (model.Booking, error) {
	b := model.Booking{
		ID:           r.ID,
		UserID:       r.UserID,
		ResourceType: model.ResourceType(r.ResourceType),
		ResourceID:   r.ResourceID,
		Unit:         r.Unit,
		StartDate:    model.DateOf(r.StartDate),
		EndDate:      model.DateOf(r.EndDate),
		DepartureAt:  r.DepartureAt.UTC(),
		PartySize:    r.PartySize,
		Pricing: model.Pricing{
			BasePrice:   r.BasePrice,
			Taxes:       r.Taxes,
			ServiceFee:  r.ServiceFee,
			AddOnsTotal: r.AddOnsTotal,
			Discount:    r.Discount,
			Total:       r.Total,
			Currency:    r.Currency,
		},
		Payment: model.Payment{
			Method:        r.PaymentMethod,
			TransactionID: r.PaymentTxnID,
			Status:        model.PaymentStatus(r.PaymentStatus),
			RefundAmount:  r.PaymentRefund,
		},
		Status: model.Status(r.Status),
		Cancellation: model.Cancellation{
			IsCancellable: r.IsCancellable,
			Charge:        r.CancelCharge,
			RefundAmount:  r.CancelRefund,
			Reason:        r.CancelReason,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.CancelledAt.Valid {
		at := r.CancelledAt.Time.UTC()
		b.Cancellation.CancelledAt = &at
	}
	if len(r.Passengers) > 0 {
		if err := json.Unmarshal(r.Passengers, &b.Passengers); err != nil {
			return model.Booking{}, fmt.Errorf("decoding passengers of %s: %w", r.ID, err)
		}
		if len(b.Passengers) == 0 {
			b.Passengers = nil
		}
	}
	if len(r.AddOns) > 0 {
		if err := json.Unmarshal(r.AddOns, &b.Pricing.AddOns); err != nil {
			return model.Booking{}, fmt.Errorf("decoding add-ons of %s: %w", r.ID, err)
		}
		if len(b.Pricing.AddOns) == 0 {
			b.Pricing.AddOns = nil
		}
	}
	return b, nil
}

func activeStatusArgs() []string {
	out := make([]string, len(model.ActiveStatuses))
	for i, s := range model.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

// CountRoomOverlaps uses the half-open overlap test on the ledger.
func (t *mysqlTx) CountRoomOverlaps(ctx context.Context, roomTypeID uint64, room string, stay model.Stay) (int, error) {
	q, args, err := sqlx.In(`SELECT COUNT(*) FROM bookings
		WHERE resource_type = ? AND resource_id = ? AND unit = ?
		  AND status IN (?)
		  AND start_date < ? AND end_date > ?`,
		string(model.ResourceHotel), roomTypeID, room, activeStatusArgs(), stay.CheckOut, stay.CheckIn)
	if err != nil {
		return 0, fmt.Errorf("building overlap query: %w", err)
	}
	var n int
	if err := t.tx.GetContext(ctx, &n, t.tx.Rebind(q), args...); err != nil {
		return 0, mapMySQLError(fmt.Errorf("counting overlapping stays: %w", err))
	}
	return n, nil
}

// SeatsTaken sums party sizes, since one booking may hold several seats.
func (t *mysqlTx) SeatsTaken(ctx context.Context, mode model.ResourceType, serviceID uint64, class string, date time.Time) (int, error) {
	q, args, err := sqlx.In(`SELECT COALESCE(SUM(party_size), 0) FROM bookings
		WHERE resource_type = ? AND resource_id = ? AND unit = ?
		  AND start_date = ? AND status IN (?)`,
		string(mode), serviceID, class, model.DateOf(date), activeStatusArgs())
	if err != nil {
		return 0, fmt.Errorf("building seat query: %w", err)
	}
	var n int
	if err := t.tx.GetContext(ctx, &n, t.tx.Rebind(q), args...); err != nil {
		return 0, mapMySQLError(fmt.Errorf("counting seats taken: %w", err))
	}
	return n, nil
}

// InsertBooking appends a row to the ledger.
func (t *mysqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	if t.readOnly {
		return ErrReadOnly
	}
	row, err := toBookingRow(b)
	if err != nil {
		return err
	}
	const q = `INSERT INTO bookings (` + bookingColumns + `) VALUES (
		:id, :user_id, :resource_type, :resource_id, :unit, :start_date, :end_date, :departure_at,
		:party_size, :passengers, :base_price, :taxes, :service_fee, :add_ons, :add_ons_total, :discount, :total, :currency,
		:payment_method, :payment_txn_id, :payment_status, :payment_refund,
		:status, :is_cancellable, :cancel_charge, :cancel_refund, :cancel_reason, :cancelled_at, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, q, row); err != nil {
		return mapMySQLError(fmt.Errorf("inserting booking: %w", err))
	}
	return nil
}

func (t *mysqlTx) getBooking(ctx context.Context, q, id string) (*model.Booking, error) {
	var row bookingRow
	if err := t.tx.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapMySQLError(fmt.Errorf("loading booking %s: %w", id, err))
	}
	b, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *mysqlTx) Booking(ctx context.Context, id string) (*model.Booking, error) {
	return t.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
}

func (t *mysqlTx) BookingForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	if t.readOnly {
		return nil, ErrReadOnly
	}
	return t.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id)
}

// UpdateBooking writes the mutable part of a ledger row.
func (t *mysqlTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	if t.readOnly {
		return ErrReadOnly
	}
	row, err := toBookingRow(b)
	if err != nil {
		return err
	}
	const q = `UPDATE bookings SET
		status = :status,
		payment_status = :payment_status,
		payment_refund = :payment_refund,
		is_cancellable = :is_cancellable,
		cancel_charge = :cancel_charge,
		cancel_refund = :cancel_refund,
		cancel_reason = :cancel_reason,
		cancelled_at = :cancelled_at,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := t.tx.NamedExecContext(ctx, q, row)
	if err != nil {
		return mapMySQLError(fmt.Errorf("updating booking %s: %w", b.ID, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// BookingsByUser lists a user's bookings, newest first.
func (t *mysqlTx) BookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	var rows []bookingRow
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id`
	if err := t.tx.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, mapMySQLError(fmt.Errorf("listing bookings of user %d: %w", userID, err))
	}
	out := make([]model.Booking, 0, len(rows))
	for _, r := range rows {
		b, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
