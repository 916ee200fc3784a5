package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/travel-reservation/internal/model"
)

// Catalog rows mirror the catalog tables.  The catalog is maintained by
// external tooling; the engine only reads it.

type roomTypeRow struct {
	ID            uint64 `db:"id"`
	Name          string `db:"name"`
	PricePerNight int64  `db:"price_per_night"`
	TaxRateBP     int    `db:"tax_rate_bp"`
	MaxOccupancy  int    `db:"max_occupancy"`
	Currency      string `db:"currency"`
	CheckInTime   string `db:"check_in_time"`
	Refundable    bool   `db:"refundable"`
}

type physicalRoomRow struct {
	RoomNumber string `db:"room_number"`
}

type blockedDateRow struct {
	RoomNumber string    `db:"room_number"`
	Day        time.Time `db:"day"`
}

type seatedServiceRow struct {
	ID            uint64    `db:"id"`
	Mode          string    `db:"mode"`
	Code          string    `db:"code"`
	Name          string    `db:"name"`
	Currency      string    `db:"currency"`
	ValidFrom     time.Time `db:"valid_from"`
	ValidTo       time.Time `db:"valid_to"`
	Frequency     string    `db:"frequency"`
	OperatingDays string    `db:"operating_days"`
	DepartureTime string    `db:"departure_time"`
}

type fareClassRow struct {
	Code       string `db:"code"`
	Name       string `db:"name"`
	BasePrice  int64  `db:"base_price"`
	Taxes      int64  `db:"taxes"`
	TaxMode    string `db:"tax_mode"`
	TotalSeats int    `db:"total_seats"`
	Refundable bool   `db:"refundable"`
}

// RoomType loads a room type, its rooms ordered by position and each
// room's block-out dates.
func (t *mysqlTx) RoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	var row roomTypeRow
	const q = `SELECT id, name, price_per_night, tax_rate_bp, max_occupancy, currency, check_in_time, refundable
		FROM room_types WHERE id = ?`
	if err := t.tx.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapMySQLError(fmt.Errorf("loading room type %d: %w", id, err))
	}

	var rooms []physicalRoomRow
	const qRooms = `SELECT room_number FROM physical_rooms WHERE room_type_id = ? ORDER BY position, room_number`
	if err := t.tx.SelectContext(ctx, &rooms, qRooms, id); err != nil {
		return nil, mapMySQLError(fmt.Errorf("loading rooms of type %d: %w", id, err))
	}

	var blocked []blockedDateRow
	const qBlocked = `SELECT room_number, day FROM room_unavailable_dates WHERE room_type_id = ? ORDER BY day`
	if err := t.tx.SelectContext(ctx, &blocked, qBlocked, id); err != nil {
		return nil, mapMySQLError(fmt.Errorf("loading block-out dates of type %d: %w", id, err))
	}
	byRoom := make(map[string][]time.Time)
	for _, b := range blocked {
		byRoom[b.RoomNumber] = append(byRoom[b.RoomNumber], model.DateOf(b.Day))
	}

	rt := &model.RoomType{
		ID:            row.ID,
		Name:          row.Name,
		PricePerNight: row.PricePerNight,
		TaxRateBP:     row.TaxRateBP,
		MaxOccupancy:  row.MaxOccupancy,
		Currency:      row.Currency,
		CheckInTime:   row.CheckInTime,
		Refundable:    row.Refundable,
		Rooms:         make([]model.PhysicalRoom, 0, len(rooms)),
	}
	for _, r := range rooms {
		rt.Rooms = append(rt.Rooms, model.PhysicalRoom{Number: r.RoomNumber, UnavailableDates: byRoom[r.RoomNumber]})
	}
	return rt, nil
}

// SeatedService loads a service with its fare classes in catalog order.
func (t *mysqlTx) SeatedService(ctx context.Context, id uint64) (*model.SeatedService, error) {
	var row seatedServiceRow
	const q = `SELECT id, mode, code, name, currency, valid_from, valid_to, frequency, operating_days, departure_time
		FROM seated_services WHERE id = ?`
	if err := t.tx.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapMySQLError(fmt.Errorf("loading seated service %d: %w", id, err))
	}

	var classes []fareClassRow
	const qClasses = `SELECT code, name, base_price, taxes, tax_mode, total_seats, refundable
		FROM fare_classes WHERE service_id = ? ORDER BY position, code`
	if err := t.tx.SelectContext(ctx, &classes, qClasses, id); err != nil {
		return nil, mapMySQLError(fmt.Errorf("loading fare classes of service %d: %w", id, err))
	}

	days, err := parseWeekdays(row.OperatingDays)
	if err != nil {
		return nil, fmt.Errorf("service %d: %w", id, err)
	}
	svc := &model.SeatedService{
		ID:       row.ID,
		Mode:     model.ResourceType(row.Mode),
		Code:     row.Code,
		Name:     row.Name,
		Currency: row.Currency,
		Schedule: model.Schedule{
			ValidFrom:     model.DateOf(row.ValidFrom),
			ValidTo:       model.DateOf(row.ValidTo),
			Frequency:     model.Frequency(row.Frequency),
			OperatingDays: days,
			DepartureTime: row.DepartureTime,
		},
		FareClasses: make([]model.FareClass, 0, len(classes)),
	}
	for _, c := range classes {
		svc.FareClasses = append(svc.FareClasses, model.FareClass{
			Code:       c.Code,
			Name:       c.Name,
			BasePrice:  c.BasePrice,
			Taxes:      c.Taxes,
			TaxMode:    model.TaxMode(c.TaxMode),
			TotalSeats: c.TotalSeats,
			Refundable: c.Refundable,
		})
	}
	return svc, nil
}

// parseWeekdays reads the operating_days column: comma separated weekday
// numbers with Sunday = 0.
func parseWeekdays(s string) ([]time.Weekday, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []time.Weekday
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid operating day %q", p)
		}
		out = append(out, time.Weekday(n))
	}
	return out, nil
}

// FormatWeekdays is the inverse of parseWeekdays, used when seeding catalog rows.
func FormatWeekdays(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}
