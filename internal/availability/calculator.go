// Package availability derives free inventory from the booking ledger.
//
// Both resource shapes are expressed as inventory units: a physical room
// over a stay, or a fare class on a travel date.  Consumption is never
// stored on the catalog; it is always the set of active ledger rows, so a
// cancelled booking frees its unit without any extra write.
package availability

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/travel-reservation/internal/model"
	"github.com/iliyamo/travel-reservation/internal/repository"
)

var (
	// ErrUnknownUnit means the requested room number or fare class is not
	// part of the resource.
	ErrUnknownUnit = errors.New("unknown inventory unit")
	// ErrInvalidStay means check-out is not after check-in.
	ErrInvalidStay = errors.New("check-out must be after check-in")
)

// Reader is the ledger view the calculator needs.  repository.Tx
// satisfies it, so the same code runs on the read path and inside the
// booking transaction.
type Reader interface {
	CountRoomOverlaps(ctx context.Context, roomTypeID uint64, room string, stay model.Stay) (int, error)
	SeatsTaken(ctx context.Context, mode model.ResourceType, serviceID uint64, class string, date time.Time) (int, error)
}

// Unit is one allocatable piece of inventory.
type Unit interface {
	// Label is the room number or fare class code.
	Label() string
	// LockKeys lists one key per (unit, date) so different dates never contend.
	LockKeys() []string
	// Remaining is the free capacity according to the ledger.
	Remaining(ctx context.Context, r Reader) (int, error)
	// Fits reports whether a party fits in the given remaining capacity.
	Fits(remaining, partySize int) bool
}

// DateRangeUnit is a physical room over a half-open stay.
type DateRangeUnit struct {
	RoomType *model.RoomType
	Room     model.PhysicalRoom
	Stay     model.Stay
}

func (u DateRangeUnit) Label() string { return u.Room.Number }

func (u DateRangeUnit) LockKeys() []string {
	nights := u.Stay.Nights()
	keys := make([]string, 0, len(nights))
	for _, n := range nights {
		keys = append(keys, repository.RoomLockKey(u.RoomType.ID, u.Room.Number, n))
	}
	return keys
}

// Remaining is 1 when the room is free for every night, otherwise 0.
func (u DateRangeUnit) Remaining(ctx context.Context, r Reader) (int, error) {
	for _, n := range u.Stay.Nights() {
		if u.Room.BlockedOn(n) {
			return 0, nil
		}
	}
	overlaps, err := r.CountRoomOverlaps(ctx, u.RoomType.ID, u.Room.Number, u.Stay)
	if err != nil {
		return 0, err
	}
	if overlaps > 0 {
		return 0, nil
	}
	return 1, nil
}

func (u DateRangeUnit) Fits(remaining, partySize int) bool {
	return remaining >= 1 && partySize <= u.RoomType.MaxOccupancy
}

// PerDateSeatUnit is a fare class on one travel date.
type PerDateSeatUnit struct {
	Service *model.SeatedService
	Class   model.FareClass
	Date    time.Time
}

func (u PerDateSeatUnit) Label() string { return u.Class.Code }

func (u PerDateSeatUnit) LockKeys() []string {
	return []string{repository.SeatLockKey(u.Service.Mode, u.Service.ID, u.Class.Code, u.Date)}
}

// Remaining is total seats minus the seats held by active bookings.
func (u PerDateSeatUnit) Remaining(ctx context.Context, r Reader) (int, error) {
	taken, err := r.SeatsTaken(ctx, u.Service.Mode, u.Service.ID, u.Class.Code, u.Date)
	if err != nil {
		return 0, err
	}
	remaining := u.Class.TotalSeats - taken
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (u PerDateSeatUnit) Fits(remaining, partySize int) bool {
	return remaining >= partySize
}

// UnitResult is the availability of a single unit.
type UnitResult struct {
	Unit      string `json:"unit"`
	Remaining int    `json:"remaining"`
	Available bool   `json:"available"`
}

// Result answers an availability query.
type Result struct {
	IsAvailable    bool         `json:"is_available"`
	RemainingUnits int          `json:"remaining_units"`
	Units          []UnitResult `json:"units"`
	// NotOperating is set when a seated service does not run on the date.
	NotOperating bool `json:"not_operating,omitempty"`
}

// RoomUnits expands a room type into units for a stay.  An empty room
// number selects every room in catalog order.
func RoomUnits(rt *model.RoomType, room string, stay model.Stay) ([]Unit, error) {
	if !stay.Valid() {
		return nil, ErrInvalidStay
	}
	if room != "" {
		r, ok := rt.Room(room)
		if !ok {
			return nil, ErrUnknownUnit
		}
		return []Unit{DateRangeUnit{RoomType: rt, Room: r, Stay: stay}}, nil
	}
	units := make([]Unit, 0, len(rt.Rooms))
	for _, r := range rt.Rooms {
		units = append(units, DateRangeUnit{RoomType: rt, Room: r, Stay: stay})
	}
	return units, nil
}

// SeatUnits expands a service into units for a date.  An empty class
// selects every fare class.
func SeatUnits(svc *model.SeatedService, class string, date time.Time) ([]Unit, error) {
	date = model.DateOf(date)
	if class != "" {
		fc, ok := svc.FareClass(class)
		if !ok {
			return nil, ErrUnknownUnit
		}
		return []Unit{PerDateSeatUnit{Service: svc, Class: fc, Date: date}}, nil
	}
	units := make([]Unit, 0, len(svc.FareClasses))
	for _, fc := range svc.FareClasses {
		units = append(units, PerDateSeatUnit{Service: svc, Class: fc, Date: date})
	}
	return units, nil
}

// Check evaluates every unit.  It has no side effects, so repeated calls
// without an intervening write return identical results.
func Check(ctx context.Context, r Reader, units []Unit, partySize int) (Result, error) {
	res := Result{Units: make([]UnitResult, 0, len(units))}
	for _, u := range units {
		remaining, err := u.Remaining(ctx, r)
		if err != nil {
			return Result{}, err
		}
		ok := partySize >= 1 && u.Fits(remaining, partySize)
		res.Units = append(res.Units, UnitResult{Unit: u.Label(), Remaining: remaining, Available: ok})
		res.RemainingUnits += remaining
		if ok {
			res.IsAvailable = true
		}
	}
	return res, nil
}

// Room answers an availability query for a room type.
func Room(ctx context.Context, r Reader, rt *model.RoomType, room string, stay model.Stay, partySize int) (Result, error) {
	units, err := RoomUnits(rt, room, stay)
	if err != nil {
		return Result{}, err
	}
	return Check(ctx, r, units, partySize)
}

// Seats answers an availability query for a seated service.  A date the
// service does not operate on is unavailable regardless of seats.
func Seats(ctx context.Context, r Reader, svc *model.SeatedService, class string, date time.Time, partySize int) (Result, error) {
	units, err := SeatUnits(svc, class, date)
	if err != nil {
		return Result{}, err
	}
	if !svc.Schedule.RunsOn(date) {
		res := Result{NotOperating: true, Units: make([]UnitResult, 0, len(units))}
		for _, u := range units {
			res.Units = append(res.Units, UnitResult{Unit: u.Label()})
		}
		return res, nil
	}
	return Check(ctx, r, units, partySize)
}
