package model

import (
	"strings"
	"time"
)

// ResourceType tags the kind of inventory a booking consumes.  Hotels are
// backed by a RoomType; the three transport modes are backed by a
// SeatedService whose Mode equals the tag.
type ResourceType string

const (
	ResourceHotel  ResourceType = "hotel"
	ResourceFlight ResourceType = "flight"
	ResourceTrain  ResourceType = "train"
	ResourceBus    ResourceType = "bus"
)

// ParseResourceType normalises s and reports whether it names a known type.
func ParseResourceType(s string) (ResourceType, bool) {
	rt := ResourceType(strings.ToLower(strings.TrimSpace(s)))
	switch rt {
	case ResourceHotel, ResourceFlight, ResourceTrain, ResourceBus:
		return rt, true
	}
	return "", false
}

// IsSeated reports whether the type is served by a SeatedService.
func (t ResourceType) IsSeated() bool {
	return t == ResourceFlight || t == ResourceTrain || t == ResourceBus
}

// RoomType is a category of hotel room sharing a nightly price and an
// occupancy limit.  Rooms are kept in catalog order; automatic room
// assignment walks them first to last.
//
// Fields:
//
//	ID            – room_types.id
//	Name          – display name (e.g. "Deluxe").
//	PricePerNight – nightly rate in minor units.
//	TaxRateBP     – tax applied to the base price, in basis points.
//	MaxOccupancy  – maximum party size per room.
//	Currency      – ISO currency code.
//	CheckInTime   – local check-in time ("15:04"); the cancellation
//	                clock counts down to this instant on the first night.
//	Refundable    – false for non-refundable rates.
//	Rooms         – physical rooms of this type.
type RoomType struct {
	ID            uint64         `json:"id"`
	Name          string         `json:"name"`
	PricePerNight int64          `json:"price_per_night"`
	TaxRateBP     int            `json:"tax_rate_bp"`
	MaxOccupancy  int            `json:"max_occupancy"`
	Currency      string         `json:"currency"`
	CheckInTime   string         `json:"check_in_time"`
	Refundable    bool           `json:"refundable"`
	Rooms         []PhysicalRoom `json:"rooms"`
}

// Room returns the physical room with the given number.
func (rt *RoomType) Room(number string) (PhysicalRoom, bool) {
	for _, r := range rt.Rooms {
		if r.Number == number {
			return r, true
		}
	}
	return PhysicalRoom{}, false
}

// PhysicalRoom is a single bookable room.  UnavailableDates holds
// catalog block-outs (maintenance, owner holds); bookings never write to it.
type PhysicalRoom struct {
	Number           string      `json:"number"`
	UnavailableDates []time.Time `json:"unavailable_dates,omitempty"`
}

// BlockedOn reports whether d is a block-out date for the room.
func (r PhysicalRoom) BlockedOn(d time.Time) bool {
	d = DateOf(d)
	for _, u := range r.UnavailableDates {
		if DateOf(u).Equal(d) {
			return true
		}
	}
	return false
}

// TaxMode selects how FareClass.Taxes is applied.
type TaxMode string

const (
	TaxPerPassenger TaxMode = "per_passenger"
	TaxPerBooking   TaxMode = "per_booking"
)

// SeatedService is a scheduled flight, train or bus.  Its fare classes
// carry fixed seat capacity; consumption is derived from the booking ledger.
type SeatedService struct {
	ID          uint64       `json:"id"`
	Mode        ResourceType `json:"mode"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Currency    string       `json:"currency"`
	FareClasses []FareClass  `json:"fare_classes"`
	Schedule    Schedule     `json:"schedule"`
}

// FareClass returns the class with the given code (case-insensitive).
func (s *SeatedService) FareClass(code string) (FareClass, bool) {
	for _, fc := range s.FareClasses {
		if strings.EqualFold(fc.Code, code) {
			return fc, true
		}
	}
	return FareClass{}, false
}

// FareClass is a priced seat bucket with a fixed total.
type FareClass struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	BasePrice  int64   `json:"base_price"`
	Taxes      int64   `json:"taxes"`
	TaxMode    TaxMode `json:"tax_mode"`
	TotalSeats int     `json:"total_seats"`
	Refundable bool    `json:"refundable"`
}

// Frequency describes how often a service operates inside its validity window.
type Frequency string

const (
	FrequencyDaily        Frequency = "daily"
	FrequencyWeekly       Frequency = "weekly"
	FrequencySpecificDays Frequency = "specific_days"
)

// Schedule bounds the dates on which a service operates.  ValidFrom and
// ValidTo are inclusive civil dates.
type Schedule struct {
	ValidFrom     time.Time      `json:"valid_from"`
	ValidTo       time.Time      `json:"valid_to"`
	Frequency     Frequency      `json:"frequency"`
	OperatingDays []time.Weekday `json:"operating_days,omitempty"`
	DepartureTime string         `json:"departure_time"`
}

// RunsOn reports whether the service operates on date d.
func (s Schedule) RunsOn(d time.Time) bool {
	d = DateOf(d)
	if d.Before(DateOf(s.ValidFrom)) || d.After(DateOf(s.ValidTo)) {
		return false
	}
	if s.Frequency == FrequencyDaily {
		return true
	}
	for _, wd := range s.OperatingDays {
		if wd == d.Weekday() {
			return true
		}
	}
	return false
}
