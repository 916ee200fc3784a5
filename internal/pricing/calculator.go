// Package pricing computes the price snapshot stored on a booking.  The
// functions are pure; callers supply catalog values and request extras.
package pricing

import "github.com/iliyamo/travel-reservation/internal/model"

// Tax describes how taxes are derived for a booking.  The three parts are
// additive so one Input can express a percentage, a per-unit amount or a
// flat per-booking amount.
type Tax struct {
	RateBP     int   // basis points of the base price
	PerUnit    int64 // multiplied by Units
	PerBooking int64 // charged once
}

// Input is everything the calculator needs.
type Input struct {
	UnitPrice  int64
	Units      int
	Tax        Tax
	ServiceFee int64
	AddOns     []model.AddOn
	Discount   int64
	Currency   string
}

// Calculate returns total = base + taxes + fee + add-ons - discount.  The
// discount is clamped to the gross amount so the total is never negative.
func Calculate(in Input) model.Pricing {
	units := int64(in.Units)
	if units < 0 {
		units = 0
	}
	base := in.UnitPrice * units
	taxes := percentOf(base, in.Tax.RateBP) + in.Tax.PerUnit*units + in.Tax.PerBooking

	var addOnsTotal int64
	for _, a := range in.AddOns {
		addOnsTotal += a.Price
	}

	fee := in.ServiceFee
	if fee < 0 {
		fee = 0
	}
	gross := base + taxes + fee + addOnsTotal
	discount := in.Discount
	if discount < 0 {
		discount = 0
	}
	if discount > gross {
		discount = gross
	}

	return model.Pricing{
		BasePrice:   base,
		Taxes:       taxes,
		ServiceFee:  fee,
		AddOns:      in.AddOns,
		AddOnsTotal: addOnsTotal,
		Discount:    discount,
		Total:       gross - discount,
		Currency:    in.Currency,
	}
}

// ForRoom prices a stay: the nightly rate times the number of nights.
// Party size does not change the room price.
func ForRoom(rt *model.RoomType, nights int, fee int64, addOns []model.AddOn, discount int64) model.Pricing {
	return Calculate(Input{
		UnitPrice:  rt.PricePerNight,
		Units:      nights,
		Tax:        Tax{RateBP: rt.TaxRateBP},
		ServiceFee: fee,
		AddOns:     addOns,
		Discount:   discount,
		Currency:   rt.Currency,
	})
}

// ForSeats prices a seated booking: the fare times the party size, with
// class taxes per passenger or once per booking.
func ForSeats(svc *model.SeatedService, fc model.FareClass, party int, fee int64, addOns []model.AddOn, discount int64) model.Pricing {
	tax := Tax{PerUnit: fc.Taxes}
	if fc.TaxMode == model.TaxPerBooking {
		tax = Tax{PerBooking: fc.Taxes}
	}
	return Calculate(Input{
		UnitPrice:  fc.BasePrice,
		Units:      party,
		Tax:        tax,
		ServiceFee: fee,
		AddOns:     addOns,
		Discount:   discount,
		Currency:   svc.Currency,
	})
}

// percentOf returns amount*bp/10000 rounded half up.
func percentOf(amount int64, bp int) int64 {
	if bp <= 0 || amount <= 0 {
		return 0
	}
	return (amount*int64(bp) + 5000) / 10000
}
