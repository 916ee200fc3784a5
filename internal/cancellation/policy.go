// Package cancellation implements the time-based refund schedule applied
// when a booking is cancelled.
package cancellation

import "github.com/iliyamo/travel-reservation/internal/model"

// DefaultFlatFee is the charge for cancellations made 72 hours or more
// before departure when no override is configured (100.00 in minor units).
const DefaultFlatFee int64 = 10000

// Tier names the band of the schedule a quote fell into.
type Tier string

const (
	TierFull    Tier = "full_charge"
	TierHalf    Tier = "half_charge"
	TierQuarter Tier = "quarter_charge"
	TierFlat    Tier = "flat_fee"
)

// Quote is the outcome of applying the schedule to a booking total.
// Charge + Refund always equals the total.
type Quote struct {
	Tier   Tier  `json:"tier"`
	Charge int64 `json:"charge"`
	Refund int64 `json:"refund"`
}

// Policy holds the configurable parts of the schedule.
type Policy struct {
	FlatFee       int64
	FlatFeeByType map[model.ResourceType]int64
}

// NewPolicy returns a policy with the given flat fee and no overrides.
func NewPolicy(flatFee int64) Policy {
	return Policy{FlatFee: flatFee, FlatFeeByType: map[model.ResourceType]int64{}}
}

func (p Policy) flatFee(rt model.ResourceType) int64 {
	if fee, ok := p.FlatFeeByType[rt]; ok {
		return fee
	}
	return p.FlatFee
}

// Quote applies the schedule, first match wins:
//
//	hoursUntil < 2   charge 100%
//	hoursUntil < 24  charge 50%
//	hoursUntil < 72  charge 25%
//	otherwise        charge the flat fee, capped at the total
func (p Policy) Quote(rt model.ResourceType, total int64, hoursUntil float64) Quote {
	if total < 0 {
		total = 0
	}
	var q Quote
	switch {
	case hoursUntil < 2:
		q = Quote{Tier: TierFull, Charge: total}
	case hoursUntil < 24:
		q = Quote{Tier: TierHalf, Charge: total / 2}
	case hoursUntil < 72:
		q = Quote{Tier: TierQuarter, Charge: total * 25 / 100}
	default:
		fee := p.flatFee(rt)
		if fee < 0 {
			fee = 0
		}
		if fee > total {
			fee = total
		}
		q = Quote{Tier: TierFlat, Charge: fee}
	}
	q.Refund = total - q.Charge
	return q
}
