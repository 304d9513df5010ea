package proration

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCycle = errors.New("proration: invalid cycle length or days remaining")

// Result describes the mid-cycle charge delta for a plan change. All amounts
// are in the smallest currency unit (cents).
type Result struct {
	PriceDifference int64 `json:"price_difference"`
	ProratedAmount  int64 `json:"prorated_amount"`
	IsUpgrade       bool  `json:"is_upgrade"`
	IsDowngrade     bool  `json:"is_downgrade"`
}

// Calculate computes the prorated charge for switching from the current plan
// price to the new plan price with daysRemaining left in a cycleLengthDays
// cycle.
//
// Downgrades and lateral moves charge nothing: the unused value of the old
// plan is forfeited rather than credited, and the cheaper price takes effect
// at the next renewal. Upgrades charge the price difference scaled to the
// remaining fraction of the cycle, rounded half-up to the nearest cent.
func Calculate(currentPrice, newPrice int64, cycleLengthDays, daysRemaining int) (Result, error) {
	if cycleLengthDays <= 0 || daysRemaining < 0 || daysRemaining > cycleLengthDays {
		return Result{}, fmt.Errorf("%w: cycle=%d remaining=%d", ErrInvalidCycle, cycleLengthDays, daysRemaining)
	}

	diff := newPrice - currentPrice
	res := Result{
		PriceDifference: diff,
		IsUpgrade:       diff > 0,
		IsDowngrade:     diff < 0,
	}

	if diff <= 0 {
		return res, nil
	}

	res.ProratedAmount = int64(math.Round(float64(diff) / float64(cycleLengthDays) * float64(daysRemaining)))
	return res, nil
}

// CalculateFirstPaid computes the charge for a tenant moving onto its first
// paid plan: there is no prior paid period to prorate against, so the full
// plan price is due and the whole cycle remains.
func CalculateFirstPaid(newPrice int64, cycleLengthDays int) (Result, error) {
	if cycleLengthDays <= 0 {
		return Result{}, fmt.Errorf("%w: cycle=%d", ErrInvalidCycle, cycleLengthDays)
	}

	return Result{
		PriceDifference: newPrice,
		ProratedAmount:  newPrice,
		IsUpgrade:       newPrice > 0,
	}, nil
}
