package subscription

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
)

// ChangeDirection classifies a plan change by price
type ChangeDirection string

const (
	DirectionUpgrade   ChangeDirection = "upgrade"
	DirectionDowngrade ChangeDirection = "downgrade"
	DirectionSamePlan  ChangeDirection = "same_plan"
)

// PlanChange describes the price impact of moving between plans.
// It is informational; no balancing payment is created from it.
type PlanChange struct {
	PriceDelta valueobject.Money `json:"price_delta"`
	Direction  ChangeDirection   `json:"direction"`
}

// ComputeEndDate returns startDate + validityDays
func ComputeEndDate(start valueobject.Date, validityDays int) valueobject.Date {
	return start.AddDays(validityDays)
}

// ComputePlanChange returns newPlan.price - oldPlan.price and its direction
func ComputePlanChange(oldPlan, newPlan *Plan) PlanChange {
	delta := newPlan.Price.Subtract(oldPlan.Price)
	direction := DirectionSamePlan
	switch {
	case delta.IsPositive():
		direction = DirectionUpgrade
	case delta.IsNegative():
		direction = DirectionDowngrade
	}
	return PlanChange{PriceDelta: delta, Direction: direction}
}

// ApplyRenewal moves sub onto newPlan for a fresh term starting at newStart.
// The status goes back to pending until the new term is paid, the amount
// becomes the new plan's price and the end date is recomputed. Payment
// history is kept, but only payments of the new term count towards it.
//
// sub is updated in place and returned; callers that need the prior state
// must load a separate snapshot first. On error sub is left unchanged.
func ApplyRenewal(sub *Subscription, newPlan *Plan, newStart valueobject.Date, at time.Time) (*Subscription, error) {
	if err := sub.renew(newPlan, newStart, at); err != nil {
		return nil, err
	}
	return sub, nil
}
