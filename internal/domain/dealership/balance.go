package dealership

import "github.com/dealerdesk/backend/internal/domain/shared/valueobject"

// RecomputeDue derives the outstanding exposure of an account:
// max(creditLimit - advanceAmount, 0). Inputs are assumed non-negative;
// only the result is clamped.
func RecomputeDue(creditLimit, advanceAmount valueobject.Money) valueobject.Money {
	return creditLimit.Subtract(advanceAmount).ClampZero()
}
