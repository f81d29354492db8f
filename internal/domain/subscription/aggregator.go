package subscription

import "github.com/dealerdesk/backend/internal/domain/shared/valueobject"

// TotalPaid sums the amounts of completed payments only.
// Pending, failed and refunded payments stay in history but never count.
func TotalPaid(payments []Payment) valueobject.Money {
	total := valueobject.Zero()
	for _, p := range payments {
		if p.IsCompleted() {
			total = total.Add(p.Amount)
		}
	}
	return total
}
