package approval

import (
	"context"
	"fmt"
)

// Entity kinds reported by PendingCounter
const (
	KindDealership = "dealership"
	KindDeposit    = "deposit"
)

// PendingCounter counts one kind of entity awaiting a decision
type PendingCounter interface {
	CountPending(ctx context.Context) (int64, error)
}

// PendingApprovals aggregates the pending queues of every approvable kind.
// It feeds the pending approvals gauge.
type PendingApprovals struct {
	counters map[string]PendingCounter
}

// NewPendingApprovals creates a PendingApprovals over dealerships and deposits
func NewPendingApprovals(dealerships, deposits PendingCounter) *PendingApprovals {
	return &PendingApprovals{counters: map[string]PendingCounter{
		KindDealership: dealerships,
		KindDeposit:    deposits,
	}}
}

// CountPendingApprovals returns the pending count keyed by entity kind
func (p *PendingApprovals) CountPendingApprovals(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(p.counters))
	for kind, counter := range p.counters {
		if counter == nil {
			continue
		}
		n, err := counter.CountPending(ctx)
		if err != nil {
			return nil, fmt.Errorf("count pending %s: %w", kind, err)
		}
		counts[kind] = n
	}
	return counts, nil
}
