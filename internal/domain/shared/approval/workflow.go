// Package approval implements the pending -> approved | rejected state machine
// shared by every entity that needs a one-shot sign-off.
package approval

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Decision is the state of an approval workflow
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// IsTerminal reports whether no further transition is possible
func (d Decision) IsTerminal() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Workflow holds the approval state embedded in an owning entity.
// Only one of Approve or Reject can ever succeed.
type Workflow struct {
	Decision  Decision
	DecidedBy *uuid.UUID
	DecidedAt *time.Time
	Reason    string
}

// NewWorkflow returns a workflow in the pending state
func NewWorkflow() Workflow {
	return Workflow{Decision: DecisionPending}
}

// RestoreWorkflow rebuilds a workflow from persisted fields
func RestoreWorkflow(decision Decision, decidedBy *uuid.UUID, decidedAt *time.Time, reason string) Workflow {
	return Workflow{
		Decision:  decision,
		DecidedBy: decidedBy,
		DecidedAt: decidedAt,
		Reason:    reason,
	}
}

// IsPending reports whether the workflow still awaits a decision
func (w *Workflow) IsPending() bool {
	return w.Decision == DecisionPending
}

// Approve moves pending -> approved and stamps the approver
func (w *Workflow) Approve(actor uuid.UUID, at time.Time) error {
	if err := w.ensurePending("approve"); err != nil {
		return err
	}
	w.Decision = DecisionApproved
	w.DecidedBy = &actor
	w.DecidedAt = &at
	return nil
}

// Reject moves pending -> rejected and records the reason
func (w *Workflow) Reject(actor uuid.UUID, at time.Time, reason string) error {
	if err := w.ensurePending("reject"); err != nil {
		return err
	}
	w.Decision = DecisionRejected
	w.DecidedBy = &actor
	w.DecidedAt = &at
	w.Reason = reason
	return nil
}

func (w *Workflow) ensurePending(action string) error {
	if w.Decision != DecisionPending {
		return shared.NewInvalidStateTransition("approval", string(w.Decision), action)
	}
	return nil
}

// Approvable is implemented by entities that embed a Workflow and map its
// decisions onto their own status.
type Approvable interface {
	Approve(actor uuid.UUID, at time.Time) error
	Reject(actor uuid.UUID, at time.Time, reason string) error
	ApprovalState() Workflow
}
