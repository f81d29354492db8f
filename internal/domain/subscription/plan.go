package subscription

import (
	"strings"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PlanType names the plan tiers that used to travel as bare numbers
type PlanType int

const (
	PlanTypeTrial      PlanType = 1
	PlanTypeBasic      PlanType = 2
	PlanTypePremium    PlanType = 3
	PlanTypeEnterprise PlanType = 4
)

// IsValid checks if the plan type is known
func (t PlanType) IsValid() bool {
	return t >= PlanTypeTrial && t <= PlanTypeEnterprise
}

// String returns the plan type name
func (t PlanType) String() string {
	switch t {
	case PlanTypeTrial:
		return "trial"
	case PlanTypeBasic:
		return "basic"
	case PlanTypePremium:
		return "premium"
	case PlanTypeEnterprise:
		return "enterprise"
	}
	return "unknown"
}

// ModuleRef references a feature module bundled with a plan
type ModuleRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Plan is read-only reference data describing a purchasable subscription term
type Plan struct {
	shared.BaseAggregateRoot
	Name         string
	Type         PlanType
	Price        valueobject.Money
	ValidityDays int
	ProductRange int
	Modules      []ModuleRef
}

// NewPlan creates a plan. Module references are de-duplicated by ID.
func NewPlan(name string, planType PlanType, price valueobject.Money, validityDays, productRange int, modules []ModuleRef, at time.Time) (*Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Plan name cannot be empty")
	}
	if !planType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLAN_TYPE", "Unknown plan type")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Plan price cannot be negative")
	}
	if validityDays < 0 || productRange < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Validity days and product range cannot be negative")
	}

	root := shared.NewBaseAggregateRoot(at)

	return &Plan{
		BaseAggregateRoot: root,
		Name:              name,
		Type:              planType,
		Price:             price,
		ValidityDays:      validityDays,
		ProductRange:      productRange,
		Modules:           uniqueModules(modules),
	}, nil
}

// HasModule reports whether the plan bundles the given module
func (p *Plan) HasModule(id uuid.UUID) bool {
	for _, m := range p.Modules {
		if m.ID == id {
			return true
		}
	}
	return false
}

func uniqueModules(modules []ModuleRef) []ModuleRef {
	seen := make(map[uuid.UUID]struct{}, len(modules))
	out := make([]ModuleRef, 0, len(modules))
	for _, m := range modules {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
