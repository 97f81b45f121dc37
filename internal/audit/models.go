package audit

import (
	"context"
	"time"
)

// Category classifies audit events by their primary purpose. Compliance
// events need long retention; operations events can be sampled.
type Category string

const (
	CategoryCompliance Category = "compliance"
	CategoryOperations Category = "operations"
)

// Action names the domain occurrence being recorded.
type Action string

const (
	EventRegistryInitialized Action = "registry_initialized"
	EventIssuerRegistered    Action = "issuer_registered"
	EventBondRegistered      Action = "bond_registered"
	EventBondMatured         Action = "bond_matured"
	EventInvestorRegistered  Action = "investor_registered"
	EventBondsBought         Action = "bonds_bought"
	EventBondsSold           Action = "bonds_sold"
	EventBondsRedeemed       Action = "bonds_redeemed"
)

var actionCategories = map[Action]Category{
	EventRegistryInitialized: CategoryOperations,
	EventIssuerRegistered:    CategoryOperations,
	EventBondRegistered:      CategoryCompliance,
	EventBondMatured:         CategoryCompliance,
	EventInvestorRegistered:  CategoryCompliance,
	EventBondsBought:         CategoryCompliance,
	EventBondsSold:           CategoryCompliance,
	EventBondsRedeemed:       CategoryCompliance,
}

// Category returns the category for this action. Unknown actions default
// to operations.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key ledger actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action     Action
	Actor      string
	Subject    string
	Amount     uint64
	RequestID  string
	Device     string
	OccurredAt time.Time
}

// Emitter accepts events from domain services. Implementations must not
// block the caller's critical path longer than a channel send.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
