package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/subscription"
)

// EventSerializer converts domain events to and from JSON by event type
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]reflect.Type)}
}

// NewLifecycleSerializer returns a serializer that knows every event the
// dealership, subscription and deposit aggregates emit
func NewLifecycleSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(dealership.EventTypeDealershipCreated, &dealership.CreatedEvent{})
	s.Register(dealership.EventTypeDealershipFinancialsUpdated, &dealership.FinancialsUpdatedEvent{})
	s.Register(dealership.EventTypeDealershipStatusChanged, &dealership.StatusChangedEvent{})

	s.Register(subscription.EventTypeSubscriptionCreated, &subscription.CreatedEvent{})
	s.Register(subscription.EventTypeSubscriptionRenewed, &subscription.RenewedEvent{})
	s.Register(subscription.EventTypeSubscriptionStatusChanged, &subscription.StatusChangedEvent{})
	s.Register(subscription.EventTypePaymentRecorded, &subscription.PaymentRecordedEvent{})
	s.Register(subscription.EventTypePaymentRefunded, &subscription.PaymentRefundedEvent{})

	s.Register(deposit.EventTypeDepositRecorded, &deposit.RecordedEvent{})
	s.Register(deposit.EventTypeDepositUpdated, &deposit.UpdatedEvent{})
	s.Register(deposit.EventTypeDepositStatusChanged, &deposit.StatusChangedEvent{})
	s.Register(deposit.EventTypeDepositDeleted, &deposit.DeletedEvent{})
	return s
}

// Register maps an event type to its concrete Go type
func (s *EventSerializer) Register(eventType string, instance shared.DomainEvent) {
	t := reflect.TypeOf(instance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.mu.Lock()
	s.registry[eventType] = t
	s.mu.Unlock()
}

// Serialize encodes an event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes JSON into the registered type for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("registered type for %s does not implement DomainEvent", eventType)
	}
	return event, nil
}

// IsRegistered checks if an event type is known
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}

// RegisteredTypes returns the known event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
