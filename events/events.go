package events

import (
	"context"
	"sync"

	"snelos/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeCreditsChanged EventType = "credits_changed"
	EventTypeAccountCreated EventType = "account_created"
	EventTypePostCreated    EventType = "post_created"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// CreditsChangedEvent represents a completed ledger mutation. DeltaCents is
// negative for debits and positive for credits.
type CreditsChangedEvent struct {
	AccountID  string
	DeltaCents int64
	Reason     models.CreditReason
	NewBalance int64
}

func (e CreditsChangedEvent) Type() EventType {
	return EventTypeCreditsChanged
}

// AccountCreatedEvent represents a new ledger account
type AccountCreatedEvent struct {
	AccountID           string
	InitialBalanceCents int64
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// PostCreatedEvent represents a new photo post
type PostCreatedEvent struct {
	PostID    string
	AccountID string
}

func (e PostCreatedEvent) Type() EventType {
	return EventTypePostCreated
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the emitter
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus stashes events published during a unit of work and
// forwards them to the real bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events. Called after a successful commit.
// Emission uses a background context because events are processed
// independently of the (possibly expired) request context.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
