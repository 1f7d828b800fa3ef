package events

import (
	"context"
	"sync"

	"pickmarket/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypePickResolved   EventType = "pick_resolved"
	EventTypePackageSettled EventType = "package_settled"
	EventTypeOddsSynced     EventType = "odds_synced"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a ledger mutation that occurred
type BalanceChangeEvent struct {
	UserID     int64               `json:"user_id"`
	OldBalance int64               `json:"old_balance"`
	NewBalance int64               `json:"new_balance"`
	Delta      int64               `json:"delta"`
	Reason     models.LedgerReason `json:"reason"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// PickResolvedEvent represents a pick that reached a terminal status
type PickResolvedEvent struct {
	PickID           int64              `json:"pick_id"`
	HandicapperID    int64              `json:"handicapper_id"`
	Status           models.PickStatus  `json:"status"`
	Outcome          models.PickOutcome `json:"outcome"`
	UserCredit       int64              `json:"user_credit"`
	HandicapperShare int64              `json:"handicapper_share"`
	Purchased        bool               `json:"purchased"`
}

func (e PickResolvedEvent) Type() EventType {
	return EventTypePickResolved
}

// PackageSettledEvent represents a guaranteed package that was completed
type PackageSettledEvent struct {
	PackageID int64 `json:"package_id"`
	Won       int   `json:"won"`
	Lost      int   `json:"lost"`
	Refunded  bool  `json:"refunded"`
	Amount    int64 `json:"amount"`
}

func (e PackageSettledEvent) Type() EventType {
	return EventTypePackageSettled
}

// OddsSyncedEvent represents a completed odds feed sync run
type OddsSyncedEvent struct {
	Leagues        int `json:"leagues"`
	MatchesCreated int `json:"matches_created"`
}

func (e OddsSyncedEvent) Type() EventType {
	return EventTypeOddsSynced
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
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
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

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Use background context for event emission so handlers outlive the
	// transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
