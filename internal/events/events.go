// Package events provides a synchronous in-process publisher for transaction
// lifecycle events. Publish does not return until every handler has finished,
// so subscribers observe a consistent world before the caller continues.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
)

// Kind identifies a transaction lifecycle event.
type Kind string

const (
	// TransactionCreated is published after a transaction is persisted.
	TransactionCreated Kind = "transaction.created"
	// TransactionUpdated is published after a transaction mutation is persisted.
	TransactionUpdated Kind = "transaction.updated"
	// TransactionDeleted is published before the transaction is removed, so
	// handlers observe the pre-deletion entity.
	TransactionDeleted Kind = "transaction.deleted"
)

// TransactionEvent carries the affected transaction. For updates, Previous
// holds the pre-mutation state so handlers can react to what the transaction
// moved away from, not just what it became.
type TransactionEvent struct {
	Kind        Kind
	Transaction *model.Transaction
	Previous    *model.Transaction
	OccurredAt  time.Time
}

// Handler reacts to a transaction event.
type Handler func(ctx context.Context, event TransactionEvent) error

// Publisher fans a transaction event out to its subscribers sequentially.
type Publisher struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe registers a handler. Handlers run in subscription order.
func (p *Publisher) Subscribe(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
}

// Publish invokes every handler sequentially and returns the first handler
// error, leaving later handlers unrun.
func (p *Publisher) Publish(ctx context.Context, event TransactionEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	p.mu.RLock()
	handlers := make([]Handler, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.RUnlock()

	slog.Debug("publishing event", "kind", event.Kind, "handlers", len(handlers))
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("event %s: %w", event.Kind, err)
		}
	}
	return nil
}
