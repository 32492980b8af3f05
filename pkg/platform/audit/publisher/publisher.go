// Package publisher fans audit events out to a store, synchronously by
// default or through a buffered channel when configured.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "entgate/pkg/domain"
	audit "entgate/pkg/platform/audit"
)

// Publisher emits audit events to a backing store. Zero-value timestamps and
// categories are filled in at emit time so call sites stay terse.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	ch     chan audit.Event
	wg     sync.WaitGroup
	closed sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous delivery through a
// buffered channel. Close drains the buffer before returning.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.ch = make(chan audit.Event, size)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.ch != nil {
		p.wg.Add(1)
		go p.drainLoop()
	}
	return p
}

func (p *Publisher) drainLoop() {
	defer p.wg.Done()
	for event := range p.ch {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
}

// Emit records an audit event. In async mode a full buffer falls back to a
// synchronous append rather than dropping the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.ch == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.ch <- event:
		return nil
	default:
		return p.store.Append(ctx, event)
	}
}

// List returns the events stored for a user.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close drains any buffered events. Safe to call multiple times.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.ch != nil {
			close(p.ch)
			p.wg.Wait()
		}
	})
}
