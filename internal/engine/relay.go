package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/stgov/internal/store"
)

// ErrDispatcherStopped is returned by Relay.Poll once its dispatcher no
// longer accepts events.
var ErrDispatcherStopped = errors.New("dispatcher stopped")

const (
	defaultPollInterval = time.Second
	defaultRelayBatch   = 100
)

// Relay feeds the event outbox to a Dispatcher by paging through it with a
// seq cursor. Any process sharing the database may commit the events.
//
// Seqs are allocated under the store's write lock, so a commit never lands
// below the cursor and paging cannot skip an event.
type Relay struct {
	store      *store.Store
	dispatcher *Dispatcher
	interval   time.Duration
	batch      int
	cursor     atomic.Int64
	logger     *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithPollInterval sets how often Run checks the outbox. Default: 1s.
func WithPollInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize caps the events read per query. Default: 100.
func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

// WithRelayLogger sets the relay's logger. Default: slog.Default().
func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = l
	}
}

// NewRelay creates a Relay that delivers events with seq greater than since.
func NewRelay(s *store.Store, d *Dispatcher, since int64, opts ...RelayOption) *Relay {
	r := &Relay{
		store:      s,
		dispatcher: d,
		interval:   defaultPollInterval,
		batch:      defaultRelayBatch,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cursor.Store(since)
	return r
}

// Cursor returns the seq of the last event handed to the dispatcher.
func (r *Relay) Cursor() int64 {
	return r.cursor.Load()
}

// Poll publishes every event past the cursor and returns how many it
// published.
func (r *Relay) Poll(ctx context.Context) (int, error) {
	n := 0
	for {
		events, err := r.store.Events(ctx, r.cursor.Load(), r.batch)
		if err != nil {
			return n, fmt.Errorf("poll outbox: %w", err)
		}
		for _, ev := range events {
			if !r.dispatcher.Publish(ev) {
				return n, ErrDispatcherStopped
			}
			r.cursor.Store(ev.Seq)
			n++
		}
		if len(events) < r.batch {
			return n, nil
		}
	}
}

// Run polls until ctx is cancelled or the dispatcher stops. A failed poll
// is logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("relay starting", "cursor", r.Cursor(), "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.Poll(ctx)
		switch {
		case errors.Is(err, ErrDispatcherStopped):
			r.logger.Info("relay stopping: dispatcher stopped", "cursor", r.Cursor())
			return nil
		case err != nil && ctx.Err() == nil:
			r.logger.Error("relay poll failed", "cursor", r.Cursor(), "error", err)
		case n > 0:
			r.logger.Debug("relay published events", "count", n, "cursor", r.Cursor())
		}

		select {
		case <-ctx.Done():
			r.logger.Info("relay stopping: context cancelled", "cursor", r.Cursor())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
