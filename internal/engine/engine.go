package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/store"
)

// Engine executes governance operations against a Store.
//
// Every mutation runs in one store transaction together with its derived
// state (tag index rows, links, outbox event), so it either commits all of
// its side effects or none. Committed events are handed to the Dispatcher,
// if one is configured.
//
// Safe for concurrent use. Conflicting mutations of the same lineage are
// resolved by compare-and-swap in the store.
type Engine struct {
	store      *store.Store
	clock      Sequencer
	tokens     TokenGenerator
	authorizer Authorizer
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the logical clock. Used by tests and golden traces to fix
// seq values.
func WithClock(c Sequencer) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithTokenGenerator sets the generator for event tokens.
//
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithAuthorizer sets the administrative capability check.
//
// Default: NewAdminList() (AdminPermission only).
func WithAuthorizer(a Authorizer) Option {
	return func(e *Engine) {
		e.authorizer = a
	}
}

// WithDispatcher publishes committed events to d.
func WithDispatcher(d *Dispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over s.
//
// The clock is advanced past the highest seq already stored, so a reopened
// database keeps a strictly increasing history. Each mutation advances it
// again under the write lock before taking its seq.
func New(ctx context.Context, s *store.Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:      s,
		clock:      NewClock(),
		tokens:     UUIDv7Generator{},
		authorizer: NewAdminList(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	e.clock.AdvanceTo(last)

	return e, nil
}

// Store returns the underlying store for read-only composition.
func (e *Engine) Store() *store.Store {
	return e.store
}

// IsAdministrator reports whether caller holds administrative capability.
func (e *Engine) IsAdministrator(ctx context.Context, caller ir.SecurityContext) bool {
	return e.authorizer.IsAdministrator(ctx, caller)
}

func (e *Engine) requireAdmin(ctx context.Context, caller ir.SecurityContext, op string) error {
	if !caller.Authenticated() {
		return NewUnauthorizedError(op + " requires an authenticated caller")
	}
	if !e.authorizer.IsAdministrator(ctx, caller) {
		return NewUnauthorizedError(op + " requires administrator capability")
	}
	return nil
}

// nextSeq allocates the seq for a mutation running in tx. Store.Update
// holds the write lock from BEGIN to commit, so seq order is commit order
// even when several engines share one database.
func (e *Engine) nextSeq(ctx context.Context, tx *store.Tx) (int64, error) {
	last, err := tx.LastSeq(ctx)
	if err != nil {
		return 0, err
	}
	e.clock.AdvanceTo(last)
	return e.clock.Next(), nil
}

// newEvent stamps an outbox event with a fresh token.
func (e *Engine) newEvent(kind ir.EventKind, seq int64, originID string, status ir.Status, actor string) ir.Event {
	return ir.Event{
		Seq:      seq,
		Kind:     kind,
		OriginID: originID,
		Status:   status,
		Actor:    actor,
		Token:    e.tokens.Generate(),
	}
}

// publish hands a committed event to the dispatcher.
func (e *Engine) publish(ev ir.Event) {
	e.logger.Info("service type "+string(ev.Kind),
		"origin_id", ev.OriginID,
		"status", ev.Status,
		"actor", ev.Actor,
		"seq", ev.Seq,
	)
	if e.dispatcher == nil {
		return
	}
	if !e.dispatcher.Publish(ev) {
		e.logger.Warn("dispatcher stopped, event left in outbox", "seq", ev.Seq, "token", ev.Token)
	}
}

// liveLineage loads a lineage inside tx and maps missing or deleted to
// NOT_FOUND.
func liveLineage(ctx context.Context, tx *store.Tx, originID string) (ir.Lineage, error) {
	l, err := tx.GetLineage(ctx, originID)
	if errors.Is(err, store.ErrNotFound) {
		return ir.Lineage{}, NewNotFoundError(originID)
	}
	if err != nil {
		return ir.Lineage{}, err
	}
	if l.Deleted {
		return ir.Lineage{}, NewNotFoundError(originID)
	}
	return l, nil
}
