package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/stgov/internal/ir"
)

// Subscriber receives committed lineage events, such as an economic
// mirroring collaborator that projects status changes elsewhere.
//
// Delivery is at-least-once: a subscriber may see the same event again
// after a restart and must deduplicate by Seq or Token.
type Subscriber interface {
	HandleEvent(ctx context.Context, ev ir.Event) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, ev ir.Event) error

// HandleEvent implements Subscriber.
func (f SubscriberFunc) HandleEvent(ctx context.Context, ev ir.Event) error {
	return f(ctx, ev)
}

// Dispatcher delivers events to subscribers from a single goroutine, in
// commit order.
//
// Publish is safe from any goroutine. Run must be called from exactly one.
type Dispatcher struct {
	queue       *eventQueue
	subscribers []Subscriber
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher for the given subscribers.
func NewDispatcher(logger *slog.Logger, subscribers ...Subscriber) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:       newEventQueue(),
		subscribers: subscribers,
		logger:      logger,
	}
}

// Publish queues an event for delivery.
// Returns false if the dispatcher has been stopped.
func (d *Dispatcher) Publish(ev ir.Event) bool {
	return d.queue.Enqueue(ev)
}

// Pending returns the number of events not yet delivered.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Run delivers queued events until ctx is cancelled or Stop is called.
// After Stop, events already queued are still delivered before Run returns.
//
// A subscriber error is logged with the event and delivery continues with
// the next subscriber; the outbox table keeps the event for catch-up.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher starting", "subscribers", len(d.subscribers))

	for {
		ev, ok := d.queue.TryDequeue()
		if ok {
			d.deliver(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping: context cancelled")
			d.queue.Close()
			return ctx.Err()

		case <-d.queue.Wait():
			if d.queue.Closed() && d.queue.Len() == 0 {
				d.logger.Info("dispatcher stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once it has drained.
func (d *Dispatcher) Stop() {
	d.queue.Close()
}

func (d *Dispatcher) deliver(ctx context.Context, ev ir.Event) {
	for i, sub := range d.subscribers {
		if err := sub.HandleEvent(ctx, ev); err != nil {
			d.logger.Error("event delivery failed",
				"subscriber", i,
				"seq", ev.Seq,
				"kind", ev.Kind,
				"origin_id", ev.OriginID,
				"status", ev.Status,
				"token", ev.Token,
				"error", err,
			)
		}
	}
	d.logger.Debug("event delivered", "seq", ev.Seq, "kind", ev.Kind, "origin_id", ev.OriginID)
}
