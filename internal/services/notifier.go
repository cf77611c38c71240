package services

import (
	"context"
	"sync"

	"aguin/internal/amqp"
	"aguin/internal/log"
	"aguin/internal/metrics"
)

// Notifier fans a committed write out to cache invalidation hooks and, for
// the event kinds the ledger cares about, to the message broker. Publish
// failures are logged and counted; they never fail the write. A nil
// *Notifier is a no-op.
type Notifier struct {
	publisher amqp.Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger

	mu    sync.RWMutex
	hooks []func(context.Context)
}

// NewNotifier builds a notifier. publisher may be nil when AMQP is disabled.
func NewNotifier(publisher amqp.Publisher, m *metrics.Metrics, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &Notifier{
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentAMQP),
	}
}

// OnChange registers fn to run after every write.
func (n *Notifier) OnChange(fn func(context.Context)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, fn)
}

// Changed runs the change hooks.
func (n *Notifier) Changed(ctx context.Context) {
	if n == nil {
		return
	}
	n.mu.RLock()
	hooks := n.hooks
	n.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// Publish runs the change hooks and emits kind for entityID.
func (n *Notifier) Publish(ctx context.Context, kind amqp.EventKind, entityID int64) {
	if n == nil {
		return
	}
	n.Changed(ctx)

	if n.publisher == nil {
		n.logger.DebugContext(ctx, "AMQP publisher not available, skipping event",
			log.FieldEventKind, kind, log.FieldEntityID, entityID)
		return
	}

	event := amqp.NewStudioEvent(kind, entityID)
	err := n.publisher.Publish(ctx, event)
	if n.metrics != nil {
		n.metrics.EventsPublished.WithLabelValues(string(kind), metrics.Result(err)).Inc()
	}
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish studio event",
			log.FieldError, err,
			log.FieldEventKind, kind,
			log.FieldEntityID, entityID)
	}
}
