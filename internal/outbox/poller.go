package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Poller relays unprocessed outbox events to a Publisher. Delivery is at least once.
type Poller struct {
	store     Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	timeout   time.Duration
	log       *zap.Logger
}

func NewPoller(store Store, publisher Publisher, interval time.Duration, log *zap.Logger) *Poller {
	return &Poller{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: 100,
		timeout:   5 * time.Second,
		log:       log,
	}
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.store.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.log.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Error("failed to publish outbox event",
				zap.Int64("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			// keep per-aggregate order: later events wait for this one
			return
		}

		if err := p.store.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.Error("failed to mark outbox event as processed", zap.Int64("event_id", event.ID), zap.Error(err))
			return
		}
	}
}

func (p *Poller) publish(ctx context.Context, event *Event) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.publisher.Publish(ctx, event)
}
