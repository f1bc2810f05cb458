package publishers

import (
	"context"
	"fmt"
)

// queueSender delivers one event and returns the broker's message id.
type queueSender interface {
	Send(ctx context.Context, evt Event) (string, error)
}

type senderFactory func(ctx context.Context, q *QueuePublisherConfig) (queueSender, error)

// queueSenders maps each supported provider to its sender constructor.
var queueSenders = map[string]senderFactory{
	QueueProviderAWSSQS: func(ctx context.Context, q *QueuePublisherConfig) (queueSender, error) {
		return newAWSSQSSender(ctx, q.AWS)
	},
	QueueProviderAWSSNS: func(ctx context.Context, q *QueuePublisherConfig) (queueSender, error) {
		return newAWSSNSSender(ctx, q.SNS)
	},
	QueueProviderGCP: func(ctx context.Context, q *QueuePublisherConfig) (queueSender, error) {
		return newGCPPubSubSender(ctx, q.GCP)
	},
}

// queuePublisher forwards rendered-article events to a cloud queue or topic.
type queuePublisher struct {
	id       string
	provider string
	sender   queueSender
	log      Logger
}

func newQueuePublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q missing queue configuration", cfg.ID)
	}
	factory, ok := queueSenders[cfg.Queue.Provider]
	if !ok {
		return nil, fmt.Errorf("publisher %q: queue provider %q cannot send", cfg.ID, cfg.Queue.Provider)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sender, err := factory(ctx, cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return &queuePublisher{
		id:       cfg.ID,
		provider: cfg.Queue.Provider,
		sender:   sender,
		log:      ensureLogger(log),
	}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return TypeQueue }

func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	msgID, err := p.sender.Send(ctx, evt)
	if err != nil {
		return fmt.Errorf("%s: %w", p.provider, err)
	}
	p.log.DebugObj("article event queued", "queue_delivery", map[string]any{
		"publisher_id": p.id,
		"provider":     p.provider,
		"article_id":   evt.ID,
		"message_id":   msgID,
	})
	return nil
}
