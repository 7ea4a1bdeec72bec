package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	"dashboard-cargo/internal/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	channel  *ChannelManager
	mu       sync.Mutex
	declared map[string]bool
}

func NewPublisher(ctx context.Context, connManager *ConnectionManager) (*Publisher, error) {
	if connManager == nil {
		return nil, fmt.Errorf("rabbitmq connection manager is nil")
	}
	return &Publisher{
		channel:  NewChannelManager(ctx, connManager),
		declared: make(map[string]bool),
	}, nil
}

// PublishToQueue sends payload to a durable queue through the default exchange.
func (p *Publisher) PublishToQueue(ctx context.Context, queue string, payload interface{}, headers *amqp.Table) error {
	msg, err := NewMessage(payload, headers)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}
	return p.publish(ctx, queue, msg.GeneratePayload())
}

// PublishEvent wraps data in the {type, data, id} envelope consumers expect
// and publishes it on the queue named after the pattern.
func (p *Publisher) PublishEvent(ctx context.Context, pattern string, data interface{}) error {
	msg, err := NewMessage(data, nil)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}
	return p.publish(ctx, pattern, msg.GenerateEventPayload(pattern))
}

func (p *Publisher) publish(ctx context.Context, queue string, publishing *amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel.GetChannel()
	if err != nil {
		return err
	}

	if !p.declared[queue] {
		cfg := DefaultQueueConfig()
		if _, err := ch.QueueDeclare(queue, cfg.Durable, cfg.AutoDelete, cfg.Exclusive, cfg.NoWait, cfg.Args); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
		p.declared[queue] = true
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, *publishing); err != nil {
		// the channel may have been replaced; declare again next time
		delete(p.declared, queue)
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}

	logger.Debug.Printf("published message %s to %s", publishing.MessageId, queue)
	return nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}
