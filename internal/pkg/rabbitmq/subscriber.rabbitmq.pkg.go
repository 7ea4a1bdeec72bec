package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"dashboard-cargo/internal/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/panjf2000/ants/v2"

	amqp "github.com/rabbitmq/amqp091-go"
)

type MessageHandler func(ctx context.Context, msg *amqp.Delivery) error

type SubscribeOptions struct {
	QueueOpts        *QueueConfig
	QueueName        string
	ConsumerName     string
	WorkerCount      int
	PrefetchCount    int
	HandlerTimeout   time.Duration
	MaxRetryAttempts int
	EnableDeadLetter bool
	DeadLetterName   string
	BaseRetryDelay   time.Duration
	MaxRetryDelay    time.Duration
}

func DefaultSubscribeOptions(queueName string) *SubscribeOptions {
	return &SubscribeOptions{
		QueueName:        queueName,
		ConsumerName:     queueName,
		WorkerCount:      2,
		PrefetchCount:    10,
		HandlerTimeout:   time.Minute,
		MaxRetryAttempts: 5,
		EnableDeadLetter: true,
		DeadLetterName:   "fail:" + queueName,
		BaseRetryDelay:   time.Second * 5,
		MaxRetryDelay:    time.Minute * 10,
	}
}

// Subscriber consumes one queue with WorkerCount consumers. Failed messages
// are republished with an x-retry-count header and a growing delay, then
// moved to the dead letter queue once MaxRetryAttempts is reached.
type Subscriber struct {
	connManager     *ConnectionManager
	channelManagers []*ChannelManager
	handler         MessageHandler
	opts            *SubscribeOptions
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	isRunning       atomic.Bool
	pool            *ants.Pool
}

func NewSubscriber(ctx context.Context, connManager *ConnectionManager, handler MessageHandler, opts *SubscribeOptions) (*Subscriber, error) {
	ctx, cancel := context.WithCancel(ctx)

	pool, err := ants.NewPool(opts.WorkerCount*opts.PrefetchCount, ants.WithOptions(ants.Options{
		ExpiryDuration: time.Hour,
		Nonblocking:    false,
		PanicHandler: func(i interface{}) {
			logger.Error.Printf("Message processor panic on %s: %v\n", opts.QueueName, i)
		},
	}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create %s worker pool: %w", opts.QueueName, err)
	}

	sub := &Subscriber{
		connManager:     connManager,
		handler:         handler,
		opts:            opts,
		ctx:             ctx,
		cancel:          cancel,
		channelManagers: make([]*ChannelManager, opts.WorkerCount),
		pool:            pool,
	}
	for i := range sub.channelManagers {
		sub.channelManagers[i] = NewChannelManager(ctx, connManager)
	}

	return sub, nil
}

func (s *Subscriber) Start() error {
	if s.isRunning.Swap(true) {
		return fmt.Errorf("subscriber is already running")
	}
	for i := 0; i < s.opts.WorkerCount; i++ {
		s.wg.Add(1)
		go s.runWorker(i)
	}
	logger.Info.Printf("Subscriber started on %s with %d workers", s.opts.QueueName, s.opts.WorkerCount)
	return nil
}

func (s *Subscriber) runWorker(workerID int) {
	defer s.wg.Done()

	reconnect := backoff.NewExponentialBackOff()
	reconnect.InitialInterval = time.Second
	reconnect.MaxInterval = 30 * time.Second
	reconnect.MaxElapsedTime = 0
	wait := backoff.WithContext(reconnect, s.ctx)

	for s.isRunning.Load() {
		err := s.consume(workerID)
		if s.ctx.Err() != nil {
			return
		}
		if err == nil {
			wait.Reset()
			continue
		}

		delay := wait.NextBackOff()
		if delay == backoff.Stop {
			return
		}
		logger.Warning.Printf("Worker %d on %s consume error, retrying in %s: %v\n", workerID, s.opts.QueueName, delay, err)

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Subscriber) consume(workerID int) error {
	ch, err := s.channelManagers[workerID].GetChannel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	if err := ch.Qos(s.opts.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	cfg := s.opts.QueueOpts
	if cfg == nil {
		cfg = DefaultQueueConfig()
	}
	q, err := ch.QueueDeclare(s.opts.QueueName, cfg.Durable, cfg.AutoDelete, cfg.Exclusive, cfg.NoWait, cfg.Args)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	consumerName := fmt.Sprintf("%s-%d-%d", s.opts.ConsumerName, workerID, time.Now().Unix())
	msgs, err := ch.ConsumeWithContext(s.ctx, q.Name, consumerName, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %d: %w", workerID, err)
	}

	for msg := range msgs {
		msgCopy := msg
		if err := s.pool.Submit(func() {
			s.processMessage(workerID, &msgCopy)
		}); err != nil {
			logger.Error.Printf("Worker %d failed to submit to pool: %v\n", workerID, err)
			_ = msgCopy.Nack(false, true)
		}
	}

	if s.ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("delivery channel closed")
}

func (s *Subscriber) processMessage(workerID int, msg *amqp.Delivery) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.HandlerTimeout)
	defer cancel()

	err := s.handler(ctx, msg)
	if err == nil {
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Error.Printf("Worker %d failed to ack message %s: %v\n", workerID, msg.MessageId, ackErr)
		}
		return
	}

	retryCount := deliveryCount(msg)
	logger.Warning.Printf("Worker %d handler error on %s (attempt %d): %v\n", workerID, s.opts.QueueName, retryCount+1, err)

	if retryCount >= s.opts.MaxRetryAttempts {
		if dlErr := s.moveToDeadLetter(workerID, msg, err); dlErr != nil {
			logger.Error.Printf("Worker %d dead letter failed: %v\n", workerID, dlErr)
		}
		return
	}

	if retryErr := s.republishWithDelay(workerID, msg, retryCount+1); retryErr != nil {
		logger.Error.Printf("Worker %d retry scheduling failed: %v\n", workerID, retryErr)
	}
}

func deliveryCount(msg *amqp.Delivery) int {
	count := 0
	if msg.Headers != nil {
		switch v := msg.Headers["x-retry-count"].(type) {
		case int:
			count = v
		case int32:
			count = int(v)
		case int64:
			count = int(v)
		}
	}
	if msg.Redelivered && count == 0 {
		count = 1
	}
	return count
}

// RetryDelay doubles the base delay per attempt, capped at MaxRetryDelay.
func (s *Subscriber) RetryDelay(retryCount int) time.Duration {
	delay := s.opts.BaseRetryDelay
	for i := 1; i < retryCount && delay < s.opts.MaxRetryDelay; i++ {
		delay *= 2
	}
	if delay > s.opts.MaxRetryDelay {
		delay = s.opts.MaxRetryDelay
	}
	return delay
}

func copyPublishing(msg *amqp.Delivery, headers amqp.Table) amqp.Publishing {
	return amqp.Publishing{
		Headers:       headers,
		ContentType:   msg.ContentType,
		DeliveryMode:  amqp.Persistent,
		CorrelationId: msg.CorrelationId,
		MessageId:     msg.MessageId,
		Timestamp:     msg.Timestamp,
		Type:          msg.Type,
		Body:          msg.Body,
	}
}

func cloneHeaders(in amqp.Table) amqp.Table {
	out := amqp.Table{}
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *Subscriber) republishWithDelay(workerID int, msg *amqp.Delivery, retryCount int) error {
	headers := cloneHeaders(msg.Headers)
	headers["x-retry-count"] = int32(retryCount)
	publishing := copyPublishing(msg, headers)
	delay := s.RetryDelay(retryCount)

	if err := msg.Ack(false); err != nil {
		return fmt.Errorf("failed to acknowledge original message: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return
		}

		ch, err := s.channelManagers[workerID].GetChannel()
		if err != nil {
			logger.Error.Printf("Failed to get channel after delay: %v", err)
			return
		}
		if err := ch.PublishWithContext(s.ctx, "", s.opts.QueueName, false, false, publishing); err != nil {
			logger.Error.Printf("Failed to republish message after delay: %v", err)
		}
	}()

	return nil
}

func (s *Subscriber) moveToDeadLetter(workerID int, msg *amqp.Delivery, cause error) error {
	if !s.opts.EnableDeadLetter {
		return msg.Reject(false)
	}

	ch, err := s.channelManagers[workerID].GetChannel()
	if err != nil {
		return fmt.Errorf("failed to get channel for dead letter: %w", err)
	}
	if _, err := ch.QueueDeclare(s.opts.DeadLetterName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}

	headers := cloneHeaders(msg.Headers)
	headers["x-death-reason"] = cause.Error()
	headers["x-death-time"] = time.Now().Format(time.RFC3339)
	headers["x-death-queue"] = s.opts.QueueName

	if err := ch.PublishWithContext(s.ctx, "", s.opts.DeadLetterName, false, false, copyPublishing(msg, headers)); err != nil {
		return fmt.Errorf("failed to publish to dead letter queue: %w", err)
	}
	logger.Info.Printf("Moved message %s to %s", msg.MessageId, s.opts.DeadLetterName)
	return msg.Ack(false)
}

func (s *Subscriber) Stop() error {
	if !s.isRunning.Swap(false) {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 60):
		return fmt.Errorf("timeout waiting for workers to stop")
	}

	for i, ch := range s.channelManagers {
		if err := ch.Close(); err != nil {
			logger.Error.Printf("Error closing channel for %s worker %d: %v\n", s.opts.QueueName, i, err)
		}
	}
	s.pool.Release()
	return nil
}

func (s *Subscriber) IsHealthy() bool {
	return s.isRunning.Load() && !s.connManager.IsClosed()
}
