package serverApp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/rabbitmq"
	orderService "dashboard-cargo/internal/service/order"

	"github.com/panjf2000/ants/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// InitWorker starts the queue consumers. The returned func stops them.
func InitWorker(ctx context.Context, rb *rabbitmq.ConnectionManager, svc Services) (func(), error) {
	poolOpts := ants.Options{
		ExpiryDuration: time.Hour,
		PreAlloc:       true,
		Nonblocking:    true,
		PanicHandler: func(i interface{}) {
			logger.Error.Printf("Worker panic: %v\n", i)
		},
	}

	pool, err := ants.NewPool(10, ants.WithOptions(poolOpts))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	opts := rabbitmq.DefaultSubscribeOptions(enum.QUEUE_ORDER_CANCEL.ToString())
	cancelSub, err := rabbitmq.NewSubscriber(ctx, rb, CancelOrderHandler(svc.Order), opts)
	if err != nil {
		pool.Release()
		return nil, fmt.Errorf("failed to create %s subscriber: %w", opts.QueueName, err)
	}

	err = pool.Submit(func() {
		if err := cancelSub.Start(); err != nil {
			logger.Error.Printf("Failed to initialize worker: %v\n", err)
		}
	})
	if err != nil {
		pool.Release()
		return nil, fmt.Errorf("failed to submit task to pool: %w", err)
	}

	return func() {
		if err := cancelSub.Stop(); err != nil {
			logger.Warning.Printf("stopping %s subscriber: %v", opts.QueueName, err)
		}
		pool.Release()
	}, nil
}

// CancelOrderHandler consumes order.cancel commands. A command without an
// order id is dropped instead of retried.
func CancelOrderHandler(orders orderService.IService) rabbitmq.MessageHandler {
	return func(ctx context.Context, msg *amqp.Delivery) error {
		req, err := rabbitmq.DecodeEvent[models.CancelOrder](msg.Body)
		if err != nil {
			logger.Z().Warn("dropping malformed cancel command", zap.String("message_id", msg.MessageId), zap.Error(err))
			return nil
		}

		err = orders.CancelNow(ctx, *req)
		var verr *errorx.ErrValidation
		if errors.As(err, &verr) {
			logger.Z().Warn("dropping invalid cancel command", zap.String("message_id", msg.MessageId), zap.Error(err))
			return nil
		}
		return err
	}
}
