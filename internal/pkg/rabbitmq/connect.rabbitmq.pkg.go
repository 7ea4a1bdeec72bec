package rabbitmq

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"dashboard-cargo/internal/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConnectionManager owns the broker connection and redials it in the
// background when the broker drops it. Channels are opened per user through
// ChannelManager and pick up the new connection on their next call.
type ConnectionManager struct {
	conn        *amqp.Connection
	mu          sync.Mutex
	url         string
	host        string
	isConnected bool
	reconnects  int
	newBackoff  func() backoff.BackOff
	ctx         context.Context
	cancel      context.CancelFunc
}

type QueueConfig struct {
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	NoWait     bool
	Args       amqp.Table
}

// DefaultQueueConfig is used for every order queue: durable and shared.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{Durable: true}
}

type Config struct {
	Username string
	Password string
	Host     string
	Port     int
	// URI wins over the discrete fields when set.
	URI string
}

func amqpURL(config *Config) string {
	if config.URI != "" {
		return config.URI
	}
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(config.Username, config.Password),
		Host:   net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Path:   "/",
	}
	return u.String()
}

func NewConnectionManager(ctx context.Context, config *Config) (*ConnectionManager, error) {
	ctx, cancel := context.WithCancel(ctx)

	cm := &ConnectionManager{
		url:    amqpURL(config),
		host:   config.Host,
		ctx:    ctx,
		cancel: cancel,
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}

	if err := cm.connect(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	return cm, nil
}

func (cm *ConnectionManager) connect() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.isConnected {
		return nil
	}
	if err := cm.ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}

	conn, err := amqp.Dial(cm.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ at %s: %w", cm.host, err)
	}

	cm.conn = conn
	cm.isConnected = true
	go cm.monitor(conn.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

// monitor waits for the connection to drop and redials with exponential
// backoff until it succeeds or the manager is closed.
func (cm *ConnectionManager) monitor(closed <-chan *amqp.Error) {
	select {
	case <-cm.ctx.Done():
		return
	case amqpErr, ok := <-closed:
		if !ok || amqpErr == nil {
			// graceful close from our side
			return
		}
		cm.mu.Lock()
		cm.isConnected = false
		cm.mu.Unlock()
		logger.Z().Warn("rabbitmq connection lost", zap.String("host", cm.host), zap.Error(amqpErr))
	}

	redial := func() error {
		err := cm.connect()
		if err != nil && cm.ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		if err != nil {
			logger.Z().Warn("rabbitmq reconnect failed", zap.String("host", cm.host), zap.Error(err))
		}
		return err
	}
	if err := backoff.Retry(redial, backoff.WithContext(cm.newBackoff(), cm.ctx)); err != nil {
		return
	}

	cm.mu.Lock()
	cm.reconnects++
	n := cm.reconnects
	cm.mu.Unlock()
	logger.Z().Info("rabbitmq reconnected", zap.String("host", cm.host), zap.Int("reconnects", n))
}

func (cm *ConnectionManager) GetConnection() *amqp.Connection {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.ctx.Err() != nil {
		return nil
	}
	return cm.conn
}

// Reconnects reports how many times the connection has been re-established.
func (cm *ConnectionManager) Reconnects() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.reconnects
}

func (cm *ConnectionManager) Close() error {
	cm.cancel()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.isConnected = false
	if cm.conn == nil {
		return nil
	}
	conn := cm.conn
	cm.conn = nil
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (cm *ConnectionManager) IsClosed() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.ctx.Err() != nil || !cm.isConnected
}
