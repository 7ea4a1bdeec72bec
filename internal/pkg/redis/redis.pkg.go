package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"dashboard-cargo/internal/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	_redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	startupWait   = 15 * time.Second
	watchInterval = 5 * time.Second
)

// Setup dials redis and waits, with backoff, until it answers a ping. The
// pool redials dropped connections by itself; the watcher only reports
// outages.
func Setup(ctx context.Context, config *Config) (*Client, error) {
	clientCtx, cancel := context.WithCancel(ctx)

	r := &Client{
		cancel: cancel,
		ctx:    clientCtx,
		config: config,
		Client: _redis.NewClient(&_redis.Options{
			Addr:         net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
			Username:     config.Username,
			Password:     config.Password,
			PoolSize:     config.PoolSize,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		}),
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = startupWait
	if err := backoff.Retry(r.Ping, backoff.WithContext(b, clientCtx)); err != nil {
		cancel()
		_ = r.Client.Close()
		logger.Error.Println(err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	go r.watch()
	return r, nil
}

func (r *Client) watch() {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			err := r.Ping()
			switch {
			case err != nil && healthy:
				logger.Z().Warn("redis unreachable", zap.String("addr", r.Client.Options().Addr), zap.Error(err))
			case err == nil && !healthy:
				logger.Z().Info("redis reachable again", zap.String("addr", r.Client.Options().Addr))
			}
			healthy = err == nil
		}
	}
}

// Close stops the watcher and closes the pool.
func (r *Client) Close() error {
	r.cancel()
	return r.Client.Close()
}

// Set stores value as JSON with an expiration time.
func (r *Client) Set(key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.Client.Set(r.ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get retrieves the value of a key. A missing key yields "" and a nil error.
func (r *Client) Get(key string) (string, error) {
	result, err := r.Client.Get(r.ctx, key).Result()
	if errors.Is(err, NilType) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return result, nil
}

// Incr atomically increments a counter and returns the new value.
func (r *Client) Incr(key string) (int64, error) {
	n, err := r.Client.Incr(r.ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to incr key %s: %w", key, err)
	}
	return n, nil
}

func (r *Client) Ping() error {
	return r.Client.Ping(r.ctx).Err()
}

// Del deletes a key.
func (r *Client) Del(key string) error {
	if err := r.Client.Del(r.ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Expire sets a timeout on a key.
func (r *Client) Expire(key string, expiration time.Duration) error {
	if err := r.Client.Expire(r.ctx, key, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set expiration on key %s: %w", key, err)
	}
	return nil
}
