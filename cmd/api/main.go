package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	config "dashboard-cargo/configs"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/jwt"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/rabbitmq"
	"dashboard-cargo/internal/pkg/redis"
	"dashboard-cargo/internal/pkg/validation"
	serverApp "dashboard-cargo/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// @title           Dashboard Cargo Rate API
// @version         1.0
// @description     Multi-courier rate aggregation, discount, pricing and order submission for the shipping dashboard

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

// @BasePath        /api
func main() {
	env, err := config.GetEnv()
	if err != nil {
		panic(fmt.Errorf("error getting environment: %w", err))
	}

	logger.Setup(env.LogLevel)
	defer logger.Sync()

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	// Setup Redis
	redisClient, err := setupRedis(ctx, env)
	if err != nil {
		logger.Error.Println("Error setting up Redis", err)
		cancel()
		return
	}

	// Setup RabbitMQ
	rabbit, err := setupRabbitMQ(ctx, env)
	if err != nil {
		logger.Error.Println("Error setting up RabbitMQ", err)
		cancel()
		return
	}

	setupServer(&config.SetupServerDto{
		Rds:    redisClient,
		Env:    env,
		Ctx:    &ctx,
		Cancel: cancel,
		Wg:     &wg,
		Rb:     rabbit,
	})
}

// setupRedis falls back to the in-process store when redis is disabled.
func setupRedis(ctx context.Context, env *config.Config) (redis.IRedis, error) {
	if !env.RedisEnabled {
		logger.Info.Println("REDIS_ENABLED is false, using in-memory store")
		return redis.NewMemory(), nil
	}
	client, err := redis.Setup(ctx, &redis.Config{
		Host:     env.RedisHost,
		Username: env.RedisUser,
		Port:     env.RedisPort,
		Password: env.RedisPass,
		PoolSize: env.RedisPoolSize,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// setupRabbitMQ returns nil when the broker is disabled; order events are
// then skipped and cancellations run inline.
func setupRabbitMQ(ctx context.Context, env *config.Config) (*rabbitmq.ConnectionManager, error) {
	if !env.RabbitEnabled {
		logger.Info.Println("RABBIT_ENABLED is false, order events are disabled")
		return nil, nil
	}
	return rabbitmq.NewConnectionManager(ctx, &rabbitmq.Config{
		Username: env.RabbitUser,
		Password: env.RabbitPass,
		Host:     env.RabbitHost,
		Port:     env.RabbitPort,
	})
}

func setupHTTPClient(env *config.Config) helper.IHTTPClient {
	headers := http.Header{}
	if env.BackendToken != "" {
		headers.Set("Authorization", "Bearer "+env.BackendToken)
	}

	guard := helper.NewAuthGuard(func() {
		logger.Z().Warn("backend rejected the service token", zap.String("backend", env.BackendBaseURL))
	})

	return helper.NewHTTPClient(&helper.HTTPClientConfig{
		Timeout:        env.HTTPTimeout(),
		DefaultHeaders: headers,
		Retry: helper.RetryPolicy{
			MaxRetries: uint64(env.HTTPRetryMax),
			BaseDelay:  env.RetryBaseDelay(),
			MaxDelay:   env.RetryMaxDelay(),
		},
		Guard: guard,
	})
}

func setupServer(payload *config.SetupServerDto) {
	rds := payload.Rds
	env := payload.Env
	ctx := payload.Ctx
	cancel := payload.Cancel
	wg := payload.Wg
	rb := payload.Rb

	defer func() {
		if rb != nil {
			_ = rb.Close()
		}
		if rds != nil {
			_ = rds.Close()
		}
		cancel()
		wg.Wait()
	}()

	err := validation.Setup()
	if err != nil {
		logger.Error.Println("Failed to setup validation")
		panic(err)
	}
	jwt.SetSecret(env.JWTSecret)

	pool, err := ants.NewPool(env.DispatchPoolSize, ants.WithPanicHandler(func(i interface{}) {
		logger.Error.Printf("Dispatch panic: %v\n", i)
	}))
	if err != nil {
		panic(fmt.Errorf("failed to create dispatch pool: %w", err))
	}
	defer pool.Release()

	var publisher *rabbitmq.Publisher
	if rb != nil {
		publisher, err = rabbitmq.NewPublisher(*ctx, rb)
		if err != nil {
			panic(err)
		}
		defer func() { _ = publisher.Close() }()
	}

	gin.SetMode(env.AppEnv.GinMode())
	e := gin.New()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", env.AppPort),
		Handler: e,
	}

	services := serverApp.Setup(e, *ctx, env, rds, rb, publisher, setupHTTPClient(env), pool)
	if rb != nil {
		stopWorkers, err := serverApp.InitWorker(*ctx, rb, services)
		if err != nil {
			panic(err)
		}
		defer stopWorkers()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.HTTP.Println("========= Server Started =========")
		logger.HTTP.Println("=========", env.AppPort, "=========")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Println("Server error:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	logger.HTTP.Println("========= Server Shutting Down =========")

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	_ = server.Shutdown(shutdownCtx)
}
