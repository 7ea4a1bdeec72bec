package serverApp

import (
	"context"
	"net/http"
	"strings"

	config "dashboard-cargo/configs"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/middleware"
	"dashboard-cargo/internal/pkg/rabbitmq"
	"dashboard-cargo/internal/pkg/redis"
	"dashboard-cargo/internal/repository"
	discountRepo "dashboard-cargo/internal/repository/discount"
	geocodeRepo "dashboard-cargo/internal/repository/geocode"
	orderRepo "dashboard-cargo/internal/repository/order"
	vendorRepo "dashboard-cargo/internal/repository/vendor"

	discountHandler "dashboard-cargo/internal/handler/discount"
	orderHandler "dashboard-cargo/internal/handler/order"
	pricingHandler "dashboard-cargo/internal/handler/pricing"
	rateHandler "dashboard-cargo/internal/handler/rate"
	discountService "dashboard-cargo/internal/service/discount"
	flowService "dashboard-cargo/internal/service/flow"
	orderService "dashboard-cargo/internal/service/order"
	pricingService "dashboard-cargo/internal/service/pricing"
	rateService "dashboard-cargo/internal/service/rate"

	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
)

// Services are shared by the HTTP routes and the background workers.
type Services struct {
	Rate     rateService.IService
	Discount discountService.IService
	Pricing  pricingService.IService
	Order    orderService.IService
	Flow     flowService.IService
}

// Setup initializes the HTTP server with middleware and routes. rb and
// publisher are nil when the broker is disabled.
func Setup(
	engine *gin.Engine,
	ctx context.Context,
	env *config.Config,
	redisClient redis.IRedis,
	rb *rabbitmq.ConnectionManager,
	publisher *rabbitmq.Publisher,
	httpClient helper.IHTTPClient,
	pool *ants.Pool,
) Services {
	InitMiddleware(engine)

	engine.GET("/health", func(c *gin.Context) {
		rabbitmqHealth := "disabled"
		reconnects := 0
		if rb != nil {
			reconnects = rb.Reconnects()
			rabbitmqHealth = "unhealthy"
			if !rb.IsClosed() {
				rabbitmqHealth = "healthy"
			}
		}
		redisHealth := "unhealthy"
		if redisClient != nil && redisClient.Ping() == nil {
			redisHealth = "healthy"
		}
		c.JSON(http.StatusOK, gin.H{
			"status": http.StatusOK,
			"service": gin.H{
				"rabbitmq": gin.H{
					"status":     rabbitmqHealth,
					"reconnects": reconnects,
				},
				"redis": gin.H{
					"status": redisHealth,
				},
			},
		})
	})

	svc := InitServices(ctx, env, redisClient, publisher, httpClient, pool)
	InitRoutes(engine.Group(BasePath()), ctx, svc)
	return svc
}

// BasePath returns the base API path
func BasePath() string {
	return "/api"
}

// InitMiddleware initializes global middleware
func InitMiddleware(e *gin.Engine) {
	e.Use(middleware.Recovery())
	e.Use(middleware.CorsMiddleware())
	e.Use(middleware.RequestInit())
	e.Use(middleware.ResponseInit())
}

func InitServices(
	ctx context.Context,
	env *config.Config,
	redisClient redis.IRedis,
	publisher *rabbitmq.Publisher,
	httpClient helper.IHTTPClient,
	pool *ants.Pool,
) Services {
	backend := strings.TrimRight(env.BackendBaseURL, "/")

	// setup repo
	locator := geocodeRepo.NewRepo(httpClient, env.GeocodeBaseURL, redisClient)
	rp := repository.IRepository{
		Vendor: vendorRepo.NewRepo(httpClient, backend, locator, vendorRepo.Options{
			SAPCustomerCode: env.SAPCustomerCode,
			Commodity:       env.LionCommodity,
		}),
		Geocode:  locator,
		Discount: discountRepo.NewRepo(httpClient, backend, redisClient, env.DiscountCacheTTL()),
		Order:    orderRepo.NewRepo(httpClient, backend),
	}

	// a nil *Publisher must not become a non-nil interface
	var events orderService.IPublisher
	if publisher != nil {
		events = publisher
	}

	rules, err := discountService.LoadRules(env.DiscountRulesFile)
	if err != nil {
		panic(err)
	}
	eligibility := discountService.NewChain(rp.Discount, discountService.NewRuleEvaluator(rules))

	insurance, codFee := env.Rates()
	svc := Services{
		Rate:     rateService.NewService(ctx, rp, pool),
		Discount: discountService.NewService(ctx, eligibility, pool),
		Pricing:  pricingService.NewService(ctx, insurance, codFee),
		Order:    orderService.NewService(ctx, rp, events),
	}
	svc.Flow = flowService.NewService(ctx, flowService.Deps{
		Sessions: flowService.NewManager(env.SessionIdleTimeout()),
		Epochs:   flowService.NewEpochStore(redisClient, 2*env.SessionIdleTimeout()),
		Rate:     svc.Rate,
		Discount: svc.Discount,
		Pricing:  svc.Pricing,
		Order:    svc.Order,
	})
	return svc
}

func InitRoutes(e *gin.RouterGroup, ctx context.Context, svc Services) {
	// === Rates ===
	rateHandler.NewHandler(ctx, svc.Rate, svc.Flow).NewRoutes(e)

	// === Discounts ===
	discountHandler.NewHandler(ctx, svc.Discount).NewRoutes(e)

	// === Pricing ===
	pricingHandler.NewHandler(ctx, svc.Pricing).NewRoutes(e)

	// === Orders ===
	orderHandler.NewHandler(ctx, svc.Order, svc.Flow).NewRoutes(e)
}
