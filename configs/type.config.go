package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/pkg/rabbitmq"
	"dashboard-cargo/internal/pkg/redis"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	AppEnv   enum.EnvEnum `env:"APP_ENV" envDefault:"development"`
	AppPort  int          `env:"APP_PORT" envDefault:"8080"`
	LogLevel string       `env:"LOG_LEVEL" envDefault:"info"`

	BackendBaseURL       string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:3000/api"`
	BackendToken         string `env:"BACKEND_TOKEN" envDefault:""`
	HTTPTimeoutSeconds   int    `env:"HTTP_TIMEOUT_SECONDS" envDefault:"20"`
	HTTPRetryMax         int    `env:"HTTP_RETRY_MAX" envDefault:"3"`
	HTTPRetryBaseDelayMs int    `env:"HTTP_RETRY_BASE_DELAY_MS" envDefault:"300"`
	HTTPRetryMaxDelayMs  int    `env:"HTTP_RETRY_MAX_DELAY_MS" envDefault:"3000"`
	DispatchPoolSize     int    `env:"DISPATCH_POOL_SIZE" envDefault:"64"`
	GeocodeBaseURL       string `env:"GEOCODE_BASE_URL" envDefault:""`
	SAPCustomerCode      string `env:"SAP_CUSTOMER_CODE" envDefault:""`
	LionCommodity        string `env:"LION_COMMODITY" envDefault:"GENERAL"`

	InsuranceRate            string `env:"INSURANCE_RATE" envDefault:"0.002"`
	CODFeeRate               string `env:"COD_FEE_RATE" envDefault:"0.04"`
	DiscountCacheTTLSeconds  int    `env:"DISCOUNT_CACHE_TTL_SECONDS" envDefault:"60"`
	DiscountRulesFile        string `env:"DISCOUNT_RULES_FILE" envDefault:""`
	SessionIdleTimeoutMinute int    `env:"SESSION_IDLE_TIMEOUT_MINUTES" envDefault:"30"`

	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisUser     string `env:"REDIS_USER" envDefault:"default"`
	RedisPass     string `env:"REDIS_PASS" envDefault:""`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	RabbitEnabled bool   `env:"RABBIT_ENABLED" envDefault:"false"`
	RabbitHost    string `env:"RABBIT_HOST" envDefault:"localhost"`
	RabbitPort    int    `env:"RABBIT_PORT" envDefault:"5672"`
	RabbitUser    string `env:"RABBIT_USER" envDefault:"guest"`
	RabbitPass    string `env:"RABBIT_PASS" envDefault:"guest"`

	JWTSecret string `env:"JWT_SECRET" envDefault:""`
}

func (c *Config) validate() error {
	if !c.AppEnv.IsValid() {
		return fmt.Errorf("invalid APP_ENV %q", c.AppEnv)
	}
	if _, err := decimal.NewFromString(c.InsuranceRate); err != nil {
		return fmt.Errorf("invalid INSURANCE_RATE: %w", err)
	}
	if _, err := decimal.NewFromString(c.CODFeeRate); err != nil {
		return fmt.Errorf("invalid COD_FEE_RATE: %w", err)
	}
	if c.DispatchPoolSize <= 0 {
		return fmt.Errorf("DISPATCH_POOL_SIZE must be positive")
	}
	if c.HTTPRetryMax < 0 {
		return fmt.Errorf("HTTP_RETRY_MAX must not be negative")
	}
	if c.JWTSecret == "" && c.AppEnv.IsDeployed() {
		return fmt.Errorf("JWT_SECRET must be set in %s", c.AppEnv)
	}
	return nil
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.HTTPRetryBaseDelayMs) * time.Millisecond
}

func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.HTTPRetryMaxDelayMs) * time.Millisecond
}

func (c *Config) DiscountCacheTTL() time.Duration {
	return time.Duration(c.DiscountCacheTTLSeconds) * time.Second
}

func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutMinute) * time.Minute
}

// Rates returns the insurance and COD fee rates. validate has already
// checked that both parse.
func (c *Config) Rates() (insurance decimal.Decimal, codFee decimal.Decimal) {
	insurance, _ = decimal.NewFromString(c.InsuranceRate)
	codFee, _ = decimal.NewFromString(c.CODFeeRate)
	return insurance, codFee
}

// SetupServerDto contains dependencies for server setup
type SetupServerDto struct {
	Ctx    *context.Context
	Cancel context.CancelFunc
	Wg     *sync.WaitGroup
	Env    *Config
	Rds    redis.IRedis
	Rb     *rabbitmq.ConnectionManager
}
