package config

import (
	"testing"
	"time"

	"dashboard-cargo/internal/common/enum"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFillAppliesDefaults(t *testing.T) {
	cfg := &Config{}
	if err := fill(cfg, lookupFrom(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	if cfg.AppEnv != enum.DEVELOPMENT || cfg.AppPort != 8080 {
		t.Fatalf("unexpected app defaults %s %d", cfg.AppEnv, cfg.AppPort)
	}
	if cfg.HTTPTimeout() != 20*time.Second || cfg.HTTPRetryMax != 3 {
		t.Fatalf("unexpected http defaults %s %d", cfg.HTTPTimeout(), cfg.HTTPRetryMax)
	}
	insurance, cod := cfg.Rates()
	if insurance.String() != "0.002" || cod.String() != "0.04" {
		t.Fatalf("unexpected rates %s %s", insurance, cod)
	}
	if cfg.RedisEnabled || cfg.RabbitEnabled {
		t.Fatalf("brokers must be opt-in")
	}
}

func TestFillReadsEnvironment(t *testing.T) {
	cfg := &Config{}
	err := fill(cfg, lookupFrom(map[string]string{
		"APP_ENV":            "production",
		"HTTP_RETRY_MAX":     "5",
		"REDIS_ENABLED":      "true",
		"COD_FEE_RATE":       "0.035",
		"DISPATCH_POOL_SIZE": "16",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppEnv != enum.PRODUCTION || cfg.HTTPRetryMax != 5 || !cfg.RedisEnabled || cfg.DispatchPoolSize != 16 {
		t.Fatalf("environment not applied: %+v", cfg)
	}
	if _, cod := cfg.Rates(); cod.String() != "0.035" {
		t.Fatalf("unexpected cod rate %s", cod)
	}
}

func TestFillRejectsBadValues(t *testing.T) {
	if err := fill(&Config{}, lookupFrom(map[string]string{"APP_PORT": "eighty"})); err == nil {
		t.Fatalf("expected an error for a non-numeric port")
	}
	if err := fill(&Config{}, lookupFrom(map[string]string{"REDIS_ENABLED": "maybe"})); err == nil {
		t.Fatalf("expected an error for a non-boolean flag")
	}

	cfg := &Config{}
	_ = fill(cfg, lookupFrom(map[string]string{"INSURANCE_RATE": "two percent"}))
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected an error for a malformed rate")
	}
}

func TestJWTSecretRequiredOutsideDevelopment(t *testing.T) {
	cfg := &Config{}
	if err := fill(cfg, lookupFrom(map[string]string{"APP_ENV": "production"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected production without JWT_SECRET to be rejected")
	}

	cfg.JWTSecret = "prod-secret"
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg = &Config{}
	_ = fill(cfg, lookupFrom(map[string]string{"APP_ENV": "local"}))
	if err := cfg.validate(); err != nil {
		t.Fatalf("local runs may omit JWT_SECRET: %v", err)
	}
}
