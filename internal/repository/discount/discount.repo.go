package discount

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/redis"
)

// IRepository asks the backend for the best discount of an order. A nil
// calculation with a nil error means no rule is eligible.
type IRepository interface {
	Best(ctx context.Context, q models.DiscountQuery) (*models.DiscountCalculation, error)
}

type Repository struct {
	http    helper.IHTTPClient
	baseURL string
	cache   redis.IRedis
	ttl     time.Duration
}

type cached struct {
	Found bool                        `json:"found"`
	Calc  *models.DiscountCalculation `json:"calc,omitempty"`
}

type envelope struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Data    struct {
		BestDiscount *models.DiscountCalculation `json:"best_discount"`
	} `json:"data"`
}

// NewRepo builds the eligibility client. cache may be nil; a ttl of zero
// disables caching.
func NewRepo(http helper.IHTTPClient, baseURL string, cache redis.IRedis, ttl time.Duration) IRepository {
	return &Repository{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		ttl:     ttl,
	}
}

func (r *Repository) Best(ctx context.Context, q models.DiscountQuery) (*models.DiscountCalculation, error) {
	key := cacheKey(q)
	if hit, ok := r.fromCache(key); ok {
		return hit.Calc, nil
	}

	params := map[string]string{
		"vendor":      q.Vendor.ToString(),
		"order_value": strconv.FormatInt(q.OrderValue, 10),
	}
	if q.ServiceType != "" {
		params["service_type"] = q.ServiceType
	}
	if q.UserType != "" {
		params["user_type"] = q.UserType
	}

	res, err := r.http.Do(&helper.HTTPRequestPayload{
		Method: helper.GET,
		URL:    r.baseURL + "/discounts/best",
		Params: params,
	}, &helper.HTTPRequestConfig{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("discount lookup: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("discount lookup returned %d: %s", res.StatusCode, helper.MessageFromBody(res, "request failed"))
	}

	var env envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return nil, fmt.Errorf("discount lookup response: %w", err)
	}
	if len(env.Status) > 0 && !helper.IsTruthy(env.Status) {
		return nil, fmt.Errorf("discount lookup failed: %s", env.Message)
	}

	r.toCache(key, cached{Found: env.Data.BestDiscount != nil, Calc: env.Data.BestDiscount})
	return env.Data.BestDiscount, nil
}

func (r *Repository) fromCache(key string) (cached, bool) {
	if r.cache == nil || r.ttl <= 0 {
		return cached{}, false
	}
	raw, err := r.cache.Get(key)
	if err != nil {
		logger.Warning.Printf("discount cache read failed: %v", err)
		return cached{}, false
	}
	if raw == "" {
		return cached{}, false
	}
	var hit cached
	if err := json.Unmarshal([]byte(raw), &hit); err != nil {
		return cached{}, false
	}
	return hit, true
}

func (r *Repository) toCache(key string, value cached) {
	if r.cache == nil || r.ttl <= 0 {
		return
	}
	if err := r.cache.Set(key, value, r.ttl); err != nil {
		logger.Warning.Printf("discount cache write failed: %v", err)
	}
}

func cacheKey(q models.DiscountQuery) string {
	return fmt.Sprintf("discount:%s:%s:%s:%d", q.Vendor, strings.ToLower(q.ServiceType), strings.ToLower(q.UserType), q.OrderValue)
}
