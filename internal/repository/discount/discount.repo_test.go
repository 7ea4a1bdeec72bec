package discount

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/redis"
)

func testClient() helper.IHTTPClient {
	return helper.NewHTTPClient(&helper.HTTPClientConfig{
		Timeout: time.Second,
		Retry:   helper.RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
}

func TestBestSendsQueryAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if r.URL.Path != "/discounts/best" || q.Get("vendor") != "jntexpress" || q.Get("order_value") != "17000" || q.Get("service_type") != "EZ" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"best_discount":{"has_discount":true,"discount_type":"percentage","discount_value":10,"original_price":17000,"discounted_price":15300,"discount_amount":1700}}}`))
	}))
	defer srv.Close()

	repo := NewRepo(testClient(), srv.URL, redis.NewMemory(), time.Minute)
	q := models.DiscountQuery{Vendor: enum.JNT_EXPRESS, OrderValue: 17000, ServiceType: "EZ"}

	for i := 0; i < 2; i++ {
		calc, err := repo.Best(context.Background(), q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calc == nil || calc.DiscountedPrice != 15300 {
			t.Fatalf("unexpected calculation %+v", calc)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one backend call, got %d", calls.Load())
	}
}

func TestBestNullMeansNoDiscount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"data":{"best_discount":null}}`))
	}))
	defer srv.Close()

	calc, err := NewRepo(testClient(), srv.URL, nil, 0).Best(context.Background(), models.DiscountQuery{Vendor: enum.PAXEL, OrderValue: 5000})
	if err != nil || calc != nil {
		t.Fatalf("expected no discount, got %+v (%v)", calc, err)
	}
}

func TestBestBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"unknown vendor"}`))
	}))
	defer srv.Close()

	if _, err := NewRepo(testClient(), srv.URL, nil, 0).Best(context.Background(), models.DiscountQuery{Vendor: enum.LION}); err == nil {
		t.Fatalf("expected error")
	}
}
