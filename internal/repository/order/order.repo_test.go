package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/helper"
)

func testClient() helper.IHTTPClient {
	return helper.NewHTTPClient(&helper.HTTPClientConfig{
		Timeout: time.Second,
		Retry:   helper.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
}

func TestCreateSendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Idempotency-Key") != "key-1" {
			t.Errorf("missing idempotency key")
		}
		var p models.OrderPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		if p.Vendor != enum.JNT_EXPRESS || p.Package.WeightKg != 1.5 {
			t.Errorf("unexpected payload %+v", p)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"order_id":"ORD-1","reference_no":"REF-9"}}`))
	}))
	defer srv.Close()

	res, err := NewRepo(testClient(), srv.URL).Create(context.Background(), &models.OrderPayload{
		Vendor:  enum.JNT_EXPRESS,
		Package: models.PackageBlock{WeightKg: 1.5},
	}, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OrderID != "ORD-1" || res.ReferenceNo != "REF-9" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCreateIsNeverRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"backend busy"}`))
	}))
	defer srv.Close()

	_, err := NewRepo(testClient(), srv.URL).Create(context.Background(), &models.OrderPayload{}, "k")
	var se *errorx.ErrSubmit
	if !errors.As(err, &se) || se.Message != "backend busy" || se.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected error %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("order creation must not be retried, got %d calls", calls.Load())
	}
}

func TestCreateRejectedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"receiver phone invalid"}`))
	}))
	defer srv.Close()

	_, err := NewRepo(testClient(), srv.URL).Create(context.Background(), &models.OrderPayload{}, "")
	if errorx.HTTPStatus(err) != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 mapping, got %v", err)
	}
}

func TestCancelPostsOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.URL.Path != "/orders/cancel" || body["orderid"] != "ORD-1" || body["remark"] != "wrong address" {
			t.Errorf("unexpected cancel request %s %v", r.URL.Path, body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	if err := NewRepo(testClient(), srv.URL).Cancel(context.Background(), models.CancelOrder{OrderID: "ORD-1", Remark: "wrong address"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
