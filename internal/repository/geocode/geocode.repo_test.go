package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

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

func TestLiveLookupIsCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("country") != "id" {
			t.Errorf("missing country param")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"lat":-6.9,"lng":107.6,"postal_code":"40132"}]}`))
	}))
	defer srv.Close()

	repo := NewRepo(testClient(), srv.URL, redis.NewMemory())
	region := models.Region{Province: "Jawa Barat", Regency: "Kota Bandung", District: "Coblong"}

	for i := 0; i < 2; i++ {
		c, err := repo.Coordinates(context.Background(), region)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.String() != "-6.900000,107.600000" {
			t.Fatalf("unexpected coordinate %s", c)
		}
	}
	code, err := repo.PostalCode(context.Background(), region)
	if err != nil || code != "40132" {
		t.Fatalf("unexpected postal code %q (%v)", code, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one live lookup, got %d", calls.Load())
	}
}

func TestFallbackWhenLiveLookupFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	repo := NewRepo(testClient(), srv.URL, nil)
	c, err := repo.Coordinates(context.Background(), models.Region{Province: "JAWA TIMUR", Regency: "KOTA SURABAYA", District: "Gubeng"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Latitude != -7.2575 {
		t.Fatalf("expected surabaya fallback, got %v", c)
	}
}

func TestProvinceFallbackAndUnknown(t *testing.T) {
	repo := NewRepo(nil, "", nil)

	code, err := repo.PostalCode(context.Background(), models.Region{Province: "Provinsi Bali", Regency: "Gianyar", District: "Ubud"})
	if err != nil || code != "80111" {
		t.Fatalf("expected bali province fallback, got %q (%v)", code, err)
	}

	if _, err := repo.Coordinates(context.Background(), models.Region{Province: "Atlantis", Regency: "Nowhere"}); err == nil {
		t.Fatalf("expected unknown location error")
	}
}

func TestExplicitPostalCodeWins(t *testing.T) {
	repo := NewRepo(nil, "", nil)
	code, err := repo.PostalCode(context.Background(), models.Region{Province: "x", Regency: "y", PostalCode: "99999"})
	if err != nil || code != "99999" {
		t.Fatalf("unexpected %q (%v)", code, err)
	}
}
