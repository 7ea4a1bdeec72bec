package rate

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/repository"
	vendorRepo "dashboard-cargo/internal/repository/vendor"

	"github.com/panjf2000/ants/v2"
)

type fakeAdapter struct {
	vendor enum.VendorEnum
	delay  time.Duration
	raw    string
	err    error
	panics bool
	calls  *atomic.Int32
}

func (f *fakeAdapter) Vendor() enum.VendorEnum { return f.vendor }

func (f *fakeAdapter) Cost(ctx context.Context, q models.RateQuery) (json.RawMessage, error) {
	if f.calls != nil {
		f.calls.Add(1)
	}
	if f.panics {
		panic("adapter exploded")
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.raw), nil
}

func newTestService(t *testing.T, adapters ...vendorRepo.ICostAdapter) *Service {
	t.Helper()
	pool, err := ants.NewPool(4)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Release)
	return NewService(context.Background(), repository.IRepository{Vendor: vendorRepo.NewRepoWith(adapters...)}, pool).(*Service)
}

func validQuery() models.RateQuery {
	return models.RateQuery{
		Origin:        models.Region{Province: "DKI Jakarta", Regency: "Jakarta Selatan", District: "Kebayoran Baru"},
		Destination:   models.Region{Province: "Jawa Barat", Regency: "Bandung", District: "Coblong"},
		Weight:        1000,
		ItemValue:     50000,
		PaymentMethod: enum.COD,
	}
}

func TestDispatchJoinsAllRegardlessOfFailure(t *testing.T) {
	svc := newTestService(t,
		&fakeAdapter{vendor: enum.JNT_EXPRESS, delay: 30 * time.Millisecond, raw: `[{"cost":9000,"name":"EZ","productType":"EZ"}]`},
		&fakeAdapter{vendor: enum.PAXEL, err: &errorx.VendorError{Vendor: "paxel", Message: "no route"}},
		&fakeAdapter{vendor: enum.LION, panics: true},
	)

	vendors := []enum.VendorEnum{enum.JNT_EXPRESS, enum.PAXEL, enum.LION, enum.SAP}
	outcomes, err := svc.Dispatch(context.Background(), validQuery(), vendors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != len(vendors) {
		t.Fatalf("expected %d outcomes, got %d", len(vendors), len(outcomes))
	}
	for i, v := range vendors {
		if outcomes[i].Vendor != v {
			t.Fatalf("outcome %d belongs to %s, want %s", i, outcomes[i].Vendor, v)
		}
	}
	if !outcomes[0].OK() {
		t.Fatalf("slow vendor should still succeed: %v", outcomes[0].Err)
	}
	if outcomes[1].OK() || outcomes[2].OK() || outcomes[3].OK() {
		t.Fatalf("expected failures for paxel, lion and sap: %+v", outcomes)
	}

	var ve *errorx.VendorError
	if !errors.As(outcomes[3].Err, &ve) || ve.Message != "vendor not configured" {
		t.Fatalf("unexpected sap outcome %v", outcomes[3].Err)
	}
}

func TestDispatchRunsConcurrently(t *testing.T) {
	adapters := make([]vendorRepo.ICostAdapter, 0, 3)
	for _, v := range []enum.VendorEnum{enum.GOSEND, enum.ID_EXPRESS, enum.POS} {
		adapters = append(adapters, &fakeAdapter{vendor: v, delay: 100 * time.Millisecond, raw: `[]`})
	}
	svc := newTestService(t, adapters...)

	start := time.Now()
	if _, err := svc.Dispatch(context.Background(), validQuery(), []enum.VendorEnum{enum.GOSEND, enum.ID_EXPRESS, enum.POS}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if took := time.Since(start); took > 250*time.Millisecond {
		t.Fatalf("vendors were not queried concurrently, took %s", took)
	}
}

func TestDispatchValidatesBeforeCalling(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, &fakeAdapter{vendor: enum.JNT_EXPRESS, raw: `[]`, calls: &calls})

	q := validQuery()
	q.Weight = 0
	q.Destination.District = ""
	_, err := svc.Dispatch(context.Background(), q, []enum.VendorEnum{enum.JNT_EXPRESS})

	var ve *errorx.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, found := ve.Fields["weight"]; !found {
		t.Fatalf("expected weight field error, got %v", ve.Fields)
	}
	if _, found := ve.Fields["destination.district"]; !found {
		t.Fatalf("expected destination.district field error, got %v", ve.Fields)
	}
	if calls.Load() != 0 {
		t.Fatalf("no vendor may be called on invalid input")
	}
}

func TestDispatchClosedPool(t *testing.T) {
	svc := newTestService(t, &fakeAdapter{vendor: enum.JNT_EXPRESS, raw: `[]`})
	svc.pool.Release()

	if _, err := svc.Dispatch(context.Background(), validQuery(), []enum.VendorEnum{enum.JNT_EXPRESS}); !errors.Is(err, ants.ErrPoolClosed) {
		t.Fatalf("expected pool closed error, got %v", err)
	}
}

func TestQuoteReportsNoService(t *testing.T) {
	svc := newTestService(t, &fakeAdapter{vendor: enum.LION, raw: `{"shipping_cost":0}`})

	res := svc.Quote(context.Background(), &QuoteRequest{Query: validQuery(), Vendors: []enum.VendorEnum{enum.LION}})
	if res.Code != 200 {
		t.Fatalf("expected 200, got %d (%v)", res.Code, res.Error)
	}
	result := res.Data.(*models.RateResult)
	if !result.NoService {
		t.Fatalf("expected no_service, got %+v", result)
	}
}

func TestQuoteStopsWithCallerContext(t *testing.T) {
	svc := newTestService(t, &fakeAdapter{vendor: enum.LION, delay: 5 * time.Second, raw: `{"shipping_cost":9000}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	res := svc.Quote(ctx, &QuoteRequest{Query: validQuery(), Vendors: []enum.VendorEnum{enum.LION}})
	if !errors.Is(res.Error, context.Canceled) {
		t.Fatalf("expected the caller's cancellation, got %d %v", res.Code, res.Error)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("vendor call outlived the request")
	}
}

func TestResolveVendors(t *testing.T) {
	if got := ResolveVendors(enum.FLOW_REGULAR, nil); len(got) != 3 {
		t.Fatalf("regular flow should query 3 vendors, got %v", got)
	}
	if got := ResolveVendors("", []enum.VendorEnum{enum.POS, enum.POS}); len(got) != 1 {
		t.Fatalf("explicit vendors should be deduplicated, got %v", got)
	}
	if got := ResolveVendors("", nil); len(got) != len(enum.AllVendors()) {
		t.Fatalf("default should query every vendor, got %v", got)
	}
}
