package flow

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/redis"
	"dashboard-cargo/internal/repository"
	"dashboard-cargo/internal/service/discount"
	"dashboard-cargo/internal/service/order"
	"dashboard-cargo/internal/service/pricing"
	"dashboard-cargo/internal/service/rate"
)

type fakeRates struct {
	fn func(ctx context.Context, q models.RateQuery, vendors []enum.VendorEnum) (*models.RateResult, error)
}

func (f *fakeRates) Quote(context.Context, *rate.QuoteRequest) *types.Response { return nil }

func (f *fakeRates) Dispatch(context.Context, models.RateQuery, []enum.VendorEnum) ([]models.VendorOutcome, error) {
	return nil, nil
}

func (f *fakeRates) Rates(ctx context.Context, q models.RateQuery, vendors []enum.VendorEnum) (*models.RateResult, error) {
	return f.fn(ctx, q, vendors)
}

type fakeOrders struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeOrders) Create(_ context.Context, _ *models.OrderPayload, key string) (*models.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	return &models.OrderResult{OrderID: "ORD-9"}, nil
}

func (f *fakeOrders) Cancel(context.Context, models.CancelOrder) error { return nil }

func options(opts ...models.ShippingOption) *models.RateResult {
	return &models.RateResult{Options: opts, Failures: []models.VendorFailure{}, NoService: len(opts) == 0}
}

var (
	jntEZ = models.ShippingOption{ID: "jnt-ez", Vendor: enum.JNT_EXPRESS, ServiceCode: "EZ", BasePrice: 17000}
	paxel = models.ShippingOption{ID: "paxel-same-day", Vendor: enum.PAXEL, ServiceCode: "same_day", BasePrice: 25000}
)

func searchReq() *SearchRequest {
	region := models.Region{Province: "Jawa Barat", Regency: "Kota Bandung", District: "Coblong"}
	return &SearchRequest{
		Query: models.RateQuery{
			Origin:        region,
			Destination:   region,
			Weight:        1000,
			ItemValue:     1_000_000,
			PaymentMethod: enum.COD,
		},
		Flow: enum.FLOW_REGULAR,
	}
}

type harness struct {
	svc    IService
	epochs EpochStore
	orders *fakeOrders
}

// flakyEpochs fails Next while down is set.
type flakyEpochs struct {
	EpochStore
	down atomic.Bool
}

func (f *flakyEpochs) Next(sessionID string) (int64, error) {
	if f.down.Load() {
		return 0, errors.New("redis down")
	}
	return f.EpochStore.Next(sessionID)
}

func newHarness(rates *fakeRates) harness {
	return newHarnessWithEpochs(rates, NewEpochStore(redis.NewMemory(), time.Hour))
}

func newHarnessWithEpochs(rates *fakeRates, epochs EpochStore) harness {
	ctx := context.Background()
	rules := []models.DiscountRule{{
		ID: "jnt-10", Vendor: enum.JNT_EXPRESS, DiscountType: enum.PERCENTAGE, DiscountValue: 10, IsActive: true,
	}}
	orders := &fakeOrders{}
	return harness{
		svc: NewService(ctx, Deps{
			Sessions: NewManager(time.Hour),
			Epochs:   epochs,
			Rate:     rates,
			Discount: discount.NewService(ctx, discount.NewRuleEvaluator(rules), nil),
			Pricing:  pricing.NewService(ctx, pricing.DefaultInsuranceRate, pricing.DefaultCODFeeRate),
			Order:    order.NewService(ctx, repository.IRepository{Order: orders}, nil),
		}),
		epochs: epochs,
		orders: orders,
	}
}

func snapshotOf(t *testing.T, res *types.Response) Snapshot {
	t.Helper()
	snap, ok := res.Data.(Snapshot)
	if !ok {
		t.Fatalf("expected a snapshot, got %T (%d %s)", res.Data, res.Code, res.Message)
	}
	return snap
}

func TestStaleBatchIsDiscarded(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	var calls int32
	h := newHarness(&fakeRates{fn: func(context.Context, models.RateQuery, []enum.VendorEnum) (*models.RateResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-release
			return options(jntEZ), nil
		}
		return options(paxel), nil
	}})

	first := make(chan *types.Response)
	go func() { first <- h.svc.Search(context.Background(), "s1", "", searchReq()) }()
	<-started

	second := h.svc.Search(context.Background(), "s1", "", searchReq())
	if second.Code != http.StatusOK {
		t.Fatalf("expected second search to succeed, got %d %s", second.Code, second.Message)
	}
	close(release)

	stale := <-first
	if stale.Code != http.StatusConflict || !errors.Is(stale.Error, errorx.ErrStaleBatch) {
		t.Fatalf("expected stale batch, got %d %v", stale.Code, stale.Error)
	}

	snap := snapshotOf(t, h.svc.Snapshot("s1"))
	if snap.State != enum.STATE_OPTIONS_AVAILABLE || snap.Epoch != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.Result.Options) != 1 || snap.Result.Options[0].ID != paxel.ID {
		t.Fatalf("stale options leaked into the session: %+v", snap.Result.Options)
	}
}

func TestEpochBumpedElsewhereDiscardsBatch(t *testing.T) {
	var h harness
	h = newHarness(&fakeRates{fn: func(context.Context, models.RateQuery, []enum.VendorEnum) (*models.RateResult, error) {
		// another instance started a search for the same session
		if _, err := h.epochs.Next("s1"); err != nil {
			t.Errorf("bump epoch: %v", err)
		}
		return options(jntEZ), nil
	}})

	res := h.svc.Search(context.Background(), "s1", "", searchReq())
	if !errors.Is(res.Error, errorx.ErrStaleBatch) {
		t.Fatalf("expected stale batch, got %d %v", res.Code, res.Error)
	}

	snap := snapshotOf(t, h.svc.Snapshot("s1"))
	if snap.State != enum.STATE_DISPATCH_ERROR || snap.Result != nil {
		t.Fatalf("session must not stay dispatching, got %+v", snap)
	}
}

func TestEpochStoreFailureDropsPriorState(t *testing.T) {
	epochs := &flakyEpochs{EpochStore: NewEpochStore(redis.NewMemory(), time.Hour)}
	h := newHarnessWithEpochs(&fakeRates{fn: func(context.Context, models.RateQuery, []enum.VendorEnum) (*models.RateResult, error) {
		return options(jntEZ), nil
	}}, epochs)
	ctx := context.Background()

	h.svc.Search(ctx, "s1", "", searchReq())
	if snap := snapshotOf(t, h.svc.Select(ctx, "s1", "", &SelectRequest{OptionID: jntEZ.ID})); snap.Pricing == nil {
		t.Fatalf("expected pricing before the failing search")
	}

	epochs.down.Store(true)
	if res := h.svc.Search(ctx, "s1", "", searchReq()); res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	snap := snapshotOf(t, h.svc.Snapshot("s1"))
	if snap.State != enum.STATE_DISPATCH_ERROR || snap.Epoch != 0 || snap.Error == "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Result != nil || snap.Discounts != nil || snap.Selected != nil || snap.Discount != nil || snap.Pricing != nil {
		t.Fatalf("prior option, discount and pricing state must be dropped: %+v", snap)
	}
	if res := h.svc.Select(ctx, "s1", "", &SelectRequest{OptionID: jntEZ.ID}); res.Code != http.StatusConflict {
		t.Fatalf("selecting after a failed search must be rejected, got %d", res.Code)
	}

	epochs.down.Store(false)
	if snap := snapshotOf(t, h.svc.Search(ctx, "s1", "", searchReq())); snap.State != enum.STATE_OPTIONS_AVAILABLE {
		t.Fatalf("expected recovery, got %s", snap.State)
	}
}

func TestSearchStates(t *testing.T) {
	h := newHarness(&fakeRates{fn: func(_ context.Context, q models.RateQuery, _ []enum.VendorEnum) (*models.RateResult, error) {
		switch q.Weight {
		case 1:
			return options(), nil
		case 2:
			return nil, rate.ErrNoVendors
		}
		return options(jntEZ, paxel), nil
	}})

	res := h.svc.Search(context.Background(), "s1", "", searchReq())
	snap := snapshotOf(t, res)
	if snap.State != enum.STATE_OPTIONS_AVAILABLE {
		t.Fatalf("expected options_available, got %s", snap.State)
	}
	if d := snap.Discounts[jntEZ.ID]; !d.HasDiscount || d.DiscountedPrice != 15300 {
		t.Fatalf("expected display discount for %s, got %+v", jntEZ.ID, d)
	}

	req := searchReq()
	req.Query.Weight = 1
	if snap := snapshotOf(t, h.svc.Search(context.Background(), "s1", "", req)); snap.State != enum.STATE_NO_OPTIONS || snap.Result == nil {
		t.Fatalf("expected no_options, got %+v", snap)
	}

	req.Query.Weight = 2
	res = h.svc.Search(context.Background(), "s1", "", req)
	if res.Code != http.StatusServiceUnavailable || snapshotOf(t, res).State != enum.STATE_DISPATCH_ERROR {
		t.Fatalf("expected dispatch_error, got %d", res.Code)
	}
}

func TestSearchValidatesBeforeOpeningSession(t *testing.T) {
	var calls int32
	h := newHarness(&fakeRates{fn: func(context.Context, models.RateQuery, []enum.VendorEnum) (*models.RateResult, error) {
		atomic.AddInt32(&calls, 1)
		return options(), nil
	}})

	req := searchReq()
	req.Query.Weight = 0
	res := h.svc.Search(context.Background(), "s1", "", req)
	if res.Code != http.StatusBadRequest || atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected 400 without dispatch, got %d after %d calls", res.Code, calls)
	}
	if res := h.svc.Snapshot("s1"); res.Code != http.StatusNotFound {
		t.Fatalf("expected no session, got %d", res.Code)
	}
}

func TestSelectAndConfirm(t *testing.T) {
	h := newHarness(&fakeRates{fn: func(context.Context, models.RateQuery, []enum.VendorEnum) (*models.RateResult, error) {
		return options(jntEZ, paxel), nil
	}})
	ctx := context.Background()
	h.svc.Search(ctx, "s1", "", searchReq())

	if res := h.svc.Select(ctx, "s1", "", &SelectRequest{OptionID: "sap-reg"}); res.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown option to be rejected, got %d", res.Code)
	}

	res := h.svc.Select(ctx, "s1", "", &SelectRequest{OptionID: jntEZ.ID, Insurance: true})
	snap := snapshotOf(t, res)
	if snap.State != enum.STATE_PRICING_READY {
		t.Fatalf("expected pricing_ready, got %s", snap.State)
	}
	if snap.Pricing.ShippingPrice != 15300 || snap.Pricing.TotalPayable != 57300 || *snap.Pricing.CollectibleFromRecipient != 1_057_300 {
		t.Fatalf("unexpected pricing %+v", snap.Pricing)
	}

	party := &models.Party{Name: "Budi", Phone: "081234567890", Address: "Jl. Asia Afrika 8", Province: "Jawa Barat", Regency: "Kota Bandung", District: "Coblong"}
	confirm := &ConfirmRequest{
		Package:  &models.PackageDetail{Pieces: 1, Weight: 1000, ItemValue: 1_000_000},
		Sender:   &models.PartyRef{Inline: party},
		Receiver: &models.PartyRef{Inline: party},
	}

	h.orders.err = &errorx.ErrSubmit{Message: "backend down", StatusCode: 503}
	res = h.svc.Confirm(ctx, "s1", confirm)
	if res.Code != http.StatusBadGateway || snapshotOf(t, res).State != enum.STATE_SUBMIT_FAILED {
		t.Fatalf("expected submit_failed, got %d", res.Code)
	}

	h.orders.err = nil
	res = h.svc.Confirm(ctx, "s1", confirm)
	snap = snapshotOf(t, res)
	if res.Code != http.StatusCreated || snap.State != enum.STATE_SUBMITTED || snap.Order.OrderID != "ORD-9" {
		t.Fatalf("expected submitted, got %d %+v", res.Code, snap)
	}
	if len(h.orders.keys) != 2 || h.orders.keys[0] != h.orders.keys[1] {
		t.Fatalf("a resubmission must reuse the idempotency key, got %v", h.orders.keys)
	}

	if res := h.svc.Confirm(ctx, "s1", confirm); res.Code != http.StatusConflict {
		t.Fatalf("expected a second confirm to be rejected, got %d", res.Code)
	}
}

func TestConfirmIncompleteNeverSubmits(t *testing.T) {
	h := newHarness(&fakeRates{fn: func(context.Context, models.RateQuery, []enum.VendorEnum) (*models.RateResult, error) {
		return options(jntEZ), nil
	}})
	ctx := context.Background()
	h.svc.Search(ctx, "s1", "", searchReq())
	h.svc.Select(ctx, "s1", "", &SelectRequest{OptionID: jntEZ.ID})

	res := h.svc.Confirm(ctx, "s1", &ConfirmRequest{
		Package:  &models.PackageDetail{Pieces: 1, Weight: 500},
		Sender:   &models.PartyRef{},
		Receiver: &models.PartyRef{},
	})
	var ve *errorx.ErrValidation
	if !errors.As(res.Error, &ve) || ve.Fields["sender"] == "" || ve.Fields["receiver"] == "" {
		t.Fatalf("expected missing parties, got %v", res.Error)
	}
	if len(h.orders.keys) != 0 {
		t.Fatalf("incomplete payload was submitted")
	}
	if snap := snapshotOf(t, h.svc.Snapshot("s1")); snap.State != enum.STATE_PRICING_READY {
		t.Fatalf("state must not change, got %s", snap.State)
	}
}

func TestNewSearchClearsSelection(t *testing.T) {
	h := newHarness(&fakeRates{fn: func(context.Context, models.RateQuery, []enum.VendorEnum) (*models.RateResult, error) {
		return options(jntEZ), nil
	}})
	ctx := context.Background()
	h.svc.Search(ctx, "s1", "", searchReq())
	h.svc.Select(ctx, "s1", "", &SelectRequest{OptionID: jntEZ.ID})

	snap := snapshotOf(t, h.svc.Search(ctx, "s1", "", searchReq()))
	if snap.Selected != nil || snap.Pricing != nil || snap.Discount != nil {
		t.Fatalf("new search must drop the previous selection: %+v", snap)
	}
}

func TestSelectBeforeSearch(t *testing.T) {
	h := newHarness(&fakeRates{})
	if res := h.svc.Select(context.Background(), "missing", "", &SelectRequest{OptionID: "jnt-ez"}); res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(30 * time.Minute)
	m.now = func() time.Time { return now }

	if _, err := m.Open("old"); err != nil {
		t.Fatalf("open: %v", err)
	}
	now = now.Add(time.Hour)

	fresh, err := m.Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if fresh.ID() == "" {
		t.Fatalf("expected a generated id")
	}
	if _, ok := m.Get("old"); ok || m.Len() != 1 {
		t.Fatalf("expected idle session to be swept, have %d", m.Len())
	}
}
