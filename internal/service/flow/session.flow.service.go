package flow

import (
	"sync"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/errorx"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Session is one operator's rate query lifecycle. Every field is guarded by
// mu; long running work happens outside the lock and is applied back only
// when its epoch is still current.
type Session struct {
	mu sync.Mutex

	id        string
	state     enum.FlowStateEnum
	epoch     int64
	updatedAt time.Time

	query     *models.RateQuery
	vendors   []enum.VendorEnum
	result    *models.RateResult
	discounts map[string]models.DiscountCalculation

	selected       *models.ShippingOption
	discount       *models.DiscountCalculation
	pricingInput   *models.PricingInput
	pricing        *models.PricingSummary
	idempotencyKey string

	order   *models.OrderResult
	lastErr string
}

// Snapshot is the JSON view of a session.
type Snapshot struct {
	SessionID string                                `json:"session_id"`
	State     enum.FlowStateEnum                    `json:"state"`
	Epoch     int64                                 `json:"epoch"`
	Query     *models.RateQuery                     `json:"query,omitempty"`
	Vendors   []enum.VendorEnum                     `json:"vendors,omitempty"`
	Result    *models.RateResult                    `json:"result,omitempty"`
	Discounts map[string]models.DiscountCalculation `json:"discounts,omitempty"`
	Selected  *models.ShippingOption                `json:"selected,omitempty"`
	Discount  *models.DiscountCalculation           `json:"discount,omitempty"`
	Pricing   *models.PricingSummary                `json:"pricing,omitempty"`
	Order     *models.OrderResult                   `json:"order,omitempty"`
	Error     string                                `json:"error,omitempty"`
	UpdatedAt time.Time                             `json:"updated_at"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{id: id, state: enum.STATE_IDLE, updatedAt: now}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() enum.FlowStateEnum {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition must be called with mu held.
func (s *Session) transition(next enum.FlowStateEnum, now time.Time) error {
	if !s.state.CanTransitionTo(next) {
		return &errorx.ErrInvalidTransition{From: s.state.ToString(), To: next.ToString()}
	}
	s.state = next
	s.updatedAt = now
	return nil
}

// reset drops everything derived from the previous query. Called with mu held.
func (s *Session) reset(epoch int64, q models.RateQuery, vendors []enum.VendorEnum) {
	s.epoch = epoch
	s.query = &q
	s.vendors = vendors
	s.result = nil
	s.discounts = nil
	s.clearSelection()
	s.order = nil
	s.lastErr = ""
}

func (s *Session) clearSelection() {
	s.selected = nil
	s.discount = nil
	s.pricingInput = nil
	s.pricing = nil
	s.idempotencyKey = ""
}

func (s *Session) option(id string) (models.ShippingOption, bool) {
	if s.result == nil {
		return models.ShippingOption{}, false
	}
	for _, o := range s.result.Options {
		if o.ID == id {
			return o, true
		}
	}
	return models.ShippingOption{}, false
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		SessionID: s.id,
		State:     s.state,
		Epoch:     s.epoch,
		Query:     s.query,
		Vendors:   s.vendors,
		Result:    s.result,
		Discounts: s.discounts,
		Selected:  s.selected,
		Discount:  s.discount,
		Pricing:   s.pricing,
		Order:     s.order,
		Error:     s.lastErr,
		UpdatedAt: s.updatedAt,
	}
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.updatedAt)
}

// Manager owns the live sessions of this process.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
}

// NewManager drops sessions untouched for longer than idle. Zero keeps
// them forever.
func NewManager(idle time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      time.Now,
	}
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Open returns the session with id, creating it when needed. An empty id
// gets a fresh nanoid.
func (m *Manager) Open(id string) (*Session, error) {
	m.sweep()

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		generated, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		id = generated
	}
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := newSession(id, m.now())
	m.sessions[id] = s
	return s, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sweep removes idle sessions, except ones waiting on a submission.
func (m *Manager) sweep() int {
	if m.idle <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idle && s.State() != enum.STATE_SUBMITTING {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
