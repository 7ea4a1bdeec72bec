package discount

import (
	"context"
	"sort"
	"strings"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/logger"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RuleEvaluator selects and applies discount rules locally. It serves the
// same role as the backend eligibility endpoint for a known rule set.
type RuleEvaluator struct {
	rules []models.DiscountRule
	now   func() time.Time
}

func NewRuleEvaluator(rules []models.DiscountRule) *RuleEvaluator {
	return &RuleEvaluator{
		rules: append([]models.DiscountRule(nil), rules...),
		now:   time.Now,
	}
}

// Rule looks a configured rule up by id.
func (e *RuleEvaluator) Rule(id string) (models.DiscountRule, bool) {
	return lo.Find(e.rules, func(r models.DiscountRule) bool {
		return r.ID == id
	})
}

func (e *RuleEvaluator) Len() int {
	return len(e.rules)
}

func (e *RuleEvaluator) Best(_ context.Context, q models.DiscountQuery) (*models.DiscountCalculation, error) {
	rule, ok := e.Select(q)
	if !ok {
		return nil, nil
	}
	calc := Calculate(rule, q.OrderValue)
	return &calc, nil
}

// Select returns the eligible rule with the lowest priority number. Rules
// sharing that priority keep their configured order and the first wins.
func (e *RuleEvaluator) Select(q models.DiscountQuery) (models.DiscountRule, bool) {
	now := e.now()
	candidates := lo.Filter(e.rules, func(r models.DiscountRule, _ int) bool {
		return eligible(r, q, now)
	})
	if len(candidates) == 0 {
		return models.DiscountRule{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	if len(candidates) > 1 && candidates[0].Priority == candidates[1].Priority {
		tied := lo.FilterMap(candidates, func(r models.DiscountRule, _ int) (string, bool) {
			return r.ID, r.Priority == candidates[0].Priority
		})
		logger.Z().Warn("discount rules share a priority, using the first configured",
			zap.String("vendor", q.Vendor.ToString()),
			zap.Int("priority", candidates[0].Priority),
			zap.Strings("rules", tied))
	}
	return candidates[0], true
}

// eligible applies the service and user type filters only when the query
// carries them; a rule without one matches any value.
func eligible(r models.DiscountRule, q models.DiscountQuery, now time.Time) bool {
	if !r.IsActive || r.Vendor != q.Vendor || !r.InWindow(now) {
		return false
	}
	if r.MinimumOrderValue != nil && q.OrderValue < *r.MinimumOrderValue {
		return false
	}
	if q.ServiceType != "" && r.ServiceType != "" && !strings.EqualFold(q.ServiceType, r.ServiceType) {
		return false
	}
	if q.UserType != "" && r.UserType != "" && !strings.EqualFold(q.UserType, r.UserType) {
		return false
	}
	return true
}

// Calculate applies one rule to an order value. Percentages round half up
// before the cap; the amount never exceeds the order value.
func Calculate(rule models.DiscountRule, orderValue int64) models.DiscountCalculation {
	value := decimal.NewFromFloat(rule.DiscountValue)
	order := decimal.NewFromInt(orderValue)

	var amount decimal.Decimal
	switch rule.DiscountType {
	case enum.PERCENTAGE:
		amount = order.Mul(value).Div(decimal.NewFromInt(100)).Round(0)
		if rule.MaximumDiscountAmount != nil {
			amount = decimal.Min(amount, decimal.NewFromInt(*rule.MaximumDiscountAmount))
		}
	case enum.FIXED_AMOUNT:
		amount = decimal.Min(value.Round(0), order)
	default:
		return models.NoDiscount(orderValue)
	}

	amount = decimal.Max(decimal.Zero, decimal.Min(amount, order))
	discount := amount.IntPart()

	return models.DiscountCalculation{
		HasDiscount:     discount > 0,
		RuleID:          rule.ID,
		DiscountType:    rule.DiscountType,
		DiscountValue:   rule.DiscountValue,
		OriginalPrice:   orderValue,
		DiscountedPrice: orderValue - discount,
		DiscountAmount:  discount,
	}
}
