package discount

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/validation"

	"go.uber.org/zap"
)

// Chain asks the backend for the best rule. When the backend names a rule
// the local set also holds, the amount is recalculated here so rounding and
// caps follow Calculate. A failed backend lookup falls back to the local
// rules; with no local rules the error is returned as is.
type Chain struct {
	backend IEligibility
	local   *RuleEvaluator
}

func NewChain(backend IEligibility, local *RuleEvaluator) *Chain {
	if local == nil {
		local = NewRuleEvaluator(nil)
	}
	return &Chain{backend: backend, local: local}
}

func (c *Chain) Best(ctx context.Context, q models.DiscountQuery) (*models.DiscountCalculation, error) {
	if c.backend == nil {
		return c.local.Best(ctx, q)
	}

	calc, err := c.backend.Best(ctx, q)
	if err != nil {
		if c.local.Len() == 0 {
			return nil, err
		}
		logger.Z().Warn("discount backend failed, using configured rules",
			zap.String("vendor", q.Vendor.ToString()),
			zap.Error(err))
		return c.local.Best(ctx, q)
	}
	if calc == nil || calc.RuleID == "" {
		return calc, nil
	}

	rule, ok := c.local.Rule(calc.RuleID)
	if !ok {
		return calc, nil
	}
	recalculated := Calculate(rule, q.OrderValue)
	if recalculated.DiscountAmount != calc.DiscountAmount {
		logger.Z().Debug("backend discount differs from rule",
			zap.String("rule_id", rule.ID),
			zap.Int64("backend_amount", calc.DiscountAmount),
			zap.Int64("amount", recalculated.DiscountAmount))
	}
	return &recalculated, nil
}

// LoadRules reads a JSON array of discount rules. An empty path yields no
// rules.
func LoadRules(path string) ([]models.DiscountRule, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read discount rules: %w", err)
	}

	var rules []models.DiscountRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse discount rules %s: %w", path, err)
	}
	for i := range rules {
		if err := validation.AsValidationError(fmt.Sprintf("invalid discount rule #%d", i), &rules[i]); err != nil {
			return nil, err
		}
	}
	return rules, nil
}
