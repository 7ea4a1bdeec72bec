package discount

import (
	"context"
	"net/http"
	"sync"

	"dashboard-cargo/internal/common/models"
	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/validation"

	"go.uber.org/zap"
)

func (s *Service) Best(q *models.DiscountQuery) *types.Response {
	if err := validation.AsValidationError("invalid discount query", q); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	calc := s.Resolve(s.ctx, *q)
	message := "No discount available"
	if calc.HasDiscount {
		message = "Discount applied"
	}
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    calc,
	})
}

func (s *Service) Resolve(ctx context.Context, q models.DiscountQuery) models.DiscountCalculation {
	if s.eligibility == nil || q.OrderValue <= 0 {
		return models.NoDiscount(q.OrderValue)
	}

	calc, err := s.eligibility.Best(ctx, q)
	if err != nil {
		logger.Z().Warn("discount lookup failed, pricing without discount",
			zap.String("vendor", q.Vendor.ToString()),
			zap.Int64("order_value", q.OrderValue),
			zap.Error(err))
		return models.NoDiscount(q.OrderValue)
	}
	if calc == nil {
		return models.NoDiscount(q.OrderValue)
	}
	return clamp(*calc, q.OrderValue)
}

// clamp re-derives the prices from our own order value so the result always
// satisfies discounted = original - amount and discounted >= 0, whatever
// the collaborator sent.
func clamp(calc models.DiscountCalculation, orderValue int64) models.DiscountCalculation {
	if !calc.HasDiscount {
		return models.NoDiscount(orderValue)
	}

	amount := calc.DiscountAmount
	if amount <= 0 && calc.OriginalPrice == orderValue && calc.DiscountedPrice >= 0 && calc.DiscountedPrice < orderValue {
		amount = orderValue - calc.DiscountedPrice
	}
	if amount > orderValue {
		amount = orderValue
	}
	if amount <= 0 {
		return models.NoDiscount(orderValue)
	}

	calc.OriginalPrice = orderValue
	calc.DiscountAmount = amount
	calc.DiscountedPrice = orderValue - amount
	return calc
}

func (s *Service) ResolveBatch(ctx context.Context, options []models.ShippingOption, userType string) map[string]models.DiscountCalculation {
	results := make([]models.DiscountCalculation, len(options))
	var wg sync.WaitGroup

	for i, opt := range options {
		q := models.DiscountQuery{
			Vendor:      opt.Vendor,
			OrderValue:  opt.BasePrice,
			ServiceType: opt.ServiceCode,
			UserType:    userType,
		}
		task := func() {
			defer wg.Done()
			results[i] = s.Resolve(ctx, q)
		}

		wg.Add(1)
		if s.pool == nil {
			go task()
			continue
		}
		if err := s.pool.Submit(task); err != nil {
			// a closed pool still prices inline
			task()
		}
	}
	wg.Wait()

	out := make(map[string]models.DiscountCalculation, len(options))
	for i, opt := range options {
		out[opt.ID] = results[i]
	}
	return out
}
