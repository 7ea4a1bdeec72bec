package rate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dashboard-cargo/internal/common/enum"
	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/validation"
	vendorRepo "dashboard-cargo/internal/repository/vendor"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrNoVendors = errors.New("no vendors to query")

func (s *Service) Dispatch(ctx context.Context, q models.RateQuery, vendors []enum.VendorEnum) ([]models.VendorOutcome, error) {
	if err := validation.AsValidationError("invalid rate query", q); err != nil {
		return nil, err
	}
	if len(vendors) == 0 {
		return nil, ErrNoVendors
	}

	outcomes := make([]models.VendorOutcome, len(vendors))
	var (
		wg        sync.WaitGroup
		submitErr error
	)

	for i, v := range vendors {
		outcomes[i].Vendor = v

		adapter, ok := s.rp.Vendor.Adapter(v)
		if !ok {
			outcomes[i].Err = &errorx.VendorError{Vendor: v.ToString(), Message: "vendor not configured"}
			continue
		}

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			// each task writes only its own slot
			outcomes[i] = call(ctx, adapter, q)
		})
		if err != nil {
			wg.Done()
			submitErr = err
			outcomes[i].Err = &errorx.VendorError{Vendor: v.ToString(), Message: "dispatch rejected: " + err.Error()}
		}
	}
	wg.Wait()

	if errors.Is(submitErr, ants.ErrPoolClosed) {
		return outcomes, fmt.Errorf("dispatch pool: %w", submitErr)
	}
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// call runs one adapter; a panic becomes that vendor's failure.
func call(ctx context.Context, adapter vendorRepo.ICostAdapter, q models.RateQuery) (out models.VendorOutcome) {
	v := adapter.Vendor()
	out.Vendor = v
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Z().Error("vendor adapter panicked", zap.String("vendor", v.ToString()), zap.Any("panic", r))
			out.Raw = nil
			out.Err = &errorx.VendorError{Vendor: v.ToString(), Message: fmt.Sprintf("adapter panicked: %v", r)}
		}
	}()

	raw, err := adapter.Cost(ctx, q)
	if err != nil {
		logger.Z().Info("vendor cost lookup failed",
			zap.String("vendor", v.ToString()),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		out.Err = err
		return out
	}

	logger.Z().Debug("vendor cost lookup done", zap.String("vendor", v.ToString()), zap.Duration("took", time.Since(start)))
	out.Raw = raw
	return out
}

func (s *Service) Rates(ctx context.Context, q models.RateQuery, vendors []enum.VendorEnum) (*models.RateResult, error) {
	outcomes, err := s.Dispatch(ctx, q, vendors)
	if err != nil {
		return nil, err
	}
	result := Normalize(outcomes)
	return &result, nil
}
