package rate

import (
	"context"
	"net/http"

	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/validation"
)

// Quote is the stateless search: dispatch, normalize, return. An empty
// option list is still a 200 with no_service set.
func (s *Service) Quote(ctx context.Context, req *QuoteRequest) *types.Response {
	if err := validation.AsValidationError("invalid rate query", req); err != nil {
		return helper.ParseResponse(&types.Response{Error: err})
	}

	result, err := s.Rates(ctx, req.Query, ResolveVendors(req.Flow, req.Vendors))
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Message: "Failed to dispatch rate query",
			Error:   err,
		})
	}

	message := "Shipping options found"
	if result.NoService {
		message = "No shipping service available for this route"
	}
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    result,
	})
}
