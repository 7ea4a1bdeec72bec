package helper

import (
	"errors"
	"net/http"

	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/logger"
)

// ParseResponse fills in the status code and message a service left empty
// and logs server-side failures.
func ParseResponse(r *types.Response) *types.Response {
	if r.Error != nil {
		if r.Code == 0 {
			r.Code = errorx.HTTPStatus(r.Error)
		}
		if r.Message == "" {
			r.Message = r.Error.Error()
		}
		if r.Code >= http.StatusInternalServerError {
			logger.Error.Printf("%s: %v", r.Message, r.Error)
		} else {
			logger.Debug.Printf("%s: %v", r.Message, r.Error)
		}
	}

	if r.Code == 0 {
		r.Code = http.StatusOK
	}
	if r.Message == "" {
		r.Message = http.StatusText(r.Code)
	}
	return r
}

// ToResponseAPI renders a service response into the public envelope.
func ToResponseAPI(r *types.Response) types.ResponseAPI {
	res := types.ResponseAPI{
		Status:  r.Code,
		Message: r.Message,
		Data:    r.Data,
		Meta:    r.Meta,
	}
	var validationErr *errorx.ErrValidation
	switch {
	case r.Error == nil:
	case errors.As(r.Error, &validationErr):
		res.Error = map[string]interface{}{
			"message": validationErr.Message,
			"fields":  validationErr.Fields,
		}
	default:
		res.Error = r.Error.Error()
	}
	return res
}
