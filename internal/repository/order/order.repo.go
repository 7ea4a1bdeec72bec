package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/helper"
)

const idempotencyHeader = "Idempotency-Key"

// IRepository writes orders to the backend. Neither call is retried by the
// HTTP layer; a failure is reported to the operator as is.
type IRepository interface {
	Create(ctx context.Context, payload *models.OrderPayload, idempotencyKey string) (*models.OrderResult, error)
	Cancel(ctx context.Context, req models.CancelOrder) error
}

type Repository struct {
	http    helper.IHTTPClient
	baseURL string
}

type envelope struct {
	Success json.RawMessage     `json:"success"`
	Message string              `json:"message"`
	Data    *models.OrderResult `json:"data"`
}

func NewRepo(http helper.IHTTPClient, baseURL string) IRepository {
	return &Repository{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (r *Repository) Create(ctx context.Context, payload *models.OrderPayload, idempotencyKey string) (*models.OrderResult, error) {
	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set(idempotencyHeader, idempotencyKey)
	}

	env, err := r.post(ctx, "/orders", "submission", payload, headers)
	if err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.OrderID == "" {
		return nil, &errorx.ErrSubmit{Message: "backend returned no order id", StatusCode: http.StatusBadGateway}
	}
	return env.Data, nil
}

func (r *Repository) Cancel(ctx context.Context, req models.CancelOrder) error {
	_, err := r.post(ctx, "/orders/cancel", "cancellation", req, nil)
	return err
}

func (r *Repository) post(ctx context.Context, path, op string, body interface{}, headers http.Header) (*envelope, error) {
	res, err := r.http.Do(&helper.HTTPRequestPayload{
		Method: helper.POST,
		URL:    r.baseURL + path,
		Body:   body,
	}, &helper.HTTPRequestConfig{Ctx: ctx, Headers: headers})
	if err != nil {
		return nil, &errorx.ErrSubmit{Op: op, Message: err.Error()}
	}
	if !res.IsSuccess() {
		return nil, &errorx.ErrSubmit{
			Op:         op,
			Message:    helper.MessageFromBody(res, http.StatusText(res.StatusCode)),
			StatusCode: res.StatusCode,
		}
	}

	var env envelope
	if err := json.Unmarshal(res.Body, &env); err != nil {
		return nil, &errorx.ErrSubmit{Op: op, Message: "malformed backend response", StatusCode: http.StatusBadGateway}
	}
	if len(env.Success) > 0 && !helper.IsTruthy(env.Success) {
		return nil, &errorx.ErrSubmit{
			Op:         op,
			Message:    helper.MessageFromBody(res, "rejected by backend"),
			StatusCode: http.StatusUnprocessableEntity,
		}
	}
	return &env, nil
}
