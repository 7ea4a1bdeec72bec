package serverApp

import (
	"context"
	"errors"
	"testing"

	"dashboard-cargo/internal/common/models"
	"dashboard-cargo/internal/pkg/errorx"
	"dashboard-cargo/internal/pkg/rabbitmq"
	orderService "dashboard-cargo/internal/service/order"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeOrderService struct {
	orderService.IService
	cancelled []models.CancelOrder
	err       error
}

func (f *fakeOrderService) CancelNow(_ context.Context, req models.CancelOrder) error {
	if req.OrderID == "" {
		return &errorx.ErrValidation{Message: "invalid cancel request"}
	}
	f.cancelled = append(f.cancelled, req)
	return f.err
}

func cancelDelivery(t *testing.T, req models.CancelOrder) *amqp.Delivery {
	t.Helper()
	msg, err := rabbitmq.NewMessage(req, nil)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	pub := msg.GenerateEventPayload("order.cancel")
	return &amqp.Delivery{Body: pub.Body, MessageId: pub.MessageId}
}

func TestCancelOrderHandler(t *testing.T) {
	orders := &fakeOrderService{}
	handle := CancelOrderHandler(orders)

	if err := handle(context.Background(), cancelDelivery(t, models.CancelOrder{OrderID: "ORD-1", Remark: "late"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders.cancelled) != 1 || orders.cancelled[0].OrderID != "ORD-1" || orders.cancelled[0].Remark != "late" {
		t.Fatalf("unexpected cancellations %+v", orders.cancelled)
	}
}

func TestCancelOrderHandlerDropsBadCommands(t *testing.T) {
	handle := CancelOrderHandler(&fakeOrderService{})

	if err := handle(context.Background(), &amqp.Delivery{Body: []byte("not json")}); err != nil {
		t.Fatalf("malformed command must be dropped, got %v", err)
	}
	if err := handle(context.Background(), cancelDelivery(t, models.CancelOrder{})); err != nil {
		t.Fatalf("command without order id must be dropped, got %v", err)
	}
}

func TestCancelOrderHandlerRetriesBackendFailures(t *testing.T) {
	boom := &errorx.ErrSubmit{Op: "cancellation", Message: "backend down", StatusCode: 503}
	handle := CancelOrderHandler(&fakeOrderService{err: boom})

	err := handle(context.Background(), cancelDelivery(t, models.CancelOrder{OrderID: "ORD-1"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected the failure to be returned for retry, got %v", err)
	}
}
