package enum

// EventPatternEnum names the order queues and events on the broker.
type EventPatternEnum string

const (
	EVENT_ORDER_SUBMITTED EventPatternEnum = "order.submitted"
	EVENT_ORDER_CANCELLED EventPatternEnum = "order.cancelled"
	QUEUE_ORDER_CANCEL    EventPatternEnum = "order.cancel"
)

func (e EventPatternEnum) ToString() string {
	return string(e)
}

func (e EventPatternEnum) IsValid() bool {
	switch e {
	case EVENT_ORDER_SUBMITTED, EVENT_ORDER_CANCELLED, QUEUE_ORDER_CANCEL:
		return true
	}
	return false
}
