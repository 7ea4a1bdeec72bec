package enum

type FlowStateEnum string

const (
	STATE_IDLE              FlowStateEnum = "idle"
	STATE_DISPATCHING       FlowStateEnum = "dispatching"
	STATE_OPTIONS_AVAILABLE FlowStateEnum = "options_available"
	STATE_NO_OPTIONS        FlowStateEnum = "no_options"
	STATE_DISPATCH_ERROR    FlowStateEnum = "dispatch_error"
	STATE_PRICING_READY     FlowStateEnum = "pricing_ready"
	STATE_SUBMITTING        FlowStateEnum = "submitting"
	STATE_SUBMITTED         FlowStateEnum = "submitted"
	STATE_SUBMIT_FAILED     FlowStateEnum = "submit_failed"
)

// flowTransitions lists every edge except "new search", which is allowed
// from any state and always lands in dispatching.
var flowTransitions = map[FlowStateEnum][]FlowStateEnum{
	STATE_DISPATCHING:       {STATE_OPTIONS_AVAILABLE, STATE_NO_OPTIONS, STATE_DISPATCH_ERROR},
	STATE_OPTIONS_AVAILABLE: {STATE_PRICING_READY},
	STATE_PRICING_READY:     {STATE_PRICING_READY, STATE_SUBMITTING},
	STATE_SUBMITTING:        {STATE_SUBMITTED, STATE_SUBMIT_FAILED},
	STATE_SUBMIT_FAILED:     {STATE_PRICING_READY, STATE_SUBMITTING},
}

func (s FlowStateEnum) ToString() string {
	if s.IsValid() {
		return string(s)
	}
	return ""
}

func (s FlowStateEnum) IsValid() bool {
	switch s {
	case STATE_IDLE, STATE_DISPATCHING, STATE_OPTIONS_AVAILABLE, STATE_NO_OPTIONS,
		STATE_DISPATCH_ERROR, STATE_PRICING_READY, STATE_SUBMITTING, STATE_SUBMITTED, STATE_SUBMIT_FAILED:
		return true
	}
	return false
}

func (s FlowStateEnum) CanTransitionTo(next FlowStateEnum) bool {
	if next == STATE_DISPATCHING {
		return s != STATE_SUBMITTING
	}
	for _, allowed := range flowTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
