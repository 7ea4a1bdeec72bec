package enum

import "testing"

func TestVendorFromOptionID(t *testing.T) {
	cases := map[string]VendorEnum{
		"jnt-ez":             JNT_EXPRESS,
		"paxel-same-day":     PAXEL,
		"lion-regpack":       LION,
		"sap-regular":        SAP,
		"gosend-instant":     GOSEND,
		"jntcargo-reg":       JNT_CARGO,
		"idexpress-standard": ID_EXPRESS,
		"pos-pos-reguler":    POS,
		"  JNT-EZ ":          JNT_EXPRESS,
	}
	for id, want := range cases {
		got, ok := VendorFromOptionID(id)
		if !ok || got != want {
			t.Fatalf("%q: want %s, got %s (ok=%v)", id, want, got, ok)
		}
	}

	for _, id := range []string{"", "dhl-express", "jntexpress-ez", "-ez"} {
		if v, ok := VendorFromOptionID(id); ok {
			t.Fatalf("%q: expected no vendor, got %s", id, v)
		}
	}
}

func TestEveryVendorRoundTripsThroughItsPrefix(t *testing.T) {
	for _, v := range AllVendors() {
		if v.PayloadKind() == "" || v.DisplayName() == "" {
			t.Fatalf("%s is missing its payload kind or display name", v)
		}
		got, ok := VendorFromOptionID(v.OptionID("Same Day"))
		if !ok || got != v {
			t.Fatalf("%s: option id %q resolved to %s", v, v.OptionID("Same Day"), got)
		}
	}
}

func TestOptionID(t *testing.T) {
	if got := PAXEL.OptionID("Same Day"); got != "paxel-same-day" {
		t.Fatalf("got %q", got)
	}
	if got := LION.OptionID(""); got != "lion-regular" {
		t.Fatalf("got %q", got)
	}
}

func TestFlowVendors(t *testing.T) {
	if got := FLOW_REGULAR.Vendors(); len(got) != 3 || got[0] != JNT_EXPRESS || got[2] != LION {
		t.Fatalf("unexpected regular flow %v", got)
	}
	if got := FLOW_MULTI.Vendors(); len(got) != 4 || got[0] != GOSEND || got[3] != POS {
		t.Fatalf("unexpected multi flow %v", got)
	}
	if len(FLOW_ALL.Vendors()) != len(AllVendors()) {
		t.Fatalf("all flow must cover every vendor")
	}
	if FlowEnum("express").Vendors() != nil {
		t.Fatalf("unknown flow must have no vendors")
	}
}

func TestFlowStateTransitions(t *testing.T) {
	allowed := [][2]FlowStateEnum{
		{STATE_IDLE, STATE_DISPATCHING},
		{STATE_DISPATCHING, STATE_NO_OPTIONS},
		{STATE_OPTIONS_AVAILABLE, STATE_PRICING_READY},
		{STATE_PRICING_READY, STATE_SUBMITTING},
		{STATE_SUBMITTING, STATE_SUBMIT_FAILED},
		{STATE_SUBMITTED, STATE_DISPATCHING},
	}
	for _, tr := range allowed {
		if !tr[0].CanTransitionTo(tr[1]) {
			t.Fatalf("%s -> %s should be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]FlowStateEnum{
		{STATE_IDLE, STATE_PRICING_READY},
		{STATE_NO_OPTIONS, STATE_PRICING_READY},
		{STATE_OPTIONS_AVAILABLE, STATE_SUBMITTING},
		{STATE_SUBMITTING, STATE_DISPATCHING},
		{STATE_SUBMITTED, STATE_SUBMITTING},
	}
	for _, tr := range denied {
		if tr[0].CanTransitionTo(tr[1]) {
			t.Fatalf("%s -> %s should be rejected", tr[0], tr[1])
		}
	}
}
