package helper

import (
	"encoding/json"
	"testing"
)

func TestIsTruthy(t *testing.T) {
	for raw, want := range map[string]bool{
		`true`: true, `"success"`: true, `200`: true, `"200"`: true, `1`: true,
		`false`: false, `"failed"`: false, `0`: false, `null`: false,
	} {
		if got := IsTruthy(json.RawMessage(raw)); got != want {
			t.Fatalf("IsTruthy(%s) = %v, want %v", raw, got, want)
		}
	}
}

func TestMessageFromBody(t *testing.T) {
	res := &HTTPAPIResponse{Data: map[string]interface{}{"msg": "route closed"}}
	if got := MessageFromBody(res, "fallback"); got != "route closed" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := MessageFromBody(&HTTPAPIResponse{}, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestIsJSONNull(t *testing.T) {
	for raw, want := range map[string]bool{``: true, ` null `: true, `{}`: false, `[]`: false} {
		if got := IsJSONNull(json.RawMessage(raw)); got != want {
			t.Fatalf("IsJSONNull(%q) = %v, want %v", raw, got, want)
		}
	}
}
