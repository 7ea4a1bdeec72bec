package helper

import (
	"encoding/json"
	"strconv"
	"strings"
)

func JSONToByte(payload any) ([]byte, error) {
	return json.Marshal(payload)
}

// IsJSONNull reports whether raw is empty or the literal null.
func IsJSONNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

// MessageFromBody pulls a human readable message out of a backend or
// courier error body, trying the keys those APIs use.
func MessageFromBody(res *HTTPAPIResponse, fallback string) string {
	if res == nil {
		return fallback
	}
	if m, ok := res.Data.(map[string]interface{}); ok {
		for _, key := range []string{"message", "msg", "error", "errors", "detail"} {
			if v := *GetMapStringValue(m, key); v != "" {
				return v
			}
		}
	}
	if s, ok := res.Data.(string); ok && strings.TrimSpace(s) != "" && len(s) < 512 {
		return strings.TrimSpace(s)
	}
	return fallback
}

// IsTruthy reads the loosely typed success flags couriers send: true,
// "true", "success", "ok", 1 or 200.
func IsTruthy(raw json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t == 1 || t == 200
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "success", "ok", "1", "200":
			return true
		}
		if n, err := strconv.Atoi(t); err == nil {
			return n == 200
		}
	}
	return false
}
