package helper

import "fmt"

// GetMapStringValue never returns nil; a missing or null key reads as "".
func GetMapStringValue(header map[string]interface{}, key string) *string {
	str := ""
	value, exists := header[key]
	if !exists || value == nil {
		return &str
	}
	str = fmt.Sprintf("%v", value)
	return &str
}
