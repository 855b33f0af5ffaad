package utils

import (
	"encoding/json"
	"fmt"
)

// TruncateString shortens a string to maxLength characters, appending "..."
// when anything was cut. A maxLength <= 0 returns the string unchanged.
func TruncateString(value string, maxLength int) string {
	if maxLength <= 0 || len(value) <= maxLength {
		return value
	}
	return value[:maxLength] + "..."
}

// JSONToString marshals a value for log output. Marshalling failures fall
// back to fmt formatting so logging never errors.
func JSONToString(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%+v", value)
	}
	return string(data)
}
