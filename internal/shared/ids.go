package shared

import (
	"bytes"
	"encoding/json"
)

// FlexibleID renders a JSON identifier as a string whether the backend sent
// it as a string or a number. null and absent values give "".
func FlexibleID(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	}
	return string(trimmed)
}
