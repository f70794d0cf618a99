package backend

import (
	"bytes"
	"encoding/json"
)

// listShape tags the payload layouts the API is known to answer list calls with.
type listShape int

const (
	shapeUnknown listShape = iota
	// [ ... ]
	shapeBare
	// {"data": [ ... ]}
	shapeData
	// {"success": true, "data": [ ... ]}
	shapeSuccessData
)

func (s listShape) String() string {
	switch s {
	case shapeBare:
		return "bare"
	case shapeData:
		return "data"
	case shapeSuccessData:
		return "success+data"
	default:
		return "unknown"
	}
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// sniffList classifies raw and returns the bytes of the inner array.
func sniffList(raw []byte) (listShape, []byte) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return shapeUnknown, nil
	}
	switch trimmed[0] {
	case '[':
		return shapeBare, trimmed
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return shapeUnknown, nil
		}
		inner := bytes.TrimSpace(env.Data)
		if len(inner) == 0 || inner[0] != '[' {
			return shapeUnknown, nil
		}
		if env.Success != nil {
			return shapeSuccessData, inner
		}
		return shapeData, inner
	default:
		return shapeUnknown, nil
	}
}

// decodeList unwraps every known list layout into a plain slice. Unknown or
// malformed payloads yield an empty slice and ok=false.
func decodeList[R any](raw []byte) (records []R, shape listShape, ok bool) {
	shape, inner := sniffList(raw)
	if shape == shapeUnknown {
		return []R{}, shape, false
	}
	if err := json.Unmarshal(inner, &records); err != nil {
		return []R{}, shapeUnknown, false
	}
	if records == nil {
		records = []R{}
	}
	return records, shape, true
}

// decodeOne accepts a bare record or a record wrapped in {"data": {...}}.
func decodeOne[R any](raw []byte) (R, error) {
	var out R
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return out, nil
	}
	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil {
			inner := bytes.TrimSpace(env.Data)
			if len(inner) > 0 && inner[0] == '{' {
				trimmed = inner
			}
		}
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, err
	}
	return out, nil
}
