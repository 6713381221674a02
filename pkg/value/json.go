package value

import (
	"encoding/json"
	"math"
)

// ToRaw converts a Value into a plain Go value suitable for encoding/json.
// Characters become one-character strings; non-finite floats become their
// display text since JSON has no representation for them.
func ToRaw(v Value) any {
	switch val := v.(type) {
	case nil, Absent:
		return nil
	case Integer:
		return val.Value
	case Float:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return FormatFloat(val.Value)
		}
		return val.Value
	case Character:
		return string(val.Value)
	case Boolean:
		return val.Value
	case String:
		return val.Value
	}
	return nil
}

// ToJSON marshals a Value to JSON bytes.
func ToJSON(v Value) ([]byte, error) {
	return json.Marshal(ToRaw(v))
}

// Describe returns a kind-tagged record for a value, used in trace events.
func Describe(v Value) map[string]any {
	return map[string]any{
		"kind":  KindOf(v).String(),
		"value": ToRaw(v),
	}
}
