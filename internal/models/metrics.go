package models

import (
	"encoding/json"
	"fmt"
)

// MetricKind enumerates the value kinds a MetricBag entry may hold.
type MetricKind int

const (
	MetricFloat MetricKind = iota
	MetricInt
	MetricString
	MetricBool
)

// MetricValue is a single forward-compatible metric. Only the field matching
// Kind is meaningful.
type MetricValue struct {
	Kind   MetricKind
	Float  float64
	Int    int64
	String string
	Bool   bool
}

// MetricBag is the open key/value bag attached to FrameMetadata. Values are
// limited to a closed set of scalar kinds; nested structures are rejected on
// decode.
type MetricBag map[string]MetricValue

func FloatMetric(v float64) MetricValue { return MetricValue{Kind: MetricFloat, Float: v} }
func IntMetric(v int64) MetricValue     { return MetricValue{Kind: MetricInt, Int: v} }
func StringMetric(v string) MetricValue { return MetricValue{Kind: MetricString, String: v} }
func BoolMetric(v bool) MetricValue     { return MetricValue{Kind: MetricBool, Bool: v} }

// MarshalJSON encodes the bag as a flat JSON object.
func (b MetricBag) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(b))
	for key, val := range b {
		switch val.Kind {
		case MetricFloat:
			flat[key] = val.Float
		case MetricInt:
			flat[key] = val.Int
		case MetricString:
			flat[key] = val.String
		case MetricBool:
			flat[key] = val.Bool
		default:
			return nil, fmt.Errorf("metric %q has unknown kind %d", key, val.Kind)
		}
	}
	return json.Marshal(flat)
}

// UnmarshalJSON decodes a flat JSON object into typed metric values. JSON
// numbers without a fractional part become MetricInt, all others MetricFloat.
func (b *MetricBag) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	bag := make(MetricBag, len(flat))
	for key, raw := range flat {
		var boolVal bool
		if err := json.Unmarshal(raw, &boolVal); err == nil {
			bag[key] = BoolMetric(boolVal)
			continue
		}

		var strVal string
		if err := json.Unmarshal(raw, &strVal); err == nil {
			bag[key] = StringMetric(strVal)
			continue
		}

		var numVal json.Number
		if err := json.Unmarshal(raw, &numVal); err == nil {
			if intVal, err := numVal.Int64(); err == nil {
				bag[key] = IntMetric(intVal)
				continue
			}
			if floatVal, err := numVal.Float64(); err == nil {
				bag[key] = FloatMetric(floatVal)
				continue
			}
		}

		return fmt.Errorf("metric %q is not a supported scalar kind", key)
	}

	*b = bag
	return nil
}
