package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Metadata is the caller-owned key/value bag attached to a pattern. Values are
// restricted to JSON primitives: string, float64, bool or nil.
type Metadata map[string]any

// NewMetadata converts m into Metadata, widening Go numeric kinds to float64.
// Nested maps, slices and other compound values are rejected.
func NewMetadata(m map[string]any) (Metadata, error) {
	out := make(Metadata, len(m))
	for k, v := range m {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata key %q: %v", ErrInvalidArgument, k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("non-finite number")
		}
		return x, nil
	case float32:
		return normalizeValue(float64(x))
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return normalizeValue(f)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// Validate reports whether every value is a JSON primitive.
func (m Metadata) Validate() error {
	for k, v := range m {
		switch x := v.(type) {
		case nil, string, bool:
		case float64:
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: metadata key %q is not finite", ErrInvalidArgument, k)
			}
		default:
			return fmt.Errorf("%w: metadata key %q has unsupported type %T", ErrInvalidArgument, k, v)
		}
	}
	return nil
}

// Clone returns a copy of m. Values are primitives, so a shallow copy is complete.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON rejects non-primitive values.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = nil
		return nil
	}
	meta, err := NewMetadata(raw)
	if err != nil {
		return err
	}
	*m = meta
	return nil
}
