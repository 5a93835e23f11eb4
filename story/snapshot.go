package story

import (
	"bytes"
	"fmt"

	"github.com/shamaton/msgpack/v2"
)

// SnapshotState deep-copies a runtime state map through a msgpack
// round trip. Breakpoint conditions and logpoint templates evaluate
// against the copy, so an expression can never mutate live story state.
// Values that cannot round-trip fall back to the live map.
func SnapshotState(state map[string]any) map[string]any {
	if state == nil {
		return map[string]any{}
	}
	var buf bytes.Buffer
	if err := msgpack.MarshalWrite(&buf, state); err != nil {
		return state
	}
	var out map[string]any
	if err := msgpack.UnmarshalRead(&buf, &out); err != nil {
		return state
	}
	return normalizeMap(out)
}

// normalizeMap rewrites msgpack's decoded container types into the
// canonical map[string]any / []any forms the rest of the adapter expects.
func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[stringKey(k)] = normalizeValue(elem)
		}
		return out
	case []any:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	case int8:
		return int(val)
	case int16:
		return int(val)
	case int32:
		return int(val)
	case int64:
		return int(val)
	case uint8:
		return int(val)
	case uint16:
		return int(val)
	case uint32:
		return int(val)
	case uint64:
		return int(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}

func stringKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
