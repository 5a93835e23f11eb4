package debug

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/fabledbg-dev/fabledbg/dap"
)

// containerKey identifies a compound value instance. Maps and slices are
// keyed by their backing pointer, so re-serializing the same instance
// always yields the same handle while equal-content copies get fresh ones.
type containerKey struct {
	kind reflect.Kind
	ptr  uintptr
}

// Virtualizer converts runtime values into protocol variable records,
// lazily registering compound values under stable reference handles.
// Handles live for the whole session; Reset is the only eviction.
type Virtualizer struct {
	handles    map[containerKey]int
	containers map[int]any
	nextHandle int
}

func NewVirtualizer() *Virtualizer {
	return &Virtualizer{
		handles:    make(map[containerKey]int),
		containers: make(map[int]any),
		nextHandle: 1,
	}
}

// Serialize renders one named value. Scalars get variablesReference 0;
// compound values are registered by identity and display as "table[N]"
// with N the total entry count.
func (v *Virtualizer) Serialize(name string, value any) dap.Variable {
	switch val := value.(type) {
	case nil:
		return dap.Variable{Name: name, Value: "nil", Type: "nil"}
	case bool:
		return dap.Variable{Name: name, Value: strconv.FormatBool(val), Type: "boolean"}
	case string:
		return dap.Variable{Name: name, Value: quoteString(val), Type: "string"}
	case int:
		return dap.Variable{Name: name, Value: strconv.Itoa(val), Type: "number"}
	case int64:
		return dap.Variable{Name: name, Value: strconv.FormatInt(val, 10), Type: "number"}
	case float64:
		return dap.Variable{Name: name, Value: strconv.FormatFloat(val, 'g', -1, 64), Type: "number"}
	case map[string]any:
		ref := v.register(val)
		return dap.Variable{
			Name:               name,
			Value:              fmt.Sprintf("table[%d]", len(val)),
			Type:               "table",
			VariablesReference: ref,
		}
	case []any:
		ref := v.register(val)
		return dap.Variable{
			Name:               name,
			Value:              fmt.Sprintf("table[%d]", len(val)),
			Type:               "table",
			VariablesReference: ref,
		}
	default:
		return dap.Variable{Name: name, Value: fmt.Sprintf("%v", val), Type: fmt.Sprintf("%T", val)}
	}
}

// SerializeEvalResult wraps an evaluate outcome: failures become an
// error-typed record with no children, successes take the normal path.
func (v *Virtualizer) SerializeEvalResult(value any, err error) dap.Variable {
	if err != nil {
		return dap.Variable{Name: "eval", Value: err.Error(), Type: "error"}
	}
	return v.Serialize("eval", value)
}

// Expand lists a registered container's children: contiguous
// integer-indexed entries in index order first, then the remaining keys
// sorted lexicographically by string form. The ordering is deterministic
// across calls.
func (v *Virtualizer) Expand(ref int) ([]dap.Variable, bool) {
	container, ok := v.containers[ref]
	if !ok {
		return nil, false
	}
	switch val := container.(type) {
	case []any:
		out := make([]dap.Variable, 0, len(val))
		for i, elem := range val {
			out = append(out, v.Serialize(strconv.Itoa(i+1), elem))
		}
		return out, true
	case map[string]any:
		out := make([]dap.Variable, 0, len(val))
		seen := make(map[string]bool, len(val))
		// Entries keyed "1".."N" form the array part when contiguous.
		for i := 1; ; i++ {
			key := strconv.Itoa(i)
			elem, ok := val[key]
			if !ok {
				break
			}
			out = append(out, v.Serialize(key, elem))
			seen[key] = true
		}
		rest := make([]string, 0, len(val))
		for k := range val {
			if !seen[k] {
				rest = append(rest, k)
			}
		}
		sort.Strings(rest)
		for _, k := range rest {
			out = append(out, v.Serialize(k, val[k]))
		}
		return out, true
	default:
		return nil, false
	}
}

// Container returns the raw registered value for a handle. Used by
// setVariable to write through into the right table.
func (v *Virtualizer) Container(ref int) (any, bool) {
	c, ok := v.containers[ref]
	return c, ok
}

// Register exposes handle registration for scope containers built by the
// session (locals, temps, story state).
func (v *Virtualizer) Register(container any) int {
	return v.register(container)
}

// Reset drops every handle. Called on explicit session reset, never
// per-request; repeated client expansion relies on handle stability.
func (v *Virtualizer) Reset() {
	v.handles = make(map[containerKey]int)
	v.containers = make(map[int]any)
	v.nextHandle = 1
}

func (v *Virtualizer) register(container any) int {
	key, ok := identity(container)
	if ok {
		if ref, found := v.handles[key]; found {
			return ref
		}
	}
	ref := v.nextHandle
	v.nextHandle++
	if ok {
		v.handles[key] = ref
	}
	v.containers[ref] = container
	return ref
}

func identity(container any) (containerKey, bool) {
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		return containerKey{kind: reflect.Map, ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.Len() == 0 {
			// Empty slices share a backing pointer; give each a fresh handle.
			return containerKey{}, false
		}
		return containerKey{kind: reflect.Slice, ptr: rv.Pointer()}, true
	default:
		return containerKey{}, false
	}
}

// quoteString escapes backslash, quote, and control whitespace, then
// wraps the result in double quotes.
func quoteString(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			out = append(out, '\\', '\\')
		case '"':
			out = append(out, '\\', '"')
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			out = append(out, c)
		}
	}
	return string(append(out, '"'))
}
