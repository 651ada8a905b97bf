// Package interp provides the runtime value model for the JDL evaluator.
package interp

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// A runtime value is one of: nil, int64, float64, string, bool, []any
// (sequence), map[any]any (mapping), or *Func. All values except functions
// have copy semantics on read; functions are shared by reference.

// Func is an immutable named callable: ordered parameter names plus a body
// instruction sequence. It is owned by the scope that defined it and shared,
// never copied, with every call site that looks it up.
type Func struct {
	Name   string
	Params []string
	Body   []any
}

// String renders the function the way print displays it.
func (f *Func) String() string {
	return fmt.Sprintf("<func %s(%s)>", f.Name, strings.Join(f.Params, ", "))
}

// deepCopy returns an independent copy of a value. Sequences and mappings are
// copied recursively; scalars are immutable and returned as-is; functions are
// the sole reference-like values and are shared.
func deepCopy(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopy(e)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(val))
		for k, e := range val {
			out[k] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// truthy reports the truth value used by if, while, and the boolean
// operators: nil and zero-valued scalars are false, empty sequences and
// mappings are false, functions are true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[any]any:
		return len(val) > 0
	default:
		return true
	}
}

// asFloat coerces numeric-like values (int64, float64, bool) to float64.
func asFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// asInt coerces integral values (int64, bool) to int64. Floats are excluded
// so arithmetic keeps int64 results only for all-integral operands.
func asInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// valueEquals is the value equality used by ==, !=, !->, and switch case
// matching. Numbers compare numerically across int64/float64/bool; all other
// values compare by deep structural equality.
func valueEquals(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// formatValue renders a value for print and str: booleans as true/false,
// floats without a forced exponent, sequences as [a, b], mappings as
// {k: v, ...} with entries ordered by rendered key, functions by their
// signature.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "none"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[any]any:
		parts := make([]string, 0, len(val))
		for k, e := range val {
			parts = append(parts, formatValue(k)+": "+formatValue(e))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case *Func:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// convertInt implements the int conversion: floats truncate toward zero,
// strings parse as decimal integers, booleans become 0 or 1.
func convertInt(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case float64:
		return int64(math.Trunc(val)), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, errf(ErrValue, "invalid literal for int: %q", val)
		}
		return n, nil
	default:
		return 0, errf(ErrType, "cannot convert %s to int", typeName(v))
	}
}

// convertFloat implements the float conversion.
func convertFloat(v any) (float64, error) {
	switch val := v.(type) {
	case int64:
		return float64(val), nil
	case float64:
		return val, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, errf(ErrValue, "invalid literal for float: %q", val)
		}
		return f, nil
	default:
		return 0, errf(ErrType, "cannot convert %s to float", typeName(v))
	}
}

// lengthOf returns the length of a string (in characters), sequence, or
// mapping.
func lengthOf(v any) (int64, error) {
	switch val := v.(type) {
	case string:
		return int64(utf8.RuneCountInString(val)), nil
	case []any:
		return int64(len(val)), nil
	case map[any]any:
		return int64(len(val)), nil
	default:
		return 0, errf(ErrType, "%s has no length", typeName(v))
	}
}

// indexValue reads container[idx]: sequences and strings take integer
// indices (negative indices count from the end), mappings take keys.
func indexValue(container, idx any) (any, error) {
	switch c := container.(type) {
	case []any:
		i, ok := asInt(idx)
		if !ok {
			return nil, errf(ErrType, "sequence index must be an integer, not %s", typeName(idx))
		}
		if i < 0 {
			i += int64(len(c))
		}
		if i < 0 || i >= int64(len(c)) {
			return nil, errf(ErrIndex, "sequence index out of range")
		}
		return c[i], nil
	case string:
		i, ok := asInt(idx)
		if !ok {
			return nil, errf(ErrType, "string index must be an integer, not %s", typeName(idx))
		}
		runes := []rune(c)
		if i < 0 {
			i += int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return nil, errf(ErrIndex, "string index out of range")
		}
		return string(runes[i]), nil
	case map[any]any:
		for k, v := range c {
			if valueEquals(k, idx) {
				return v, nil
			}
		}
		return nil, errf(ErrKey, "key not found: %s", formatValue(idx))
	default:
		return nil, errf(ErrType, "%s is not indexable", typeName(container))
	}
}

// containsValue reports membership: element of a sequence, key of a mapping,
// or substring of a string.
func containsValue(container, item any) (bool, error) {
	switch c := container.(type) {
	case []any:
		for _, e := range c {
			if valueEquals(e, item) {
				return true, nil
			}
		}
		return false, nil
	case map[any]any:
		for k := range c {
			if valueEquals(k, item) {
				return true, nil
			}
		}
		return false, nil
	case string:
		s, ok := item.(string)
		if !ok {
			return false, errf(ErrType, "membership in a string requires a string, not %s", typeName(item))
		}
		return strings.Contains(c, s), nil
	default:
		return false, errf(ErrType, "%s does not support membership tests", typeName(container))
	}
}

// hashable reports whether a value may be used as a mapping key.
func hashable(v any) bool {
	switch v.(type) {
	case nil, bool, int64, float64, string:
		return true
	default:
		return false
	}
}

// typeName names a value's runtime type for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "none"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []any:
		return "array"
	case map[any]any:
		return "dict"
	case *Func:
		return "func"
	default:
		return fmt.Sprintf("%T", v)
	}
}
