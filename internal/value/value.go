// Package value implements the normalization and stringification rules
// shared by the expression evaluator, the global store, the
// dependency gate, and the suppression key computation. Keeping these
// rules in one place is what makes dependency comparison, expression
// equality, and state-key derivation agree with each other (see
// spec §9, Open Question 1).
package value

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Normalize applies the source's cast rules to v: the strings "true"
// and "false" become booleans, and otherwise numeric-castable strings
// become float64. Every other value (including nil, bool, numbers,
// and composite types) passes through unchanged.
func Normalize(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// Stringify renders v as the canonical string form used for equality
// comparisons and template substitution. nil/undefined render as the
// empty string; objects and arrays render as their canonical JSON
// text (keys sorted, so two structurally equal maps always produce
// the same string — spec §9, Open Question 2); everything else uses
// its natural string form.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := canonicalJSON(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// NormalizedEqual reports whether a and b are equal after Normalize is
// applied to both and the results are compared by their Stringify
// form. This is the comparison used for dependency satisfaction
// (spec §4.2c) and the ConditionSpec.value typed-equality path.
func NormalizedEqual(a, b any) bool {
	return Stringify(Normalize(a)) == Stringify(Normalize(b))
}

// canonicalJSON marshals v with map keys sorted so that structurally
// identical values always marshal to the same byte sequence,
// regardless of map iteration order.
func canonicalJSON(v any) ([]byte, error) {
	sorted := sortKeys(v)
	return json.Marshal(sorted)
}

// sortKeys recursively converts map[string]any into an ordered
// representation for deterministic marshaling. json.Marshal already
// sorts map[string]any keys alphabetically, so this mainly documents
// the invariant callers rely on; it also handles []any recursively so
// nested maps inside arrays stay canonical.
func sortKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = sortKeys(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sortKeys(e)
		}
		return out
	default:
		return v
	}
}
