package exprlang

import (
	"math"
	"strconv"

	"github.com/thornlake/wardenmq/internal/value"
)

// truthy implements §4.1's truthiness rule: a non-empty string is
// true; everything else uses the standard boolean cast.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

// equalOperands implements §4.1's equality rule: both sides are
// normalized (string "true"/"false" -> bool, numeric-castable string
// -> float64), then compared by their stringified normalized form.
func equalOperands(a, b any) bool {
	return value.NormalizedEqual(a, b)
}

// compareOrdered implements §4.1's ordering rule: numeric comparison
// when both sides parse as finite numbers and are neither empty
// string, null, nor boolean; lexicographic string comparison
// otherwise. Returns -1, 0, or 1.
func compareOrdered(a, b any) int {
	af, aOk := comparableNumber(a)
	bf, bOk := comparableNumber(b)
	if aOk && bOk {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := value.Stringify(a), value.Stringify(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

// comparableNumber reports whether v is eligible for numeric ordering
// (not bool, not nil, not an empty string, and finite) along with its
// float64 value.
func comparableNumber(v any) (float64, bool) {
	switch v.(type) {
	case bool, nil:
		return 0, false
	}
	s := value.Stringify(v)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
