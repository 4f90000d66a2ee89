package rules

import (
	"log/slog"

	"github.com/thornlake/wardenmq/internal/exprlang"
	"github.com/thornlake/wardenmq/internal/value"
)

// matchCondition implements the Match step of §4.2e: an expression
// string takes precedence over the typed-equality value comparison.
// Expression errors are logged at warn and otherwise swallowed —
// Evaluate already returns false for a malformed expression, so the
// pipeline stays total.
func matchCondition(cond ConditionSpec, raw any, ctx exprlang.Context, logger *slog.Logger) bool {
	if cond.Condition != "" {
		matched, err := exprlang.Evaluate(cond.Condition, ctx)
		if err != nil {
			logger.Warn("expression evaluation failed", "expr", cond.Condition, "error", err)
		}
		return matched
	}
	return typedEquality(cond.Value, raw)
}

// typedEquality implements §4.2e's typed-equality value comparison:
// an absent (nil) condition value always matches; a bool, number, or
// string value is compared after normalization; any other shape (an
// object or array literal in config, which makes no sense as a
// comparison target) never matches.
func typedEquality(condValue, raw any) bool {
	if condValue == nil {
		return true
	}
	switch condValue.(type) {
	case bool, string, float64, int, int64:
		return value.NormalizedEqual(raw, condValue)
	default:
		return false
	}
}
