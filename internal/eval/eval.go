// Package eval implements the pure condition evaluator used by logic
// gate nodes. It has no side effects and no dependency on the runtime.
package eval

import (
	"strconv"
	"strings"

	"github.com/detectivekit/casegraph/internal/vars"
)

// Supported comparison operators.
const (
	OpEqual    = "=="
	OpNotEqual = "!="
	OpGreater  = ">"
	OpLess     = "<"
	OpContains = "contains"
)

// Evaluate compares the variable's current value against an authored
// literal. Equality tries numeric comparison first when both sides parse
// as numbers, then falls back to string equality, so "10" == "10.0"
// holds the authored intent. Ordering comparisons are numeric-only and
// fail closed on non-numeric operands. Absent variables stringify to ""
// and count as 0 for numeric ordering.
func Evaluate(store *vars.Store, variable, operator, literal string) bool {
	value := store.Get(variable)

	switch operator {
	case OpEqual:
		return equal(value, literal)
	case OpNotEqual:
		return !equal(value, literal)
	case OpGreater:
		left, right, ok := numericOperands(value, literal)
		return ok && left > right
	case OpLess:
		left, right, ok := numericOperands(value, literal)
		return ok && left < right
	case OpContains:
		return strings.Contains(value.AsString(), literal)
	}

	// Unknown operator fails closed.
	return false
}

func equal(value vars.Value, literal string) bool {
	left := value.AsString()
	if ln, err := strconv.ParseFloat(strings.TrimSpace(left), 64); err == nil {
		if rn, err := strconv.ParseFloat(strings.TrimSpace(literal), 64); err == nil {
			return ln == rn
		}
	}
	return left == literal
}

func numericOperands(value vars.Value, literal string) (float64, float64, bool) {
	leftStr := value.AsString()
	if value.IsAbsent() {
		leftStr = "0"
	}
	left, err := strconv.ParseFloat(strings.TrimSpace(leftStr), 64)
	if err != nil {
		return 0, 0, false
	}
	right, err := strconv.ParseFloat(strings.TrimSpace(literal), 64)
	if err != nil {
		return 0, 0, false
	}
	return left, right, true
}
