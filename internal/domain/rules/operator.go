package rules

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Operator is one of the twelve condition comparison operators. The set is
// closed: anything outside the registry evaluates to false.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpIn                 Operator = "in"
	OpNotIn              Operator = "not_in"
	OpContains           Operator = "contains"
	OpNotContains        Operator = "not_contains"
	OpMatchesRegex       Operator = "matches_regex"
	OpBetween            Operator = "between"
)

// ValueType declares how a condition's comparison value should be coerced
type ValueType string

const (
	ValueTypeString  ValueType = "string"
	ValueTypeNumber  ValueType = "number"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeList    ValueType = "list"
)

// comparator evaluates a field value against a comparison value. Both sides
// arrive uncoerced; each comparator applies the declared type itself so the
// shape errors in one operator never leak into another.
type comparator func(field, compare interface{}, vt ValueType) bool

// comparators is the closed operator registry. Every operator maps to a pure
// comparison function; an unknown operator simply has no entry.
var comparators = map[Operator]comparator{
	OpEquals: func(field, compare interface{}, vt ValueType) bool {
		return equalValues(field, compare, vt)
	},
	OpNotEquals: func(field, compare interface{}, vt ValueType) bool {
		return !equalValues(field, compare, vt)
	},
	OpGreaterThan: func(field, compare interface{}, vt ValueType) bool {
		return orderValues(field, compare, vt) > 0
	},
	OpGreaterThanOrEqual: func(field, compare interface{}, vt ValueType) bool {
		return orderValues(field, compare, vt) >= 0
	},
	OpLessThan: func(field, compare interface{}, vt ValueType) bool {
		return orderValues(field, compare, vt) < 0
	},
	OpLessThanOrEqual: func(field, compare interface{}, vt ValueType) bool {
		return orderValues(field, compare, vt) <= 0
	},
	OpIn: func(field, compare interface{}, vt ValueType) bool {
		return isMember(field, compare)
	},
	OpNotIn: func(field, compare interface{}, vt ValueType) bool {
		return !isMember(field, compare)
	},
	OpContains: func(field, compare interface{}, vt ValueType) bool {
		return strings.Contains(stringify(field), stringify(compare))
	},
	OpNotContains: func(field, compare interface{}, vt ValueType) bool {
		return !strings.Contains(stringify(field), stringify(compare))
	},
	OpMatchesRegex: func(field, compare interface{}, vt ValueType) bool {
		re, err := regexp.Compile("^(?:" + stringify(compare) + ")$")
		if err != nil {
			return false
		}
		return re.MatchString(stringify(field))
	},
	OpBetween: func(field, compare interface{}, vt ValueType) bool {
		bounds, ok := toList(compare)
		if !ok || len(bounds) != 2 {
			return false
		}
		if vt == ValueTypeNumber {
			f := toNumber(field)
			return f >= toNumber(bounds[0]) && f <= toNumber(bounds[1])
		}
		s := stringify(field)
		return s >= stringify(bounds[0]) && s <= stringify(bounds[1])
	},
}

// IsValidOperator reports whether op is in the closed registry
func IsValidOperator(op Operator) bool {
	_, ok := comparators[op]
	return ok
}

// Operators returns the full operator vocabulary
func Operators() []Operator {
	return []Operator{
		OpEquals, OpNotEquals,
		OpGreaterThan, OpGreaterThanOrEqual,
		OpLessThan, OpLessThanOrEqual,
		OpIn, OpNotIn,
		OpContains, OpNotContains,
		OpMatchesRegex, OpBetween,
	}
}

func equalValues(field, compare interface{}, vt ValueType) bool {
	switch vt {
	case ValueTypeNumber:
		return toNumber(field) == toNumber(compare)
	case ValueTypeBoolean:
		return toBool(field) == toBool(compare)
	case ValueTypeList:
		return reflect.DeepEqual(field, compare)
	default:
		return stringify(field) == stringify(compare)
	}
}

// orderValues returns -1/0/+1 comparing field against compare. Numbers compare
// numerically; everything else compares lexically on the stringified values.
func orderValues(field, compare interface{}, vt ValueType) int {
	if vt == ValueTypeNumber {
		f, c := toNumber(field), toNumber(compare)
		switch {
		case f < c:
			return -1
		case f > c:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(stringify(field), stringify(compare))
}

// isMember treats a scalar compare value as a single-element set
func isMember(field, compare interface{}) bool {
	set, ok := toList(compare)
	if !ok {
		set = []interface{}{compare}
	}
	for _, elem := range set {
		if scalarEqual(field, elem) {
			return true
		}
	}
	return false
}

// scalarEqual compares two untyped scalars: numerically when both sides are
// numeric, otherwise on their string forms.
func scalarEqual(a, b interface{}) bool {
	if an, aok := asNumber(a); aok {
		if bn, bok := asNumber(b); bok {
			return an == bn
		}
	}
	return stringify(a) == stringify(b)
}

// toList normalizes any slice-kinded value to []interface{}
func toList(v interface{}) ([]interface{}, bool) {
	if v == nil {
		return nil, false
	}
	if l, ok := v.([]interface{}); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// toNumber coerces a value to float64; non-numeric inputs coerce to 0
func toNumber(v interface{}) float64 {
	n, _ := asNumber(v)
	return n
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toBool coerces a value to boolean: native bools pass through, numbers are
// true when non-zero, strings parse as booleans falling back to non-empty,
// nil is false.
func toBool(v interface{}) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
		return strings.TrimSpace(b) != ""
	default:
		if n, ok := asNumber(v); ok {
			return n != 0
		}
		return true
	}
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
