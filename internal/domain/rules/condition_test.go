package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func evalCond(t *testing.T, c Condition, ctx map[string]interface{}) bool {
	t.Helper()
	return c.Evaluate(ctx)
}

func TestCondition_MissingOrNilFieldIsFalse(t *testing.T) {
	c := Condition{Field: "amount", Operator: OpEquals, Value: "10"}

	assert.False(t, evalCond(t, c, map[string]interface{}{}))
	assert.False(t, evalCond(t, c, map[string]interface{}{"amount": nil}))
}

func TestCondition_UnknownOperatorIsFalse(t *testing.T) {
	c := Condition{Field: "amount", Operator: "approximately", Value: "10"}
	assert.False(t, evalCond(t, c, map[string]interface{}{"amount": "10"}))
}

func TestCondition_Equals(t *testing.T) {
	tests := []struct {
		name  string
		cond  Condition
		field interface{}
		want  bool
	}{
		{"string equal", Condition{Field: "f", Operator: OpEquals, Value: "USD"}, "USD", true},
		{"string unequal", Condition{Field: "f", Operator: OpEquals, Value: "USD"}, "EUR", false},
		{"number across representations", Condition{Field: "f", Operator: OpEquals, Value: "100", ValueType: ValueTypeNumber}, 100.0, true},
		{"decimal field", Condition{Field: "f", Operator: OpEquals, Value: 50, ValueType: ValueTypeNumber}, decimal.NewFromInt(50), true},
		{"boolean true", Condition{Field: "f", Operator: OpEquals, Value: true, ValueType: ValueTypeBoolean}, true, true},
		{"boolean string coercion", Condition{Field: "f", Operator: OpEquals, Value: "true", ValueType: ValueTypeBoolean}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evalCond(t, tt.cond, map[string]interface{}{"f": tt.field}))
		})
	}
}

func TestCondition_Ordering(t *testing.T) {
	ctx := map[string]interface{}{"amount": 1500.0}

	assert.True(t, evalCond(t, Condition{Field: "amount", Operator: OpGreaterThan, Value: 1000, ValueType: ValueTypeNumber}, ctx))
	assert.False(t, evalCond(t, Condition{Field: "amount", Operator: OpGreaterThan, Value: 1500, ValueType: ValueTypeNumber}, ctx))
	assert.True(t, evalCond(t, Condition{Field: "amount", Operator: OpGreaterThanOrEqual, Value: 1500, ValueType: ValueTypeNumber}, ctx))
	assert.True(t, evalCond(t, Condition{Field: "amount", Operator: OpLessThan, Value: 2000, ValueType: ValueTypeNumber}, ctx))
	assert.True(t, evalCond(t, Condition{Field: "amount", Operator: OpLessThanOrEqual, Value: 1500, ValueType: ValueTypeNumber}, ctx))
}

func TestCondition_OrderingLexicalForStrings(t *testing.T) {
	ctx := map[string]interface{}{"code": "beta"}
	assert.True(t, evalCond(t, Condition{Field: "code", Operator: OpGreaterThan, Value: "alpha"}, ctx))
	assert.False(t, evalCond(t, Condition{Field: "code", Operator: OpGreaterThan, Value: "gamma"}, ctx))
}

func TestCondition_Membership(t *testing.T) {
	in := Condition{Field: "country", Operator: OpIn, Value: []interface{}{"IR", "KP", "SY"}, ValueType: ValueTypeList}
	notIn := Condition{Field: "country", Operator: OpNotIn, Value: []interface{}{"IR", "KP", "SY"}, ValueType: ValueTypeList}

	assert.True(t, evalCond(t, in, map[string]interface{}{"country": "KP"}))
	assert.False(t, evalCond(t, in, map[string]interface{}{"country": "US"}))
	assert.False(t, evalCond(t, notIn, map[string]interface{}{"country": "KP"}))
	assert.True(t, evalCond(t, notIn, map[string]interface{}{"country": "US"}))
}

func TestCondition_MembershipNumericCoercion(t *testing.T) {
	c := Condition{Field: "tier", Operator: OpIn, Value: []interface{}{1, 2, 3}, ValueType: ValueTypeList}
	assert.True(t, evalCond(t, c, map[string]interface{}{"tier": 2.0}))
	assert.False(t, evalCond(t, c, map[string]interface{}{"tier": 4}))
}

func TestCondition_Contains(t *testing.T) {
	contains := Condition{Field: "desc", Operator: OpContains, Value: "wire"}
	notContains := Condition{Field: "desc", Operator: OpNotContains, Value: "wire"}

	assert.True(t, evalCond(t, contains, map[string]interface{}{"desc": "incoming wire transfer"}))
	assert.False(t, evalCond(t, contains, map[string]interface{}{"desc": "card payment"}))
	assert.True(t, evalCond(t, notContains, map[string]interface{}{"desc": "card payment"}))
}

func TestCondition_MatchesRegexIsFullyAnchored(t *testing.T) {
	c := Condition{Field: "ref", Operator: OpMatchesRegex, Value: `INV-\d{4}`}

	assert.True(t, evalCond(t, c, map[string]interface{}{"ref": "INV-2026"}))
	// Partial matches do not count: the pattern is anchored at both ends.
	assert.False(t, evalCond(t, c, map[string]interface{}{"ref": "XINV-2026"}))
	assert.False(t, evalCond(t, c, map[string]interface{}{"ref": "INV-2026-B"}))
}

func TestCondition_MatchesRegexInvalidPatternIsFalse(t *testing.T) {
	c := Condition{Field: "ref", Operator: OpMatchesRegex, Value: "("}
	assert.False(t, evalCond(t, c, map[string]interface{}{"ref": "("}))
}

func TestCondition_Between(t *testing.T) {
	c := Condition{Field: "amount", Operator: OpBetween, Value: []interface{}{100, 500}, ValueType: ValueTypeNumber}

	assert.True(t, evalCond(t, c, map[string]interface{}{"amount": 100}))
	assert.True(t, evalCond(t, c, map[string]interface{}{"amount": 300.5}))
	assert.True(t, evalCond(t, c, map[string]interface{}{"amount": 500}))
	assert.False(t, evalCond(t, c, map[string]interface{}{"amount": 99.99}))
	assert.False(t, evalCond(t, c, map[string]interface{}{"amount": 500.01}))
}

func TestCondition_BetweenRequiresTwoBounds(t *testing.T) {
	one := Condition{Field: "amount", Operator: OpBetween, Value: []interface{}{100}, ValueType: ValueTypeNumber}
	three := Condition{Field: "amount", Operator: OpBetween, Value: []interface{}{1, 2, 3}, ValueType: ValueTypeNumber}

	assert.False(t, evalCond(t, one, map[string]interface{}{"amount": 100}))
	assert.False(t, evalCond(t, three, map[string]interface{}{"amount": 2}))
}

func TestCondition_DefaultValueTypeIsString(t *testing.T) {
	c := Condition{Field: "f", Operator: OpEquals, Value: "10"}
	// With string semantics, numeric 10 stringifies to "10" and matches.
	assert.True(t, evalCond(t, c, map[string]interface{}{"f": 10}))
}
