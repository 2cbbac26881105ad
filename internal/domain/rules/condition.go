package rules

// Condition is one boolean predicate over the transaction evaluation context
type Condition struct {
	Field     string      `json:"field"`
	Operator  Operator    `json:"operator"`
	Value     interface{} `json:"value"`
	ValueType ValueType   `json:"value_type"`
}

// Evaluate checks the condition against the context. A missing or nil field
// is false. Unknown operators are false: conditions fail closed, they never
// trigger a rule on a shape they do not understand.
func (c Condition) Evaluate(context map[string]interface{}) bool {
	fieldValue, ok := context[c.Field]
	if !ok || fieldValue == nil {
		return false
	}

	cmp, ok := comparators[c.Operator]
	if !ok {
		return false
	}

	return cmp(fieldValue, c.Value, c.valueType())
}

func (c Condition) valueType() ValueType {
	if c.ValueType == "" {
		return ValueTypeString
	}
	return c.ValueType
}
