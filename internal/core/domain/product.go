package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Field renders a product value as text. Missing and null values are
// empty; nested objects and arrays are rendered as compact JSON.
func (p Product) Field(name string) string {
	v, ok := p[name]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}

// Row returns the product's values for fields, in order.
func (p Product) Row(fields []string) []string {
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = p.Field(f)
	}
	return row
}
