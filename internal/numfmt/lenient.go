package numfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Lenient is a decimal-like value that may arrive as a JSON string, a JSON
// number or null. It keeps the raw text so callers can echo what was typed.
type Lenient string

// Float coerces the value with ToFloat.
func (l Lenient) Float() float64 {
	return ToFloat(string(l))
}

// Int coerces the value with ToInt.
func (l Lenient) Int() int {
	return ToInt(string(l))
}

// UnmarshalJSON accepts strings, numbers and null.
func (l *Lenient) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*l = Lenient(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*l = Lenient(n.String())
		return nil
	}
	return fmt.Errorf("numfmt: %s is not a decimal value", string(trimmed))
}
