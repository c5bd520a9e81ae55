package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a scalar datapoint taken from a report body.
// The zero Value is null: the source had no value for the field.
// Numbers keep their source text so 110000 stays 110000 and 100000.0 stays 100000.0.
type Value struct {
	raw any // nil, json.Number, string or bool
}

// Null returns an explicit "no value".
func Null() Value { return Value{} }

// Number wraps a numeric literal as found in the source document.
func Number(n json.Number) Value { return Value{raw: n} }

// Int wraps an integer.
func Int(i int) Value { return Value{raw: json.Number(strconv.Itoa(i))} }

// Float wraps a float64 using the shortest representation that round-trips.
// Exponent notation is kept for very small or very large magnitudes only.
func Float(f float64) Value {
	a := math.Abs(f)
	if a != 0 && (a < 1e-4 || a >= 1e16) {
		return Value{raw: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
	}
	return Value{raw: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// Text wraps a string value.
func Text(s string) Value { return Value{raw: s} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{raw: b} }

// IsNull reports whether v carries no value.
func (v Value) IsNull() bool { return v.raw == nil }

// Float64 converts v to a float. Numeric strings are accepted.
func (v Value) Float64() (float64, bool) {
	switch x := v.raw.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Int64 returns v as an integer when it is a whole number.
func (v Value) Int64() (int64, bool) {
	if n, ok := v.raw.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	f, ok := v.Float64()
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// String renders v as a table cell. Null renders as the empty string.
func (v Value) String() string {
	switch x := v.raw.(type) {
	case nil:
		return ""
	case json.Number:
		return x.String()
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}

// Equal compares two values by kind and source text.
func (v Value) Equal(o Value) bool {
	return v.raw == o.raw
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch x := v.raw.(type) {
	case nil:
		return []byte("null"), nil
	case json.Number:
		return []byte(x.String()), nil
	default:
		return json.Marshal(x)
	}
}

// UnmarshalJSON accepts null, numbers, strings and booleans. Nested
// objects and arrays are kept as their compact JSON text.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		v.raw = nil
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v.raw = s
	case 't', 'f':
		var x bool
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		v.raw = x
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return err
		}
		v.raw = buf.String()
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		v.raw = n
	}
	return nil
}
