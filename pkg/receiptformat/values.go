package receiptformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a JSON number that may also arrive as a numeric string
type Number float64

// UnmarshalJSON accepts 12, 12.5, "12.5", "" and null
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Non-numeric text degrades to zero rather than rejecting the payload
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	*n = Number(f)
	return nil
}

// Float returns the value, mapping NaN and infinities to 0
func (n Number) Float() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int returns the value truncated toward zero
func (n Number) Int() int {
	return int(n.Float())
}

// Flag is a boolean that also accepts "true", "1", 1 and friends
type Flag bool

// UnmarshalJSON decodes bools, numbers and strings
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch strings.ToLower(strings.Trim(string(data), `"`)) {
	case "true", "1", "yes", "y", "on":
		*f = true
	default:
		*f = false
	}
	return nil
}

// StringList is a list of strings that may also arrive as a single string
type StringList []string

// UnmarshalJSON accepts "a", ["a","b"] and null
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				// Numbers and other scalars keep their literal text
				s = strings.Trim(string(bytes.TrimSpace(r)), `"`)
			}
			out = append(out, s)
		}
		*l = out
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	*l = StringList{s}
	return nil
}

// UnitPrice returns the explicit unit price, or the line total divided by the
// quantity. A zero quantity yields the total as-is.
func (li LineItem) UnitPrice() float64 {
	if li.Price != nil {
		return li.Price.Float()
	}

	total := decimal.NewFromFloat(li.Amount.Float())
	q := li.Qty()
	if q == 0 {
		return total.InexactFloat64()
	}
	return total.Div(decimal.NewFromInt(int64(q))).InexactFloat64()
}
