package checkout

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var leadingInteger = regexp.MustCompile(`^[+-]?\d+`)

// Amount is a cart numeric as the storefront sends it: either a JSON number
// or a numeric string. Parsing is deferred so that a malformed value
// surfaces as a validation error on the line it belongs to.
type Amount struct {
	raw      string
	isString bool
	present  bool
}

// NewAmount builds an Amount from an integer
func NewAmount(v int64) Amount {
	return Amount{raw: strconv.FormatInt(v, 10), present: true}
}

// AmountFromString builds an Amount as if it arrived as a JSON string
func AmountFromString(s string) Amount {
	return Amount{raw: s, isString: true, present: true}
}

// IsSet reports whether a value was supplied
func (a Amount) IsSet() bool {
	return a.present
}

// UnmarshalJSON accepts numbers, strings and null
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountFromString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidAmount
	}
	*a = Amount{raw: n.String(), present: true}
	return nil
}

// MarshalJSON writes the value back in the form it arrived
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.present {
		return []byte("null"), nil
	}
	if a.isString {
		return json.Marshal(a.raw)
	}
	return []byte(a.raw), nil
}

// WholeUnits returns the integer part of the value.
// Strings are read like parseInt: leading whitespace is skipped and digits
// are consumed up to the first non-digit, so "12.9kg" yields 12.
func (a Amount) WholeUnits() (int64, error) {
	if !a.present {
		return 0, ErrInvalidAmount
	}
	if a.isString {
		m := leadingInteger.FindString(strings.TrimLeft(a.raw, " \t\r\n"))
		if m == "" {
			return 0, ErrInvalidAmount
		}
		v, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		return v, nil
	}
	d, err := decimal.NewFromString(a.raw)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	whole := d.Truncate(0)
	if !whole.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return whole.IntPart(), nil
}

// Decimal returns the exact value, or an error when it is not a plain number
func (a Amount) Decimal() (decimal.Decimal, error) {
	if !a.present {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(strings.TrimSpace(a.raw))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
