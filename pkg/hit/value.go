package hit

import (
	"regexp"
	"strconv"
)

// Kind is the value type a parameter expects on the wire.
type Kind int

const (
	KindText Kind = iota
	KindBoolean
	KindInteger
	KindCurrency
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindCurrency:
		return "currency"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// currencyPattern is a signed decimal with a mandatory point and 2-6 fractional digits.
var currencyPattern = regexp.MustCompile(`^-?\d*\.\d{2,6}$`)

// Value is a parameter value. The zero Value is an empty text value.
// Values are immutable and safe to copy.
type Value struct {
	kind Kind
	text string
	b    bool
	i    int64
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool returns a boolean value, serialized as "1" or "0".
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Currency returns a currency value from its decimal text form, e.g. "-55.00".
// The text is not checked here; Validate rejects malformed amounts.
func Currency(amount string) Value { return Value{kind: KindCurrency, text: amount} }

// CurrencyFromFloat formats f with two fractional digits.
func CurrencyFromFloat(f float64) Value {
	return Value{kind: KindCurrency, text: strconv.FormatFloat(f, 'f', 2, 64)}
}

// Kind returns the kind the value was constructed with.
func (v Value) Kind() Kind { return v.kind }

// String serializes the value to its wire form.
func (v Value) String() string {
	switch v.kind {
	case KindBoolean:
		if v.b {
			return "1"
		}
		return "0"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	default:
		return v.text
	}
}

// conforms reports whether the serialized value s is acceptable for kind k.
func conforms(k Kind, s string) bool {
	switch k {
	case KindBoolean:
		return s == "1" || s == "0"
	case KindInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		return err == nil && strconv.FormatInt(n, 10) == s
	case KindCurrency:
		return currencyPattern.MatchString(s)
	default:
		return true
	}
}
