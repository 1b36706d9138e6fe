package lang

//go:generate go tool stringer --type Kind --trimprefix Kind --output value_string.go

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies which member of a [Value] is set.
type Kind int

const (
	// KindNull is produced only for an empty token.
	KindNull Kind = iota

	// KindInteger is an unsigned digit run without a decimal point.
	KindInteger

	// KindFloat is a digit run with a decimal point.
	KindFloat

	// KindString is a bracketed literal, a bare word or any other text.
	KindString

	// KindBool is a case-insensitive true or false.
	KindBool

	// KindArray is an ordered list of values.
	KindArray
)

// Value is a fully resolved configuration value.
type Value struct {
	Kind Kind
	// Exactly one of these is meaningful, based on Kind
	Int   int64    // KindInteger, when Big is nil
	Big   *big.Int // KindInteger, when the digits overflow int64
	Float float64  // KindFloat
	Str   string   // KindString
	Bool  bool     // KindBool
	Array []Value  // KindArray
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// NewInteger returns an integer value.
func NewInteger(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// NewBigInteger returns an integer value that may not fit in 64 bits.
// Values that do fit are normalized to [NewInteger].
func NewBigInteger(i *big.Int) Value {
	if i.IsInt64() {
		return NewInteger(i.Int64())
	}

	return Value{Kind: KindInteger, Big: new(big.Int).Set(i)}
}

// NewFloat returns a floating-point value.
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// NewString returns a string value.
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewArray returns an array value holding the given elements.
// A nil element list yields an empty, non-nil array.
func NewArray(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}

	return Value{Kind: KindArray, Array: elems}
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Native converts v to its native Go representation: nil, int64, *big.Int,
// float64, string, bool or []any.
func (v Value) Native() any {
	switch v.Kind {
	case KindInteger:
		if v.Big != nil {
			return new(big.Int).Set(v.Big)
		}

		return v.Int

	case KindFloat:
		return v.Float

	case KindString:
		return v.Str

	case KindBool:
		return v.Bool

	case KindArray:
		result := make([]any, 0, len(v.Array))
		for _, elem := range v.Array {
			result = append(result, elem.Native())
		}

		return result

	default:
		return nil
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch {
	case v.Kind == KindArray:
		elems := make([]Value, len(v.Array))
		for i, elem := range v.Array {
			elems[i] = elem.Clone()
		}

		v.Array = elems

	case v.Big != nil:
		v.Big = new(big.Int).Set(v.Big)
	}

	return v
}

// Equal reports whether v and o have the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindNull:
		return true

	case KindInteger:
		return v.bigInt().Cmp(o.bigInt()) == 0

	case KindFloat:
		return v.Float == o.Float ||
			(math.IsNaN(v.Float) && math.IsNaN(o.Float))

	case KindString:
		return v.Str == o.Str

	case KindBool:
		return v.Bool == o.Bool

	case KindArray:
		if len(v.Array) != len(o.Array) {
			return false
		}

		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}

		return true

	default:
		return false
	}
}

func (v Value) bigInt() *big.Int {
	if v.Big != nil {
		return v.Big
	}

	return big.NewInt(v.Int)
}

// String returns the JSON text of v, or its native syntax if v cannot be
// encoded as JSON.
func (v Value) String() string {
	var buf bytes.Buffer

	if err := v.appendJSON(&buf); err != nil {
		return v.Source()
	}

	return buf.String()
}

// Source returns v written in konfigypr value syntax. The result is not
// guaranteed to parse back to v; see [FormatNative].
func (v Value) Source() string {
	switch v.Kind {
	case KindInteger:
		if v.Big != nil {
			return v.Big.String()
		}

		return strconv.FormatInt(v.Int, 10)

	case KindFloat:
		s := strconv.FormatFloat(v.Float, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}

		return s

	case KindString:
		if isIdentifier(v.Str) && !isBoolean(v.Str) {
			return v.Str
		}

		return bracketOpen + v.Str + bracketClose

	case KindBool:
		return strconv.FormatBool(v.Bool)

	case KindArray:
		elems := make([]string, len(v.Array))
		for i, elem := range v.Array {
			elems[i] = elem.Source()
		}

		return listOpen + strings.Join(elems, ", ") + listClose

	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	if err := v.appendJSON(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v Value) appendJSON(buf *bytes.Buffer) error {
	switch v.Kind {
	case KindNull:
		buf.WriteString("null")

	case KindInteger:
		buf.WriteString(v.Source())

	case KindFloat:
		s, err := formatJSONFloat(v.Float)
		if err != nil {
			return err
		}

		buf.WriteString(s)

	case KindString:
		return appendJSONString(buf, v.Str)

	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool))

	case KindArray:
		buf.WriteByte('[')

		for i, elem := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := elem.appendJSON(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')

	default:
		return ErrUnsupportedValue.Wrapf("kind %d", int(v.Kind))
	}

	return nil
}

// appendJSONString writes s as a JSON string without escaping HTML
// characters.
func appendJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return err
	}

	// Encode terminates each value with a newline
	buf.Truncate(buf.Len() - 1)

	return nil
}

// formatJSONFloat renders f using the shortest representation that
// round-trips, always keeping a fractional part or exponent so that floats
// remain distinguishable from integers.
func formatJSONFloat(f float64) (string, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", ErrUnsupportedValue.Wrapf("non-finite float %v", f)
	}

	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64), nil
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s, nil
}
