package table

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the scalar type held by a Value or a Column.
type Kind int

const (
	// KindNumber holds a float64.
	KindNumber Kind = iota
	// KindText holds a free-form string.
	KindText
	// KindFactor holds a label drawn from a fixed, ordered Levels set.
	KindFactor
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindFactor:
		return "factor"
	default:
		return "unknown"
	}
}

// ParseKind converts "number", "text" or "factor" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "number", "numeric", "float":
		return KindNumber, nil
	case "text", "string":
		return KindText, nil
	case "factor", "categorical":
		return KindFactor, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", s)
	}
}

// Value is a typed scalar cell.
//
// Factor values compare by label only: two factors are equal when their labels
// match, regardless of which Levels set they came from or the label's position
// in it.
type Value struct {
	kind   Kind
	num    float64
	str    string
	levels *Levels
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: KindText, str: s}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric payload and whether the value is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Label returns the text or factor label. Numbers are formatted.
func (v Value) Label() string {
	if v.kind == KindNumber {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.str
}

// Levels returns the level set of a factor value, nil otherwise.
func (v Value) Levels() *Levels { return v.levels }

// Code returns the factor's ordinal position within its level set.
func (v Value) Code() (int, bool) {
	if v.kind != KindFactor || v.levels == nil {
		return 0, false
	}
	return v.levels.Code(v.str)
}

// Equal reports whether two values are the same under their kind's equality.
// Numbers compare exactly with 0 == -0 and NaN equal to NaN.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindNumber {
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}
		return v.num == o.num
	}
	return v.str == o.str
}

// Key returns a canonical string consistent with Equal, suitable as a map key.
func (v Value) Key() string {
	switch v.kind {
	case KindNumber:
		f := v.num
		if f == 0 {
			f = 0 // folds -0
		}
		if math.IsNaN(f) {
			return "n:NaN"
		}
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	case KindText:
		return "t:" + v.str
	default:
		return "f:" + v.str
	}
}

// String returns the value formatted for display.
func (v Value) String() string {
	return v.Label()
}

// Interface returns the value as a float64 or string, for encoders.
func (v Value) Interface() interface{} {
	if v.kind == KindNumber {
		return v.num
	}
	return v.str
}
