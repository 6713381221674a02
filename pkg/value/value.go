// Package value defines the CFPL runtime values.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the runtime discriminant of a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindInteger
	KindFloat
	KindCharacter
	KindBoolean
	KindString
)

var kindNames = [...]string{
	KindAbsent:    "Absent",
	KindInteger:   "Integer",
	KindFloat:     "Float",
	KindCharacter: "Character",
	KindBoolean:   "Boolean",
	KindString:    "String",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Value is the interface for all CFPL runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	Kind() Kind
	String() string
	cfplvalue() // sealed marker
}

// Absent represents a missing or uninitialized value.
type Absent struct{}

func (Absent) Kind() Kind { return KindAbsent }
func (Absent) String() string { return "nil" }
func (Absent) cfplvalue() {}

// Integer is a 64-bit signed integer value.
type Integer struct {
	Value int64
}

func (Integer) Kind() Kind { return KindInteger }
func (v Integer) String() string { return strconv.FormatInt(v.Value, 10) }
func (Integer) cfplvalue() {}

// Float is a double-precision value.
type Float struct {
	Value float64
}

func (Float) Kind() Kind { return KindFloat }
func (v Float) String() string { return FormatFloat(v.Value) }
func (Float) cfplvalue() {}

// Character is a single character value.
type Character struct {
	Value rune
}

func (Character) Kind() Kind { return KindCharacter }
func (v Character) String() string { return string(v.Value) }
func (Character) cfplvalue() {}

// Boolean is a truth value.
type Boolean struct {
	Value bool
}

func (Boolean) Kind() Kind { return KindBoolean }
func (v Boolean) String() string {
	if v.Value {
		return "true"
	}
	return "false"
}
func (Boolean) cfplvalue() {}

// String is a text value.
type String struct {
	Value string
}

func (String) Kind() Kind { return KindString }
func (v String) String() string { return v.Value }
func (String) cfplvalue() {}

// NewAbsent creates an absent value.
func NewAbsent() Value {
	return Absent{}
}

// NewInteger creates an integer value.
func NewInteger(n int64) Value {
	return Integer{Value: n}
}

// NewFloat creates a floating-point value.
func NewFloat(f float64) Value {
	return Float{Value: f}
}

// NewCharacter creates a character value.
func NewCharacter(r rune) Value {
	return Character{Value: r}
}

// NewBoolean creates a boolean value.
func NewBoolean(b bool) Value {
	return Boolean{Value: b}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// KindOf returns the kind of v, treating a nil interface as Absent.
func KindOf(v Value) Kind {
	if v == nil {
		return KindAbsent
	}
	return v.Kind()
}

// FormatFloat renders a float in its shortest decimal form.
// Integral values drop the fractional part entirely.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	text := strconv.FormatFloat(f, 'f', -1, 64)
	return strings.TrimSuffix(text, ".0")
}

// Truthy returns the boolean interpretation of v.
// Absent is false, booleans are themselves, everything else is true.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Absent:
		return false
	case Boolean:
		return val.Value
	default:
		return true
	}
}

// Equal reports whether a and b hold the same kind and the same payload.
// An absent left operand is never equal to anything, including another absent.
func Equal(a, b Value) bool {
	if KindOf(a) == KindAbsent || KindOf(b) == KindAbsent {
		return false
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Integer:
		return av.Value == b.(Integer).Value
	case Float:
		return av.Value == b.(Float).Value
	case Character:
		return av.Value == b.(Character).Value
	case Boolean:
		return av.Value == b.(Boolean).Value
	case String:
		return av.Value == b.(String).Value
	}
	return false
}

// Zero returns the default value for a declared kind.
// Strings have no implicit default; ok is false for them and for Absent.
func Zero(k Kind) (Value, bool) {
	switch k {
	case KindInteger:
		return NewInteger(0), true
	case KindFloat:
		return NewFloat(0), true
	case KindCharacter:
		return NewCharacter(' '), true
	case KindBoolean:
		return NewBoolean(false), true
	case KindString:
		return NewString(""), false
	}
	return NewAbsent(), false
}

// AsFloat widens a numeric value to float64.
func AsFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Integer:
		return float64(n.Value), true
	case Float:
		return n.Value, true
	}
	return 0, false
}

// IsNumeric reports whether v is an Integer or a Float.
func IsNumeric(v Value) bool {
	k := KindOf(v)
	return k == KindInteger || k == KindFloat
}
