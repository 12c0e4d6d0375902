package vars

import (
	"strconv"
	"strings"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindBool
	KindNumber
	KindString
)

// Value is a dynamically typed variable value: boolean, number, string,
// or the absent sentinel for names that were never written.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

// Absent returns the sentinel for an unset variable.
func Absent() Value {
	return Value{kind: KindAbsent}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func Number(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether the value is the unset sentinel.
// Absent is distinguishable from false, 0, and "".
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// AsString returns the stringified form. Absent stringifies to "".
func (v Value) AsString() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// AsNumber coerces to a number. Malformed or absent values degrade to 0,
// never an error or NaN.
func (v Value) AsNumber() float64 {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindNumber:
		return v.n
	case KindString:
		return ParseNumber(v.s)
	default:
		return 0
	}
}

// AsBool coerces to a boolean using the authoring tool's truthiness rules:
// non-zero numbers and non-empty strings are true, absent is false.
func (v Value) AsBool() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindString:
		return v.s != ""
	default:
		return false
	}
}

// ParseNumber parses the leading numeric prefix of s, mirroring the
// authoring tool's permissive parseInt-with-fallback behavior: "12px"
// yields 12, "abc" and "" yield 0. The result is never NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	end := 0
	if s[end] == '+' || s[end] == '-' {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}

	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return n
}

// ParseLiteral converts an authored literal into a typed Value using the
// store's permissive typing: numeric-looking literals become numbers,
// "true"/"false" become booleans, everything else stays a string.
func ParseLiteral(s string) Value {
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return Number(n)
	}
	return String(s)
}
