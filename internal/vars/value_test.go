package vars

import "testing"

func TestParseNumberPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"42", 42},
		{"-3.5", -3.5},
		{"12px", 12},
		{"  7 ", 7},
		{"3 apples", 3},
		{"abc", 0},
		{"", 0},
		{"px12", 0},
		{"-", 0},
	}

	for _, tc := range cases {
		if got := ParseNumber(tc.in); got != tc.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCoercions(t *testing.T) {
	// Booleans
	if Bool(true).AsNumber() != 1 || Bool(false).AsNumber() != 0 {
		t.Errorf("bool to number coercion wrong")
	}
	if Bool(true).AsString() != "true" {
		t.Errorf("expected \"true\", got %q", Bool(true).AsString())
	}

	// Numbers
	if Number(0).AsBool() {
		t.Errorf("0 should be falsy")
	}
	if !Number(-1).AsBool() {
		t.Errorf("-1 should be truthy")
	}
	if Number(2.5).AsString() != "2.5" {
		t.Errorf("expected \"2.5\", got %q", Number(2.5).AsString())
	}
	if Number(3).AsString() != "3" {
		t.Errorf("whole numbers should not carry a decimal point, got %q", Number(3).AsString())
	}

	// Strings
	if String("").AsBool() {
		t.Errorf("empty string should be falsy")
	}
	if !String("no").AsBool() {
		t.Errorf("non-empty string should be truthy")
	}
	if String("7 days").AsNumber() != 7 {
		t.Errorf("string to number should use prefix parsing")
	}

	// Absent
	a := Absent()
	if !a.IsAbsent() || a.AsBool() || a.AsNumber() != 0 || a.AsString() != "" {
		t.Errorf("absent coercions wrong: %v %v %q", a.AsBool(), a.AsNumber(), a.AsString())
	}
}

func TestParseLiteral(t *testing.T) {
	if v := ParseLiteral("true"); v.Kind() != KindBool || !v.AsBool() {
		t.Errorf("expected bool true")
	}
	if v := ParseLiteral("false"); v.Kind() != KindBool || v.AsBool() {
		t.Errorf("expected bool false")
	}
	if v := ParseLiteral("3.5"); v.Kind() != KindNumber || v.AsNumber() != 3.5 {
		t.Errorf("expected number 3.5")
	}
	if v := ParseLiteral("hello"); v.Kind() != KindString || v.AsString() != "hello" {
		t.Errorf("expected string hello")
	}
	// Numeric-looking text with a suffix stays a string.
	if v := ParseLiteral("12px"); v.Kind() != KindString {
		t.Errorf("expected 12px to stay a string")
	}
}
