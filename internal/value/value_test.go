package value

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{"true", true},
		{"false", false},
		{"42", float64(42)},
		{"42.5", float64(42.5)},
		{"hello", "hello"},
		{true, true},
		{float64(3), float64(3)},
		{nil, nil},
	}
	for _, c := range cases {
		got := Normalize(c.in)
		if got != c.want {
			t.Errorf("Normalize(%#v) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{false, "false"},
		{float64(42), "42"},
		{float64(42.5), "42.5"},
	}
	for _, c := range cases {
		got := Stringify(c.in)
		if got != c.want {
			t.Errorf("Stringify(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStringifyObjectIsCanonical(t *testing.T) {
	a := map[string]any{"b": float64(2), "a": float64(1)}
	b := map[string]any{"a": float64(1), "b": float64(2)}
	if Stringify(a) != Stringify(b) {
		t.Errorf("Stringify should be insensitive to map iteration order: %q vs %q", Stringify(a), Stringify(b))
	}
}

func TestNormalizedEqual(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{"true", true, true},
		{"42", float64(42), true},
		{"42", "42.0", true},
		{"hello", "world", false},
		{true, true, true},
	}
	for _, c := range cases {
		got := NormalizedEqual(c.a, c.b)
		if got != c.want {
			t.Errorf("NormalizedEqual(%#v, %#v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
