package interp

import (
	"testing"
)

// TestTruthy tests the truth rules shared by if, while, and bool.
func TestTruthy(t *testing.T) {
	truthyValues := []any{true, int64(1), int64(-1), 0.5, "x", []any{int64(0)}, map[any]any{"k": nil}, &Func{Name: "f"}}
	falsyValues := []any{nil, false, int64(0), 0.0, "", []any{}, map[any]any{}}

	for _, v := range truthyValues {
		if !truthy(v) {
			t.Errorf("expected %v (%s) to be truthy", v, typeName(v))
		}
	}
	for _, v := range falsyValues {
		if truthy(v) {
			t.Errorf("expected %v (%s) to be falsy", v, typeName(v))
		}
	}
}

// TestDeepCopy tests aliasing behavior of the copy operation.
func TestDeepCopy(t *testing.T) {
	t.Run("copies nested sequences", func(t *testing.T) {
		original := []any{int64(1), []any{int64(2)}}
		copied := deepCopy(original).([]any)
		copied[1].([]any)[0] = int64(99)
		if original[1].([]any)[0] != int64(2) {
			t.Error("deep copy aliased a nested sequence")
		}
	})

	t.Run("copies mappings", func(t *testing.T) {
		original := map[any]any{"k": int64(1)}
		copied := deepCopy(original).(map[any]any)
		copied["k"] = int64(99)
		if original["k"] != int64(1) {
			t.Error("deep copy aliased a mapping")
		}
	})

	t.Run("shares functions", func(t *testing.T) {
		fn := &Func{Name: "f"}
		if deepCopy(fn) != fn {
			t.Error("expected the function object to be shared")
		}
	})
}

// TestValueEquals tests cross-kind numeric equality and deep equality.
func TestValueEquals(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{int64(1), int64(1), true},
		{int64(1), 1.0, true},
		{int64(1), true, true},
		{int64(1), int64(2), false},
		{"a", "a", true},
		{"a", "b", false},
		{"1", int64(1), false},
		{[]any{int64(1), "x"}, []any{int64(1), "x"}, true},
		{[]any{int64(1)}, []any{int64(2)}, false},
		{map[any]any{"k": int64(1)}, map[any]any{"k": int64(1)}, true},
		{nil, nil, true},
	}
	for _, c := range cases {
		if got := valueEquals(c.a, c.b); got != c.want {
			t.Errorf("valueEquals(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

// TestFormatValue tests the display rendering used by print and str.
func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "none"},
		{true, "true"},
		{false, "false"},
		{int64(42), "42"},
		{2.5, "2.5"},
		{"hi", "hi"},
		{[]any{int64(1), "a", true}, "[1, a, true]"},
		{map[any]any{"k": int64(1)}, "{k: 1}"},
		{&Func{Name: "add", Params: []string{"a", "b"}}, "<func add(a, b)>"},
	}
	for _, c := range cases {
		if got := formatValue(c.in); got != c.want {
			t.Errorf("formatValue(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestConvertInt tests the int conversion rules.
func TestConvertInt(t *testing.T) {
	t.Run("truncates floats toward zero", func(t *testing.T) {
		if n, _ := convertInt(2.9); n != 2 {
			t.Errorf("expected 2, got %d", n)
		}
		if n, _ := convertInt(-2.9); n != -2 {
			t.Errorf("expected -2, got %d", n)
		}
	})

	t.Run("parses decimal strings", func(t *testing.T) {
		if n, err := convertInt(" 17 "); err != nil || n != 17 {
			t.Errorf("expected 17, got %d (%v)", n, err)
		}
	})

	t.Run("rejects non-numeric strings with ValueError", func(t *testing.T) {
		_, err := convertInt("abc")
		if re, ok := err.(*RuntimeError); !ok || re.Kind != ErrValue {
			t.Errorf("expected ValueError, got %v", err)
		}
	})

	t.Run("rejects sequences with TypeError", func(t *testing.T) {
		_, err := convertInt([]any{})
		if re, ok := err.(*RuntimeError); !ok || re.Kind != ErrType {
			t.Errorf("expected TypeError, got %v", err)
		}
	})
}

// TestIndexValue tests element access on sequences, strings, and mappings.
func TestIndexValue(t *testing.T) {
	t.Run("sequence indexing with negative indices", func(t *testing.T) {
		seq := []any{"a", "b", "c"}
		if v, _ := indexValue(seq, int64(1)); v != "b" {
			t.Errorf("expected b, got %v", v)
		}
		if v, _ := indexValue(seq, int64(-1)); v != "c" {
			t.Errorf("expected c, got %v", v)
		}
	})

	t.Run("out of range is an IndexError", func(t *testing.T) {
		_, err := indexValue([]any{"a"}, int64(5))
		if re, ok := err.(*RuntimeError); !ok || re.Kind != ErrIndex {
			t.Errorf("expected IndexError, got %v", err)
		}
	})

	t.Run("string indexing yields characters", func(t *testing.T) {
		if v, _ := indexValue("héllo", int64(1)); v != "é" {
			t.Errorf("expected é, got %v", v)
		}
	})

	t.Run("mapping lookup with numeric key equality", func(t *testing.T) {
		m := map[any]any{int64(1): "one"}
		if v, _ := indexValue(m, 1.0); v != "one" {
			t.Errorf("expected one, got %v", v)
		}
	})

	t.Run("missing key is a KeyError", func(t *testing.T) {
		_, err := indexValue(map[any]any{}, "k")
		if re, ok := err.(*RuntimeError); !ok || re.Kind != ErrKey {
			t.Errorf("expected KeyError, got %v", err)
		}
	})
}

// TestLengthOf tests len across value kinds.
func TestLengthOf(t *testing.T) {
	if n, _ := lengthOf("héllo"); n != 5 {
		t.Errorf("expected 5 characters, got %d", n)
	}
	if n, _ := lengthOf([]any{int64(1), int64(2)}); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
	if n, _ := lengthOf(map[any]any{"k": nil}); n != 1 {
		t.Errorf("expected 1, got %d", n)
	}
	if _, err := lengthOf(int64(5)); err == nil {
		t.Error("expected error for int length")
	}
}

// TestContainsValue tests membership checks.
func TestContainsValue(t *testing.T) {
	if ok, _ := containsValue([]any{int64(1), int64(2)}, int64(2)); !ok {
		t.Error("expected 2 in [1, 2]")
	}
	if ok, _ := containsValue(map[any]any{"k": int64(1)}, "k"); !ok {
		t.Error("expected k in mapping keys")
	}
	if ok, _ := containsValue("hello", "ell"); !ok {
		t.Error("expected substring match")
	}
	if _, err := containsValue(int64(5), int64(1)); err == nil {
		t.Error("expected error for membership in an int")
	}
}
