package typetree

import (
	"errors"
	"math"
	"testing"
)

func TestField_Get(t *testing.T) {
	root := NewObject("root",
		NewString("m_Name", "event"),
		NewArray("StrList", NewString("", "a")),
	)

	if got := root.Get("m_Name"); got == nil || got.Value != "event" {
		t.Errorf("Get(m_Name) = %v", got)
	}
	if got := root.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
	if got := root.Get("missing").Get("deeper"); got != nil {
		t.Errorf("chained Get on nil = %v, want nil", got)
	}
	if n := root.Get("StrList").Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
	if n := root.Get("missing").Len(); n != 0 {
		t.Errorf("Len() on nil = %d, want 0", n)
	}
}

func TestField_AsInt(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int64
		wantErr bool
	}{
		{"int64", int64(-5), -5, false},
		{"int", 7, 7, false},
		{"int32", int32(math.MinInt32), math.MinInt32, false},
		{"uint64", uint64(12), 12, false},
		{"uint8", uint8(255), 255, false},
		{"uint64 overflow", uint64(math.MaxUint64), 0, true},
		{"string", "12", 0, true},
		{"nil", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (&Field{Value: tt.value}).AsInt()
			if tt.wantErr {
				if !errors.Is(err, ErrNotInteger) {
					t.Fatalf("expected ErrNotInteger, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("AsInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestField_AsString(t *testing.T) {
	if s, err := NewString("x", "hi").AsString(); err != nil || s != "hi" {
		t.Errorf("AsString() = %q, %v", s, err)
	}
	if _, err := NewInt("x", 1).AsString(); !errors.Is(err, ErrNotString) {
		t.Errorf("expected ErrNotString, got %v", err)
	}
	var nilField *Field
	if _, err := nilField.AsString(); !errors.Is(err, ErrNotString) {
		t.Errorf("expected ErrNotString on nil field, got %v", err)
	}
}

func TestField_Set(t *testing.T) {
	root := NewObject("root", NewString("a", "1"), NewString("b", "2"))

	root.Set(NewString("a", "replaced"))
	root.Set(NewString("c", "3"))

	if s, _ := root.Get("a").AsString(); s != "replaced" {
		t.Errorf("a = %q, want replaced", s)
	}
	if root.Len() != 3 {
		t.Errorf("Len() = %d, want 3", root.Len())
	}
}

func TestField_Clone(t *testing.T) {
	root := NewObject("root", NewArray("items", NewInt("", 1)))
	c := root.Clone()
	c.Get("items").Children[0].Value = int64(2)

	if v, _ := root.Get("items").Children[0].AsInt(); v != 1 {
		t.Errorf("original changed to %d", v)
	}
}
