// Package typetree is the generic typed-field tree that bundle entries are
// stored as. A Field is either a leaf carrying a value or a container whose
// children are named members (objects) or positional items (arrays).
package typetree

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotInteger and ErrNotString are returned by the value accessors.
var (
	ErrNotInteger = errors.New("field is not an integer")
	ErrNotString  = errors.New("field is not a string")
)

// Field is a node of the tree.
type Field struct {
	Name     string   `cbor:"1,keyasint,omitempty"`
	Value    any      `cbor:"2,keyasint"`
	Children []*Field `cbor:"3,keyasint,omitempty"`
}

// NewInt creates an integer leaf.
func NewInt(name string, v int64) *Field {
	return &Field{Name: name, Value: v}
}

// NewString creates a string leaf.
func NewString(name, v string) *Field {
	return &Field{Name: name, Value: v}
}

// NewObject creates a node whose children are named members.
func NewObject(name string, members ...*Field) *Field {
	return &Field{Name: name, Children: members}
}

// NewArray creates a node whose children are positional items. Item names
// are ignored by readers.
func NewArray(name string, items ...*Field) *Field {
	if items == nil {
		items = []*Field{}
	}
	return &Field{Name: name, Children: items}
}

// Get returns the first child with the given name, or nil. Get on a nil
// field returns nil so lookups can be chained.
func (f *Field) Get(name string) *Field {
	if f == nil {
		return nil
	}
	for _, c := range f.Children {
		if c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

// Len returns the number of children.
func (f *Field) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Children)
}

// Set replaces the first child with the same name or appends m.
func (f *Field) Set(m *Field) {
	for i, c := range f.Children {
		if c != nil && c.Name == m.Name {
			f.Children[i] = m
			return
		}
	}
	f.Children = append(f.Children, m)
}

// AsInt returns the leaf value as int64. Every Go integer kind is accepted
// because decoders differ in what they produce (CBOR yields uint64 for
// non-negative values).
func (f *Field) AsInt() (int64, error) {
	if f == nil {
		return 0, ErrNotInteger
	}
	switch v := f.Value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrNotInteger, v)
		}
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrNotInteger, v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotInteger, f.Value)
	}
}

// AsString returns the leaf value as a string.
func (f *Field) AsString() (string, error) {
	if f == nil {
		return "", ErrNotString
	}
	s, ok := f.Value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrNotString, f.Value)
	}
	return s, nil
}

// Clone returns a deep copy. Leaf values are immutable scalars and are shared.
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	c := &Field{Name: f.Name, Value: f.Value}
	if f.Children != nil {
		c.Children = make([]*Field, len(f.Children))
		for i, ch := range f.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}
