// Package typing implements the value/reference type system (component C1):
// ABI-aware types shared by the parser, the code generator and the grid
// runtime, plus the marshalling rules used to cross the foreign-function
// boundary.
package typing

import "fmt"

// Type is the root of the type hierarchy. Every IR expression and every
// kernel signature slot resolves to one of these.
type Type interface {
	fmt.Stringer
	isType()
}

// Value types pass by value across the FFI boundary.
type Value interface {
	Type
	isValue()
	// Size is the ABI size in bytes.
	Size() int
	// Align is the ABI alignment in bytes.
	Align() int
}

// Void is the only legal "no type" marker, used for return annotations and
// for external operators with no return value. It is deliberately not a
// Value: it may not appear as a struct field, a grid element or anywhere a
// Value is required.
type Void struct{}

func (Void) isType()       {}
func (Void) String() string { return "void" }

// Bool is a single-byte boolean value type.
type Bool struct{}

func (Bool) isType()        {}
func (Bool) isValue()       {}
func (Bool) Size() int      { return 1 }
func (Bool) Align() int     { return 1 }
func (Bool) String() string { return "bool" }

// Int is a signed integer value type of a fixed byte width (1, 2, 4 or 8).
type Int struct {
	WidthBytes int
}

func (Int) isType()  {}
func (Int) isValue() {}

func (i Int) Size() int  { return i.WidthBytes }
func (i Int) Align() int { return i.WidthBytes }

func (i Int) WidthBits() int { return i.WidthBytes * 8 }

func (i Int) String() string {
	return fmt.Sprintf("int%d", i.WidthBits())
}

// Float is an IEEE-754 floating-point value type, 4 or 8 bytes wide.
type Float struct {
	WidthBytes int
}

func (Float) isType()  {}
func (Float) isValue() {}

func (f Float) Size() int  { return f.WidthBytes }
func (f Float) Align() int { return f.WidthBytes }

func (f Float) WidthBits() int { return f.WidthBytes * 8 }

func (f Float) String() string {
	return fmt.Sprintf("float%d", f.WidthBits())
}

// Field is one named, ordered member of a Struct.
type Field struct {
	Name string
	Type Value
}

// Struct is an ordered, named composite Value. Two Structs compare equal
// once registered by identity (same *Struct pointer); unregistered struct
// literals compare fieldwise by name and order (see Equal).
type Struct struct {
	Name   string
	Fields []Field
}

func (*Struct) isType()  {}
func (*Struct) isValue() {}

func (s *Struct) Size() int {
	size := 0
	align := s.Align()
	for _, f := range s.Fields {
		size = alignUp(size, f.Type.Align())
		size += f.Type.Size()
	}
	return alignUp(size, align)
}

func (s *Struct) Align() int {
	align := 1
	for _, f := range s.Fields {
		if a := f.Type.Align(); a > align {
			align = a
		}
	}
	return align
}

func (s *Struct) String() string { return s.Name }

// FieldOffset returns the byte offset and type of the named field; the
// parser uses it to resolve and type a struct field access.
func (s *Struct) FieldOffset(name string) (int, Value, bool) {
	offset := 0
	for _, f := range s.Fields {
		offset = alignUp(offset, f.Type.Align())
		if f.Name == name {
			return offset, f.Type, true
		}
		offset += f.Type.Size()
	}
	return 0, nil, false
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	if r := n % align; r != 0 {
		n += align - r
	}
	return n
}

// Equal implements the structural-for-values, identity-for-registered-structs
// equality rule from spec.md §3.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch at := a.(type) {
	case Bool:
		_, ok := b.(Bool)
		return ok
	case Int:
		bt, ok := b.(Int)
		return ok && at.WidthBytes == bt.WidthBytes
	case Float:
		bt, ok := b.(Float)
		return ok && at.WidthBytes == bt.WidthBytes
	case *Struct:
		bt, ok := b.(*Struct)
		if !ok {
			return false
		}
		if at == bt {
			return true // identity-based, once registered
		}
		if at.Name != bt.Name || len(at.Fields) != len(bt.Fields) {
			return false
		}
		for i := range at.Fields {
			if at.Fields[i].Name != bt.Fields[i].Name ||
				!Equal(at.Fields[i].Type, bt.Fields[i].Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsNumber reports whether v is an Int or a Float — the "Number" category
// used by the arithmetic/compare operator type rules in spec.md §4.2.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	default:
		return false
	}
}
