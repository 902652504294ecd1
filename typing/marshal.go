package typing

import (
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Number is the "Number" category from spec.md §4.2 (arithmetic/compare
// operands): any width of integer (signed or unsigned) or any width of
// float. Reused the
// same way banditmoscow1337/benc's bstd.go uses golang.org/x/exp/constraints
// to write one generic helper instead of one function per width.
type Number interface {
	constraints.Integer | constraints.Float
}

// StructValue is a convenience host-side representation for a Struct Value
// when the caller has no matching named Go struct type handy — field
// lookup is by name, independent of declaration order.
type StructValue map[string]any

// GoType returns the reflect.Type used to cross the FFI boundary for a
// Value: the width-tagged primitive Go type it marshals to/from, or, for a
// Struct, a structurally equivalent exported reflect.StructOf type.
func GoType(v Value) reflect.Type {
	switch t := v.(type) {
	case Bool:
		return reflect.TypeOf(false)
	case Int:
		switch t.WidthBytes {
		case 1:
			return reflect.TypeOf(int8(0))
		case 2:
			return reflect.TypeOf(int16(0))
		case 4:
			return reflect.TypeOf(int32(0))
		case 8:
			return reflect.TypeOf(int64(0))
		}
	case Float:
		switch t.WidthBytes {
		case 4:
			return reflect.TypeOf(float32(0))
		case 8:
			return reflect.TypeOf(float64(0))
		}
	case *Struct:
		fields := make([]reflect.StructField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = reflect.StructField{
				Name: exportName(f.Name, i),
				Type: GoType(f.Type),
			}
		}
		return reflect.StructOf(fields)
	}
	panic(fmt.Sprintf("typing: no Go representation for %s", v))
}

func exportName(name string, index int) string {
	if name == "" {
		return fmt.Sprintf("Field%d", index)
	}
	r := []rune(name)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r)
}

// marshalNumber converts an arbitrary host Number into the exact
// width-tagged representation T used on the wire, mirroring the generic
// numeric helpers in bstd.go.
func marshalNumber[T Number](host any) (T, error) {
	rv := reflect.ValueOf(host)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return T(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return T(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return T(rv.Float()), nil
	default:
		var zero T
		return zero, fmt.Errorf("typing: cannot marshal %T as number", host)
	}
}

// Marshal converts a host-side value into the reflect.Value used to invoke
// the foreign function for that argument slot (spec.md §4.1's width-tagged
// primitive copy, recursing field-wise for structs).
func Marshal(v Value, host any) (reflect.Value, error) {
	switch t := v.(type) {
	case Bool:
		b, ok := host.(bool)
		if !ok {
			return reflect.Value{}, fmt.Errorf("typing: argument expected bool, got %T", host)
		}
		return reflect.ValueOf(b), nil

	case Int:
		switch t.WidthBytes {
		case 1:
			n, err := marshalNumber[int8](host)
			return reflect.ValueOf(n), err
		case 2:
			n, err := marshalNumber[int16](host)
			return reflect.ValueOf(n), err
		case 4:
			n, err := marshalNumber[int32](host)
			return reflect.ValueOf(n), err
		case 8:
			n, err := marshalNumber[int64](host)
			return reflect.ValueOf(n), err
		}

	case Float:
		switch t.WidthBytes {
		case 4:
			n, err := marshalNumber[float32](host)
			return reflect.ValueOf(n), err
		case 8:
			n, err := marshalNumber[float64](host)
			return reflect.ValueOf(n), err
		}

	case *Struct:
		return marshalStruct(t, host)
	}
	return reflect.Value{}, fmt.Errorf("typing: unsupported value type %s", v)
}

func marshalStruct(t *Struct, host any) (reflect.Value, error) {
	goType := GoType(t)
	out := reflect.New(goType).Elem()

	lookup := fieldLookup(host)
	for i, f := range t.Fields {
		fv, ok := lookup(f.Name)
		if !ok {
			return reflect.Value{}, fmt.Errorf("typing: struct %s missing field %q", t.Name, f.Name)
		}
		marshaled, err := Marshal(f.Type, fv)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("typing: struct %s field %q: %w", t.Name, f.Name, err)
		}
		out.Field(i).Set(marshaled)
	}
	return out, nil
}

func fieldLookup(host any) func(name string) (any, bool) {
	if sv, ok := host.(StructValue); ok {
		return func(name string) (any, bool) {
			v, ok := sv[name]
			return v, ok
		}
	}
	rv := reflect.ValueOf(host)
	return func(name string) (any, bool) {
		if rv.Kind() != reflect.Struct {
			return nil, false
		}
		fv := rv.FieldByNameFunc(func(n string) bool {
			return len(n) > 0 && len(name) > 0 &&
				(n == name || exportName(name, 0) == n)
		})
		if !fv.IsValid() {
			return nil, false
		}
		return fv.Interface(), true
	}
}

// Demarshal converts the reflect.Value returned across the FFI boundary
// back into a host-side Go value.
func Demarshal(v Value, rv reflect.Value) any {
	switch t := v.(type) {
	case *Struct:
		out := make(StructValue, len(t.Fields))
		for i, f := range t.Fields {
			out[f.Name] = Demarshal(f.Type, rv.Field(i))
		}
		return out
	default:
		return rv.Interface()
	}
}

// ReferenceGoType returns the reflect.Type used for a Reference argument
// slot: an address-sized uintptr for Ptr, or the fixed foreign grid record
// for Grid (spec.md §6's {time_depth, shape, data, boundary_mask} layout).
func ReferenceGoType(r Reference) reflect.Type {
	switch t := r.(type) {
	case *Ptr:
		return reflect.TypeOf(uintptr(0))
	case *Grid:
		return reflect.StructOf([]reflect.StructField{
			{Name: "TimeDepth", Type: reflect.TypeOf(int32(0))},
			{Name: "Shape", Type: reflect.ArrayOf(t.Dimension, reflect.TypeOf(int32(0)))},
			{Name: "Data", Type: reflect.TypeOf(uintptr(0))},
			{Name: "BoundaryMask", Type: reflect.TypeOf(uintptr(0))},
		})
	}
	panic(fmt.Sprintf("typing: unreachable reference case %T", r))
}

// MarshalPointer takes the address of a host-side Value cell for a Ptr
// argument slot.
func MarshalPointer(p *Ptr, addr unsafe.Pointer) reflect.Value {
	return reflect.ValueOf(uintptr(addr))
}
