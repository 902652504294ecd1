package grid

import (
	"reflect"
	"unsafe"

	"github.com/xgrid-go/xgrid/typing"
)

// Marshaled is the result of Marshal: the foreign-ABI record value itself,
// plus the pointer table its Data field points into, which the caller must
// keep alive (via runtime.KeepAlive) for the duration of the FFI call that
// follows, since a raw uintptr is not tracked by the garbage collector.
type Marshaled struct {
	Record reflect.Value
	Data   []uintptr // one pointer per history buffer, Record.Data points at Data[0]
}

// Marshal produces the fixed foreign grid record (spec.md §6: `{
// time_depth int32; shape int32[D]; data T**; boundary_mask int32* }`) as a
// reflect.Value ready to pass as a by-value struct argument across the FFI
// boundary — the same shape typing.ReferenceGoType(g.Typing()) describes.
//
// Grounded on the original's Grid.serialize() (xgrid/xgrid/__init__.py),
// which builds the identical four-field ctypes record from `self._data`,
// `self._boundary_mask` and the grid's shape; this port swaps ctypes'
// automatic buffer-address extraction for explicit unsafe.Pointer→uintptr
// conversions, since Go has no ctypes equivalent.
func (g *Grid) Marshal() Marshaled {
	goType := typing.ReferenceGoType(g.Typing())
	out := reflect.New(goType).Elem()

	out.FieldByName("TimeDepth").SetInt(int64(len(g.history)))

	shapeField := out.FieldByName("Shape")
	for i, n := range g.shape {
		shapeField.Index(i).SetInt(int64(n))
	}

	ptrs := make([]uintptr, len(g.history))
	for i, buf := range g.history {
		ptrs[i] = uintptr(unsafe.Pointer(&buf[0]))
	}
	out.FieldByName("Data").SetUint(uint64(uintptr(unsafe.Pointer(&ptrs[0]))))
	out.FieldByName("BoundaryMask").SetUint(uint64(uintptr(unsafe.Pointer(&g.boundaryMask[0]))))

	return Marshaled{Record: out, Data: ptrs}
}
