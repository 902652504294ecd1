package grid

import (
	"fmt"
	"unsafe"

	"github.com/xgrid-go/xgrid/typing"
)

// Fill overwrites the buffer |time| steps ago with data, a flat row-major
// slice of the grid's cells (spec.md §4.5 "grid.fill(ndarray, time=0):
// overwrites buffer at |time|, extending history first"). T's width must
// match the grid's Int/Float element width; use FillStruct for a
// Struct-element grid.
//
// Grounded on typing.marshalNumber's generic-over-Number shape (typing/
// marshal.go), reusing the same golang.org/x/exp/constraints-backed
// typing.Number — a host-side bulk copy needs the identical "one generic
// body instead of one function per width" treatment the single-value
// marshaller already gets.
func Fill[T typing.Number](g *Grid, data []T, time int) error {
	buf, err := g.prepareBuffer(len(data), int(unsafe.Sizeof(data[0])), time)
	if err != nil {
		return err
	}
	dst := unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), len(data))
	copy(dst, data)
	return nil
}

// Read copies the flat row-major contents of the buffer |time| steps ago
// into dst, the host-side mirror of the original's `__getitem__`.
func Read[T typing.Number](g *Grid, dst []T, time int) error {
	buf, err := g.readBuffer(len(dst), int(unsafe.Sizeof(dst[0])), time)
	if err != nil {
		return err
	}
	src := unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), len(dst))
	copy(dst, src)
	return nil
}

// FillStruct is Fill for a Struct-element grid: each entry is marshaled
// through typing.Marshal field-by-field into the ABI layout the generated C
// struct expects, rather than copied as raw bytes of a builtin Go type.
func FillStruct(g *Grid, data []typing.StructValue, time int) error {
	st, ok := g.element.(*typing.Struct)
	if !ok {
		return shapeErrorf("FillStruct called on a %s grid", g.element)
	}
	buf, err := g.prepareBuffer(len(data), st.Size(), time)
	if err != nil {
		return err
	}
	for i, cell := range data {
		rv, err := typing.Marshal(st, cell)
		if err != nil {
			return fmt.Errorf("grid: fill cell %d: %w", i, err)
		}
		offset := i * st.Size()
		dst := unsafe.Slice((*byte)(unsafe.Pointer(&buf[offset])), st.Size())
		copy(dst, unsafe.Slice((*byte)(rv.Addr().UnsafePointer()), st.Size()))
	}
	return nil
}

func (g *Grid) prepareBuffer(cellCount, width, time int) ([]byte, error) {
	if int64(cellCount) != g.cells {
		return nil, shapeErrorf("fill expects %d cells, got %d", g.cells, cellCount)
	}
	if width != g.elemSize {
		return nil, shapeErrorf("element width mismatch: grid holds %s (%d bytes), got %d-byte values", g.element, g.elemSize, width)
	}
	idx := time
	if idx < 0 {
		idx = -idx
	}
	if idx >= len(g.history) {
		g.PrepareFor(idx + 1)
	}
	return g.history[idx], nil
}

func (g *Grid) readBuffer(cellCount, width, time int) ([]byte, error) {
	if int64(cellCount) != g.cells {
		return nil, shapeErrorf("read expects %d cells, got %d", g.cells, cellCount)
	}
	if width != g.elemSize {
		return nil, shapeErrorf("element width mismatch: grid holds %s (%d bytes), got %d-byte values", g.element, g.elemSize, width)
	}
	idx := time
	if idx < 0 {
		idx = -idx
	}
	if idx >= len(g.history) {
		return nil, fmt.Errorf("grid: read at time -%d exceeds history depth %d", idx, len(g.history))
	}
	return g.history[idx], nil
}
