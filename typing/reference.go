package typing

import "fmt"

// Reference types pass by address (Ptr) or as a struct-of-pointers record
// (Grid). Per spec.md §3, only Values may appear inside Structs, as Grid
// elements, or as return types — References are never nested inside
// another Reference.
type Reference interface {
	Type
	isReference()
}

// Ptr is a pointer to a single Value cell.
type Ptr struct {
	Element Value
}

func (*Ptr) isType()      {}
func (*Ptr) isReference() {}

func (p *Ptr) String() string { return fmt.Sprintf("*%s", p.Element) }

// Grid is a reference to a D-dimensional array of Value elements, carrying
// its own time history and boundary mask at runtime (see package grid).
// Dimension is a compile-time constant, always >= 1.
type Grid struct {
	Element   Value
	Dimension int
}

func (*Grid) isType()      {}
func (*Grid) isReference() {}

func (g *Grid) String() string {
	return fmt.Sprintf("Grid%d[%s]", g.Dimension, g.Element)
}
