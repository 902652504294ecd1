package typing

import "fmt"

// Abbreviation returns a stable, deterministic, collision-free short name
// for t, used to build emitted C identifiers (struct tags, grid accessor
// function names, generated type names). Equal types always produce equal
// abbreviations; distinct types never collide because each case embeds
// enough of the type's own identity (struct name, numeric width, element
// abbreviation) to stay unique.
func Abbreviation(t Type) string {
	switch v := t.(type) {
	case Void:
		return "v"
	case Bool:
		return "b"
	case Int:
		return fmt.Sprintf("i%d", v.WidthBits())
	case Float:
		return fmt.Sprintf("f%d", v.WidthBits())
	case *Struct:
		return "st" + v.Name
	case *Ptr:
		return "p" + Abbreviation(v.Element)
	case *Grid:
		return fmt.Sprintf("__Grid%dd_%s", v.Dimension, Abbreviation(v.Element))
	default:
		panic(fmt.Sprintf("typing: unreachable type case %T", t))
	}
}
