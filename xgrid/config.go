package xgrid

import (
	"fmt"

	"github.com/xgrid-go/xgrid/codegen"
)

// Overstep selects the grid accessor's out-of-range behavior, the
// user-facing spelling of codegen.OverstepPolicy (spec.md §6's
// configuration surface).
type Overstep int

const (
	OverstepNone Overstep = iota
	OverstepLimit
	OverstepWrap
)

func (o Overstep) codegen() codegen.OverstepPolicy {
	switch o {
	case OverstepLimit:
		return codegen.OverstepLimit
	case OverstepWrap:
		return codegen.OverstepWrap
	default:
		return codegen.OverstepNone
	}
}

// Precision selects the float width a kernel parses with when its source
// leaves a literal's width ambiguous (spec.md §6: "float"/"double").
type Precision int

const (
	PrecisionFloat32 Precision = iota
	PrecisionFloat64
)

// FloatSize is the original's `Configuration.fsize` property: 4 for
// "float", 8 for "double".
func (p Precision) FloatSize() int {
	if p == PrecisionFloat64 {
		return 8
	}
	return 4
}

// Config is the configuration surface spec.md §6 names, ported field for
// field from xgrid/util/init.py (original_source)'s Configuration
// dataclass.
type Config struct {
	Parallel  bool
	CC        []string
	CacheRoot string
	Comment   bool
	Overstep  Overstep
	OptLevel  int // 0-3
	Precision Precision
}

// DefaultConfig mirrors xgrid/util/init.py's init() keyword defaults.
func DefaultConfig() *Config {
	return &Config{
		Parallel:  true,
		CC:        []string{"gcc", "clang"},
		CacheRoot: ".xgrid",
		Comment:   false,
		Overstep:  OverstepNone,
		OptLevel:  2,
		Precision: PrecisionFloat32,
	}
}

// CFlags is the original's `Configuration.cflags` property: -fopenmp when
// parallel, -O{opt_level}, -lm always.
func (c *Config) CFlags() []string {
	var flags []string
	if c.Parallel {
		flags = append(flags, "-fopenmp")
	}
	flags = append(flags, fmt.Sprintf("-O%d", c.OptLevel))
	flags = append(flags, "-lm")
	return flags
}

// FloatSize is the original's `Configuration.fsize` property.
func (c *Config) FloatSize() int { return c.Precision.FloatSize() }

func (c *Config) codegenOptions() codegen.Options {
	return codegen.Options{
		Parallel: c.Parallel,
		Overstep: c.Overstep.codegen(),
		Comment:  c.Comment,
	}
}
