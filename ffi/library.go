package ffi

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/xgrid-go/xgrid/ir"
	"github.com/xgrid-go/xgrid/typing"
)

// Library is a loaded shared object. dlopen is reference-counted by the
// platform loader, but rebinding the same path repeatedly is wasted work,
// so libraries are opened at most once per process via openLibrary.
//
// Grounded on xgrid/util/ffi.py (original_source)'s Library class, whose
// constructor wraps ctypes.cdll.LoadLibrary; purego.Dlopen/Dlsym are this
// port's equivalent of ctypes' dynamic loader, since Go has no cgo-free
// standard-library dlopen.
type Library struct {
	path   string
	handle uintptr
}

var (
	libraryCacheMu sync.Mutex
	libraryCache   = make(map[string]*Library)
)

// openLibrary returns the cached Library for path, dlopen'ing it on first
// use.
func openLibrary(path string) (*Library, error) {
	libraryCacheMu.Lock()
	defer libraryCacheMu.Unlock()

	if lib, ok := libraryCache[path]; ok {
		return lib, nil
	}
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, &LinkError{Library: path, Reason: err.Error()}
	}
	lib := &Library{path: path, handle: handle}
	libraryCache[path] = lib
	return lib, nil
}

// Bind resolves entryPoint in the library and returns a reflect-callable
// wrapping the foreign function, its argument and return types built from
// sig via typing.GoType/typing.ReferenceGoType — the same width-tagged
// mapping typing.Marshal and typing.Demarshal use on the calling side.
//
// Grounded on xgrid/util/ffi.py's Library.__getattr__, which sets
// argtypes/restype from the operator's declared signature and returns a
// bound callable; ctypes' CFUNCTYPE has no Go equivalent, so this port
// builds a function type at runtime with reflect.FuncOf and binds it with
// purego.RegisterFunc instead.
func (l *Library) Bind(entryPoint string, sig ir.Signature) (func([]reflect.Value) []reflect.Value, error) {
	symbol, err := purego.Dlsym(l.handle, entryPoint)
	if err != nil {
		return nil, &LinkError{Library: l.path, Symbol: entryPoint, Reason: err.Error()}
	}

	in := make([]reflect.Type, len(sig.Args))
	for i, a := range sig.Args {
		in[i] = slotGoType(a.Type)
	}
	var out []reflect.Type
	if _, void := sig.ReturnType.(typing.Void); !void {
		out = []reflect.Type{slotGoType(sig.ReturnType)}
	}
	funcType := reflect.FuncOf(in, out, false)

	fnPtr := reflect.New(funcType)
	purego.RegisterFunc(fnPtr.Interface(), symbol)
	fn := fnPtr.Elem()

	return func(args []reflect.Value) []reflect.Value {
		return fn.Call(args)
	}, nil
}

// slotGoType maps one Signature slot — a Value passed by width-tagged copy
// or a Reference passed as a pointer/record — to the reflect.Type used to
// build the foreign function's Go-side prototype.
func slotGoType(t typing.Type) reflect.Type {
	switch v := t.(type) {
	case typing.Reference:
		return typing.ReferenceGoType(v)
	case typing.Value:
		return typing.GoType(v)
	default:
		panic(fmt.Sprintf("ffi: signature slot %s has no foreign representation", t))
	}
}
