// Command xgridc reads one operator source file and either dumps its
// checked IR or its generated C translation, mirroring the teacher's
// flag-driven, extension-sniffing CLI (cmd/main.go) — minus the multi-
// language fan-out, since this compiler only ever targets C.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/xgrid-go/xgrid"
	"github.com/xgrid-go/xgrid/ffi"
)

func main() {
	modeFlag := flag.String("mode", "kernel", "operator mode to parse the input as (kernel, function, external)")
	dumpFlag := flag.String("dump", "c", "what to print: c (generated source) or ir (checked definition)")
	entryFlag := flag.String("entry", "", "override the generated C entry point name")
	outFlag := flag.String("out", "", "write output to this path instead of stdout")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		log.Fatal("usage: xgridc -mode=kernel -dump=c <input_file>")
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("reading %s: %v", args[0], err)
	}

	ctx := xgrid.NewContext(xgrid.DefaultConfig())

	kernel, err := defineOperator(ctx, *modeFlag, string(src), *entryFlag)
	if err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}

	var output string
	switch *dumpFlag {
	case "c":
		output, err = ctx.Source(kernel)
	case "ir":
		output = fmt.Sprintf("%+v\n", kernel.Def)
	default:
		log.Fatalf("unknown -dump value %q (want c or ir)", *dumpFlag)
	}
	if err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}

	if *outFlag == "" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(*outFlag, []byte(output), 0o644); err != nil {
		log.Fatalf("writing %s: %v", *outFlag, err)
	}
}

func defineOperator(ctx *xgrid.Context, mode, src, entryPoint string) (*ffi.Kernel, error) {
	switch mode {
	case "kernel":
		if entryPoint != "" {
			return ctx.Kernel(src, entryPoint)
		}
		return ctx.Kernel(src)
	case "function":
		return ctx.Function(src)
	case "external":
		return ctx.External(src)
	default:
		return nil, fmt.Errorf("unknown -mode value %q (want kernel, function or external)", mode)
	}
}
