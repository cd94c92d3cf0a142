// Command ssacdump is a debugging aid, not a driver: it takes one of a
// handful of built-in demo modules (see demos.go), runs it through the
// full optimization/codegen pipeline, and prints the resulting
// machine functions. A real frontend has no reason to shell out to
// this binary — it would construct its own *ir.Module and call
// pipeline.Pipeline.Run directly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kr/pretty"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/pipeline"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ssacapi"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr, os.Args[1:]))
}

// doMain is split out from main for the same reason wazero's cmd/wazero
// splits doMain from main: it lets tests drive the CLI without an
// os.Exit call ending the test process.
func doMain(stdout, stderr io.Writer, args []string) int {
	flags := flag.NewFlagSet("ssacdump", flag.ContinueOnError)
	flags.SetOutput(stderr)

	demoName := flags.String("demo", "diamond", fmt.Sprintf("demo module to run (%s)", demoNames()))
	var help bool
	flags.BoolVar(&help, "h", false, "Prints usage.")

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if help {
		printUsage(stderr, flags)
		return 0
	}

	build, ok := demos[*demoName]
	if !ok {
		fmt.Fprintf(stderr, "unknown demo %q (known: %s)\n", *demoName, demoNames())
		printUsage(stderr, flags)
		return 1
	}

	m := build()
	if err := ir.Validate(m); err != nil {
		fmt.Fprintf(stderr, "demo module %q failed validation: %v\n", *demoName, err)
		return 1
	}

	p := pipeline.New(pipeline.DefaultConfig)
	funcs, err := p.Run(m)
	if err != nil {
		fmt.Fprintf(stderr, "pipeline failed: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "build %s, demo %q, %d function(s)\n\n", m.BuildID, *demoName, len(funcs))
	for _, mf := range funcs {
		fmt.Fprintf(stdout, "=== %s ===\n", ssacapi.DescribeFrame(mf.Name, mf.StackSize, mf.Frame.SpillCount()))
		fmt.Fprintln(stdout, pretty.Sprint(mf))
	}
	return 0
}

func demoNames() string {
	names := make([]string, 0, len(demos))
	for n := range demos {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func printUsage(w io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(w, "ssacdump: run a built-in demo module through the compilation pipeline and print the result.")
	flags.PrintDefaults()
}
