// Command sigvec is a small demo front end for the BuildCFG/GC-CFG/Codegen/
// VMEval pipeline: it builds a fixed declaration set into a package,
// collects it from a chosen entry point, disassembles the surviving code,
// and evaluates it against a sample buffer given on the command line.
//
// Grounded on the teacher's cmd/funxy entry point, minus the parts out of
// scope here: no REPL, no module loader, no golden-file harness.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/sigvec/sigvec/internal/ast"
	"github.com/sigvec/sigvec/internal/buildcfg"
	"github.com/sigvec/sigvec/internal/bytecode"
	"github.com/sigvec/sigvec/internal/cfg"
	"github.com/sigvec/sigvec/internal/codegen"
	"github.com/sigvec/sigvec/internal/config"
	"github.com/sigvec/sigvec/internal/gccfg"
	"github.com/sigvec/sigvec/internal/intrinsics"
	"github.com/sigvec/sigvec/internal/types"
	"github.com/sigvec/sigvec/internal/vmrun"
)

func main() {
	log.SetFlags(0)

	configPath := flag.String("config", "", "path to a sigvec.yaml; when unset, built-in defaults are used")
	entryFlag := flag.String("entry", "", "override the config/default entry point name")
	inputFlag := flag.String("input", "1,2,3,4", "comma-separated sample buffer fed to the entry point")
	traceFlag := flag.Bool("trace", false, "print a per-opcode step trace")
	flag.Parse()

	runID := uuid.New()

	var cfgv *config.RuntimeConfig
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("[%s] config: %v", runID, err)
		}
		cfgv = loaded
	} else {
		cfgv = &config.RuntimeConfig{
			Entry:       config.EntryFuncName,
			ParamShapes: []string{"vector"},
			ResultShape: "vector",
		}
	}
	if *entryFlag != "" {
		cfgv.Entry = *entryFlag
	}
	if *traceFlag {
		cfgv.Trace = true
	}

	input, err := parseInput(*inputFlag)
	if err != nil {
		log.Fatalf("[%s] input: %v", runID, err)
	}

	mainType := types.FunctionType{Result: resultType(cfgv.ResultShape), Params: paramTypes(cfgv.ParamShapes)}

	module := demoModule()
	pkg := cfg.NewPackage()
	intrinsics.Seed(pkg)

	g := buildcfg.NewGlobal(module, pkg)
	mainSym, err := g.Resolve(cfgv.Entry, mainType)
	if err != nil {
		log.Fatalf("[%s] BuildCFG: %v", runID, err)
	}

	removed, err := gccfg.Collect(pkg, mainSym)
	if err != nil {
		log.Fatalf("[%s] GC-CFG: %v", runID, err)
	}
	log.Printf("[%s] GC-CFG pruned %d unreachable monomorphic instance(s)", runID, len(removed))

	out, err := codegen.Generate(pkg)
	if err != nil {
		log.Fatalf("[%s] Codegen: %v", runID, err)
	}

	fmt.Print(renderDisassembly(out))

	var opts []vmrun.CallOption
	if cfgv.Trace {
		opts = append(opts, vmrun.WithTrace(func(e vmrun.TraceEvent) {
			log.Printf("[%s] step %-4d %-8s scalar=%d vector=%d", runID, e.InstPtr, e.Op, e.ScalarDepth, e.VectorDepth)
		}))
	}

	result, err := vmrun.Call(out, mainSym.Key(), input, opts...)
	if err != nil {
		log.Fatalf("[%s] VMEval: %v", runID, err)
	}
	log.Printf("[%s] result: %v", runID, []float32(result))
}

// parseInput splits a comma-separated list of floats into a vmrun.Data.
func parseInput(s string) (vmrun.Data, error) {
	fields := strings.Split(s, ",")
	out := make(vmrun.Data, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func resultType(shape string) types.Type {
	if shape == "scalar" {
		return types.F32
	}
	return types.Vector(types.F32)
}

func paramTypes(shapes []string) []types.Type {
	out := make([]types.Type, len(shapes))
	for i, s := range shapes {
		if s == "scalar" {
			out[i] = types.F32
		} else {
			out[i] = types.Vector(types.F32)
		}
	}
	return out
}

// demoModule is the fixed declaration set this command compiles: k is a
// nullary constant implicitly called wherever it appears, id is the
// identity function monomorphised fresh at every call site, and main adds
// the two together over its one vector parameter — spec.md §8 scenario 6
// plus the recursive-indirection shape of scenario 4.
func demoModule() *ast.Module {
	return &ast.Module{Declarations: []ast.Declaration{
		{Name: "k", Value: &ast.Scalar{Value: 1.0}},
		{Name: "id", ParamNames: []string{"x"}, Value: &ast.Identifier{Name: "x"}},
		{Name: "main", ParamNames: []string{"x"}, Value: &ast.Apply{
			Function: &ast.Identifier{Name: "+"},
			Params: []ast.Expr{
				&ast.Identifier{Name: "k"},
				&ast.Apply{Function: &ast.Identifier{Name: "id"}, Params: []ast.Expr{&ast.Identifier{Name: "x"}}},
			},
		}},
	}}
}

// renderDisassembly wraps bytecode.Disassemble with ANSI highlighting of
// label lines in one basic ANSI color when stdout is a real terminal,
// using the same isatty check the teacher's builtins_term.go uses.
func renderDisassembly(pkg *bytecode.Package) string {
	text := bytecode.Disassemble(pkg)
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return text
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, ".") {
			b.WriteString("\x1b[1;36m" + line + "\x1b[0m\n")
		} else if line != "" {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
