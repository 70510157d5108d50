// Package yunic drives the full compiler pipeline end to end: lexing,
// parsing, monomorphization, semantic analysis, and SSA-IR codegen,
// accumulating every stage's diagnostics into one Bag in pipeline order.
package yunic

import (
	"fmt"
	"time"

	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/codegen"
	"github.com/dekarrin/yunic/internal/config"
	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/ir"
	"github.com/dekarrin/yunic/internal/lexer"
	"github.com/dekarrin/yunic/internal/mono"
	"github.com/dekarrin/yunic/internal/parser"
	"github.com/dekarrin/yunic/internal/sema"
	"github.com/dekarrin/yunic/internal/util"
)

// Result is the outcome of one Compile call: the fully-lowered module (nil
// if any stage reported an error) plus every diagnostic recorded.
type Result struct {
	Module *ir.Module
	Bag    *diag.Bag

	// RunID correlates this compilation's monomorphizer instantiations in
	// logs, when generics were present.
	RunID mono.RunID
}

// Compile runs source through every pipeline stage in order, stopping
// before codegen if an earlier stage already recorded an error (running
// codegen over a tree with unresolved names or untyped expressions would
// only produce confusing secondary diagnostics).
func Compile(source string, cfg config.Profile) Result {
	bag := &diag.Bag{}
	start := time.Now()

	toks := lexer.New(source, bag).Tokens()
	util.Logf("lex: %d tokens in %s", len(toks), time.Since(start))
	if bag.HasStage(diag.StageLex) {
		return Result{Bag: bag}
	}

	file := parser.New(toks, bag).Parse()
	if bag.HasStage(diag.StageParse) {
		return Result{Bag: bag}
	}

	monoStart := time.Now()
	monoResult := mono.Monomorphize(file)
	util.Logf("mono: %d generic item(s) instantiated in %s", len(monoResult.Instantiated), time.Since(monoStart))

	file = stripGenericTemplates(monoResult.File)

	semaStart := time.Now()
	analyzer := sema.New(bag)
	analyzer.Analyze(file)
	util.Logf("sema: %d diagnostic(s) in %s", bag.Len(), time.Since(semaStart))
	if bag.HasStage(diag.StageAnalysis) {
		return Result{Bag: bag, RunID: monoResult.RunID}
	}

	codegenStart := time.Now()
	mod := codegen.New(analyzer.Registry()).Lower(file)
	util.Logf("codegen: %d function(s) lowered in %s", len(mod.Functions), time.Since(codegenStart))

	if !cfg.Opt.TailCallOnly {
		for _, fn := range mod.Functions {
			for _, blk := range fn.Blocks {
				for i, in := range blk.Instrs {
					if call, ok := in.(ir.Call); ok {
						call.Tail = false
						blk.Instrs[i] = call
					}
				}
			}
		}
	}

	if cfg.Opt.FoldConstants {
		codegen.FoldConstants(mod)
	}

	return Result{Module: mod, Bag: bag, RunID: monoResult.RunID}
}

// stripGenericTemplates drops the original generic item templates from a
// monomorphized file, leaving only their concrete instantiations: codegen
// has no notion of a type parameter and would otherwise have to skip them
// itself at every call site.
func stripGenericTemplates(f *ast.File) *ast.File {
	out := &ast.File{Package: f.Package, PackageSpan: f.PackageSpan, Imports: f.Imports}
	for _, it := range f.Items {
		if mono.IsGenericItem(it) {
			continue
		}
		out.Items = append(out.Items, it)
	}
	return out
}

// Summary renders a one-line human report of a Result, suitable for CLI
// and HTTP-service responses alike.
func Summary(r Result) string {
	if r.Module == nil {
		return fmt.Sprintf("%d error(s)", r.Bag.Len())
	}
	return fmt.Sprintf("%d function(s), %d global(s), %d diagnostic(s)",
		len(r.Module.Functions), len(r.Module.Globals), r.Bag.Len())
}
