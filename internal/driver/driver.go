package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"

	"github.com/viant/treefuse/internal/analysis"
	"github.com/viant/treefuse/internal/config"
	"github.com/viant/treefuse/internal/model"
	"github.com/viant/treefuse/internal/pathspace"
	"github.com/viant/treefuse/internal/scheduler"
	"github.com/viant/treefuse/internal/synth"
)

// initialDepth/maxDepth alias synth's canonical replacement-call constants
// (spec.md §4.8's "Replacement": `depth=0, maxDepth=1024`) so the driver's
// own dispatch calls and the synthesizer's virtual stubs never drift apart.
const (
	initialDepth = synth.DefaultDepth
	maxDepth     = synth.DefaultMaxDepth
)

// Driver runs one end-to-end pass over a translation unit: parse, analyze,
// find candidates, schedule, synthesize, and (unless DryRun) commit the
// writeback plan (spec.md §2/§6).
type Driver struct {
	FS     afs.Service
	Config *config.Config
	Log    *logrus.Entry

	DryRun bool
}

// New builds a Driver with defaults filled in for any nil dependency.
func New(fs afs.Service, cfg *config.Config, log *logrus.Entry) *Driver {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Driver{FS: fs, Config: cfg, Log: log}
}

// Result summarizes one file's run for the CLI/tests.
type Result struct {
	Path       string
	Candidates int
	Fused      int
	Skipped    int
}

// Run processes every source file in order: parse, analyze records and
// functions, find candidates per function, schedule and synthesize each,
// and commit (or, under DryRun, only log) the resulting writeback plan.
func (d *Driver) Run(ctx context.Context, sources []string) ([]Result, error) {
	var results []Result
	for _, path := range sources {
		res, err := d.runFile(ctx, path)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Driver) runFile(ctx context.Context, path string) (Result, error) {
	res := Result{Path: path}

	raw, err := d.FS.DownloadWithURL(ctx, path)
	if err != nil {
		return res, fmt.Errorf("%w: reading %s: %v", ErrInputCompile, path, err)
	}

	if worth, err := FastScan(ctx, raw); err == nil && !worth {
		d.Log.Debugf("skipping %s: no method declarations found by the fast pre-scan", path)
		return res, nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, raw, parser.ParseComments)
	if err != nil {
		return res, fmt.Errorf("%w: parsing %s: %v", ErrInputCompile, path, err)
	}

	recordLog := d.Log.WithField("component", "record_analyzer")
	records, ifaces := analysis.NewRecordAnalyzer(recordLog).Analyze(file)

	globals := collectGlobals(file)

	fnLog := d.Log.WithField("component", "function_analyzer")
	fnAnalyzer := analysis.NewFunctionAnalyzer(fnLog, records, globals)

	var functions []*model.Function
	ast.Inspect(file, func(n ast.Node) bool {
		if fd, ok := n.(*ast.FuncDecl); ok {
			if fn := fnAnalyzer.Analyze(fd); fn != nil {
				functions = append(functions, fn)
			}
		}
		return true
	})

	table := pathspace.NewSymbolTable()
	info := analysis.NewStatementInfo(table, functions)

	finder := analysis.NewCandidateFinder(functions)
	limits := scheduler.Limits{MaxMergedNodes: d.Config.MaxMergedNodes, MaxMergedInstances: d.Config.MaxMergedInstances}
	namer := synth.NewNamer()
	synthLog := d.Log.WithField("component", "synth")
	sy := synth.New(functions, records, info, limits, namer, synthLog)

	_ = ifaces // unused: no per-subtype virtual dispatch stubs are generated, so Plan.Stubs stays empty

	for _, fn := range functions {
		candidates := finder.Find(fn)
		res.Candidates += len(candidates)
		for _, c := range candidates {
			if !allValid(c, fnByName(functions)) {
				res.Skipped++
				continue
			}
			if d.Config.Heuristic == config.SolelyParallel {
				d.Log.Debugf("solely-parallel heuristic requested for candidate in %s; the synthesizer still schedules it with the greedy scheduler", fn.Name)
			}
			gen, nested, err := sy.Synthesize(c)
			if err != nil {
				if errors.Is(err, ErrPlannerInvariant) {
					return res, err
				}
				d.Log.WithError(err).Errorf("candidate in %s failed to synthesize", fn.Name)
				res.Skipped++
				continue
			}
			res.Fused++

			if d.DryRun {
				d.Log.WithFields(logrus.Fields{"path": path, "fn": fn.Name, "name": gen.Name}).Info("dry-run: would commit writeback plan")
				continue
			}

			plan := buildPlan(path, fn, c, gen, nested)
			if err := Commit(ctx, d.FS, plan); err != nil {
				return res, fmt.Errorf("committing %s in %s: %w", gen.Name, path, err)
			}
		}
	}

	return res, nil
}

// buildPlan assembles the writeback plan (spec.md §6) for one fused
// candidate: the original call statements become CallSites to comment out,
// replaced by a single dispatch block starting at depth 0 with the
// `(1<<N)-1` truncate-flags mask spec.md §4.8's "Replacement" specifies.
func buildPlan(path string, fn *model.Function, c analysis.Candidate, gen *synth.Generated, nested []*synth.Generated) Plan {
	sites := make([]CallSiteOffset, len(c.Statements))
	for i, s := range c.Statements {
		sites[i] = CallSiteOffset{Start: s.Node.Pos(), End: s.Node.End()}
	}

	truncateFlags := uint64(1)<<uint(len(c.Statements)) - 1
	dispatch := fmt.Sprintf(
		"if %d < %d { _r.%s(%s) } else { _r.%s(%s) }",
		initialDepth, maxDepth,
		gen.Parallel.Name, dispatchArgs(c, truncateFlags, true),
		gen.Serial.Name, dispatchArgs(c, truncateFlags, false),
	)

	return Plan{
		Path:          path,
		Generated:     append([]*synth.Generated{gen}, nested...),
		EnclosingFunc: fn.Name,
		CallSites:     sites,
		DispatchCall:  dispatch,
	}
}

// dispatchArgs renders the argument list for one of a Generated pair's
// variants at the replacement call site: every original call's own argument
// expressions, forwarded verbatim in candidate order (matching the `_fK_*`
// parameters calleeParams declared for the same callee), the truncate-flags
// mask, and (parallel only) the initial depth gate.
func dispatchArgs(c analysis.Candidate, truncateFlags uint64, parallel bool) string {
	args := "_r"
	for _, s := range c.Statements {
		for _, a := range callArgsText(s) {
			args += ", " + a
		}
	}
	args += fmt.Sprintf(", %d", truncateFlags)
	if parallel {
		args += fmt.Sprintf(", %d, %d", initialDepth, maxDepth)
	}
	return args
}

// callArgsText prints s's original call arguments back to source text, so
// the replacement dispatch call can forward the exact values the commented-
// out call site used.
func callArgsText(s *model.Statement) []string {
	exprStmt, ok := s.Node.(*ast.ExprStmt)
	if !ok {
		return nil
	}
	call, ok := exprStmt.X.(*ast.CallExpr)
	if !ok {
		return nil
	}
	fset := token.NewFileSet()
	out := make([]string, 0, len(call.Args))
	for _, arg := range call.Args {
		var buf bytes.Buffer
		if err := printer.Fprint(&buf, fset, arg); err == nil {
			out = append(out, buf.String())
		}
	}
	return out
}

func collectGlobals(file *ast.File) map[string]bool {
	globals := map[string]bool{}
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			continue
		}
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, name := range vs.Names {
				globals[name.Name] = true
			}
		}
	}
	return globals
}

func fnByName(functions []*model.Function) map[string]*model.Function {
	out := map[string]*model.Function{}
	for _, f := range functions {
		out[f.Name] = f
	}
	return out
}

func allValid(c analysis.Candidate, functions map[string]*model.Function) bool {
	for _, s := range c.Statements {
		fn, ok := functions[s.Callee]
		if !ok || !fn.ValidForFusion {
			return false
		}
	}
	return true
}
