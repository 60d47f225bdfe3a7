package synth

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/viant/treefuse/internal/analysis"
	"github.com/viant/treefuse/internal/depgraph"
	"github.com/viant/treefuse/internal/model"
	"github.com/viant/treefuse/internal/scheduler"
)

// Generated is the pair of function variants produced for one fused
// candidate (spec.md §4.8: "the synthesizer emits two function bodies
// sharing a body template").
type Generated struct {
	Name     string
	Parallel Function
	Serial   Function
}

// Synthesizer builds fused function IR for a scheduled candidate,
// recursively synthesizing nested fused functions for merge groups found
// deeper in the dependence graph ("for a merge group, the synthesizer
// recursively invokes perform_fusion on the constituent child calls").
type Synthesizer struct {
	functions map[string]*model.Function
	records   map[string]*model.Record
	builder   *depgraph.Builder
	limits    scheduler.Limits
	namer     *Namer
	log       *logrus.Entry

	cache map[string]*Generated // keyed by Namer.FuseName of the group's sorted callees
}

// New builds a Synthesizer sharing the translation unit's analyzed
// functions/records, dependence builder and scheduling caps.
func New(functions []*model.Function, records []*model.Record, info *analysis.StatementInfo, limits scheduler.Limits, namer *Namer, log *logrus.Entry) *Synthesizer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	fnByName := map[string]*model.Function{}
	for _, f := range functions {
		fnByName[f.Name] = f
	}
	recByName := map[string]*model.Record{}
	for _, r := range records {
		recByName[r.Name] = r
	}
	return &Synthesizer{
		functions: fnByName,
		records:   recByName,
		builder:   depgraph.NewBuilder(info),
		limits:    limits,
		namer:     namer,
		log:       log,
		cache:     map[string]*Generated{},
	}
}

// Synthesize is the top-level entry: it builds the dependence graph for
// candidate, greedily schedules it, lays it out in parallel layers, and
// emits the fused parallel/serial function pair plus (recursively) any
// nested fused functions the scheduler's merge groups require.
func (sy *Synthesizer) Synthesize(candidate analysis.Candidate) (*Generated, []*Generated, error) {
	callees := calleeNames(candidate.Statements)
	key := sy.namer.FuseName(callees)
	if g, ok := sy.cache[key]; ok {
		return g, nil, nil
	}

	g := sy.builder.Build(candidate, sy.functions)
	scheduler.New(sy.limits, sy.log).Run(g)
	if g.HasIllegalMerge() {
		return nil, nil, fmt.Errorf("%w: candidate %v", ErrPlannerInvariant, callees)
	}

	layers := scheduler.ParallelSchedule(g)

	// Cached before the body is emitted, so a nested merge group with this
	// same callee set (a self-recursive traversal) reuses this function.
	gen := &Generated{
		Name:     key,
		Parallel: sy.assembleFunction(ParallelVariant(key), candidate, nil, true),
		Serial:   sy.assembleFunction(SerialVariant(key), candidate, nil, false),
	}
	sy.cache[key] = gen

	var nested []*Generated
	body, nestedGenerated, err := sy.emitLayers(layers, len(candidate.Statements))
	if err != nil {
		delete(sy.cache, key)
		return nil, nil, err
	}
	for _, ng := range nestedGenerated {
		if ng != gen {
			nested = append(nested, ng)
		}
	}
	gen.Parallel.Body = body
	gen.Serial.Body = body
	return gen, nested, nil
}

// calleeParams flattens callee's own declared parameters (receiver/root
// argument dropped) into the fused function's signature, prefixed `_fK_` per
// spec.md §4.8's signature rule, so the generated body can forward them
// through to the merged call: `<params of each callee with prefix _fK_ and
// with the receiver-param dropped>`.
func calleeParams(callee *model.Function, idx int) []Param {
	if callee == nil || callee.Decl == nil || callee.Decl.Type.Params == nil {
		return nil
	}
	var out []Param
	n := 0
	for _, field := range callee.Decl.Type.Params.List {
		if callee.Decl.Recv == nil && len(field.Names) == 1 && field.Names[0].Name == callee.Receiver {
			continue // the traversal root parameter itself, not a real extra arg
		}
		typeText := exprText(field.Type)
		if len(field.Names) == 0 {
			out = append(out, Param{Name: fmt.Sprintf("_f%d_%d", idx, n), Type: typeText})
			n++
			continue
		}
		for _, name := range field.Names {
			out = append(out, Param{Name: fmt.Sprintf("_f%d_%s", idx, name.Name), Type: typeText})
			n++
		}
	}
	return out
}

func exprText(e ast.Expr) string {
	var buf bytes.Buffer
	_ = printer.Fprint(&buf, token.NewFileSet(), e)
	return buf.String()
}

func calleeNames(stmts []*model.Statement) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.Callee
	}
	return out
}

// assembleFunction wraps body (shared by both variants per spec.md §4.8)
// with the variant-specific signature: the parallel variant carries the
// depth/maxDepth extra parameters, the serial variant does not.
//
// The receiver type is the CALLEE's record type, not the candidate's own
// owning function's type: the fused body's flattened statements (renamed to
// "_r" by depgraph.Build) reference the node the callees themselves operate
// on, i.e. the called-child's type, which every participating callee shares
// since candidate_finder.compatible requires an identical called-child path.
func (sy *Synthesizer) assembleFunction(name string, candidate analysis.Candidate, body []Stmt, parallel bool) Function {
	recvType := candidate.Owner.RecvType
	if len(candidate.Statements) > 0 {
		if callee := sy.functions[candidate.Statements[0].Callee]; callee != nil {
			recvType = callee.RecvType
		}
	}
	fn := Function{
		Name:     name,
		Receiver: Param{Name: "_r", Type: "*" + recvType},
		Body:     body,
	}
	for i, call := range candidate.Statements {
		fn.Params = append(fn.Params, calleeParams(sy.functions[call.Callee], i)...)
	}
	if parallel {
		fn.Extra = []Param{{Name: "depth", Type: "int"}, {Name: "maxDepth", Type: "int"}}
	}
	return fn
}

// emitLayers walks the scheduled layers and produces the shared IR body,
// plus any nested Generated functions synthesized along the way for merge
// groups found inside call layers.
func (sy *Synthesizer) emitLayers(layers []scheduler.Layer, n int) ([]Stmt, []*Generated, error) {
	var body []Stmt
	var nested []*Generated

	for _, layer := range layers {
		if !layer.Parallel {
			for _, unit := range layer.Units {
				node := unit.Nodes[0]
				stmt, err := sy.emitNonCall(node)
				if err != nil {
					return nil, nil, err
				}
				body = append(body, stmt)
			}
			continue
		}

		stmts, gens, err := sy.emitParallelLayer(layer)
		if err != nil {
			return nil, nil, err
		}
		nested = append(nested, gens...)
		body = append(body, stmts...)
	}
	return body, nested, nil
}

// emitNonCall wraps a single non-call statement in its traversal's activity
// guard; a return statement instead clears that traversal's bit (spec.md
// §4.8's truncate-flag mechanism). When the statement was pulled out of a
// single-branch `if cond { ... }` by flattenStatements (n.Statement.GuardCond
// != nil — spec.md §8 scenario 4's early-exit guard), the original predicate
// is re-applied around it via KindCondGuard first, so it still only runs
// when the source `if` would have run it; a bare `return` inside that guard
// then clears only its own traversal's bit rather than returning out of the
// whole fused function.
func (sy *Synthesizer) emitNonCall(n *depgraph.Node) (Stmt, error) {
	bit := n.TraversalID
	var inner Stmt
	if _, isReturn := n.Statement.Node.(*ast.ReturnStmt); isReturn {
		inner = Stmt{Kind: KindClearBit, GuardBit: bit}
	} else {
		inner = Stmt{Kind: KindRaw, Raw: n.Statement.Node}
	}
	if n.Statement.GuardCond != nil {
		inner = Stmt{Kind: KindCondGuard, Cond: exprText(n.Statement.GuardCond), Body: []Stmt{inner}}
	}
	return Stmt{Kind: KindGuard, GuardBit: bit, Body: []Stmt{inner}}, nil
}

// emitParallelLayer emits one all-call layer: singleton units become a
// direct guarded call, merge-group units are recursively fused first. A
// layer with two or more units forks all-but-the-last via pkg/fanout, runs
// the last inline, and joins with a sync barrier at the layer's end,
// matching spec.md §4.8's "Parallel emission".
func (sy *Synthesizer) emitParallelLayer(layer scheduler.Layer) ([]Stmt, []*Generated, error) {
	var calls []Stmt
	var nested []*Generated

	for _, unit := range layer.Units {
		if len(unit.Nodes) == 1 {
			calls = append(calls, sy.emitSingleCall(unit.Nodes[0]))
			continue
		}
		stmt, gens, err := sy.emitMergedCall(unit.Nodes)
		if err != nil {
			return nil, nil, err
		}
		nested = append(nested, gens...)
		calls = append(calls, stmt)
	}

	if len(calls) < 2 {
		return calls, nested, nil
	}

	var out []Stmt
	for _, c := range calls[:len(calls)-1] {
		out = append(out, Stmt{Kind: KindSpawn, CallExpr: c.CallExpr})
	}
	out = append(out, calls[len(calls)-1])
	out = append(out, Stmt{Kind: KindSync})
	return out, nested, nil
}

// emitSingleCall renders an unfused nested call under its traversal's
// activity bit. The call is re-rendered by renderCallText rather than
// printed from the original statement, so its arguments are this
// traversal's `_fK_*` parameters.
func (sy *Synthesizer) emitSingleCall(n *depgraph.Node) Stmt {
	bit := n.TraversalID
	mask := fmt.Sprintf("truncateFlags&(1<<%d)", bit)
	return Stmt{Kind: KindCallGuarded, ActivityMask: mask, CallExpr: sy.renderCallText(n)}
}

// emitMergedCall recursively synthesizes a nested fused function for a
// merge group's member statements (each itself a call through the same
// called-child field from a distinct participating traversal), then emits
// a guarded call into its parallel/serial variant gated on depth, with the
// nested truncateFlags built via activity propagation: bit k of the inner
// mask equals bit travID_k of the outer mask (spec.md §4.8's
// AdjustedTruncateFlags).
func (sy *Synthesizer) emitMergedCall(nodes []*depgraph.Node) (Stmt, []*Generated, error) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].TraversalID < nodes[j].TraversalID })

	var stmts []*model.Statement
	var outerBits []int
	for _, n := range nodes {
		stmts = append(stmts, n.Statement)
		outerBits = append(outerBits, n.TraversalID)
	}
	owner := nodes[0].Statement.Owner
	sub := analysis.Candidate{Owner: owner, Statements: stmts}

	gen, nested, err := sy.Synthesize(sub)
	if err != nil {
		return Stmt{}, nil, err
	}

	innerMask := adjustedTruncateFlags(outerBits)
	outerMask := "0"
	for _, b := range outerBits {
		outerMask = fmt.Sprintf("%s|truncateFlags&(1<<%d)", outerMask, b)
	}

	callExpr := fmt.Sprintf(
		"if fanout.BelowLimit(depth, maxDepth) { _r.%s(%s) } else { _r.%s(%s) }",
		gen.Parallel.Name, callArgs(gen.Parallel, innerMask),
		gen.Serial.Name, callArgs(gen.Serial, innerMask),
	)

	return Stmt{Kind: KindCallGuarded, ActivityMask: outerMask, CallExpr: callExpr}, append([]*Generated{gen}, nested...), nil
}

// adjustedTruncateFlags builds the textual expression for the nested call's
// truncateFlags argument: outer bit travID shifted down to inner position k.
func adjustedTruncateFlags(outerBits []int) string {
	expr := "uint(0)"
	for k, outer := range outerBits {
		expr = fmt.Sprintf("%s|((truncateFlags>>%d)&1)<<%d", expr, outer, k)
	}
	return expr
}

func callArgs(fn Function, innerMask string) string {
	args := "_r"
	for _, p := range fn.Params {
		args += ", " + p.Name
	}
	args += ", " + innerMask
	if len(fn.Extra) > 0 {
		args += ", depth+1, maxDepth"
	}
	return args
}

// renderCallText emits an unfused method call on the statement's called-child
// path (`_r.<path>.Callee(...)`), forwarding the fused function's own
// `_fK_*` parameters for this traversal-id through to the original callee,
// matching whatever calleeParams declared for it.
func (sy *Synthesizer) renderCallText(n *depgraph.Node) string {
	params := calleeParams(sy.functions[n.Statement.Callee], n.TraversalID)
	args := make([]string, len(params))
	for i, p := range params {
		args[i] = p.Name
	}
	recv := strings.Join(append([]string{"_r"}, n.Statement.CalledChildPath...), ".")
	return fmt.Sprintf("%s.%s(%s)", recv, n.Statement.Callee, strings.Join(args, ", "))
}
