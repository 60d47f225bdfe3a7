package driver

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"os"

	"github.com/viant/afs"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/viant/treefuse/internal/synth"
)

// Plan is the writeback plan of spec.md §6: for one source file, the
// fused function definitions/stubs to add and the original call sites to
// replace with a single dispatch block.
type Plan struct {
	Path string

	Generated []*synth.Generated
	Stubs     []synth.Stub

	// EnclosingFunc is the name of the function whose body contained the
	// fused candidate's call sites; the dispatch block is inserted just
	// before that function's closing brace.
	EnclosingFunc string

	// CallSites are the byte offsets, within the original source, of each
	// original call statement being replaced.
	CallSites []CallSiteOffset

	// DispatchCall is the replacement call spec.md §6 describes:
	// `if startDepth < maximumDepth { NAME_parallel(...) } else { NAME_serial(...) }`.
	DispatchCall string
}

// CallSiteOffset locates one original call statement to comment out.
type CallSiteOffset struct {
	Start, End token.Pos
}

// Commit applies plan to the file at plan.Path: original call sites are
// commented out, the dispatch call is inserted at the end of the enclosing
// function, definitions of every generated function (plus virtual dispatch
// stubs) are appended at the end of the file, and the context/fanout
// imports are added if the assembled text references fanout. The result is
// run through go/format and written via afs; if formatting fails, the
// unformatted text is still written and an ErrUnsupportedShape error is
// returned (spec.md §6's outputs, grounded on inspector/coder.Coder's
// afs-backed writeback role).
func Commit(ctx context.Context, fs afs.Service, plan Plan) error {
	raw, err := fs.DownloadWithURL(ctx, plan.Path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrInputCompile, plan.Path, err)
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, plan.Path, raw, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrInputCompile, plan.Path, err)
	}

	out := commentOutCallSites(fset, raw, plan.CallSites)
	out = insertDispatchCall(out, plan.EnclosingFunc, plan.DispatchCall)
	out = appendGenerated(out, plan)

	if needsFanout(out) {
		astutil.AddImport(fset, file, "context")
		astutil.AddImport(fset, file, "github.com/viant/treefuse/pkg/fanout")
		var buf bytes.Buffer
		if err := format.Node(&buf, fset, file); err == nil {
			out = mergeImportBlock(buf.Bytes(), out)
		}
	}

	formatted, err := format.Source(out)
	if err != nil {
		// Best-effort: still write the unformatted source rather than
		// silently dropping the plan, but surface the shape problem.
		formatted = out
		err = fmt.Errorf("%w: %v", ErrUnsupportedShape, err)
	}

	if uploadErr := fs.Upload(ctx, plan.Path, os.FileMode(0644), bytes.NewReader(formatted)); uploadErr != nil {
		return fmt.Errorf("writing %s: %w", plan.Path, uploadErr)
	}
	return err
}

// commentOutCallSites replaces each original call statement's byte range
// with a `//`-prefixed copy, leaving everything else untouched.
func commentOutCallSites(fset *token.FileSet, src []byte, sites []CallSiteOffset) []byte {
	type span struct{ start, end int }
	var spans []span
	for _, s := range sites {
		f := fset.File(s.Start)
		if f == nil {
			continue
		}
		spans = append(spans, span{f.Offset(s.Start), f.Offset(s.End)})
	}

	var buf bytes.Buffer
	prev := 0
	for _, sp := range spans {
		buf.Write(src[prev:sp.start])
		buf.WriteString("// ")
		buf.Write(bytes.ReplaceAll(src[sp.start:sp.end], []byte("\n"), []byte("\n// ")))
		prev = sp.end
	}
	buf.Write(src[prev:])
	return buf.Bytes()
}

// insertDispatchCall appends the replacement dispatch call right before
// enclosingFunc's own closing brace, found by counting brace depth from the
// function's opening `{` rather than taking the first `}` encountered
// (which would land inside the first nested `if`/`for` block instead of at
// the end of the function).
func insertDispatchCall(src []byte, enclosingFunc, dispatch string) []byte {
	marker := []byte("func " + enclosingFunc)
	idx := bytes.Index(src, marker)
	if idx < 0 {
		return src
	}
	open := bytes.IndexByte(src[idx:], '{')
	if open < 0 {
		return src
	}
	bodyStart := idx + open
	insertAt := matchingBrace(src, bodyStart)
	if insertAt < 0 {
		return src
	}
	var buf bytes.Buffer
	buf.Write(src[:insertAt])
	buf.WriteString("\n\t")
	buf.WriteString(dispatch)
	buf.WriteString("\n")
	buf.Write(src[insertAt:])
	return buf.Bytes()
}

// matchingBrace returns the byte offset of the `}` that closes the `{`
// found at openAt, tracking nesting depth so inner blocks don't fool it.
// Returns -1 if the input is unbalanced.
func matchingBrace(src []byte, openAt int) int {
	depth := 0
	for i := openAt; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// appendGenerated renders every fused function variant and virtual stub in
// plan and appends their source text at the end of the file.
func appendGenerated(src []byte, plan Plan) []byte {
	var buf bytes.Buffer
	buf.Write(src)
	for _, g := range plan.Generated {
		for _, variant := range []synth.Function{g.Parallel, g.Serial} {
			text, err := synth.Render(variant)
			if err != nil {
				text = fmt.Sprintf("// treefuse: %s failed to render cleanly: %v\n%s", variant.Name, err, text)
			}
			buf.WriteString("\n")
			buf.WriteString(text)
		}
	}
	for _, s := range plan.Stubs {
		buf.WriteString("\n")
		buf.WriteString(synth.RenderStub(s))
	}
	return buf.Bytes()
}

// needsFanout reports whether the assembled source actually references the
// fanout package (a spawn/join or a depth-gate check in some nested fused
// function); importing it unconditionally whenever any function was
// generated would leave an unused import when nothing fuses in parallel.
func needsFanout(assembled []byte) bool {
	return bytes.Contains(assembled, []byte("fanout."))
}

// mergeImportBlock folds the context/fanout imports into the spliced source
// by text: whichever of the two import paths the spliced text does not
// already mention is inserted just before the `)` that closes its first
// `import (` block. The spliced text is returned unchanged when it has no
// parenthesized import block. reprinted is not consulted.
func mergeImportBlock(reprinted, spliced []byte) []byte {
	missing := make([]string, 0, 2)
	if !bytes.Contains(spliced, []byte(`"context"`)) {
		missing = append(missing, `"context"`)
	}
	if !bytes.Contains(spliced, []byte(`"github.com/viant/treefuse/pkg/fanout"`)) {
		missing = append(missing, `"github.com/viant/treefuse/pkg/fanout"`)
	}
	if len(missing) == 0 {
		return spliced
	}

	importIdx := bytes.Index(spliced, []byte("import ("))
	if importIdx < 0 {
		return spliced
	}
	closeIdx := bytes.Index(spliced[importIdx:], []byte(")"))
	if closeIdx < 0 {
		return spliced
	}
	insertAt := importIdx + closeIdx
	var buf bytes.Buffer
	buf.Write(spliced[:insertAt])
	for _, imp := range missing {
		buf.WriteString("\t" + imp + "\n")
	}
	buf.Write(spliced[insertAt:])
	_ = reprinted // kept for future use; re-printing the whole file is a larger rewrite than necessary for import-only edits
	return buf.Bytes()
}
