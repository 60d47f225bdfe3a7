package synth

import (
	"bytes"
	"fmt"
	"go/format"
	"go/printer"
	"go/token"
	"strings"
)

// Render assembles fn's IR into formatted Go source text for a single
// top-level function declaration. Raw leaves are printed with go/printer
// against a private FileSet (their positions are meaningless across files,
// so a fresh set per render is correct); the assembled text is then run
// through go/format.Source, the realized "AST-printing helper" black box
// spec.md §4.8/§9 names, rather than hand-formatted.
func Render(fn Function) (string, error) {
	isParallel := len(fn.Extra) > 0

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "func %s(%s) {\n", fn.Name, signature(fn))
	if isParallel && hasSpawn(fn.Body) {
		buf.WriteString("\tfg, _ := fanout.New(context.Background(), 0)\n")
	}
	if err := renderBlock(&buf, fn.Body, 1, isParallel); err != nil {
		return "", fmt.Errorf("rendering %s: %w", fn.Name, err)
	}
	buf.WriteString("}\n")

	out, err := format.Source(buf.Bytes())
	if err != nil {
		// Fall back to the unformatted text: callers (driver writeback)
		// still want the best-effort source rather than nothing, but log
		// the formatting failure as an ErrUnsupportedShape condition.
		return buf.String(), fmt.Errorf("%w: %v", ErrUnsupportedShape, err)
	}
	return string(out), nil
}

func signature(fn Function) string {
	var parts []string
	parts = append(parts, fn.Receiver.Name+" "+fn.Receiver.Type)
	for _, p := range fn.Params {
		parts = append(parts, p.Name+" "+p.Type)
	}
	parts = append(parts, "truncateFlags uint")
	for _, p := range fn.Extra {
		parts = append(parts, p.Name+" "+p.Type)
	}
	return strings.Join(parts, ", ")
}

// hasSpawn reports whether body forks any sibling call: layers are emitted
// flat (KindSpawn/KindSync never nest inside KindGuard), so a top-level scan
// is enough to decide whether the parallel variant needs an `fg` group.
func hasSpawn(body []Stmt) bool {
	for _, s := range body {
		if s.Kind == KindSpawn {
			return true
		}
	}
	return false
}

func renderBlock(buf *bytes.Buffer, stmts []Stmt, indent int, isParallel bool) error {
	pad := strings.Repeat("\t", indent)
	fset := token.NewFileSet()
	for _, s := range stmts {
		switch s.Kind {
		case KindRaw:
			buf.WriteString(pad)
			if err := printer.Fprint(buf, fset, s.Raw); err != nil {
				return err
			}
			buf.WriteString("\n")

		case KindVarDecl:
			fmt.Fprintf(buf, "%svar %s %s\n", pad, s.VarName, s.VarType)

		case KindGuard:
			fmt.Fprintf(buf, "%sif truncateFlags&(1<<%d) != 0 {\n", pad, s.GuardBit)
			if err := renderBlock(buf, s.Body, indent+1, isParallel); err != nil {
				return err
			}
			fmt.Fprintf(buf, "%s}\n", pad)

		case KindCondGuard:
			fmt.Fprintf(buf, "%sif %s {\n", pad, s.Cond)
			if err := renderBlock(buf, s.Body, indent+1, isParallel); err != nil {
				return err
			}
			fmt.Fprintf(buf, "%s}\n", pad)

		case KindClearBit:
			fmt.Fprintf(buf, "%struncateFlags &^= 1 << %d\n", pad, s.GuardBit)

		case KindCallGuarded:
			fmt.Fprintf(buf, "%sif %s != 0 {\n", pad, s.ActivityMask)
			fmt.Fprintf(buf, "%s\t%s\n", pad, s.CallExpr)
			fmt.Fprintf(buf, "%s}\n", pad)

		case KindSpawn:
			// The serial variant shares the same IR body but never forks:
			// a spawn there is just the call, run in place.
			if !isParallel {
				fmt.Fprintf(buf, "%s%s\n", pad, s.CallExpr)
				continue
			}
			fmt.Fprintf(buf, "%sfg.Go(func() error { %s; return nil })\n", pad, s.CallExpr)

		case KindSync:
			if !isParallel {
				continue
			}
			fmt.Fprintf(buf, "%sif err := fg.Wait(); err != nil {\n%s\treturn\n%s}\n", pad, pad, pad)

		case KindReturn:
			fmt.Fprintf(buf, "%sreturn\n", pad)

		case KindText:
			fmt.Fprintf(buf, "%s%s\n", pad, s.Text)

		default:
			return fmt.Errorf("%w: unknown IR statement kind %d", ErrUnsupportedShape, s.Kind)
		}
	}
	return nil
}
