package driver

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// FastScan is a tree-sitter pre-scan over one source file's bytes: it
// shortlists files worth the cost of full go/parser analysis by checking
// whether the syntax tree contains at least one method declaration, of any
// receiver kind. A file whose traversals are all free functions is skipped
// (grounded on inspector/golang/inspector_tree_sitter.go's
// identical "alternate fast inspector" role; spec.md leaves the compilation
// database's file-selection mechanics unspecified).
func FastScan(ctx context.Context, src []byte) (bool, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return false, err
	}
	defer tree.Close()

	root := tree.RootNode()
	return hasMethodDecl(root), nil
}

func hasMethodDecl(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if n.Type() == "method_declaration" {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if hasMethodDecl(n.Child(i)) {
			return true
		}
	}
	return false
}
