package driver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// ResolveModulePath reads moduleRoot/go.mod and returns the module's import
// path, needed to name generated packages and stub receivers correctly
// (grounded on inspector/repository/detector.go's identical
// afs.DownloadWithURL + modfile.Parse use).
func ResolveModulePath(ctx context.Context, fs afs.Service, moduleRoot string) (string, error) {
	goModPath := filepath.Join(moduleRoot, "go.mod")
	content, err := fs.DownloadWithURL(ctx, goModPath)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrInputCompile, goModPath, err)
	}
	mod, err := modfile.Parse(goModPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("%w: parsing %s: %v", ErrInputCompile, goModPath, err)
	}
	return mod.Module.Mod.Path, nil
}
