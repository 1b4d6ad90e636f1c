// Package blob removes product images. Removal is always best effort:
// callers report failures and carry on.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Remover deletes the object behind ref. A missing object is not an error.
type Remover interface {
	Remove(ctx context.Context, ref string) error
}

// Nop discards every removal.
type Nop struct{}

func (Nop) Remove(context.Context, string) error { return nil }

// ErrOutsideRoot is returned for refs that would escape the Dir root.
var ErrOutsideRoot = errors.New("blob: ref escapes root")

// Dir stores images as files below Root. A ref is a slash-separated path
// relative to Root, e.g. "products/abc.png".
type Dir struct {
	Root string
}

func (d Dir) Remove(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ref == "" {
		return nil
	}
	p, err := d.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blob: remove %q: %w", ref, err)
	}
	return nil
}

func (d Dir) path(ref string) (string, error) {
	root, err := filepath.Abs(d.Root)
	if err != nil {
		return "", err
	}
	p := filepath.Join(root, filepath.FromSlash(ref))
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return p, nil
}
