// Package assets provides the attachment sources an import run reads files
// from. Sources look up files by exact name only; extension probing is
// layered on top by the import engine.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"limscore/pkg/domain"
)

// Driver names for the built-in asset sources.
const (
	DriverFS     = "fs"
	DriverMemory = "memory"
	DriverS3     = "s3"
)

var _ domain.AssetSource = (*Dir)(nil)

// Dir serves assets from a local directory. Names are relative paths under
// the root; traversal outside the root is rejected.
type Dir struct {
	root string
}

// NewDir returns a directory-backed asset source rooted at path. The
// directory must already exist; a missing root is a configuration error, not
// a recoverable lookup miss.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		root = "./assets"
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset dir %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset dir %s: not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Driver returns the asset driver identifier.
func (d *Dir) Driver() string { return DriverFS }

// Root returns the directory the source reads from.
func (d *Dir) Root() string { return d.root }

// sanitizeName forbids traversal and absolute paths so names stay inside root.
func sanitizeName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty asset name")
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid asset name contains '..'")
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid absolute asset name")
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid asset name traversal")
	}
	return clean, nil
}

// Open returns the contents of the named file.
func (d *Dir) Open(_ context.Context, name string) ([]byte, error) {
	clean, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound{Key: name}
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Exists reports whether the named file is present under the root.
func (d *Dir) Exists(_ context.Context, name string) (bool, error) {
	clean, err := sanitizeName(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(filepath.Join(d.root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}
