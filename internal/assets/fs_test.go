package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"limscore/pkg/domain"
)

func newTestDir(t *testing.T, files map[string][]byte) *Dir {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	return d
}

func TestDirOpenAndExists(t *testing.T) {
	d := newTestDir(t, map[string][]byte{
		"cert.pdf":      []byte("%PDF-1.4"),
		"logos/lab.png": []byte{0x89, 'P', 'N', 'G'},
	})
	ctx := context.Background()

	ok, err := d.Exists(ctx, "cert.pdf")
	if err != nil || !ok {
		t.Fatalf("expected cert.pdf to exist, got ok=%v err=%v", ok, err)
	}
	ok, err = d.Exists(ctx, "missing.pdf")
	if err != nil || ok {
		t.Fatalf("expected missing.pdf to be absent, got ok=%v err=%v", ok, err)
	}
	data, err := d.Open(ctx, "logos/lab.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(data) != 4 || data[1] != 'P' {
		t.Fatalf("unexpected contents %v", data)
	}
}

func TestDirOpenMissingIsNotFound(t *testing.T) {
	d := newTestDir(t, nil)
	_, err := d.Open(context.Background(), "nope.pdf")
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) || nf.Key != "nope.pdf" {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestDirRejectsTraversal(t *testing.T) {
	d := newTestDir(t, nil)
	ctx := context.Background()
	if _, err := d.Open(ctx, "../escape.txt"); err == nil {
		t.Fatalf("expected traversal rejection")
	}
	if _, err := d.Exists(ctx, "/etc/passwd"); err == nil {
		t.Fatalf("expected absolute name rejection")
	}
	if _, err := d.Open(ctx, "  "); err == nil {
		t.Fatalf("expected empty name rejection")
	}
}

func TestDirExistsIgnoresDirectories(t *testing.T) {
	d := newTestDir(t, map[string][]byte{"logos/lab.png": []byte("x")})
	ok, err := d.Exists(context.Background(), "logos")
	if err != nil || ok {
		t.Fatalf("expected directory to not count as asset, got ok=%v err=%v", ok, err)
	}
}

func TestNewDirMissingRoot(t *testing.T) {
	if _, err := NewDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestNewDirRejectsFileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewDir(path); err == nil {
		t.Fatalf("expected error for non-directory root")
	}
}
