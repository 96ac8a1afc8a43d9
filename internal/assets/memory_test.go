package assets

import (
	"context"
	"errors"
	"testing"

	"limscore/pkg/domain"
)

func TestMemoryAddOpenExists(t *testing.T) {
	m := NewMemory()
	m.Add("cert.pdf", []byte("payload"))
	ctx := context.Background()

	ok, err := m.Exists(ctx, "cert.pdf")
	if err != nil || !ok {
		t.Fatalf("expected cert.pdf to exist, got ok=%v err=%v", ok, err)
	}
	data, err := m.Open(ctx, "cert.pdf")
	if err != nil || string(data) != "payload" {
		t.Fatalf("open: %q %v", data, err)
	}

	_, err = m.Open(ctx, "missing")
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if m.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", m.Driver())
	}
}

func TestMemoryCopiesOnAddAndOpen(t *testing.T) {
	m := NewMemory()
	original := []byte("abc")
	m.Add("f.txt", original)
	original[0] = 'z'

	got, err := m.Open(context.Background(), "f.txt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("expected stored copy to be unaffected, got %q", got)
	}
	got[1] = 'z'
	again, _ := m.Open(context.Background(), "f.txt")
	if string(again) != "abc" {
		t.Fatalf("expected reads to be isolated, got %q", again)
	}
}
