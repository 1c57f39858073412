package memory

import (
	"context"
	"errors"
	"io"
	"shipfin/internal/blob/core"
	"strings"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver")
	}
	meta := map[string]string{"entries": "2"}
	if _, err := s.Put(ctx, "audit/b.jsonl", strings.NewReader("b"), core.PutOptions{Metadata: meta}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["entries"] = "mutated"
	if _, err := s.Put(ctx, "audit/a.jsonl", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "other/c.jsonl", strings.NewReader("c"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "audit/a.jsonl", strings.NewReader("dup"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	list, _ := s.List(ctx, "audit/")
	if len(list) != 2 || list[0].Key != "audit/a.jsonl" || list[1].Key != "audit/b.jsonl" {
		t.Fatalf("expected sorted prefix listing, got %+v", list)
	}
	info, rc, err := s.Get(ctx, "audit/b.jsonl")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "b" || info.Metadata["entries"] != "2" {
		t.Fatalf("unexpected blob %q %+v", b, info)
	}
	if ok, _ := s.Delete(ctx, "audit/b.jsonl"); !ok {
		t.Fatalf("expected delete to report existing")
	}
	if ok, _ := s.Delete(ctx, "audit/b.jsonl"); ok {
		t.Fatalf("expected second delete to report missing")
	}
	if _, _, err := s.Get(ctx, "audit/b.jsonl"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
