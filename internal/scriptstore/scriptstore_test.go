package scriptstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scenecore/pkg/scene"
)

// openStores returns every backend safe to exercise without external
// infrastructure.
func openStores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
	}
}

func TestWriteAndRead(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			code := "velocity = velocity + gravity * dt"
			written, err := store.Write(ctx, "physics/fall.lua", code, "")
			if err != nil {
				t.Fatal(err)
			}
			if written.Hash != scene.HashContent(code) {
				t.Fatalf("hash %q", written.Hash)
			}

			got, err := store.Read(ctx, "physics/fall.lua")
			if err != nil {
				t.Fatal(err)
			}
			if got.Code != code || got.Hash != written.Hash {
				t.Fatalf("read back %+v", got)
			}
		})
	}
}

func TestReadUnknownID(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Read(ctx, "nope.lua")
			var nf scene.NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if nf.Kind != "script" || nf.ID != "nope.lua" {
				t.Fatalf("detail wrong: %+v", nf)
			}
		})
	}
}

func TestConditionalWrite(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := store.Write(ctx, "tick.lua", "print('v1')", "")
			if err != nil {
				t.Fatal(err)
			}

			// Matching precondition succeeds.
			second, err := store.Write(ctx, "tick.lua", "print('v2')", first.Hash)
			if err != nil {
				t.Fatalf("matching hash refused: %v", err)
			}

			// Stale precondition surfaces a conflict and leaves the
			// stored content untouched.
			_, err = store.Write(ctx, "tick.lua", "print('v3')", first.Hash)
			var conflict scene.ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("expected ConflictError, got %v", err)
			}
			if conflict.Want != first.Hash || conflict.Got != second.Hash {
				t.Fatalf("conflict detail wrong: %+v", conflict)
			}
			got, err := store.Read(ctx, "tick.lua")
			if err != nil {
				t.Fatal(err)
			}
			if got.Code != "print('v2')" {
				t.Fatalf("conflicting write mutated store: %q", got.Code)
			}

			// Empty precondition always overwrites.
			if _, err := store.Write(ctx, "tick.lua", "print('v4')", ""); err != nil {
				t.Fatalf("unconditional overwrite failed: %v", err)
			}
		})
	}
}

func TestConditionalWriteOfNewScript(t *testing.T) {
	// A precondition against an id that does not exist yet is satisfied
	// vacuously so save flows can carry a hash unconditionally.
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Write(ctx, "new.lua", "x = 1", scene.HashContent("x = 1")); err != nil {
				t.Fatalf("write of new id refused: %v", err)
			}
		})
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Write(ctx, "gone.lua", "x", ""); err != nil {
				t.Fatal(err)
			}
			removed, err := store.Delete(ctx, "gone.lua")
			if err != nil || !removed {
				t.Fatalf("delete: removed=%v err=%v", removed, err)
			}
			removed, err = store.Delete(ctx, "gone.lua")
			if err != nil || removed {
				t.Fatalf("second delete: removed=%v err=%v", removed, err)
			}
			if _, err := store.Read(ctx, "gone.lua"); err == nil {
				t.Fatal("deleted script still readable")
			}
		})
	}
}

func TestListSorted(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"b.lua", "a.lua", "nested/c.lua"} {
				if _, err := store.Write(ctx, id, "x", ""); err != nil {
					t.Fatal(err)
				}
			}
			ids, err := store.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"a.lua", "b.lua", "nested/c.lua"}
			if len(ids) != len(want) {
				t.Fatalf("ids %v", ids)
			}
			for i := range want {
				if ids[i] != want[i] {
					t.Fatalf("ids %v, want %v", ids, want)
				}
			}
		})
	}
}

func TestFSRejectsEscapingIDs(t *testing.T) {
	ctx := context.Background()
	store, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"", "  ", "../outside.lua", "a/../../b", "/etc/passwd"} {
		if _, err := store.Write(ctx, id, "x", ""); err == nil {
			t.Fatalf("id %q accepted", id)
		}
		if _, err := store.Read(ctx, id); err == nil {
			t.Fatalf("read of id %q accepted", id)
		}
	}
}

func TestFSListSkipsSidecars(t *testing.T) {
	ctx := context.Background()
	store, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Write(ctx, "tick.lua", "x", ""); err != nil {
		t.Fatal(err)
	}
	ids, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "tick.lua" {
		t.Fatalf("sidecar leaked into listing: %v", ids)
	}
}

func TestFSIgnoresStaleSidecar(t *testing.T) {
	// The payload is authoritative: a sidecar left behind by external
	// tooling with a wrong hash must not leak into read results.
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Write(ctx, "tick.lua", "print('hi')", ""); err != nil {
		t.Fatal(err)
	}
	stale := []byte(`{"hash":"not-a-real-hash","size":1,"updated_at":"2020-01-01T00:00:00Z"}`)
	if err := os.WriteFile(filepath.Join(root, "tick.lua.meta"), stale, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read(ctx, "tick.lua")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hash != scene.HashContent("print('hi')") {
		t.Fatalf("sidecar hash leaked into read: %q", got.Hash)
	}
}

func TestFSSurvivesMissingSidecar(t *testing.T) {
	// The sidecar is advisory; the payload alone is authoritative.
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Write(ctx, "tick.lua", "print('hi')", ""); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, "tick.lua.meta")); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read(ctx, "tick.lua")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hash != scene.HashContent("print('hi')") {
		t.Fatalf("hash not recomputed from payload: %q", got.Hash)
	}
}
