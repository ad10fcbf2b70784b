package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/aretw0/atelier/pkg/ports"
)

// ObjectStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.ObjectStore.
// The store must be empty when the suite starts.
func ObjectStoreContractTest(t *testing.T, store ports.ObjectStore) {
	t.Helper()
	ctx := context.Background()
	path := "42_0123456789abcdef.png"
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}

	// 1. Missing artifact
	t.Run("Get_NotFound", func(t *testing.T) {
		exists, err := store.Exists(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error checking existence: %v", err)
		}
		if exists {
			t.Fatalf("expected %s to be absent", path)
		}
		if _, err := store.Get(ctx, path); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	// 2. Put then Get
	t.Run("Put_Get", func(t *testing.T) {
		if err := store.Put(ctx, path, payload); err != nil {
			t.Fatalf("unexpected error putting %s: %v", path, err)
		}
		exists, err := store.Exists(ctx, path)
		if err != nil || !exists {
			t.Fatalf("expected %s to exist (err=%v)", path, err)
		}
		got, err := store.Get(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error getting %s: %v", path, err)
		}
		if string(got) != string(payload) {
			t.Errorf("content mismatch. got %v, want %v", got, payload)
		}
	})

	// 3. Overwrite
	t.Run("Put_Overwrites", func(t *testing.T) {
		if err := store.Put(ctx, path, []byte("v2")); err != nil {
			t.Fatalf("unexpected error overwriting %s: %v", path, err)
		}
		got, err := store.Get(ctx, path)
		if err != nil {
			t.Fatalf("unexpected error getting %s: %v", path, err)
		}
		if string(got) != "v2" {
			t.Errorf("expected overwritten content, got %q", got)
		}
	})

	// 4. Delete
	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, path); err != nil {
			t.Fatalf("unexpected error deleting %s: %v", path, err)
		}
		if _, err := store.Get(ctx, path); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, path); err != nil {
			t.Errorf("deleting a missing path should not fail, got %v", err)
		}
	})

	// 5. Listing, when supported
	if lister, ok := store.(ports.ObjectLister); ok {
		t.Run("List_Prefix", func(t *testing.T) {
			for _, p := range []string{"7_aaaaaaaaaaaaaaaa.png", "7_bbbbbbbbbbbbbbbb.gif", "70_cccccccccccccccc.png"} {
				if err := store.Put(ctx, p, []byte("x")); err != nil {
					t.Fatalf("unexpected error putting %s: %v", p, err)
				}
			}
			paths, err := lister.List(ctx, "7_")
			if err != nil {
				t.Fatalf("unexpected error listing: %v", err)
			}
			if len(paths) != 2 {
				t.Errorf("expected 2 paths with prefix 7_, got %v", paths)
			}
		})
	}
}

// ByteCacheContractTest verifies an adapter against ports.ByteCache.
// advance moves the adapter's clock forward; pass nil to skip expiry checks.
func ByteCacheContractTest(t *testing.T, cache ports.ByteCache, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		if _, err := cache.Get(ctx, "render:missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Set_Get_Delete", func(t *testing.T) {
		if err := cache.Set(ctx, "render:1", []byte("one"), time.Hour); err != nil {
			t.Fatalf("unexpected error setting: %v", err)
		}
		got, err := cache.Get(ctx, "render:1")
		if err != nil || string(got) != "one" {
			t.Fatalf("expected hit with 'one', got %q (err=%v)", got, err)
		}
		if err := cache.Delete(ctx, "render:1"); err != nil {
			t.Fatalf("unexpected error deleting: %v", err)
		}
		if _, err := cache.Get(ctx, "render:1"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		for _, k := range []string{"render:5_a", "render:5_b", "render:50_a"} {
			if err := cache.Set(ctx, k, []byte("x"), time.Hour); err != nil {
				t.Fatalf("unexpected error setting %s: %v", k, err)
			}
		}
		n, err := cache.DeletePrefix(ctx, "render:5_")
		if err != nil {
			t.Fatalf("unexpected error deleting prefix: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 keys removed, got %d", n)
		}
		if _, err := cache.Get(ctx, "render:50_a"); err != nil {
			t.Errorf("expected render:50_a to survive, got %v", err)
		}
	})

	t.Run("DeleteFunc", func(t *testing.T) {
		if _, err := cache.DeletePrefix(ctx, ""); err != nil {
			t.Fatalf("unexpected error clearing: %v", err)
		}
		for _, k := range []string{"render:7_a", "render:8_a", "render:9_a", "other:8_a"} {
			if err := cache.Set(ctx, k, []byte("x"), time.Hour); err != nil {
				t.Fatalf("unexpected error setting %s: %v", k, err)
			}
		}
		var seen []string
		n, err := cache.DeleteFunc(ctx, "render:", func(k string) bool {
			seen = append(seen, k)
			return k != "render:8_a"
		})
		if err != nil {
			t.Fatalf("unexpected error deleting: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 keys removed, got %d", n)
		}
		for _, k := range seen {
			if !strings.HasPrefix(k, "render:") {
				t.Errorf("match saw key %q outside the prefix", k)
			}
		}
		if _, err := cache.Get(ctx, "render:8_a"); err != nil {
			t.Errorf("expected render:8_a to survive, got %v", err)
		}
		if _, err := cache.Get(ctx, "other:8_a"); err != nil {
			t.Errorf("expected other:8_a to survive, got %v", err)
		}
	})

	if advance != nil {
		t.Run("Expiry", func(t *testing.T) {
			if err := cache.Set(ctx, "render:ttl", []byte("x"), time.Minute); err != nil {
				t.Fatalf("unexpected error setting: %v", err)
			}
			advance(2 * time.Minute)
			if _, err := cache.Get(ctx, "render:ttl"); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("expected expired key to miss, got %v", err)
			}
		})
	}
}
