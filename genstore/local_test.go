package genstore

import (
	"context"
	"sync"
	"testing"
)

func TestLocalMissingIsZero(t *testing.T) {
	ctx := context.Background()
	s := NewLocal()
	t.Cleanup(func() { _ = s.Close(ctx) })

	g, err := s.Snapshot(ctx, "products")
	if err != nil {
		t.Fatal(err)
	}
	if g != 0 {
		t.Fatalf("missing key should be 0, got %d", g)
	}
}

func TestLocalBumpIsPerKey(t *testing.T) {
	ctx := context.Background()
	s := NewLocal()

	for i := 0; i < 2; i++ {
		if _, err := s.Bump(ctx, "users"); err != nil {
			t.Fatal(err)
		}
	}
	if g, _ := s.Snapshot(ctx, "users"); g != 2 {
		t.Fatalf("users gen = %d, want 2", g)
	}
	if g, _ := s.Snapshot(ctx, "orders"); g != 0 {
		t.Fatalf("orders gen = %d, want 0", g)
	}
}

func TestLocalConcurrentBumpsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := NewLocal()

	const n = 64
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint64]bool, n)
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			g, _ := s.Bump(ctx, "products")
			mu.Lock()
			seen[g] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("expected %d distinct generations, got %d", n, len(seen))
	}
}
