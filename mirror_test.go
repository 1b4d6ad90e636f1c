package shopmirror

import (
	"context"
	"errors"
	"sync"
	"testing"

	c "github.com/unkn0wn-root/shopmirror/codec"
	"github.com/unkn0wn-root/shopmirror/internal/wire"
	"github.com/unkn0wn-root/shopmirror/model"
	pr "github.com/unkn0wn-root/shopmirror/provider"
)

type memProvider struct {
	mu sync.Mutex
	m  map[string][]byte
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = append([]byte(nil), value...)
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	_, ok, _ := p.Get(context.Background(), key)
	return ok
}

// recHooks records events for assertions.
type recHooks struct {
	NopHooks
	mu         sync.Mutex
	heals      []string
	superseded []string
	compFailed []string
	blobFailed []string
	readErrs   []string
}

func (h *recHooks) SelfHeal(coll, reason string) {
	h.mu.Lock()
	h.heals = append(h.heals, coll+":"+reason)
	h.mu.Unlock()
}

func (h *recHooks) PublishSuperseded(coll string, _ uint64) {
	h.mu.Lock()
	h.superseded = append(h.superseded, coll)
	h.mu.Unlock()
}

func (h *recHooks) CompensationFailed(saga, step string, _ error) {
	h.mu.Lock()
	h.compFailed = append(h.compFailed, saga+"/"+step)
	h.mu.Unlock()
}

func (h *recHooks) BlobCleanupFailed(ref string, _ error) {
	h.mu.Lock()
	h.blobFailed = append(h.blobFailed, ref)
	h.mu.Unlock()
}

func (h *recHooks) CacheReadError(coll string, _ error) {
	h.mu.Lock()
	h.readErrs = append(h.readErrs, coll)
	h.mu.Unlock()
}

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestMirror(t *testing.T, mp pr.Provider, h Hooks) *Mirror[item] {
	t.Helper()
	m, err := NewMirror(MirrorOptions[item]{
		Namespace:  "test",
		Collection: model.Products,
		Provider:   mp,
		Codec:      c.JSON[[]item]{},
		Hooks:      h,
	})
	if err != nil {
		t.Fatalf("NewMirror: %v", err)
	}
	return m
}

func TestNewMirrorValidates(t *testing.T) {
	mp := newMemProvider()
	if _, err := NewMirror(MirrorOptions[item]{Namespace: "n", Collection: "carts", Provider: mp, Codec: c.JSON[[]item]{}}); err == nil {
		t.Fatalf("expected error for unknown collection")
	}
	if _, err := NewMirror(MirrorOptions[item]{Namespace: "n", Collection: model.Users, Codec: c.JSON[[]item]{}}); err == nil {
		t.Fatalf("expected error for missing provider")
	}
	if _, err := NewMirror(MirrorOptions[item]{Collection: model.Users, Provider: mp, Codec: c.JSON[[]item]{}}); err == nil {
		t.Fatalf("expected error for missing namespace")
	}
}

// TestSetGetInvalidate covers the plain write, read and invalidate flow.
func TestSetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	m := newTestMirror(t, newMemProvider(), nil)

	if _, ok, err := m.Get(ctx); err != nil || ok {
		t.Fatalf("Get miss expected, ok=%v err=%v", ok, err)
	}

	want := []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
	if err := m.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := m.Get(ctx)
	if err != nil || !ok || len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Get after Set: ok=%v err=%v got=%v", ok, err, got)
	}

	if err := m.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := m.Get(ctx); ok {
		t.Fatalf("Get after Invalidate should miss")
	}
}

func TestSetEmptyIsHit(t *testing.T) {
	ctx := context.Background()
	m := newTestMirror(t, newMemProvider(), nil)
	if err := m.Set(ctx, nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := m.Get(ctx)
	if err != nil || !ok || len(got) != 0 {
		t.Fatalf("want empty hit, ok=%v err=%v got=%v", ok, err, got)
	}
}

// TestSelfHeal injects untrustworthy entries and expects each to be
// dropped on read with the right reason.
func TestSelfHeal(t *testing.T) {
	ctx := context.Background()
	payload, err := c.JSON[[]item]{}.Encode([]item{{ID: "1"}})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		raw    func(gen uint64) []byte
		reason string
	}{
		{"corrupt", func(uint64) []byte { return []byte("not-wire-format") }, healCorrupt},
		{"schema", func(g uint64) []byte {
			return wire.Encode(wire.Snapshot{Schema: model.SchemaVersion + 1, Gen: g, Count: 1, Payload: payload})
		}, healSchemaMismatch},
		{"gen", func(g uint64) []byte {
			return wire.Encode(wire.Snapshot{Schema: model.SchemaVersion, Gen: g + 7, Count: 1, Payload: payload})
		}, healGenMismatch},
		{"decode", func(g uint64) []byte {
			return wire.Encode(wire.Snapshot{Schema: model.SchemaVersion, Gen: g, Count: 1, Payload: []byte("{")})
		}, healValueDecode},
		{"count", func(g uint64) []byte {
			return wire.Encode(wire.Snapshot{Schema: model.SchemaVersion, Gen: g, Count: 3, Payload: payload})
		}, healValueDecode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mp := newMemProvider()
			h := &recHooks{}
			m := newTestMirror(t, mp, h)
			g, _ := m.gen.Snapshot(ctx, m.key)
			_, _ = mp.Set(ctx, m.key, tc.raw(g))

			if _, ok, err := m.Get(ctx); err != nil || ok {
				t.Fatalf("Get should miss, ok=%v err=%v", ok, err)
			}
			if mp.has(m.key) {
				t.Fatalf("entry was not deleted")
			}
			if len(h.heals) != 1 || h.heals[0] != "products:"+tc.reason {
				t.Fatalf("unexpected heals %v", h.heals)
			}
		})
	}
}

func TestRepublishPublishesFreshLoad(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	m := newTestMirror(t, mp, nil)
	if err := m.Set(ctx, []item{{ID: "old"}}); err != nil {
		t.Fatal(err)
	}

	vals, err := m.Republish(ctx, func(context.Context) ([]item, error) {
		// readers keep the previous snapshot while the store is read
		prev, ok, err := m.Get(ctx)
		if err != nil || !ok || len(prev) != 1 || prev[0].ID != "old" {
			t.Errorf("previous snapshot not readable during load: ok=%v err=%v got=%v", ok, err, prev)
		}
		return []item{{ID: "new"}}, nil
	})
	if err != nil || len(vals) != 1 {
		t.Fatalf("Republish: %v %v", vals, err)
	}
	got, ok, err := m.Get(ctx)
	if err != nil || !ok || len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("Get after republish: ok=%v err=%v got=%v", ok, err, got)
	}
}

// TestRepublishSuperseded simulates a second writer bumping the generation
// while the first is reading the store.
func TestRepublishSuperseded(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	h := &recHooks{}
	m := newTestMirror(t, mp, h)

	_, err := m.Republish(ctx, func(ctx context.Context) ([]item, error) {
		if _, err := m.gen.Bump(ctx, m.key); err != nil {
			return nil, err
		}
		return []item{{ID: "stale"}}, nil
	})
	if err != nil {
		t.Fatalf("Republish: %v", err)
	}
	if mp.has(m.key) {
		t.Fatalf("superseded publish must leave the key empty")
	}
	if len(h.superseded) != 1 {
		t.Fatalf("expected one superseded event, got %v", h.superseded)
	}
}

func TestRepublishLoadError(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	m := newTestMirror(t, mp, nil)
	if err := m.Set(ctx, []item{{ID: "x"}}); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if _, err := m.Republish(ctx, func(context.Context) ([]item, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("want load error, got %v", err)
	}
	if _, ok, _ := m.Get(ctx); ok {
		t.Fatalf("key must stay absent after failed load")
	}
}

func TestMirrorsShareProviderByCollection(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	a := newTestMirror(t, mp, nil)
	b, err := NewMirror(MirrorOptions[item]{Namespace: "test", Collection: model.Users, Provider: mp, Codec: c.JSON[[]item]{}})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Set(ctx, []item{{ID: "p"}}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get(ctx); ok {
		t.Fatalf("collections must not collide")
	}
}
