package shopmirror

import (
	"context"
	"fmt"
	"sync"

	c "github.com/unkn0wn-root/shopmirror/codec"
	gen "github.com/unkn0wn-root/shopmirror/genstore"
	"github.com/unkn0wn-root/shopmirror/internal/util"
	"github.com/unkn0wn-root/shopmirror/internal/wire"
	"github.com/unkn0wn-root/shopmirror/model"
	pr "github.com/unkn0wn-root/shopmirror/provider"
)

// Self-heal reasons reported through Hooks.SelfHeal.
const (
	healCorrupt        = "corrupt"
	healGenMismatch    = "gen_mismatch"
	healSchemaMismatch = "schema_mismatch"
	healValueDecode    = "value_decode"
)

// MirrorOptions configure one collection mirror.
// Namespace, Collection, Provider and Codec are required.
type MirrorOptions[V any] struct {
	Namespace  string
	Collection model.Collection
	Provider   pr.Provider
	Codec      c.Codec[[]V]

	GenStore gen.GenStore // nil => genstore.NewLocal()
	Logger   Logger       // nil => NopLogger
	Hooks    Hooks        // nil => NopHooks
}

// Mirror keeps one whole collection under a single cache key. The stored
// envelope carries the collection generation at publish time; a read whose
// envelope generation is not current is a miss.
type Mirror[V any] struct {
	coll     model.Collection
	key      string
	provider pr.Provider
	codec    c.Codec[[]V]
	gen      gen.GenStore
	log      Logger
	hooks    Hooks

	// serializes republishes of this collection within the process
	mu sync.Mutex
}

func NewMirror[V any](opts MirrorOptions[V]) (*Mirror[V], error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("shopmirror: namespace is required")
	}
	if !opts.Collection.Valid() {
		return nil, fmt.Errorf("shopmirror: unknown collection %q", opts.Collection)
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("shopmirror: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("shopmirror: codec is required")
	}

	m := &Mirror[V]{
		coll:     opts.Collection,
		key:      util.StorageKey(opts.Namespace, opts.Collection.String()),
		provider: opts.Provider,
		codec:    opts.Codec,
	}
	m.log = coalesce[Logger](opts.Logger, NopLogger{})
	m.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.GenStore != nil {
		m.gen = opts.GenStore
	} else {
		m.gen = gen.NewLocal()
	}
	return m, nil
}

func (m *Mirror[V]) Collection() model.Collection { return m.coll }

// Get returns the cached snapshot. ok=false on miss. Entries that cannot be
// trusted are deleted and reported as a miss.
func (m *Mirror[V]) Get(ctx context.Context) ([]V, bool, error) {
	raw, ok, err := m.provider.Get(ctx, m.key)
	if err != nil || !ok {
		return nil, false, err
	}
	snap, err := wire.Decode(raw)
	if err != nil {
		m.heal(ctx, healCorrupt)
		return nil, false, nil
	}
	if snap.Schema != model.SchemaVersion {
		m.heal(ctx, healSchemaMismatch)
		return nil, false, nil
	}
	cur, err := m.gen.Snapshot(ctx, m.key)
	if err != nil {
		m.hooks.GenStoreError(m.coll.String(), "snapshot", err)
		return nil, false, err
	}
	if snap.Gen != cur {
		m.heal(ctx, healGenMismatch)
		return nil, false, nil
	}
	vals, err := m.codec.Decode(snap.Payload)
	if err != nil || len(vals) != int(snap.Count) {
		m.heal(ctx, healValueDecode)
		return nil, false, nil
	}
	return vals, true, nil
}

// Set bumps the generation and overwrites the cached snapshot with vals.
func (m *Mirror[V]) Set(ctx context.Context, vals []V) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.bump(ctx)
	if err != nil {
		return err
	}
	return m.write(ctx, g, vals)
}

// Republish replaces the cached snapshot with whatever load returns. The
// generation is read before load and compared after it; the previous snapshot
// stays readable until the new one overwrites it. If another writer bumped the
// generation meanwhile, or load fails, the snapshot is dropped instead, so
// readers never keep serving data older than a committed write. The loaded
// values are returned either way.
func (m *Mirror[V]) Republish(ctx context.Context, load func(context.Context) ([]V, error)) ([]V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen, err := m.gen.Snapshot(ctx, m.key)
	if err != nil {
		m.hooks.GenStoreError(m.coll.String(), "snapshot", err)
		m.drop(ctx)
		return nil, err
	}
	vals, err := load(ctx)
	if err != nil {
		m.drop(ctx)
		return nil, err
	}
	cur, err := m.gen.Snapshot(ctx, m.key)
	if err != nil {
		m.hooks.GenStoreError(m.coll.String(), "snapshot", err)
		m.drop(ctx)
		return vals, err
	}
	if cur != seen {
		m.hooks.PublishSuperseded(m.coll.String(), seen)
		m.log.Debug("republish superseded", Fields{"collection": m.coll.String(), "gen": seen, "current": cur})
		m.drop(ctx)
		return vals, nil
	}
	g, err := m.bump(ctx)
	if err != nil {
		_ = m.provider.Del(ctx, m.key)
		return vals, err
	}
	return vals, m.write(ctx, g, vals)
}

// drop retires the cached snapshot after a failed republish. The bump alone
// makes the envelope stale; the delete frees the key.
func (m *Mirror[V]) drop(ctx context.Context) {
	_, _ = m.bump(ctx)
	if err := m.provider.Del(ctx, m.key); err != nil {
		m.log.Warn("mirror drop failed", Fields{"collection": m.coll.String(), "err": err})
	}
}

// Invalidate bumps the generation and drops the cached snapshot.
func (m *Mirror[V]) Invalidate(ctx context.Context) error {
	g, err := m.bump(ctx)
	if err != nil {
		return err
	}
	m.log.Debug("invalidated collection", Fields{"collection": m.coll.String(), "newGen": g})
	return m.provider.Del(ctx, m.key)
}

func (m *Mirror[V]) write(ctx context.Context, g uint64, vals []V) error {
	if vals == nil {
		vals = []V{}
	}
	payload, err := m.codec.Encode(vals)
	if err != nil {
		return err
	}
	env := wire.Encode(wire.Snapshot{
		Schema:  model.SchemaVersion,
		Gen:     g,
		Count:   uint32(len(vals)),
		Payload: payload,
	})
	ok, err := m.provider.Set(ctx, m.key, env)
	if err != nil {
		return err
	}
	if !ok {
		m.hooks.ProviderSetRejected(m.coll.String())
		m.log.Debug("snapshot rejected by provider", Fields{"collection": m.coll.String(), "bytes": len(env)})
	}
	return nil
}

func (m *Mirror[V]) bump(ctx context.Context) (uint64, error) {
	g, err := m.gen.Bump(ctx, m.key)
	if err != nil {
		m.hooks.GenStoreError(m.coll.String(), "bump", err)
		m.log.Error("gen bump error", Fields{"collection": m.coll.String(), "err": err})
		return 0, err
	}
	return g, nil
}

func (m *Mirror[V]) heal(ctx context.Context, reason string) {
	_ = m.provider.Del(ctx, m.key)
	m.hooks.SelfHeal(m.coll.String(), reason)
	m.log.Debug("self-healed cached snapshot", Fields{"collection": m.coll.String(), "reason": reason})
}
