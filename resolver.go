package shopmirror

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/shopmirror/model"
)

type entity[V any] interface {
	model.Entity
	Clone() V
}

// resolver serves reads for one collection from its mirror. Only findAll
// falls back to the store; findByID trusts the mirror alone.
type resolver[V entity[V]] struct {
	mirror   *Mirror[V]
	load     func(context.Context) ([]V, error)
	notFound string
	log      Logger
	hooks    Hooks
	sf       singleflight.Group
}

func (r *resolver[V]) findByID(ctx context.Context, id string) (V, error) {
	var zero V
	op := r.mirror.Collection().String() + ".findById"
	vals, ok, err := r.mirror.Get(ctx)
	if err != nil {
		return zero, internal(op, err)
	}
	if !ok {
		return zero, notFound(op, r.notFound)
	}
	for _, v := range vals {
		if v.EntityID() == id {
			return v, nil
		}
	}
	return zero, notFound(op, r.notFound)
}

func (r *resolver[V]) findAll(ctx context.Context) ([]V, error) {
	coll := r.mirror.Collection().String()
	vals, ok, err := r.mirror.Get(ctx)
	switch {
	case err != nil:
		r.hooks.CacheReadError(coll, err)
		r.log.Warn("cache read failed, serving from store", Fields{"collection": coll, "err": err})
	case ok && len(vals) > 0:
		return vals, nil
	}

	// the shared refresh outlives any single caller; each caller waits on its own ctx
	detached := context.WithoutCancel(ctx)
	ch := r.sf.DoChan(coll, func() (any, error) { return r.refresh(detached) })
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, internal(coll+".findAll", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, internal(coll+".findAll", res.Err)
	}
	vals = res.Val.([]V)
	if res.Shared {
		out := make([]V, len(vals))
		for i := range vals {
			out[i] = vals[i].Clone()
		}
		return out, nil
	}
	return vals, nil
}

// refresh republishes from the store. When the cache itself is failing the
// store result is still served.
func (r *resolver[V]) refresh(ctx context.Context) ([]V, error) {
	var loadErr error
	loaded := false
	vals, err := r.mirror.Republish(ctx, func(ctx context.Context) ([]V, error) {
		loaded = true
		v, err := r.load(ctx)
		loadErr = err
		return v, err
	})
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil {
		r.log.Warn("republish failed", Fields{"collection": r.mirror.Collection().String(), "err": err})
		if !loaded {
			return r.load(ctx)
		}
	}
	if vals == nil {
		vals = []V{}
	}
	return vals, nil
}

// republish is the write-path refresh. Errors propagate.
func (r *resolver[V]) republish(ctx context.Context) error {
	_, err := r.mirror.Republish(ctx, r.load)
	return err
}
