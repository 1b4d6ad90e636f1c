package memstore

import (
	"context"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

type ordersRepo struct{ s *Store }

func (r ordersRepo) FindAll(context.Context) ([]model.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.orders.all(model.Order.Clone), nil
}

func (r ordersRepo) FindByID(_ context.Context, id string) (model.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders.get(id)
	if !ok {
		return model.Order{}, store.ErrNotFound
	}
	return o.Clone(), nil
}

func (r ordersRepo) Insert(_ context.Context, o model.Order) (model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.ID == "" {
		o.ID = newID()
	} else if _, exists := r.s.orders.get(o.ID); exists {
		return model.Order{}, store.ErrDuplicate
	}
	now := r.s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o = o.Clone()
	r.s.orders.put(o.ID, o)
	return o.Clone(), nil
}

func (r ordersRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.orders.del(id) {
		return store.ErrNotFound
	}
	return nil
}
