package memstore

import (
	"context"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

type productsRepo struct{ s *Store }

func (r productsRepo) FindAll(context.Context) ([]model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.products.all(model.Product.Clone), nil
}

func (r productsRepo) FindByID(_ context.Context, id string) (model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products.get(id)
	if !ok {
		return model.Product{}, store.ErrNotFound
	}
	return p.Clone(), nil
}

func (r productsRepo) FindByCategory(_ context.Context, categoryID string) ([]model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Product
	for _, id := range r.s.products.order {
		if p := r.s.products.rows[id]; p.Category.ID == categoryID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r productsRepo) Insert(_ context.Context, p model.Product) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.products.find(func(x model.Product) bool { return x.Slug == p.Slug }); dup {
		return model.Product{}, store.ErrDuplicate
	}
	if p.ID == "" {
		p.ID = newID()
	} else if _, exists := r.s.products.get(p.ID); exists {
		return model.Product{}, store.ErrDuplicate
	}
	now := r.s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.FavoritedBy == nil {
		p.FavoritedBy = []string{}
	}
	p = p.Clone()
	r.s.products.put(p.ID, p)
	return p.Clone(), nil
}

func (r productsRepo) Update(_ context.Context, p model.Product) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products.get(p.ID)
	if !ok {
		return model.Product{}, store.ErrNotFound
	}
	if _, dup := r.s.products.find(func(x model.Product) bool { return x.Slug == p.Slug && x.ID != p.ID }); dup {
		return model.Product{}, store.ErrDuplicate
	}
	cur = cur.Clone()
	cur.Name = p.Name
	cur.Slug = p.Slug
	cur.Price = p.Price
	cur.ImageRef = p.ImageRef
	cur.UpdatedAt = r.s.now()
	r.s.products.put(cur.ID, cur)
	return cur.Clone(), nil
}

func (r productsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.products.del(id) {
		return store.ErrNotFound
	}
	return nil
}

func (r productsRepo) DeleteByCategory(_ context.Context, categoryID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, id := range r.s.products.order {
		if r.s.products.rows[id].Category.ID == categoryID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		r.s.products.del(id)
	}
	return ids, nil
}

func (r productsRepo) IncrementStock(_ context.Context, id string, delta int) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products.get(id)
	if !ok {
		return model.Product{}, store.ErrNotFound
	}
	if p.ItemsInStock+delta < 0 {
		return model.Product{}, store.ErrConditionFailed
	}
	p = p.Clone()
	p.ItemsInStock += delta
	r.s.products.put(id, p)
	return p.Clone(), nil
}

func (r productsRepo) AddFavoritedBy(_ context.Context, id, userID string) error {
	return r.mutate(id, func(p *model.Product) { p.FavoritedBy = model.AddToSet(p.FavoritedBy, userID) })
}

func (r productsRepo) RemoveFavoritedBy(_ context.Context, id, userID string) error {
	return r.mutate(id, func(p *model.Product) { p.FavoritedBy = model.RemoveFromSet(p.FavoritedBy, userID) })
}

func (r productsRepo) PullFavoritedBy(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.products.order {
		p := r.s.products.rows[id]
		if model.Contains(p.FavoritedBy, userID) {
			p = p.Clone()
			p.FavoritedBy = model.RemoveFromSet(p.FavoritedBy, userID)
			r.s.products.put(id, p)
		}
	}
	return nil
}

func (r productsRepo) mutate(id string, fn func(p *model.Product)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products.get(id)
	if !ok {
		return store.ErrNotFound
	}
	p = p.Clone()
	fn(&p)
	r.s.products.put(id, p)
	return nil
}
