package memstore

import (
	"context"
	"strings"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

type categoriesRepo struct{ s *Store }

func (r categoriesRepo) FindAll(context.Context) ([]model.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.categories.all(model.Category.Clone), nil
}

func (r categoriesRepo) FindByID(_ context.Context, id string) (model.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.categories.get(id)
	if !ok {
		return model.Category{}, store.ErrNotFound
	}
	return c.Clone(), nil
}

func (r categoriesRepo) Insert(_ context.Context, c model.Category) (model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, dup := r.s.categories.find(func(x model.Category) bool {
		return strings.EqualFold(x.Name, c.Name) || x.Slug == c.Slug
	})
	if dup {
		return model.Category{}, store.ErrDuplicate
	}
	if c.ID == "" {
		c.ID = newID()
	} else if _, exists := r.s.categories.get(c.ID); exists {
		return model.Category{}, store.ErrDuplicate
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	if c.Products == nil {
		c.Products = []string{}
	}
	c = c.Clone()
	r.s.categories.put(c.ID, c)
	return c.Clone(), nil
}

func (r categoriesRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.categories.del(id) {
		return store.ErrNotFound
	}
	return nil
}

func (r categoriesRepo) PushProduct(_ context.Context, id, productID string) error {
	return r.mutate(id, func(c *model.Category) { c.Products = model.AddToSet(c.Products, productID) })
}

func (r categoriesRepo) PullProduct(_ context.Context, id, productID string) error {
	return r.mutate(id, func(c *model.Category) { c.Products = model.RemoveFromSet(c.Products, productID) })
}

func (r categoriesRepo) mutate(id string, fn func(c *model.Category)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories.get(id)
	if !ok {
		return store.ErrNotFound
	}
	c = c.Clone()
	fn(&c)
	r.s.categories.put(id, c)
	return nil
}
