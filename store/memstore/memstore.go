// Package memstore is an in-memory store.Store. All operations are
// serialized by one RWMutex, which makes every conditional update atomic.
// Values are deep-copied on the way in and out.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

type Store struct {
	mu         sync.RWMutex
	now        func() time.Time
	users      table[model.User]
	products   table[model.Product]
	categories table[model.Category]
	orders     table[model.Order]
}

var _ store.Store = (*Store)(nil)

// New returns an empty store. now may be nil.
func New(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		now:        now,
		users:      newTable[model.User](),
		products:   newTable[model.Product](),
		categories: newTable[model.Category](),
		orders:     newTable[model.Order](),
	}
}

func (s *Store) Users() store.Users           { return usersRepo{s} }
func (s *Store) Products() store.Products     { return productsRepo{s} }
func (s *Store) Categories() store.Categories { return categoriesRepo{s} }
func (s *Store) Orders() store.Orders         { return ordersRepo{s} }
func (s *Store) Close(context.Context) error  { return nil }

func newID() string { return uuid.NewString() }

// table keeps rows in insertion order so FindAll is deterministic.
type table[V any] struct {
	order []string
	rows  map[string]V
}

func newTable[V any]() table[V] {
	return table[V]{rows: make(map[string]V)}
}

func (t *table[V]) get(id string) (V, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[V]) put(id string, v V) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[V]) del(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[V]) all(clone func(V) V) []V {
	out := make([]V, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, clone(t.rows[id]))
	}
	return out
}

func (t *table[V]) find(match func(V) bool) (V, bool) {
	for _, id := range t.order {
		if v := t.rows[id]; match(v) {
			return v, true
		}
	}
	var zero V
	return zero, false
}
