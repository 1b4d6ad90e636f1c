package memstore

import (
	"context"
	"strings"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

type usersRepo struct{ s *Store }

func (r usersRepo) FindAll(context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.users.all(model.User.Clone), nil
}

func (r usersRepo) FindByID(_ context.Context, id string) (model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users.get(id)
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return u.Clone(), nil
}

func (r usersRepo) Insert(_ context.Context, u model.User) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.users.find(func(x model.User) bool { return strings.EqualFold(x.Email, u.Email) }); dup {
		return model.User{}, store.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = newID()
	} else if _, exists := r.s.users.get(u.ID); exists {
		return model.User{}, store.ErrDuplicate
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now()
	}
	u = u.Clone()
	r.s.users.put(u.ID, u)
	return u.Clone(), nil
}

func (r usersRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !r.s.users.del(id) {
		return store.ErrNotFound
	}
	return nil
}

// update applies fn to the stored user under the write lock. fn returns
// store.ErrConditionFailed (or any error) to abort without writing.
func (r usersRepo) update(id string, fn func(u *model.User) error) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users.get(id)
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	u = u.Clone()
	if err := fn(&u); err != nil {
		return model.User{}, err
	}
	r.s.users.put(id, u)
	return u.Clone(), nil
}

func (r usersRepo) SetBanned(_ context.Context, id string, banned bool) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		if u.IsBanned == banned {
			return store.ErrConditionFailed
		}
		u.IsBanned = banned
		return nil
	})
}

func (r usersRepo) SetRole(_ context.Context, id string, role model.Role) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		if u.Role == role {
			return store.ErrConditionFailed
		}
		u.Role = role
		return nil
	})
}

func (r usersRepo) AddFavorite(_ context.Context, id, productID string) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		if model.Contains(u.Favorites, productID) {
			return store.ErrConditionFailed
		}
		u.Favorites = model.AddToSet(u.Favorites, productID)
		return nil
	})
}

func (r usersRepo) RemoveFavorite(_ context.Context, id, productID string) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		if !model.Contains(u.Favorites, productID) {
			return store.ErrConditionFailed
		}
		u.Favorites = model.RemoveFromSet(u.Favorites, productID)
		return nil
	})
}

func (r usersRepo) PullFavorites(_ context.Context, productIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.users.order {
		u := r.s.users.rows[id]
		if pulled := model.RemoveFromSet(u.Favorites, productIDs...); len(pulled) != len(u.Favorites) {
			u = u.Clone()
			u.Favorites = pulled
			r.s.users.put(id, u)
		}
	}
	return nil
}

func (r usersRepo) SwapCart(_ context.Context, id string, expected int64, cart model.Cart) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		if u.Cart.Version != expected {
			return store.ErrConflict
		}
		u.Cart = cart.Clone()
		u.Cart.Version = expected + 1
		return nil
	})
}

func (r usersRepo) CompleteCheckout(_ context.Context, id string, expected int64, orderID string, fresh model.Cart) (model.User, error) {
	return r.update(id, func(u *model.User) error {
		if u.Cart.Version != expected {
			return store.ErrConflict
		}
		u.Orders = append(u.Orders, orderID)
		u.Cart = fresh.Clone()
		u.Cart.Version = expected + 1
		return nil
	})
}
