// Package store defines the authoritative repository shopmirror writes to.
//
// Every mutation that depends on the current value of a field (stock, ban
// flag, role, favorites, cart) is a single conditional operation here, never
// a read followed by a write in the caller.
package store

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/shopmirror/model"
)

var (
	// ErrNotFound is returned when the addressed entity does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique field (email, name, slug) is taken.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrConditionFailed is returned when a conditional update's guard did
	// not hold (stock floor, already banned, already a favorite, ...).
	ErrConditionFailed = errors.New("store: condition failed")
	// ErrConflict is returned when a cart compare-and-swap lost to another writer.
	ErrConflict = errors.New("store: concurrent modification")
)

type Store interface {
	Users() Users
	Products() Products
	Categories() Categories
	Orders() Orders
	Close(ctx context.Context) error
}

type Users interface {
	FindAll(ctx context.Context) ([]model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	// Insert assigns an id when u.ID is empty. ErrDuplicate on email.
	Insert(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id string) error

	// SetBanned sets is_banned only if it currently differs.
	SetBanned(ctx context.Context, id string, banned bool) (model.User, error)
	// SetRole sets role only if it currently differs.
	SetRole(ctx context.Context, id string, role model.Role) (model.User, error)

	// AddFavorite fails with ErrConditionFailed when productID is already present.
	AddFavorite(ctx context.Context, id, productID string) (model.User, error)
	// RemoveFavorite fails with ErrConditionFailed when productID is absent.
	RemoveFavorite(ctx context.Context, id, productID string) (model.User, error)
	// PullFavorites removes productIDs from every user's favorites.
	PullFavorites(ctx context.Context, productIDs []string) error

	// SwapCart replaces the cart iff its stored version equals expected.
	// The stored cart gets version expected+1. ErrConflict otherwise.
	SwapCart(ctx context.Context, id string, expected int64, cart model.Cart) (model.User, error)
	// CompleteCheckout, conditioned on the cart version like SwapCart,
	// appends orderID to the user's orders and installs fresh as the cart.
	CompleteCheckout(ctx context.Context, id string, expected int64, orderID string, fresh model.Cart) (model.User, error)
}

type Products interface {
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (model.Product, error)
	FindByCategory(ctx context.Context, categoryID string) ([]model.Product, error)
	// Insert assigns an id when p.ID is empty. ErrDuplicate on slug.
	Insert(ctx context.Context, p model.Product) (model.Product, error)
	// Update overwrites name, slug, price, imageRef and updatedAt.
	Update(ctx context.Context, p model.Product) (model.Product, error)
	Delete(ctx context.Context, id string) error
	// DeleteByCategory removes every product of the category and returns their ids.
	DeleteByCategory(ctx context.Context, categoryID string) ([]string, error)

	// IncrementStock adds delta to itemsInStock iff the result is >= 0.
	// ErrConditionFailed when the floor would be crossed, ErrNotFound when
	// the product does not exist.
	IncrementStock(ctx context.Context, id string, delta int) (model.Product, error)

	// AddFavoritedBy / RemoveFavoritedBy have set semantics and are idempotent.
	AddFavoritedBy(ctx context.Context, id, userID string) error
	RemoveFavoritedBy(ctx context.Context, id, userID string) error
	// PullFavoritedBy removes userID from every product.
	PullFavoritedBy(ctx context.Context, userID string) error
}

type Categories interface {
	FindAll(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id string) (model.Category, error)
	// Insert assigns an id when c.ID is empty. ErrDuplicate on name or slug.
	Insert(ctx context.Context, c model.Category) (model.Category, error)
	Delete(ctx context.Context, id string) error
	// PushProduct / PullProduct have set semantics and are idempotent.
	PushProduct(ctx context.Context, id, productID string) error
	PullProduct(ctx context.Context, id, productID string) error
}

type Orders interface {
	FindAll(ctx context.Context) ([]model.Order, error)
	FindByID(ctx context.Context, id string) (model.Order, error)
	Insert(ctx context.Context, o model.Order) (model.Order, error)
	Delete(ctx context.Context, id string) error
}
