package shopmirror

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

// FavoriteResult is returned by ToggleFavorite.
type FavoriteResult struct {
	User    model.User    `json:"user"`
	Product model.Product `json:"product"`
}

// ToggleFavorite adds or removes a product from the user's favorites and
// keeps the product's favoritedBy in step.
func (co *Core) ToggleFavorite(ctx context.Context, userID, productID string, add bool) (FavoriteResult, error) {
	const op = "favorites.toggle"
	if _, err := co.activeUser(ctx, op, userID); err != nil {
		return FavoriteResult{}, err
	}
	if _, err := co.store.Products().FindByID(ctx, productID); err != nil {
		return FavoriteResult{}, fromStore(op, err, "product not found")
	}

	unlock := co.favLocks.lock(userID, productID)
	defer unlock()

	users, products := co.store.Users(), co.store.Products()
	addToUser := func(ctx context.Context) error {
		_, err := users.AddFavorite(ctx, userID, productID)
		if errors.Is(err, store.ErrConditionFailed) {
			return badRequest(op, "already in favorites")
		}
		return err
	}
	removeFromUser := func(ctx context.Context) error {
		_, err := users.RemoveFavorite(ctx, userID, productID)
		if errors.Is(err, store.ErrConditionFailed) {
			return badRequest(op, "not in favorites")
		}
		return err
	}
	userStep := step{name: "add_to_user", do: addToUser, undo: settled(removeFromUser)}
	if !add {
		userStep = step{name: "remove_from_user", do: removeFromUser, undo: settled(addToUser)}
	}

	err := co.runSaga(ctx, op,
		userStep,
		step{
			// copies the user's current membership, not the request
			name:  "sync_product",
			retry: true,
			do: func(ctx context.Context) error {
				u, err := users.FindByID(ctx, userID)
				if err != nil {
					return fromStore(op, err, "user not found")
				}
				if model.Contains(u.Favorites, productID) {
					return fromStore(op, products.AddFavoritedBy(ctx, productID, userID), "product not found")
				}
				return fromStore(op, products.RemoveFavoritedBy(ctx, productID, userID), "product not found")
			},
		},
	)
	if err != nil {
		return FavoriteResult{}, fromStore(op, err, "product not found")
	}

	u, err := users.FindByID(ctx, userID)
	if err != nil {
		return FavoriteResult{}, fromStore(op, err, "user not found")
	}
	p, err := products.FindByID(ctx, productID)
	if err != nil {
		return FavoriteResult{}, fromStore(op, err, "product not found")
	}
	return FavoriteResult{User: u, Product: p}, co.republish(ctx, op, model.Users, model.Products)
}

// settled treats a compensation that finds its target state already in place
// as done.
func settled(f func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := f(ctx); KindOf(err) != KindBadRequest {
			return err
		}
		return nil
	}
}
