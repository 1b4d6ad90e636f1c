package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

type usersRepo struct {
	s *Store
	c *mongo.Collection
}

func (r usersRepo) FindAll(ctx context.Context) ([]model.User, error) {
	return findAll[model.User](ctx, r.c, bson.M{})
}

func (r usersRepo) FindByID(ctx context.Context, id string) (model.User, error) {
	return findOne[model.User](ctx, r.c, id)
}

func (r usersRepo) Insert(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now()
	}
	if err := insert(ctx, r.c, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r usersRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, id)
}

func (r usersRepo) SetBanned(ctx context.Context, id string, banned bool) (model.User, error) {
	return guarded[model.User](ctx, r.c, id,
		bson.M{"is_banned": bson.M{"$ne": banned}},
		bson.M{"$set": bson.M{"is_banned": banned}},
		store.ErrConditionFailed)
}

func (r usersRepo) SetRole(ctx context.Context, id string, role model.Role) (model.User, error) {
	return guarded[model.User](ctx, r.c, id,
		bson.M{"role": bson.M{"$ne": role}},
		bson.M{"$set": bson.M{"role": role}},
		store.ErrConditionFailed)
}

func (r usersRepo) AddFavorite(ctx context.Context, id, productID string) (model.User, error) {
	return guarded[model.User](ctx, r.c, id,
		bson.M{"favorites": bson.M{"$ne": productID}},
		bson.M{"$push": bson.M{"favorites": productID}},
		store.ErrConditionFailed)
}

func (r usersRepo) RemoveFavorite(ctx context.Context, id, productID string) (model.User, error) {
	return guarded[model.User](ctx, r.c, id,
		bson.M{"favorites": productID},
		bson.M{"$pull": bson.M{"favorites": productID}},
		store.ErrConditionFailed)
}

func (r usersRepo) PullFavorites(ctx context.Context, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	in := bson.M{"$in": productIDs}
	_, err := r.c.UpdateMany(ctx, bson.M{"favorites": in}, bson.M{"$pull": bson.M{"favorites": in}})
	return err
}

func (r usersRepo) SwapCart(ctx context.Context, id string, expected int64, cart model.Cart) (model.User, error) {
	cart = cart.Clone()
	cart.Version = expected + 1
	return guarded[model.User](ctx, r.c, id,
		bson.M{"cart.version": expected},
		bson.M{"$set": bson.M{"cart": cart}},
		store.ErrConflict)
}

func (r usersRepo) CompleteCheckout(ctx context.Context, id string, expected int64, orderID string, fresh model.Cart) (model.User, error) {
	fresh = fresh.Clone()
	fresh.Version = expected + 1
	return guarded[model.User](ctx, r.c, id,
		bson.M{"cart.version": expected},
		bson.M{
			"$set":  bson.M{"cart": fresh},
			"$push": bson.M{"orders": orderID},
		},
		store.ErrConflict)
}
