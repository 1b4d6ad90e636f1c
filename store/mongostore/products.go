package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

type productsRepo struct {
	s *Store
	c *mongo.Collection
}

func (r productsRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	return findAll[model.Product](ctx, r.c, bson.M{})
}

func (r productsRepo) FindByID(ctx context.Context, id string) (model.Product, error) {
	return findOne[model.Product](ctx, r.c, id)
}

func (r productsRepo) FindByCategory(ctx context.Context, categoryID string) ([]model.Product, error) {
	return findAll[model.Product](ctx, r.c, bson.M{"category.id": categoryID})
}

func (r productsRepo) Insert(ctx context.Context, p model.Product) (model.Product, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	now := r.s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.FavoritedBy == nil {
		p.FavoritedBy = []string{}
	}
	if err := insert(ctx, r.c, p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r productsRepo) Update(ctx context.Context, p model.Product) (model.Product, error) {
	var out model.Product
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":      p.Name,
		"slug":      p.Slug,
		"price":     p.Price,
		"imageRef":  p.ImageRef,
		"updatedAt": r.s.now(),
	}}, after).Decode(&out)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return model.Product{}, store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return model.Product{}, store.ErrDuplicate
	}
	return out, err
}

func (r productsRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, id)
}

func (r productsRepo) DeleteByCategory(ctx context.Context, categoryID string) ([]string, error) {
	filter := bson.M{"category.id": categoryID}
	cur, err := r.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	if _, err := r.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r productsRepo) IncrementStock(ctx context.Context, id string, delta int) (model.Product, error) {
	return guarded[model.Product](ctx, r.c, id,
		bson.M{"itemsInStock": bson.M{"$gte": -delta}},
		bson.M{"$inc": bson.M{"itemsInStock": delta}},
		store.ErrConditionFailed)
}

func (r productsRepo) AddFavoritedBy(ctx context.Context, id, userID string) error {
	return updateOne(ctx, r.c, id, bson.M{"$addToSet": bson.M{"favoritedBy": userID}})
}

func (r productsRepo) RemoveFavoritedBy(ctx context.Context, id, userID string) error {
	return updateOne(ctx, r.c, id, bson.M{"$pull": bson.M{"favoritedBy": userID}})
}

func (r productsRepo) PullFavoritedBy(ctx context.Context, userID string) error {
	_, err := r.c.UpdateMany(ctx, bson.M{"favoritedBy": userID}, bson.M{"$pull": bson.M{"favoritedBy": userID}})
	return err
}
