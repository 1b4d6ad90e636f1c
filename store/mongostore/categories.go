package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/unkn0wn-root/shopmirror/model"
)

type categoriesRepo struct {
	s *Store
	c *mongo.Collection
}

func (r categoriesRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	return findAll[model.Category](ctx, r.c, bson.M{})
}

func (r categoriesRepo) FindByID(ctx context.Context, id string) (model.Category, error) {
	return findOne[model.Category](ctx, r.c, id)
}

func (r categoriesRepo) Insert(ctx context.Context, c model.Category) (model.Category, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.s.now()
	}
	if c.Products == nil {
		c.Products = []string{}
	}
	if err := insert(ctx, r.c, c); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r categoriesRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, id)
}

func (r categoriesRepo) PushProduct(ctx context.Context, id, productID string) error {
	return updateOne(ctx, r.c, id, bson.M{"$addToSet": bson.M{"products": productID}})
}

func (r categoriesRepo) PullProduct(ctx context.Context, id, productID string) error {
	return updateOne(ctx, r.c, id, bson.M{"$pull": bson.M{"products": productID}})
}
