package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/unkn0wn-root/shopmirror/model"
)

type ordersRepo struct {
	s *Store
	c *mongo.Collection
}

func (r ordersRepo) FindAll(ctx context.Context) ([]model.Order, error) {
	return findAll[model.Order](ctx, r.c, bson.M{})
}

func (r ordersRepo) FindByID(ctx context.Context, id string) (model.Order, error) {
	return findOne[model.Order](ctx, r.c, id)
}

func (r ordersRepo) Insert(ctx context.Context, o model.Order) (model.Order, error) {
	if o.ID == "" {
		o.ID = newID()
	}
	now := r.s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if err := insert(ctx, r.c, o); err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r ordersRepo) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.c, id)
}
