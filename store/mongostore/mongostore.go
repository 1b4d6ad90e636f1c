// Package mongostore implements store.Store on MongoDB. Every conditional
// update is a single filtered write so the guard and the mutation are
// evaluated atomically by the server.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unkn0wn-root/shopmirror/store"
)

const (
	collUsers      = "users"
	collProducts   = "products"
	collCategories = "categories"
	collOrders     = "orders"
)

type Config struct {
	URI      string
	Database string
	// Timeout bounds connect and ping. 0 => 10s.
	Timeout time.Duration
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects, pings and ensures the unique indexes exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New("mongostore: uri and database are required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}
	s := New(client.Database(cfg.Database))
	s.client = client
	if err := s.EnsureIndexes(cctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Close will not disconnect it.
func New(db *mongo.Database) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureIndexes creates the unique indexes the store relies on for
// duplicate detection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(key string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}, Options: options.Index().SetUnique(true)}
	}
	plan := map[string][]mongo.IndexModel{
		collUsers:      {unique("email")},
		collCategories: {unique("name"), unique("slug")},
		collProducts:   {unique("slug"), {Keys: bson.D{{Key: "category.id", Value: 1}}}},
		collOrders:     {{Keys: bson.D{{Key: "user", Value: 1}}}},
	}
	for coll, models := range plan {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongostore: indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Users() store.Users           { return usersRepo{s: s, c: s.db.Collection(collUsers)} }
func (s *Store) Products() store.Products     { return productsRepo{s: s, c: s.db.Collection(collProducts)} }
func (s *Store) Categories() store.Categories { return categoriesRepo{s: s, c: s.db.Collection(collCategories)} }
func (s *Store) Orders() store.Orders         { return ordersRepo{s: s, c: s.db.Collection(collOrders)} }

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func newID() string { return primitive.NewObjectID().Hex() }

var after = options.FindOneAndUpdate().SetReturnDocument(options.After)

func findAll[T any](ctx context.Context, c *mongo.Collection, filter any) ([]T, error) {
	cur, err := c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, c *mongo.Collection, id string) (T, error) {
	var v T
	err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return v, store.ErrNotFound
	}
	return v, err
}

func insert(ctx context.Context, c *mongo.Collection, doc any) error {
	_, err := c.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func deleteOne(ctx context.Context, c *mongo.Collection, id string) error {
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// updateOne applies an unconditional update and maps a missing document
// to store.ErrNotFound.
func updateOne(ctx context.Context, c *mongo.Collection, id string, update any) error {
	res, err := c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// guarded runs a FindOneAndUpdate whose filter carries a guard. When nothing
// matches it tells a missing document (store.ErrNotFound) apart from a
// guard that did not hold (miss).
func guarded[T any](ctx context.Context, c *mongo.Collection, id string, guard bson.M, update any, miss error) (T, error) {
	var v T
	filter := bson.M{"_id": id}
	for k, g := range guard {
		filter[k] = g
	}
	err := c.FindOneAndUpdate(ctx, filter, update, after).Decode(&v)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return v, err
	}
	n, cerr := c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if cerr != nil {
		return v, cerr
	}
	if n == 0 {
		return v, store.ErrNotFound
	}
	return v, miss
}
