package shopmirror

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/unkn0wn-root/shopmirror/blob"
	c "github.com/unkn0wn-root/shopmirror/codec"
	gen "github.com/unkn0wn-root/shopmirror/genstore"
	"github.com/unkn0wn-root/shopmirror/model"
	pr "github.com/unkn0wn-root/shopmirror/provider"
	"github.com/unkn0wn-root/shopmirror/store"
)

// Core is the mutation and read facade. It is safe for concurrent use.
type Core struct {
	store    store.Store
	provider pr.Provider
	gen      gen.GenStore
	blobs    blob.Remover
	log      Logger
	hooks    Hooks
	now      func() time.Time
	validate *validator.Validate
	retries  int
	backoff  time.Duration
	favLocks *stripedLock

	users      *resolver[model.User]
	products   *resolver[model.Product]
	categories *resolver[model.Category]
	orders     *resolver[model.Order]
}

func newCore(opts Options) (*Core, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("shopmirror: store is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("shopmirror: provider is required")
	}

	co := &Core{
		store:    opts.Store,
		provider: opts.Provider,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		favLocks: newStripedLock(),
	}

	// defaults
	co.log = coalesce[Logger](opts.Logger, NopLogger{})
	co.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	co.blobs = coalesce[blob.Remover](opts.Blobs, blob.Nop{})
	co.backoff = coalesce(opts.RetryBackoff, defaultRetryBackoff)
	co.retries = coalesce(opts.Retries, defaultRetries)
	if co.retries < 0 {
		co.retries = 0
	}
	if opts.Clock != nil {
		co.now = opts.Clock
	} else {
		co.now = func() time.Time { return time.Now().UTC() }
	}
	if opts.GenStore != nil {
		co.gen = opts.GenStore
	} else {
		co.gen = gen.NewLocal()
	}

	ns := coalesce(opts.Namespace, defaultNamespace)
	codecName := coalesce(opts.CodecName, c.NameJSON)

	var err error
	co.users, err = newResolver(co, ns, codecName, opts.MaxDecode, model.Users, "user not found", co.store.Users().FindAll)
	if err != nil {
		return nil, err
	}
	co.products, err = newResolver(co, ns, codecName, opts.MaxDecode, model.Products, "product not found", co.store.Products().FindAll)
	if err != nil {
		return nil, err
	}
	co.categories, err = newResolver(co, ns, codecName, opts.MaxDecode, model.Categories, "category not found", co.store.Categories().FindAll)
	if err != nil {
		return nil, err
	}
	co.orders, err = newResolver(co, ns, codecName, opts.MaxDecode, model.Orders, "order not found", co.store.Orders().FindAll)
	if err != nil {
		return nil, err
	}
	return co, nil
}

func newResolver[V entity[V]](co *Core, ns, codecName string, maxDecode int, coll model.Collection,
	notFoundMsg string, load func(context.Context) ([]V, error)) (*resolver[V], error) {
	cd, err := c.ByName[[]V](codecName, maxDecode)
	if err != nil {
		return nil, fmt.Errorf("shopmirror: %w", err)
	}
	m, err := NewMirror(MirrorOptions[V]{
		Namespace:  ns,
		Collection: coll,
		Provider:   co.provider,
		Codec:      cd,
		GenStore:   co.gen,
		Logger:     co.log,
		Hooks:      co.hooks,
	})
	if err != nil {
		return nil, err
	}
	return &resolver[V]{mirror: m, load: load, notFound: notFoundMsg, log: co.log, hooks: co.hooks}, nil
}

func (co *Core) ResolveUser(ctx context.Context, id string) (model.User, error) {
	return co.users.findByID(ctx, id)
}

func (co *Core) ResolveProduct(ctx context.Context, id string) (model.Product, error) {
	return co.products.findByID(ctx, id)
}

func (co *Core) ResolveCategory(ctx context.Context, id string) (model.Category, error) {
	return co.categories.findByID(ctx, id)
}

func (co *Core) ResolveOrder(ctx context.Context, id string) (model.Order, error) {
	return co.orders.findByID(ctx, id)
}

func (co *Core) ListUsers(ctx context.Context) ([]model.User, error) { return co.users.findAll(ctx) }

func (co *Core) ListProducts(ctx context.Context) ([]model.Product, error) {
	return co.products.findAll(ctx)
}

func (co *Core) ListCategories(ctx context.Context) ([]model.Category, error) {
	return co.categories.findAll(ctx)
}

func (co *Core) ListOrders(ctx context.Context) ([]model.Order, error) { return co.orders.findAll(ctx) }

// Warm publishes all four collections from the store.
func (co *Core) Warm(ctx context.Context) error {
	if err := co.republish(ctx, "core.warm", model.Users, model.Products, model.Categories, model.Orders); err != nil {
		return err
	}
	co.log.Info("cache warmed", nil)
	return nil
}

// Close releases the generation store and the provider. The store is owned
// by the caller.
func (co *Core) Close(ctx context.Context) error {
	return multierr.Combine(co.gen.Close(ctx), co.provider.Close(ctx))
}

// republish refreshes each collection from the store. All are attempted;
// the store mutation that preceded the call is not undone on failure.
func (co *Core) republish(ctx context.Context, op string, colls ...model.Collection) error {
	var errs error
	for _, coll := range colls {
		var err error
		switch coll {
		case model.Users:
			err = co.users.republish(ctx)
		case model.Products:
			err = co.products.republish(ctx)
		case model.Categories:
			err = co.categories.republish(ctx)
		case model.Orders:
			err = co.orders.republish(ctx)
		}
		if err != nil {
			co.log.Error("republish failed", Fields{"op": op, "collection": coll.String(), "err": err})
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return internal(op, errs)
	}
	return nil
}
