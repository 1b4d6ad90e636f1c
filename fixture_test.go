package shopmirror

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
	"github.com/unkn0wn-root/shopmirror/store/memstore"
)

var errInjected = errors.New("injected failure")

type fixture struct {
	t     *testing.T
	ctx   context.Context
	mem   *memstore.Store
	mp    *memProvider
	core  *Core
	hooks *recHooks
	blobs *recBlobs
	admin model.User
	cat   model.Category
}

func newFixture(t *testing.T, wrap func(store.Store) store.Store) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		t:     t,
		ctx:   ctx,
		mem:   memstore.New(nil),
		mp:    newMemProvider(),
		hooks: &recHooks{},
		blobs: &recBlobs{},
	}
	var s store.Store = f.mem
	if wrap != nil {
		s = wrap(f.mem)
	}
	core, err := New(Options{
		Store:        s,
		Provider:     f.mp,
		Blobs:        f.blobs,
		Hooks:        f.hooks,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	f.core = core

	f.admin, err = f.mem.Users().Insert(ctx, model.User{
		Email: "admin@shop.io", Role: model.RoleAdmin, Cart: model.NewCart(),
	})
	require.NoError(t, err)
	require.NoError(t, core.Warm(ctx))
	f.cat, err = core.CreateCategory(ctx, f.admin.ID, "Shoes")
	require.NoError(t, err)
	return f
}

func (f *fixture) user(email string) model.User {
	f.t.Helper()
	u, err := f.core.RegisterUser(f.ctx, email)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) product(name string, price float64, stock int) model.Product {
	f.t.Helper()
	p, err := f.core.CreateProduct(f.ctx, f.admin.ID, ProductInput{
		Name: name, Price: price, CategoryID: f.cat.ID, ItemsInStock: stock, ImageRef: "img/" + name + ".png",
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) storedUser(id string) model.User {
	f.t.Helper()
	u, err := f.mem.Users().FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return u
}

func (f *fixture) storedProduct(id string) model.Product {
	f.t.Helper()
	p, err := f.mem.Products().FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return p
}

func requireKind(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "err: %v", err)
	if msg != "" {
		var e *Error
		require.ErrorAs(t, err, &e)
		require.Equal(t, msg, e.Public())
	}
}

// faultStore swaps in wrapped repositories.
type faultStore struct {
	store.Store
	users    store.Users
	products store.Products
}

func (f faultStore) Users() store.Users {
	if f.users != nil {
		return f.users
	}
	return f.Store.Users()
}

func (f faultStore) Products() store.Products {
	if f.products != nil {
		return f.products
	}
	return f.Store.Products()
}

type faultUsers struct {
	store.Users
	swapErr     error
	checkoutErr error
	beforeSwap  func()
}

func (u faultUsers) SwapCart(ctx context.Context, id string, expected int64, c model.Cart) (model.User, error) {
	if u.beforeSwap != nil {
		u.beforeSwap()
	}
	if u.swapErr != nil {
		return model.User{}, u.swapErr
	}
	return u.Users.SwapCart(ctx, id, expected, c)
}

func (u faultUsers) CompleteCheckout(ctx context.Context, id string, expected int64, orderID string, fresh model.Cart) (model.User, error) {
	if u.checkoutErr != nil {
		return model.User{}, u.checkoutErr
	}
	return u.Users.CompleteCheckout(ctx, id, expected, orderID, fresh)
}

type faultProducts struct {
	store.Products
	favErr    error
	beforeFav func()
	returnErr error // fails stock increments (delta > 0)
	listGate  *gate
}

func (p faultProducts) AddFavoritedBy(ctx context.Context, id, userID string) error {
	if p.beforeFav != nil {
		p.beforeFav()
	}
	if p.favErr != nil {
		return p.favErr
	}
	return p.Products.AddFavoritedBy(ctx, id, userID)
}

func (p faultProducts) IncrementStock(ctx context.Context, id string, delta int) (model.Product, error) {
	if delta > 0 && p.returnErr != nil {
		return model.Product{}, p.returnErr
	}
	return p.Products.IncrementStock(ctx, id, delta)
}

func (p faultProducts) FindAll(ctx context.Context) ([]model.Product, error) {
	if p.listGate != nil {
		if err := p.listGate.wait(ctx); err != nil {
			return nil, err
		}
	}
	return p.Products.FindAll(ctx)
}

// gate holds every call made while it is armed until release is closed.
// entered is closed by the first held call.
type gate struct {
	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	if !g.armed.Load() {
		return nil
	}
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return ctx.Err()
}

// recBlobs records removals; refs listed in fail return an error.
type recBlobs struct {
	mu      sync.Mutex
	removed []string
	fail    map[string]bool
}

func (b *recBlobs) Remove(_ context.Context, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail[ref] {
		return errInjected
	}
	b.removed = append(b.removed, ref)
	return nil
}
