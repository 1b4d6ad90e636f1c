package shopmirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/shopmirror/store"
)

// TestFavoriteRoundTrip: add then remove leaves both sides as they were.
func TestFavoriteRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product("hat", 12, 1)
	u := f.user("u@x.io")

	res, err := f.core.ToggleFavorite(f.ctx, u.ID, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, res.User.Favorites)
	assert.Equal(t, []string{u.ID}, res.Product.FavoritedBy)

	cachedUser, err := f.core.ResolveUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, cachedUser.Favorites)
	cachedProduct, err := f.core.ResolveProduct(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, cachedProduct.FavoritedBy)

	_, err = f.core.ToggleFavorite(f.ctx, u.ID, p.ID, true)
	requireKind(t, err, KindBadRequest, "already in favorites")

	res, err = f.core.ToggleFavorite(f.ctx, u.ID, p.ID, false)
	require.NoError(t, err)
	assert.Empty(t, res.User.Favorites)
	assert.Empty(t, res.Product.FavoritedBy)

	_, err = f.core.ToggleFavorite(f.ctx, u.ID, p.ID, false)
	requireKind(t, err, KindBadRequest, "not in favorites")
}

func TestFavoriteRejections(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product("hat", 12, 1)
	u := f.user("u@x.io")

	_, err := f.core.ToggleFavorite(f.ctx, u.ID, "missing", true)
	requireKind(t, err, KindNotFound, "product not found")

	_, err = f.core.BanUser(f.ctx, f.admin.ID, u.ID)
	require.NoError(t, err)
	_, err = f.core.ToggleFavorite(f.ctx, u.ID, p.ID, true)
	requireKind(t, err, KindUnauthorized, "user is banned")
}

func TestFavoriteCompensatesUserSide(t *testing.T) {
	f := newFixture(t, func(s store.Store) store.Store {
		return faultStore{Store: s, products: faultProducts{Products: s.Products(), favErr: errInjected}}
	})
	p := f.product("hat", 12, 1)
	u := f.user("u@x.io")

	_, err := f.core.ToggleFavorite(f.ctx, u.ID, p.ID, true)
	requireKind(t, err, KindInternal, "")

	assert.Empty(t, f.storedUser(u.ID).Favorites)
	assert.Empty(t, f.storedProduct(p.ID).FavoritedBy)
	assert.Empty(t, f.hooks.compFailed)
}
