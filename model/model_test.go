package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionValid(t *testing.T) {
	for _, c := range Collections {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Collection("carts").Valid())
	assert.False(t, Collection("").Valid())
}

func TestCartAddAndRemove(t *testing.T) {
	c := NewCart()
	a := Product{ID: "a", Name: "A", Price: 1.1}
	b := Product{ID: "b", Name: "B", Price: 2.2}

	c.Add(a)
	c.Add(a)
	c.Add(b)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 4.4, c.TotalPrice)

	// price changes after the line exists do not reprice it
	a.Price = 100
	c.Add(a)
	assert.Equal(t, 1.1, c.Items[0].Price)
	assert.Equal(t, 5.5, c.TotalPrice)

	assert.Equal(t, 0, c.Remove("zzz", 1))
	assert.Equal(t, 2, c.Remove("a", 2))
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 1, c.Remove("a", 9))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2.2, c.TotalPrice)

	assert.Equal(t, 1, c.Remove("b", 1))
	assert.Empty(t, c.Items)
	assert.NotNil(t, c.Items)
	assert.Zero(t, c.TotalPrice)
	assert.Equal(t, CartActive, c.Status)
}

func TestCartRestore(t *testing.T) {
	c := NewCart()
	c.Add(Product{ID: "a", Name: "A", Price: 2})
	line := c.Items[0]
	c.Add(Product{ID: "a", Price: 2})

	require.Equal(t, 2, c.Remove("a", 5))
	c.Restore(line, 2)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, "A", c.Items[0].ProductName)
	assert.Equal(t, 4.0, c.TotalPrice)

	c.Restore(line, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	c.Restore(line, 0)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestCartPurge(t *testing.T) {
	c := NewCart()
	c.Add(Product{ID: "a", Price: 1})
	c.Add(Product{ID: "b", Price: 2})
	c.Add(Product{ID: "c", Price: 3})

	removed := c.Purge("a", "c", "missing")
	assert.Len(t, removed, 2)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2.0, c.TotalPrice)
}

func TestCheckoutCopiesLines(t *testing.T) {
	c := NewCart()
	c.Version = 7
	c.Add(Product{ID: "a", Name: "A", Price: 3})

	items, completed, fresh := c.Checkout()
	c.Items[0].ProductName = "changed"

	assert.Equal(t, "A", items[0].ProductName)
	assert.Equal(t, CartCompleted, completed.Status)
	assert.Equal(t, 3.0, completed.TotalPrice)
	assert.True(t, fresh.IsEmpty())
	assert.Equal(t, CartActive, fresh.Status)
	assert.EqualValues(t, 7, fresh.Version)
}

func TestSets(t *testing.T) {
	s := AddToSet(nil, "a")
	s = AddToSet(s, "a")
	s = AddToSet(s, "b")
	assert.Equal(t, []string{"a", "b"}, s)
	assert.Equal(t, []string{"b"}, RemoveFromSet(s, "a", "x"))
	assert.Equal(t, []string{"a", "b"}, s)
	assert.True(t, Contains(s, "b"))
}

func TestCloneIsDeep(t *testing.T) {
	u := User{ID: "u", Favorites: []string{"p"}, Cart: NewCart()}
	u.Cart.Add(Product{ID: "p", Price: 1})
	cp := u.Clone()
	cp.Favorites[0] = "x"
	cp.Cart.Items[0].Quantity = 9
	assert.Equal(t, "p", u.Favorites[0])
	assert.Equal(t, 1, u.Cart.Items[0].Quantity)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.3, Round2(0.1+0.2))
	assert.Equal(t, 39.98, Round2(19.99*2))
}
