package shopmirror

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

// CartResult is returned by cart mutations.
type CartResult struct {
	Cart    model.Cart    `json:"cart"`
	Product model.Product `json:"product"`
}

// OrderResult is returned by PlaceOrder.
type OrderResult struct {
	Order model.Order `json:"order"`
	Cart  model.Cart  `json:"cart"`
}

// AddCartItem reserves one unit of the product and adds it to the user's
// cart. A new line snapshots the product price. If the product is deleted
// while the line is being written, the line and the reservation are withdrawn.
func (co *Core) AddCartItem(ctx context.Context, userID, productID string) (CartResult, error) {
	const op = "cart.addItem"
	if _, err := co.activeUser(ctx, op, userID); err != nil {
		return CartResult{}, err
	}
	if _, err := co.products.findByID(ctx, productID); err != nil {
		return CartResult{}, err
	}

	var (
		reserved model.Product
		cart     model.Cart
	)
	err := co.runSaga(ctx, op,
		step{
			name: "reserve_stock",
			do: func(ctx context.Context) (err error) {
				reserved, err = co.adjustStock(ctx, op, productID, -1)
				return err
			},
			undo: func(ctx context.Context) error {
				_, err := co.store.Products().IncrementStock(ctx, productID, 1)
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return err
			},
		},
		step{
			name: "write_cart",
			do: func(ctx context.Context) (err error) {
				cart, err = co.swapCart(ctx, op, userID, func(c *model.Cart) error {
					c.Add(reserved)
					return nil
				})
				return err
			},
			undo: func(ctx context.Context) error {
				_, err := co.swapCart(ctx, op, userID, func(c *model.Cart) error {
					c.Remove(productID, 1)
					return nil
				})
				return err
			},
		},
		step{
			// a cascade that purged carts before the line landed cannot see it
			name:  "confirm_product",
			retry: true,
			do: func(ctx context.Context) error {
				_, err := co.store.Products().FindByID(ctx, productID)
				return fromStore(op, err, "product not found")
			},
		},
	)
	if err != nil {
		return CartResult{}, err
	}
	return CartResult{Cart: cart, Product: reserved}, co.republish(ctx, op, model.Users, model.Products)
}

// RemoveCartItem takes amount units of the product out of the cart and
// returns to stock exactly what was removed. If the stock cannot be returned
// the units go back into the cart.
func (co *Core) RemoveCartItem(ctx context.Context, userID, productID string, amount int) (CartResult, error) {
	const op = "cart.removeItem"
	if amount < 1 {
		return CartResult{}, badRequest(op, "invalid amount")
	}
	u, err := co.activeUser(ctx, op, userID)
	if err != nil {
		return CartResult{}, err
	}
	if u.Cart.IsEmpty() {
		return CartResult{}, badRequest(op, "cart is empty")
	}

	var (
		removed int
		line    model.CartItem
		cart    model.Cart
		p       model.Product
	)
	err = co.runSaga(ctx, op,
		step{
			name: "write_cart",
			do: func(ctx context.Context) (err error) {
				cart, err = co.swapCart(ctx, op, userID, func(c *model.Cart) error {
					if c.IsEmpty() {
						return badRequest(op, "cart is empty")
					}
					i := c.Line(productID)
					if i < 0 {
						return badRequest(op, "product not in cart")
					}
					line = c.Items[i]
					removed = c.Remove(productID, amount)
					return nil
				})
				return err
			},
			undo: func(ctx context.Context) error {
				_, err := co.swapCart(ctx, op, userID, func(c *model.Cart) error {
					c.Restore(line, removed)
					return nil
				})
				return err
			},
		},
		step{
			name: "return_stock",
			do: func(ctx context.Context) (err error) {
				p, err = co.adjustStock(ctx, op, productID, removed)
				if KindOf(err) == KindNotFound {
					// the product is gone; nothing to return stock to
					co.log.Warn("removed cart line for missing product", Fields{"product": productID})
					p = model.Product{ID: productID, Name: line.ProductName, Price: line.Price, ImageRef: line.Image}
					return nil
				}
				return err
			},
		},
	)
	if err != nil {
		return CartResult{}, err
	}
	return CartResult{Cart: cart, Product: p}, co.republish(ctx, op, model.Users, model.Products)
}

// GetCart returns the user's cart from the users mirror.
func (co *Core) GetCart(ctx context.Context, userID string) (model.Cart, error) {
	const op = "cart.get"
	u, err := co.users.findByID(ctx, userID)
	if err != nil {
		return model.Cart{}, err
	}
	if u.Cart.IsEmpty() {
		return model.Cart{}, notFound(op, "cart is empty")
	}
	return u.Cart, nil
}

// PlaceOrder turns the active cart into an order and installs a fresh cart.
// The checkout write is conditioned on the cart version read here; if the
// cart changed in between, the order is withdrawn.
func (co *Core) PlaceOrder(ctx context.Context, userID string) (OrderResult, error) {
	const op = "cart.placeOrder"
	u, err := co.activeUser(ctx, op, userID)
	if err != nil {
		return OrderResult{}, err
	}
	if u.Cart.Status != model.CartActive || u.Cart.IsEmpty() {
		return OrderResult{}, badRequest(op, "cart is empty")
	}

	items, completed, fresh := u.Cart.Checkout()
	order := model.Order{
		UserID:     u.ID,
		Items:      items,
		TotalPrice: completed.TotalPrice,
		Status:     model.OrderProcessing,
		CreatedAt:  co.now(),
	}
	var after model.User
	err = co.runSaga(ctx, op,
		step{
			name: "insert_order",
			do: func(ctx context.Context) (err error) {
				order, err = co.store.Orders().Insert(ctx, order)
				return err
			},
			undo: func(ctx context.Context) error {
				return co.store.Orders().Delete(ctx, order.ID)
			},
		},
		step{
			name:  "complete_checkout",
			retry: true,
			do: func(ctx context.Context) (err error) {
				after, err = co.store.Users().CompleteCheckout(ctx, u.ID, u.Cart.Version, order.ID, fresh)
				switch {
				case errors.Is(err, store.ErrConflict):
					return badRequest(op, "cart changed during checkout")
				case errors.Is(err, store.ErrNotFound):
					return notFound(op, "user not found")
				}
				return err
			},
		},
	)
	if err != nil {
		return OrderResult{}, fromStore(op, err, "user not found")
	}
	return OrderResult{Order: order, Cart: after.Cart}, co.republish(ctx, op, model.Users, model.Orders, model.Products)
}

// swapCart applies mutate to a fresh copy of the user's cart and writes it
// back with a version check, re-reading and retrying on conflict.
func (co *Core) swapCart(ctx context.Context, op, userID string, mutate func(*model.Cart) error) (model.Cart, error) {
	users := co.store.Users()
	for attempt := 0; attempt < maxCartSwaps; attempt++ {
		u, err := users.FindByID(ctx, userID)
		if err != nil {
			return model.Cart{}, fromStore(op, err, "user not found")
		}
		cart := u.Cart.Clone()
		if err := mutate(&cart); err != nil {
			return model.Cart{}, err
		}
		updated, err := users.SwapCart(ctx, userID, u.Cart.Version, cart)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return model.Cart{}, fromStore(op, err, "user not found")
		}
		return updated.Cart, nil
	}
	return model.Cart{}, internal(op, store.ErrConflict)
}
