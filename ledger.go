package shopmirror

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

// adjustStock applies delta to a product's stock in one conditional store
// write. The stock floor is enforced by the store, so concurrent callers can
// never drive it negative. Callers republish products.
func (co *Core) adjustStock(ctx context.Context, op, productID string, delta int) (model.Product, error) {
	if delta == 0 {
		return model.Product{}, badRequest(op, "invalid stock delta")
	}
	p, err := co.store.Products().IncrementStock(ctx, productID, delta)
	if errors.Is(err, store.ErrConditionFailed) {
		return model.Product{}, badRequest(op, "out of stock")
	}
	if err != nil {
		return model.Product{}, fromStore(op, err, "product not found")
	}
	return p, nil
}

// AdjustStock changes a product's stock on behalf of an admin.
func (co *Core) AdjustStock(ctx context.Context, actorID, productID string, delta int) (model.Product, error) {
	const op = "ledger.adjustStock"
	if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
		return model.Product{}, err
	}
	p, err := co.adjustStock(ctx, op, productID, delta)
	if err != nil {
		return model.Product{}, err
	}
	return p, co.republish(ctx, op, model.Products)
}
