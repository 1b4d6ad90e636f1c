package shopmirror

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

// blobCleanupParallelism caps concurrent image removals.
const blobCleanupParallelism = 4

// CategoryDeletion is returned by CascadeDeleteCategory.
type CategoryDeletion struct {
	Category          model.Category `json:"category"`
	RemovedProductIDs []string       `json:"removedProductIds"`
}

// CascadeDeleteCategory deletes a category and every product in it. Each
// step is idempotent, so a run that failed half way is finished by calling
// again: a category that is already gone but still referenced by products
// completes the purge.
func (co *Core) CascadeDeleteCategory(ctx context.Context, actorID, categoryID string) (CategoryDeletion, error) {
	const op = "cascade.deleteCategory"
	if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
		return CategoryDeletion{}, err
	}

	cat, err := co.store.Categories().FindByID(ctx, categoryID)
	gone := errors.Is(err, store.ErrNotFound)
	if err != nil && !gone {
		return CategoryDeletion{}, internal(op, err)
	}
	deps, err := co.store.Products().FindByCategory(ctx, categoryID)
	if err != nil {
		return CategoryDeletion{}, internal(op, err)
	}
	if gone {
		if len(deps) == 0 {
			return CategoryDeletion{}, notFound(op, "category not found")
		}
		cat = model.Category{ID: categoryID, Name: deps[0].Category.Name}
		co.log.Info("resuming category cascade", Fields{"category": categoryID, "products": len(deps)})
	}

	removed := make([]string, 0, len(deps))
	refs := make([]string, 0, len(deps))
	for _, p := range deps {
		removed = model.AddToSet(removed, p.ID)
		if p.ImageRef != "" {
			refs = append(refs, p.ImageRef)
		}
	}

	err = co.runSaga(ctx, op,
		step{
			name:  "delete_products",
			retry: true,
			do: func(ctx context.Context) error {
				ids, err := co.store.Products().DeleteByCategory(ctx, categoryID)
				for _, id := range ids {
					removed = model.AddToSet(removed, id)
				}
				return err
			},
		},
		step{
			name:  "delete_category",
			retry: true,
			do: func(ctx context.Context) error {
				if err := co.store.Categories().Delete(ctx, categoryID); err != nil && !errors.Is(err, store.ErrNotFound) {
					return err
				}
				return nil
			},
		},
		step{
			name:  "purge_orphans",
			retry: true,
			do: func(ctx context.Context) error {
				return co.purgeOrphans(ctx, op, removed)
			},
		},
	)
	if err != nil {
		return CategoryDeletion{}, fromStore(op, err, "category not found")
	}
	if err := co.republish(ctx, op, model.Products, model.Categories, model.Users); err != nil {
		return CategoryDeletion{}, err
	}
	co.removeBlobs(ctx, refs...)
	return CategoryDeletion{Category: cat, RemovedProductIDs: removed}, nil
}

// CascadeDeleteProduct deletes one product, unlinks it from its category
// and purges it from favorites and carts.
func (co *Core) CascadeDeleteProduct(ctx context.Context, actorID, productID string) (model.Product, error) {
	const op = "cascade.deleteProduct"
	if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
		return model.Product{}, err
	}
	p, err := co.store.Products().FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, fromStore(op, err, "product not found")
	}

	err = co.runSaga(ctx, op,
		step{
			name:  "unlink_category",
			retry: true,
			do: func(ctx context.Context) error {
				if err := co.store.Categories().PullProduct(ctx, p.Category.ID, p.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
					return err
				}
				return nil
			},
		},
		step{
			name:  "delete_product",
			retry: true,
			do: func(ctx context.Context) error {
				if err := co.store.Products().Delete(ctx, p.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
					return err
				}
				return nil
			},
		},
		step{
			name:  "purge_orphans",
			retry: true,
			do: func(ctx context.Context) error {
				return co.purgeOrphans(ctx, op, []string{p.ID})
			},
		},
	)
	if err != nil {
		return model.Product{}, fromStore(op, err, "product not found")
	}
	if err := co.republish(ctx, op, model.Products, model.Categories, model.Users); err != nil {
		return model.Product{}, err
	}
	co.removeBlobs(ctx, p.ImageRef)
	return p, nil
}

// purgeOrphans removes deleted products from every user's favorites and
// cart. Stock is not returned since the products no longer exist.
func (co *Core) purgeOrphans(ctx context.Context, op string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	if err := co.store.Users().PullFavorites(ctx, productIDs); err != nil {
		return err
	}
	users, err := co.store.Users().FindAll(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if !holdsAny(u.Cart, productIDs) {
			continue
		}
		_, err := co.swapCart(ctx, op, u.ID, func(c *model.Cart) error {
			c.Purge(productIDs...)
			return nil
		})
		if err != nil && KindOf(err) != KindNotFound {
			return err
		}
	}
	return nil
}

func holdsAny(c model.Cart, productIDs []string) bool {
	for _, it := range c.Items {
		if model.Contains(productIDs, it.ProductID) {
			return true
		}
	}
	return false
}

// removeBlobs deletes images concurrently. Failures are reported, never
// returned.
func (co *Core) removeBlobs(ctx context.Context, refs ...string) {
	var (
		mu   sync.Mutex
		errs error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobCleanupParallelism)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		g.Go(func() error {
			if err := co.blobs.Remove(gctx, ref); err != nil {
				co.hooks.BlobCleanupFailed(ref, err)
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if errs != nil {
		co.log.Warn("image cleanup incomplete", Fields{"failed": len(multierr.Errors(errs)), "err": errs})
	}
}
