package shopmirror

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unkn0wn-root/shopmirror/internal/slug"
	"github.com/unkn0wn-root/shopmirror/model"
	"github.com/unkn0wn-root/shopmirror/store"
)

// ProductInput is the payload for CreateProduct.
type ProductInput struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Price        float64 `json:"price" validate:"gte=0"`
	CategoryID   string  `json:"categoryId" validate:"required"`
	ItemsInStock int     `json:"itemsInStock" validate:"gte=0"`
	ImageRef     string  `json:"imageRef"`
}

// ProductPatch carries the fields UpdateProduct may change. Nil means unchanged.
type ProductPatch struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	ImageRef *string  `json:"imageRef,omitempty"`
}

// requireAdmin re-reads the actor from the store.
func (co *Core) requireAdmin(ctx context.Context, op, actorID string) (model.User, error) {
	u, err := co.store.Users().FindByID(ctx, actorID)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, unauthorized(op, "unknown user")
	}
	if err != nil {
		return model.User{}, internal(op, err)
	}
	if !u.IsAdmin() || u.IsBanned {
		return model.User{}, unauthorized(op, "admin role required")
	}
	return u, nil
}

// activeUser returns the user if it exists and is not banned.
func (co *Core) activeUser(ctx context.Context, op, userID string) (model.User, error) {
	u, err := co.store.Users().FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, unauthorized(op, "unknown user")
	}
	if err != nil {
		return model.User{}, internal(op, err)
	}
	if u.IsBanned {
		return model.User{}, unauthorized(op, "user is banned")
	}
	return u, nil
}

func (co *Core) invalid(op string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return badRequest(op, fmt.Sprintf("invalid %s: failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return badRequest(op, "invalid input")
}

// RegisterUser creates a user with the default role and an empty cart.
func (co *Core) RegisterUser(ctx context.Context, email string) (model.User, error) {
	const op = "admin.registerUser"
	email = strings.ToLower(strings.TrimSpace(email))
	if err := co.validate.Var(email, "required,email"); err != nil {
		return model.User{}, badRequest(op, "invalid email")
	}
	u, err := co.store.Users().Insert(ctx, model.User{
		Email:     email,
		Role:      model.RoleUser,
		Favorites: []string{},
		Cart:      model.NewCart(),
		Orders:    []string{},
		CreatedAt: co.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return model.User{}, badRequest(op, "email already registered")
	}
	if err != nil {
		return model.User{}, internal(op, err)
	}
	return u, co.republish(ctx, op, model.Users)
}

// DeleteUser removes a user. A user may delete itself; anyone else must be
// an admin. Reserved cart stock goes back to inventory and the user leaves
// every product's favoritedBy. Orders are kept.
func (co *Core) DeleteUser(ctx context.Context, actorID, userID string) (model.User, error) {
	const op = "admin.deleteUser"
	if actorID != userID {
		if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
			return model.User{}, err
		}
	}
	u, err := co.store.Users().FindByID(ctx, userID)
	if err != nil {
		return model.User{}, fromStore(op, err, "user not found")
	}

	var lines []model.CartItem
	err = co.runSaga(ctx, op,
		step{
			name:  "pull_favorited_by",
			retry: true,
			do: func(ctx context.Context) error {
				return co.store.Products().PullFavoritedBy(ctx, userID)
			},
		},
		step{
			name: "empty_cart",
			do: func(ctx context.Context) error {
				_, err := co.swapCart(ctx, op, userID, func(c *model.Cart) error {
					lines = c.Items
					*c = model.NewCart()
					return nil
				})
				return err
			},
		},
		step{
			name: "release_stock",
			do: func(ctx context.Context) error {
				for _, it := range lines {
					_, err := co.store.Products().IncrementStock(ctx, it.ProductID, it.Quantity)
					if err != nil && !errors.Is(err, store.ErrNotFound) {
						return err
					}
				}
				return nil
			},
		},
		step{
			name:  "delete_user",
			retry: true,
			do: func(ctx context.Context) error {
				if err := co.store.Users().Delete(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
					return err
				}
				return nil
			},
		},
	)
	if err != nil {
		return model.User{}, fromStore(op, err, "user not found")
	}
	return u, co.republish(ctx, op, model.Users, model.Products)
}

func (co *Core) BanUser(ctx context.Context, actorID, userID string) (model.User, error) {
	const op = "admin.banUser"
	if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
		return model.User{}, err
	}
	target, err := co.store.Users().FindByID(ctx, userID)
	if err != nil {
		return model.User{}, fromStore(op, err, "user not found")
	}
	if target.IsAdmin() {
		return model.User{}, badRequest(op, "cannot ban an admin")
	}
	return co.setBanned(ctx, op, userID, true, "user already banned")
}

func (co *Core) UnbanUser(ctx context.Context, actorID, userID string) (model.User, error) {
	const op = "admin.unbanUser"
	if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
		return model.User{}, err
	}
	return co.setBanned(ctx, op, userID, false, "user is not banned")
}

func (co *Core) setBanned(ctx context.Context, op, userID string, banned bool, unchanged string) (model.User, error) {
	u, err := co.store.Users().SetBanned(ctx, userID, banned)
	if errors.Is(err, store.ErrConditionFailed) {
		return model.User{}, badRequest(op, unchanged)
	}
	if err != nil {
		return model.User{}, fromStore(op, err, "user not found")
	}
	return u, co.republish(ctx, op, model.Users)
}

func (co *Core) ChangeRole(ctx context.Context, actorID, userID string, role model.Role) (model.User, error) {
	const op = "admin.changeRole"
	if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
		return model.User{}, err
	}
	if !role.Valid() {
		return model.User{}, badRequest(op, "invalid role")
	}
	if actorID == userID {
		return model.User{}, badRequest(op, "cannot change own role")
	}
	u, err := co.store.Users().SetRole(ctx, userID, role)
	if errors.Is(err, store.ErrConditionFailed) {
		return model.User{}, badRequest(op, "user already has role")
	}
	if err != nil {
		return model.User{}, fromStore(op, err, "user not found")
	}
	return u, co.republish(ctx, op, model.Users)
}

func (co *Core) CreateCategory(ctx context.Context, actorID, name string) (model.Category, error) {
	const op = "admin.createCategory"
	if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
		return model.Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, badRequest(op, "category name is required")
	}
	s := slug.Make(name)
	if s == "" {
		return model.Category{}, badRequest(op, "invalid category name")
	}
	cat, err := co.store.Categories().Insert(ctx, model.Category{
		Name:      name,
		Slug:      s,
		Products:  []string{},
		CreatedAt: co.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return model.Category{}, badRequest(op, "category already exists")
	}
	if err != nil {
		return model.Category{}, internal(op, err)
	}
	return cat, co.republish(ctx, op, model.Categories)
}

func (co *Core) CreateProduct(ctx context.Context, actorID string, in ProductInput) (model.Product, error) {
	const op = "admin.createProduct"
	actor, err := co.requireAdmin(ctx, op, actorID)
	if err != nil {
		return model.Product{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := co.validate.Struct(in); err != nil {
		return model.Product{}, co.invalid(op, err)
	}
	s := slug.Make(in.Name)
	if s == "" {
		return model.Product{}, badRequest(op, "invalid product name")
	}
	cat, err := co.store.Categories().FindByID(ctx, in.CategoryID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Product{}, badRequest(op, "category not found")
	}
	if err != nil {
		return model.Product{}, internal(op, err)
	}

	now := co.now()
	p := model.Product{
		Name:         in.Name,
		Slug:         s,
		Price:        model.Round2(in.Price),
		Category:     model.CategoryRef{ID: cat.ID, Name: cat.Name},
		ItemsInStock: in.ItemsInStock,
		FavoritedBy:  []string{},
		CreatedBy:    actor.ID,
		ImageRef:     in.ImageRef,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = co.runSaga(ctx, op,
		step{
			name: "insert_product",
			do: func(ctx context.Context) (err error) {
				p, err = co.store.Products().Insert(ctx, p)
				if errors.Is(err, store.ErrDuplicate) {
					return badRequest(op, "product already exists")
				}
				return err
			},
			undo: func(ctx context.Context) error {
				return co.store.Products().Delete(ctx, p.ID)
			},
		},
		step{
			name:  "link_category",
			retry: true,
			do: func(ctx context.Context) error {
				return fromStore(op, co.store.Categories().PushProduct(ctx, cat.ID, p.ID), "category not found")
			},
		},
	)
	if err != nil {
		return model.Product{}, fromStore(op, err, "category not found")
	}
	return p, co.republish(ctx, op, model.Products, model.Categories)
}

// UpdateProduct edits catalog fields. Cart lines and orders keep the
// snapshots taken when they were written.
func (co *Core) UpdateProduct(ctx context.Context, actorID, productID string, patch ProductPatch) (model.Product, error) {
	const op = "admin.updateProduct"
	if _, err := co.requireAdmin(ctx, op, actorID); err != nil {
		return model.Product{}, err
	}
	if err := co.validate.Struct(patch); err != nil {
		return model.Product{}, co.invalid(op, err)
	}
	p, err := co.store.Products().FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, fromStore(op, err, "product not found")
	}
	oldImage := p.ImageRef
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" || slug.Make(name) == "" {
			return model.Product{}, badRequest(op, "invalid product name")
		}
		p.Name = name
		p.Slug = slug.Make(name)
	}
	if patch.Price != nil {
		p.Price = model.Round2(*patch.Price)
	}
	if patch.ImageRef != nil {
		p.ImageRef = *patch.ImageRef
	}

	p, err = co.store.Products().Update(ctx, p)
	if errors.Is(err, store.ErrDuplicate) {
		return model.Product{}, badRequest(op, "product already exists")
	}
	if err != nil {
		return model.Product{}, fromStore(op, err, "product not found")
	}
	if oldImage != "" && oldImage != p.ImageRef {
		co.removeBlobs(ctx, oldImage)
	}
	return p, co.republish(ctx, op, model.Products)
}
