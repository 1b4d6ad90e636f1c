// Package httpapi is the thin gin adapter in front of shopmirror.Core.
//
// Identity comes from the X-User-ID header, which an upstream
// authenticating proxy is expected to set.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/unkn0wn-root/shopmirror"
	"github.com/unkn0wn-root/shopmirror/model"
)

const (
	headerUserID = "X-User-ID"
	ctxUserID    = "userId"
)

// Shop is the part of shopmirror.Core the handlers use.
type Shop interface {
	ResolveProduct(ctx context.Context, id string) (model.Product, error)
	ResolveCategory(ctx context.Context, id string) (model.Category, error)
	ResolveOrder(ctx context.Context, id string) (model.Order, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	RegisterUser(ctx context.Context, email string) (model.User, error)
	DeleteUser(ctx context.Context, actorID, userID string) (model.User, error)
	BanUser(ctx context.Context, actorID, userID string) (model.User, error)
	UnbanUser(ctx context.Context, actorID, userID string) (model.User, error)
	ChangeRole(ctx context.Context, actorID, userID string, role model.Role) (model.User, error)

	GetCart(ctx context.Context, userID string) (model.Cart, error)
	AddCartItem(ctx context.Context, userID, productID string) (shopmirror.CartResult, error)
	RemoveCartItem(ctx context.Context, userID, productID string, amount int) (shopmirror.CartResult, error)
	PlaceOrder(ctx context.Context, userID string) (shopmirror.OrderResult, error)
	ToggleFavorite(ctx context.Context, userID, productID string, add bool) (shopmirror.FavoriteResult, error)

	AdjustStock(ctx context.Context, actorID, productID string, delta int) (model.Product, error)
	CreateCategory(ctx context.Context, actorID, name string) (model.Category, error)
	CreateProduct(ctx context.Context, actorID string, in shopmirror.ProductInput) (model.Product, error)
	UpdateProduct(ctx context.Context, actorID, productID string, patch shopmirror.ProductPatch) (model.Product, error)
	CascadeDeleteCategory(ctx context.Context, actorID, categoryID string) (shopmirror.CategoryDeletion, error)
	CascadeDeleteProduct(ctx context.Context, actorID, productID string) (model.Product, error)
}

var _ Shop = (*shopmirror.Core)(nil)

type Config struct {
	AllowOrigins []string
	Logger       shopmirror.Logger
}

type handler struct {
	shop Shop
	log  shopmirror.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(shop Shop, cfg Config) *gin.Engine {
	h := &handler{shop: shop, log: cfg.Logger}
	if h.log == nil {
		h.log = shopmirror.NopLogger{}
	}

	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog)
	if len(cfg.AllowOrigins) > 0 {
		cc := cors.DefaultConfig()
		if slices.Contains(cfg.AllowOrigins, "*") {
			cc.AllowAllOrigins = true
		} else {
			cc.AllowOrigins = cfg.AllowOrigins
		}
		cc.AllowHeaders = append(cc.AllowHeaders, headerUserID, "Authorization")
		cc.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
		r.Use(cors.New(cc))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api")
	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/categories", h.listCategories)
	api.GET("/categories/:id", h.getCategory)
	api.POST("/users", h.register)

	auth := api.Group("", requireIdentity)
	{
		auth.DELETE("/users/:id", h.deleteUser)

		auth.GET("/cart", h.getCart)
		auth.POST("/cart", h.addToCart)
		auth.DELETE("/cart/:productId", h.removeFromCart)

		auth.POST("/orders", h.placeOrder)
		auth.GET("/orders/:orderId", h.getOrder)

		auth.POST("/favorites/:productId", h.favorite(true))
		auth.DELETE("/favorites/:productId", h.favorite(false))
	}

	admin := api.Group("/admin", requireIdentity)
	{
		admin.POST("/categories", h.createCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)
		admin.POST("/products", h.createProduct)
		admin.PATCH("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
		admin.POST("/products/:id/stock", h.adjustStock)
		admin.POST("/users/:id/ban", h.ban(true))
		admin.DELETE("/users/:id/ban", h.ban(false))
		admin.PUT("/users/:id/role", h.changeRole)
	}
	return r
}

func requireIdentity(c *gin.Context) {
	id := c.GetHeader(headerUserID)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	c.Set(ctxUserID, id)
	c.Next()
}

func (h *handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Debug("http request", shopmirror.Fields{
		"method":  c.Request.Method,
		"path":    c.FullPath(),
		"status":  c.Writer.Status(),
		"elapsed": time.Since(start).String(),
	})
}

func statusOf(k shopmirror.Kind) int {
	switch k {
	case shopmirror.KindNotFound:
		return http.StatusNotFound
	case shopmirror.KindBadRequest:
		return http.StatusBadRequest
	case shopmirror.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respond writes v on success or the classified error.
func (h *handler) respond(c *gin.Context, status int, v any, err error) {
	if err == nil {
		c.JSON(status, v)
		return
	}
	kind := shopmirror.KindOf(err)
	msg := "internal error"
	var e *shopmirror.Error
	if errors.As(err, &e) {
		msg = e.Public()
	}
	if kind == shopmirror.KindInternal {
		h.log.Error("request failed", shopmirror.Fields{"path": c.FullPath(), "err": err})
	}
	c.JSON(statusOf(kind), gin.H{"error": msg})
}

func badInput(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
}

func (h *handler) listProducts(c *gin.Context) {
	v, err := h.shop.ListProducts(c.Request.Context())
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) getProduct(c *gin.Context) {
	v, err := h.shop.ResolveProduct(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) listCategories(c *gin.Context) {
	v, err := h.shop.ListCategories(c.Request.Context())
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) getCategory(c *gin.Context) {
	v, err := h.shop.ResolveCategory(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) register(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c)
		return
	}
	v, err := h.shop.RegisterUser(c.Request.Context(), req.Email)
	h.respond(c, http.StatusCreated, v, err)
}

func (h *handler) deleteUser(c *gin.Context) {
	v, err := h.shop.DeleteUser(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) getCart(c *gin.Context) {
	v, err := h.shop.GetCart(c.Request.Context(), c.GetString(ctxUserID))
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) addToCart(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c)
		return
	}
	v, err := h.shop.AddCartItem(c.Request.Context(), c.GetString(ctxUserID), req.ProductID)
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) removeFromCart(c *gin.Context) {
	amount := 1
	if s := c.Query("amount"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			badInput(c)
			return
		}
		amount = n
	}
	v, err := h.shop.RemoveCartItem(c.Request.Context(), c.GetString(ctxUserID), c.Param("productId"), amount)
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) placeOrder(c *gin.Context) {
	v, err := h.shop.PlaceOrder(c.Request.Context(), c.GetString(ctxUserID))
	h.respond(c, http.StatusCreated, v, err)
}

func (h *handler) getOrder(c *gin.Context) {
	o, err := h.shop.ResolveOrder(c.Request.Context(), c.Param("orderId"))
	if err == nil && o.UserID != c.GetString(ctxUserID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	h.respond(c, http.StatusOK, o, err)
}

func (h *handler) favorite(add bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := h.shop.ToggleFavorite(c.Request.Context(), c.GetString(ctxUserID), c.Param("productId"), add)
		h.respond(c, http.StatusOK, v, err)
	}
}

func (h *handler) createCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c)
		return
	}
	v, err := h.shop.CreateCategory(c.Request.Context(), c.GetString(ctxUserID), req.Name)
	h.respond(c, http.StatusCreated, v, err)
}

func (h *handler) deleteCategory(c *gin.Context) {
	v, err := h.shop.CascadeDeleteCategory(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) createProduct(c *gin.Context) {
	var in shopmirror.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badInput(c)
		return
	}
	v, err := h.shop.CreateProduct(c.Request.Context(), c.GetString(ctxUserID), in)
	h.respond(c, http.StatusCreated, v, err)
}

func (h *handler) updateProduct(c *gin.Context) {
	var patch shopmirror.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badInput(c)
		return
	}
	v, err := h.shop.UpdateProduct(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"), patch)
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) deleteProduct(c *gin.Context) {
	v, err := h.shop.CascadeDeleteProduct(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) adjustStock(c *gin.Context) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c)
		return
	}
	v, err := h.shop.AdjustStock(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"), req.Delta)
	h.respond(c, http.StatusOK, v, err)
}

func (h *handler) ban(banned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			v   model.User
			err error
		)
		if banned {
			v, err = h.shop.BanUser(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
		} else {
			v, err = h.shop.UnbanUser(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
		}
		h.respond(c, http.StatusOK, v, err)
	}
}

func (h *handler) changeRole(c *gin.Context) {
	var req struct {
		Role model.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c)
		return
	}
	v, err := h.shop.ChangeRole(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"), req.Role)
	h.respond(c, http.StatusOK, v, err)
}
