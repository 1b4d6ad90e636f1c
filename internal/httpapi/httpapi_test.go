package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/shopmirror"
	"github.com/unkn0wn-root/shopmirror/model"
	rp "github.com/unkn0wn-root/shopmirror/provider/redis"
	"github.com/unkn0wn-root/shopmirror/store/memstore"
)

type env struct {
	t      *testing.T
	router *gin.Engine
	admin  model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	prov, err := rp.New(rp.Config{Client: rdb, CloseClient: true})
	require.NoError(t, err)

	mem := memstore.New(nil)
	ctx := context.Background()
	admin, err := mem.Users().Insert(ctx, model.User{Email: "root@shop.io", Role: model.RoleAdmin, Cart: model.NewCart()})
	require.NoError(t, err)

	core, err := shopmirror.New(shopmirror.Options{Store: mem, Provider: prov})
	require.NoError(t, err)
	require.NoError(t, core.Warm(ctx))
	t.Cleanup(func() { _ = core.Close(context.Background()) })

	return &env{t: t, router: NewRouter(core, Config{AllowOrigins: []string{"http://localhost:3000"}}), admin: admin}
}

func (e *env) do(method, path, user string, body any, out any) int {
	e.t.Helper()
	var rd bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&rd).Encode(body))
	}
	req := httptest.NewRequest(method, path, &rd)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(headerUserID, user)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if out != nil {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func (e *env) seedProduct(stock int) model.Product {
	e.t.Helper()
	var cat model.Category
	require.Equal(e.t, http.StatusCreated, e.do("POST", "/api/admin/categories", e.admin.ID, gin.H{"name": "Hats"}, &cat))
	var p model.Product
	code := e.do("POST", "/api/admin/products", e.admin.ID, gin.H{
		"name": "Bowler", "price": 30, "categoryId": cat.ID, "itemsInStock": stock,
	}, &p)
	require.Equal(e.t, http.StatusCreated, code)
	return p
}

func TestIdentityRequired(t *testing.T) {
	e := newEnv(t)
	var body map[string]string
	require.Equal(t, http.StatusUnauthorized, e.do("GET", "/api/cart", "", nil, &body))
	require.Equal(t, "missing identity", body["error"])
}

func TestPublicReads(t *testing.T) {
	e := newEnv(t)
	p := e.seedProduct(3)

	var list []model.Product
	require.Equal(t, http.StatusOK, e.do("GET", "/api/products", "", nil, &list))
	require.Len(t, list, 1)

	var got model.Product
	require.Equal(t, http.StatusOK, e.do("GET", "/api/products/"+p.ID, "", nil, &got))
	require.Equal(t, "Bowler", got.Name)

	var body map[string]string
	require.Equal(t, http.StatusNotFound, e.do("GET", "/api/products/nope", "", nil, &body))
	require.Equal(t, "product not found", body["error"])
}

func TestCartAndOrderFlow(t *testing.T) {
	e := newEnv(t)
	p := e.seedProduct(1)

	var u model.User
	require.Equal(t, http.StatusCreated, e.do("POST", "/api/users", "", gin.H{"email": "ann@shop.io"}, &u))

	require.Equal(t, http.StatusOK, e.do("POST", "/api/cart", u.ID, gin.H{"productId": p.ID}, nil))

	var body map[string]string
	require.Equal(t, http.StatusBadRequest, e.do("POST", "/api/cart", u.ID, gin.H{"productId": p.ID}, &body))
	require.Equal(t, "out of stock", body["error"])

	var res shopmirror.OrderResult
	require.Equal(t, http.StatusCreated, e.do("POST", "/api/orders", u.ID, nil, &res))
	require.Len(t, res.Order.Items, 1)

	var o model.Order
	require.Equal(t, http.StatusOK, e.do("GET", "/api/orders/"+res.Order.ID, u.ID, nil, &o))
	require.Equal(t, res.Order.ID, o.ID)
	require.Equal(t, http.StatusNotFound, e.do("GET", "/api/orders/"+res.Order.ID, e.admin.ID, nil, nil))
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	e := newEnv(t)
	var u model.User
	require.Equal(t, http.StatusCreated, e.do("POST", "/api/users", "", gin.H{"email": "bob@shop.io"}, &u))

	var body map[string]string
	require.Equal(t, http.StatusUnauthorized, e.do("POST", "/api/admin/categories", u.ID, gin.H{"name": "Bags"}, &body))
	require.Equal(t, "admin role required", body["error"])

	require.Equal(t, http.StatusOK, e.do("POST", "/api/admin/users/"+u.ID+"/ban", e.admin.ID, nil, nil))
	require.Equal(t, http.StatusUnauthorized, e.do("POST", "/api/cart", u.ID, gin.H{"productId": "x"}, &body))
	require.Equal(t, "user is banned", body["error"])
}

func TestBadInput(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusBadRequest, e.do("POST", "/api/users", "", gin.H{}, nil))
	require.Equal(t, http.StatusBadRequest, e.do("DELETE", "/api/cart/x?amount=lots", e.admin.ID, nil, nil))
}
