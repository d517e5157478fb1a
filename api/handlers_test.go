package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/dairyshop/pkg/auth"
	"github.com/example/dairyshop/pkg/cart"
	"github.com/example/dairyshop/pkg/checkout"
	"github.com/example/dairyshop/pkg/config"
	"github.com/example/dairyshop/pkg/models"
	"github.com/example/dairyshop/pkg/ratelimit"
	"github.com/example/dairyshop/pkg/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type fakeCatalog struct {
	products map[string]models.Product
}

func (f *fakeCatalog) InStock(_ context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if p.InStock {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNoDocument
	}
	return &p, nil
}

func (f *fakeCatalog) Lookup(_ context.Context) (map[string]models.Product, error) {
	return f.products, nil
}

type fakeCartStore struct {
	carts map[string]*models.Cart
}

func (f *fakeCartStore) Load(_ context.Context, sessionID string) (*models.Cart, error) {
	if c, ok := f.carts[sessionID]; ok {
		return c, nil
	}
	return &models.Cart{SessionID: sessionID}, nil
}

func (f *fakeCartStore) Save(_ context.Context, c *models.Cart) error {
	f.carts[c.SessionID] = c
	return nil
}

func (f *fakeCartStore) Clear(_ context.Context, sessionID string) error {
	delete(f.carts, sessionID)
	return nil
}

type fakeOrders struct {
	orders map[string]*models.Order
}

func (f *fakeOrders) Create(_ context.Context, order *models.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNoDocument
	}
	return o, nil
}

func (f *fakeOrders) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f.orders[id]
	return ok, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string, _ int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id, status string) error {
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNoDocument
	}
	o.Status = status
	return nil
}

type fakeCheckout struct {
	submit func(ctx context.Context, identity *auth.Identity, sessionID string, form *checkout.Form) (string, error)
}

func (f *fakeCheckout) Submit(ctx context.Context, identity *auth.Identity, sessionID string, form *checkout.Form) (string, error) {
	return f.submit(ctx, identity, sessionID, form)
}

type fixture struct {
	server *Server
	orders *fakeOrders
	carts  *fakeCartStore
}

func newFixture(t *testing.T, co Checkout, limiterMax int) *fixture {
	t.Helper()

	cat := &fakeCatalog{products: map[string]models.Product{
		"ghee": {ID: "ghee", Name: "Pure Ghee", Price: 800, Unit: "kg", InStock: true},
		"milk": {ID: "milk", Name: "Cow Milk", Price: 60, Unit: "litre", InStock: true},
	}}
	engine := cart.NewEngine(cat, cart.Config{DeliveryCharge: 30, MinimumOrder: 100})
	carts := &fakeCartStore{carts: map[string]*models.Cart{}}
	orders := &fakeOrders{orders: map[string]*models.Order{}}

	cfg := &config.Config{}
	cfg.Auth = config.AuthConfig{Secret: testSecret, Issuer: "dairyshop-auth"}
	cfg.RateLimit = config.RateLimitConfig{Window: time.Hour, Max: limiterMax}

	if co == nil {
		co = &fakeCheckout{submit: func(context.Context, *auth.Identity, string, *checkout.Form) (string, error) {
			return "ORD-20250601-042", nil
		}}
	}

	server := NewServer(cfg, zap.NewNop(), cat, engine, carts, orders, co,
		auth.NewVerifier(&cfg.Auth), ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.Max))
	return &fixture{server: server, orders: orders, carts: carts}
}

func bearerToken(t *testing.T, userID string) string {
	return bearerTokenWithRole(t, userID, "")
}

func bearerTokenWithRole(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": "dairyshop-auth",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func doJSON(f *fixture, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:4000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, 5)
	w := doJSON(f, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListProducts(t *testing.T) {
	f := newFixture(t, nil, 5)
	w := doJSON(f, http.MethodGet, "/api/v1/products", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pure Ghee")
}

func TestCartRequiresSessionHeader(t *testing.T) {
	f := newFixture(t, nil, 5)
	w := doJSON(f, http.MethodGet, "/api/v1/cart", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartFlow(t *testing.T) {
	f := newFixture(t, nil, 5)
	headers := map[string]string{"X-Session-ID": "s1"}

	w := doJSON(f, http.MethodPost, "/api/v1/cart/items",
		map[string]interface{}{"product_id": "ghee", "quantity": 2}, headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(f, http.MethodGet, "/api/v1/cart", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Totals models.CartTotals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1600.0, resp.Totals.Subtotal)
	assert.Equal(t, 1630.0, resp.Totals.Total)

	w = doJSON(f, http.MethodDelete, "/api/v1/cart/items/ghee", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":true`)
}

func TestAddUnknownProduct(t *testing.T) {
	f := newFixture(t, nil, 5)
	w := doJSON(f, http.MethodPost, "/api/v1/cart/items",
		map[string]interface{}{"product_id": "butter"},
		map[string]string{"X-Session-ID": "s1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutRequiresAuth(t *testing.T) {
	f := newFixture(t, nil, 5)
	w := doJSON(f, http.MethodPost, "/api/v1/checkout",
		map[string]interface{}{}, map[string]string{"X-Session-ID": "s1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "/login")
}

func TestCheckoutSuccess(t *testing.T) {
	f := newFixture(t, nil, 5)
	headers := map[string]string{
		"X-Session-ID":  "s1",
		"Authorization": bearerToken(t, "u1"),
	}
	w := doJSON(f, http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"name":          "Asha Patil",
		"phone":         "9876543210",
		"address":       "12 MG Road, Pune, Maharashtra",
		"delivery_slot": "morning",
	}, headers)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "ORD-20250601-042")
}

func TestCheckoutValidationErrors(t *testing.T) {
	co := &fakeCheckout{submit: func(context.Context, *auth.Identity, string, *checkout.Form) (string, error) {
		return "", &checkout.ValidationError{Messages: []string{"Order must contain at least one item"}}
	}}
	f := newFixture(t, co, 5)
	headers := map[string]string{
		"X-Session-ID":  "s1",
		"Authorization": bearerToken(t, "u1"),
	}

	w := doJSON(f, http.MethodPost, "/api/v1/checkout", map[string]interface{}{}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "Order must contain at least one item")
}

func TestCheckoutEmptyCart(t *testing.T) {
	co := &fakeCheckout{submit: func(context.Context, *auth.Identity, string, *checkout.Form) (string, error) {
		return "", cart.ErrEmptyCart
	}}
	f := newFixture(t, co, 5)
	headers := map[string]string{
		"X-Session-ID":  "s1",
		"Authorization": bearerToken(t, "u1"),
	}

	w := doJSON(f, http.MethodPost, "/api/v1/checkout", map[string]interface{}{}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cart is empty")
}

func TestCheckoutRateLimited(t *testing.T) {
	f := newFixture(t, nil, 2)
	headers := map[string]string{
		"X-Session-ID":  "s1",
		"Authorization": bearerToken(t, "u1"),
	}

	for i := 0; i < 2; i++ {
		w := doJSON(f, http.MethodPost, "/api/v1/checkout", map[string]interface{}{}, headers)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doJSON(f, http.MethodPost, "/api/v1/checkout", map[string]interface{}{}, headers)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestGetOrderHidesOtherUsers(t *testing.T) {
	f := newFixture(t, nil, 5)
	f.orders.orders["ORD-20250601-001"] = &models.Order{
		ID: "ORD-20250601-001", UserID: "someone-else", Status: models.StatusPending,
	}

	w := doJSON(f, http.MethodGet, "/api/v1/orders/ORD-20250601-001", nil,
		map[string]string{"Authorization": bearerToken(t, "u1")})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t, nil, 5)
	f.orders.orders["ORD-20250601-001"] = &models.Order{
		ID: "ORD-20250601-001", UserID: "u1", Status: models.StatusPending, Total: 1600,
	}

	w := doJSON(f, http.MethodGet, "/api/v1/orders", nil,
		map[string]string{"Authorization": bearerToken(t, "u1")})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ORD-20250601-001")
}

func TestUpdateOrderStatusAsAdmin(t *testing.T) {
	f := newFixture(t, nil, 5)
	f.orders.orders["ORD-20250601-001"] = &models.Order{
		ID: "ORD-20250601-001", UserID: "u1", Status: models.StatusPending,
	}
	headers := map[string]string{"Authorization": bearerTokenWithRole(t, "staff-1", "admin")}

	w := doJSON(f, http.MethodPut, "/api/v1/orders/ORD-20250601-001/status",
		map[string]string{"status": models.StatusConfirmed}, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusConfirmed, f.orders.orders["ORD-20250601-001"].Status)

	// Delivered orders are terminal.
	f.orders.orders["ORD-20250601-001"].Status = models.StatusDelivered
	w = doJSON(f, http.MethodPut, "/api/v1/orders/ORD-20250601-001/status",
		map[string]string{"status": models.StatusCancelled}, headers)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateOrderStatusCannotTouchOtherUsersOrders(t *testing.T) {
	f := newFixture(t, nil, 5)
	f.orders.orders["ORD-20250601-001"] = &models.Order{
		ID: "ORD-20250601-001", UserID: "victim", Status: models.StatusPending,
	}
	headers := map[string]string{"Authorization": bearerToken(t, "attacker")}

	for _, status := range []string{models.StatusConfirmed, models.StatusDelivered, models.StatusCancelled} {
		w := doJSON(f, http.MethodPut, "/api/v1/orders/ORD-20250601-001/status",
			map[string]string{"status": status}, headers)
		assert.Equal(t, http.StatusNotFound, w.Code, "status %s", status)
	}
	assert.Equal(t, models.StatusPending, f.orders.orders["ORD-20250601-001"].Status,
		"order must be untouched")
}

func TestUpdateOrderStatusOwnerCanOnlyCancel(t *testing.T) {
	f := newFixture(t, nil, 5)
	f.orders.orders["ORD-20250601-001"] = &models.Order{
		ID: "ORD-20250601-001", UserID: "u1", Status: models.StatusPending,
	}
	headers := map[string]string{"Authorization": bearerToken(t, "u1")}

	w := doJSON(f, http.MethodPut, "/api/v1/orders/ORD-20250601-001/status",
		map[string]string{"status": models.StatusConfirmed}, headers)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.StatusPending, f.orders.orders["ORD-20250601-001"].Status)

	w = doJSON(f, http.MethodPut, "/api/v1/orders/ORD-20250601-001/status",
		map[string]string{"status": models.StatusCancelled}, headers)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCancelled, f.orders.orders["ORD-20250601-001"].Status)
}
