package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/favorites"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/session"
	"github.com/example/storefront/internal/infrastructure/storage"
)

func testCatalog() *catalog.Catalog {
	products := []catalog.Product{
		{ID: "gpu-1", Name: "RTX 4090", Category: "gpus", Price: 1199, Featured: true, Rating: 4.8},
		{ID: "gpu-2", Name: "RX 7600", Category: "gpus", Price: 329, Rating: 4.2},
		{ID: "cpu-1", Name: "Ryzen 7 7800X3D", Category: "cpus", Price: 549, Featured: true, Rating: 4.9},
		{ID: "kbd-1", Name: "Keychron K8", Category: "peripherals", Price: 129, Description: "Mechanical gaming keyboard", Rating: 4.4},
	}
	categories := []catalog.Category{
		{ID: "gpus", Name: "Graphics Cards"},
		{ID: "cpus", Name: "Processors"},
		{ID: "peripherals", Name: "Peripherals"},
	}
	return catalog.New(products, categories)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	kv := storage.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })

	sessions := session.NewStore(kv, nil)
	carts := cart.NewStore(kv, 2000, 15)
	orders := order.NewStore(kv)
	favs := favorites.NewStore(kv, sessions)
	co := checkout.NewProcess(sessions, carts, orders)
	jwtService := auth.NewJWTService("test-secret", time.Hour)

	handlers := NewHandlers(testCatalog(), carts, orders, favs, sessions, co)
	authHandlers := NewAuthHandlers(sessions, jwtService)

	srv := httptest.NewServer(NewRouter(handlers, authHandlers, jwtService))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func newCookieJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

// newAuthedClient registers a user and returns a client carrying the
// session cookie.
func newAuthedClient(t *testing.T, srv *httptest.Server) *http.Client {
	t.Helper()
	jar := newCookieJar(t)
	client := &http.Client{Jar: jar}

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/auth/register", map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "Strong1!",
		"address":  "1 Loop Rd",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return client
}

// ============================================
// Catalog Tests
// ============================================

func TestGetProducts_All(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/products")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decode[[]catalog.Product](t, resp)
	assert.Len(t, products, 4)
}

func TestGetProducts_FilterAndSort(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/products?category=gpus&sort=price-low")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decode[[]catalog.Product](t, resp)
	require.Len(t, products, 2)
	assert.Equal(t, "gpu-2", products[0].ID)
	assert.Equal(t, "gpu-1", products[1].ID)
}

func TestGetProducts_NoMatchesIsEmptyArray(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/products?category=monitors")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decode[[]catalog.Product](t, resp)
	assert.Empty(t, products)
}

func TestGetProduct_ByID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/products/gpu-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	product := decode[catalog.Product](t, resp)
	assert.Equal(t, "RTX 4090", product.Name)
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/products/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSimilarProducts(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/products/gpu-1/similar")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decode[[]catalog.Product](t, resp)
	require.Len(t, products, 1)
	assert.Equal(t, "gpu-2", products[0].ID)
}

func TestSearchProducts(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/search?q=mechanical")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decode[[]catalog.Product](t, resp)
	require.Len(t, products, 1)
	assert.Equal(t, "kbd-1", products[0].ID)
}

func TestSearchProducts_BlankQuery(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/search?q=")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decode[[]catalog.Product](t, resp)
	assert.Empty(t, products)
}

func TestGetCategories(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/categories")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	categories := decode[[]catalog.Category](t, resp)
	assert.Len(t, categories, 3)
}

// ============================================
// Cart Tests
// ============================================

func TestCart_AddAndGet(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/cart/items", map[string]string{"productId": "gpu-2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	view := decode[CartResponse](t, resp)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, 329.0, view.Totals.Subtotal)
	assert.Equal(t, 15.0, view.Totals.DeliveryFee)
	assert.Equal(t, 344.0, view.Totals.Total)
}

func TestCart_AddUnknownProduct(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/cart/items", map[string]string{"productId": "nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCart_UpdateQuantityAndRemove(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/cart/items", map[string]string{"productId": "gpu-2"})
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPut, srv.URL+"/cart/items/gpu-2", map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[CartResponse](t, resp)
	assert.Equal(t, 3, view.Count)

	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/cart/items/gpu-2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[CartResponse](t, resp)
	assert.Empty(t, view.Items)
}

func TestCart_Clear(t *testing.T) {
	srv := newTestServer(t)
	client := srv.Client()

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/cart/items", map[string]string{"productId": "gpu-1"})
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/cart", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/cart")
	require.NoError(t, err)
	view := decode[CartResponse](t, getResp)
	assert.Empty(t, view.Items)
}

// ============================================
// Auth Tests
// ============================================

func TestRegister_SetsCookieAndSession(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[SessionResponse](t, resp)
	assert.Equal(t, "Ada", me.Name)
	assert.Equal(t, "ada@example.com", me.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	newAuthedClient(t, srv)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/auth/register", map[string]string{
		"name":     "Imposter",
		"email":    "ada@example.com",
		"password": "Strong1!",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_WeakPassword(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/auth/register", map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "weakpass",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister_MissingFields(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/auth/register", map[string]string{
		"email": "ada@example.com",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newTestServer(t)
	newAuthedClient(t, srv)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "Wrong1!x",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_AfterLogout(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/auth/logout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "Strong1!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[SessionResponse](t, resp)
	assert.Equal(t, "Ada", me.Name)
}

func TestMe_NoToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateProfile_ChangesName(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	resp := doJSON(t, client, http.MethodPut, srv.URL+"/auth/profile", map[string]string{
		"name":    "Ada L.",
		"address": "2 Loop Rd",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[SessionResponse](t, resp)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, "ada@example.com", updated.Email)
}

// ============================================
// Checkout and Order Tests
// ============================================

func TestCheckout_FullFlow(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/cart/items", map[string]string{"productId": "kbd-1"})
	resp.Body.Close()
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/cart/items", map[string]string{"productId": "kbd-1"})
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/checkout", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	placed := decode[order.Order](t, resp)
	assert.Equal(t, "ada@example.com", placed.OwnerEmail)
	assert.Equal(t, 258.0, placed.Subtotal)
	assert.Equal(t, 273.0, placed.Total)

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decode[[]order.Order](t, resp)
	require.Len(t, orders, 1)
	assert.Equal(t, placed.ID, orders[0].ID)

	// Cart is emptied by checkout.
	getResp, err := http.Get(srv.URL + "/cart")
	require.NoError(t, err)
	view := decode[CartResponse](t, getResp)
	assert.Empty(t, view.Items)
}

func TestCheckout_EmptyCart(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/checkout", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCheckout_NoToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/checkout", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ============================================
// Favorites Tests
// ============================================

func TestFavorites_ToggleAndList(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/favorites", map[string]string{"productId": "gpu-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decode[map[string]bool](t, resp)
	assert.True(t, toggled["favorited"])

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/favorites", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decode[[]catalog.Product](t, resp)
	require.Len(t, mine, 1)
	assert.Equal(t, "gpu-1", mine[0].ID)

	// Second toggle removes.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/favorites", map[string]string{"productId": "gpu-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled = decode[map[string]bool](t, resp)
	assert.False(t, toggled["favorited"])
}

func TestFavorites_Remove(t *testing.T) {
	srv := newTestServer(t)
	client := newAuthedClient(t, srv)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/favorites", map[string]string{"productId": "gpu-1"})
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodDelete, srv.URL+"/favorites/gpu-1", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, client, http.MethodGet, srv.URL+"/favorites", nil)
	mine := decode[[]catalog.Product](t, resp)
	assert.Empty(t, mine)
}

func TestFavorites_NoToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/favorites", map[string]string{"productId": "gpu-1"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
