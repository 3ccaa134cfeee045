package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/favorites"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/session"
)

type Handlers struct {
	catalog   *catalog.Catalog
	carts     *cart.Store
	orders    *order.Store
	favorites *favorites.Store
	sessions  *session.Store
	checkout  *checkout.Process
}

func NewHandlers(c *catalog.Catalog, carts *cart.Store, orders *order.Store, favs *favorites.Store, sessions *session.Store, co *checkout.Process) *Handlers {
	return &Handlers{
		catalog:   c,
		carts:     carts,
		orders:    orders,
		favorites: favs,
		sessions:  sessions,
		checkout:  co,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Category: q.Get("category"),
		MinPrice: parseFloat(q.Get("minPrice")),
		MaxPrice: parseFloat(q.Get("maxPrice")),
		Featured: q.Get("featured") == "true",
	}
	sort := catalog.Sort(q.Get("sort"))
	if sort == "" {
		sort = catalog.SortFeatured
	}

	products := h.catalog.List(filter, sort)
	if products == nil {
		products = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	product, ok := h.catalog.FindByID(id)
	if !ok {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) GetSimilarProducts(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	id = strings.TrimSuffix(id, "/similar")
	if _, ok := h.catalog.FindByID(id); !ok {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}

	similar := h.catalog.Similar(id)
	if similar == nil {
		similar = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, similar)
}

func (h *Handlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	results := h.catalog.Search(r.URL.Query().Get("q"))
	if results == nil {
		results = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Categories())
}

// Cart Handlers

// CartResponse is the full cart view: lines plus derived pricing.
type CartResponse struct {
	Items  []cart.Line `json:"items"`
	Count  int         `json:"count"`
	Totals cart.Totals `json:"totals"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.Lines(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	count, err := h.carts.Count(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	totals, err := h.carts.Totals(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, CartResponse{Items: lines, Count: count, Totals: totals})
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, ok := h.catalog.FindByID(req.ProductID)
	if !ok {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}

	if err := h.carts.Add(r.Context(), product); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.GetCart(w, r)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.carts.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.GetCart(w, r)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/cart/items/")
	if err := h.carts.Remove(r.Context(), productID); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.GetCart(w, r)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context()); err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Checkout and Order Handlers

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	placed, err := h.checkout.Checkout(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			respondJSONError(w, "Not signed in", http.StatusUnauthorized)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if placed == nil {
		// Empty cart, nothing to order.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	respondJSON(w, http.StatusCreated, placed)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	current, ok, err := h.sessions.Current(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		respondJSONError(w, "Not signed in", http.StatusUnauthorized)
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), current.Email)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// Favorites Handlers

func (h *Handlers) GetFavorites(w http.ResponseWriter, r *http.Request) {
	mine, err := h.favorites.ListForCurrentUser(r.Context())
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if mine == nil {
		mine = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, mine)
}

func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, ok := h.catalog.FindByID(req.ProductID)
	if !ok {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}

	added, err := h.favorites.Toggle(r.Context(), product)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			respondJSONError(w, "Not signed in", http.StatusUnauthorized)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"favorited": added})
}

func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/favorites/")
	if err := h.favorites.Remove(r.Context(), productID); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			respondJSONError(w, "Not signed in", http.StatusUnauthorized)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
