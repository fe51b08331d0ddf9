package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"go.uber.org/zap/zapcore"

	"github.com/drstein77/storefront/internal/catalog"
	"github.com/drstein77/storefront/internal/middleware"
	"github.com/drstein77/storefront/internal/models"
	"github.com/drstein77/storefront/internal/storage"
)

// Storage is the state container the controller reads from and mutates.
type Storage interface {
	FetchProducts(ctx context.Context, page int) error
	FetchCategories(ctx context.Context) error
	FetchProduct(ctx context.Context, id int) (*models.Product, error)
	SetFilter(ctx context.Context, f models.Filter) error
	SearchDebounced(query string)
	AddToCart(p models.Product)
	ReduceQuantity(id int)
	RemoveFromCart(id int)
	ClearCart()
	CartView() models.CartView
	Snapshot() models.State
	Ping(ctx context.Context) bool
}

// Log interface for logging
type Log interface {
	Info(string, ...zapcore.Field)
}

// BaseController struct for handling requests
type BaseController struct {
	ctx     context.Context
	storage Storage
	log     Log
}

// NewBaseController creates a new BaseController instance
func NewBaseController(ctx context.Context, storage Storage, log Log) *BaseController {
	return &BaseController{
		ctx:     ctx,
		storage: storage,
		log:     log,
	}
}

// Route sets up the routes for the BaseController
func (h *BaseController) Route() *chi.Mux {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(middleware.CompressResponseMiddleware)
		r.Get("/api/v0/state", h.getState)
		r.Get("/api/v0/products", h.getProducts)
		r.Get("/api/v0/products/search", h.searchProducts)
		r.Get("/api/v0/products/{id}", h.getProduct)
		r.Get("/api/v0/categories", h.getCategories)
	})

	r.Put("/api/v0/filter", h.putFilter)
	r.Get("/api/v0/cart", h.getCart)
	r.Post("/api/v0/cart/items", h.postCartItem)
	r.Patch("/api/v0/cart/items/{id}/reduce", h.reduceCartItem)
	r.Delete("/api/v0/cart/items/{id}", h.deleteCartItem)
	r.Delete("/api/v0/cart", h.clearCart)
	r.Get("/ping", h.ping)

	return r
}

func (h *BaseController) getState(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.storage.Snapshot())
}

// getProducts loads the requested catalog page and returns the resulting
// state. A load already in flight or a page past the end is not an error for
// the client; the current state comes back unchanged.
func (h *BaseController) getProducts(w http.ResponseWriter, r *http.Request) {
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		var err error
		if page, err = strconv.Atoi(raw); err != nil || page < 0 {
			http.Error(w, fmt.Sprintf("invalid page %q", raw), http.StatusBadRequest)
			return
		}
	}

	err := h.storage.FetchProducts(r.Context(), page)
	switch {
	case err == nil,
		errors.Is(err, storage.ErrFetchInFlight),
		errors.Is(err, storage.ErrNoMorePages):
		h.writeJSON(w, http.StatusOK, h.storage.Snapshot())
	default:
		http.Error(w, fmt.Sprintf("failed to load products: %v", err), http.StatusBadGateway)
	}
}

func (h *BaseController) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	product, err := h.storage.FetchProduct(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, fmt.Sprintf("product %d not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to load product: %v", err), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

// searchProducts arms the debounced search; the fetch fires once input has
// been quiet for the configured interval, so the response is just the current
// state.
func (h *BaseController) searchProducts(w http.ResponseWriter, r *http.Request) {
	h.storage.SearchDebounced(r.URL.Query().Get("q"))
	h.writeJSON(w, http.StatusAccepted, h.storage.Snapshot())
}

func (h *BaseController) getCategories(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.FetchCategories(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("failed to load categories: %v", err), http.StatusBadGateway)
		return
	}
	h.writeJSON(w, http.StatusOK, h.storage.Snapshot().Categories)
}

func (h *BaseController) putFilter(w http.ResponseWriter, r *http.Request) {
	var f models.Filter
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, "invalid filter payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	err := h.storage.SetFilter(r.Context(), f)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, h.storage.Snapshot())
	case errors.Is(err, storage.ErrFetchInFlight):
		http.Error(w, "a catalog load is in flight, retry shortly", http.StatusConflict)
	default:
		http.Error(w, fmt.Sprintf("failed to apply filter: %v", err), http.StatusBadGateway)
	}
}

func (h *BaseController) getCart(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.storage.CartView())
}

func (h *BaseController) postCartItem(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid product payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if p.ID == 0 {
		http.Error(w, "product id is required", http.StatusBadRequest)
		return
	}

	h.storage.AddToCart(p)
	h.writeJSON(w, http.StatusOK, h.storage.CartView())
}

func (h *BaseController) reduceCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	h.storage.ReduceQuantity(id)
	h.writeJSON(w, http.StatusOK, h.storage.CartView())
}

func (h *BaseController) deleteCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	h.storage.RemoveFromCart(id)
	h.writeJSON(w, http.StatusOK, h.storage.CartView())
}

func (h *BaseController) clearCart(w http.ResponseWriter, _ *http.Request) {
	h.storage.ClearCart()
	h.writeJSON(w, http.StatusOK, h.storage.CartView())
}

func (h *BaseController) ping(w http.ResponseWriter, r *http.Request) {
	if !h.storage.Ping(r.Context()) {
		http.Error(w, "cart persistence unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *BaseController) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Info(fmt.Sprintf("failed to encode response: %v", err))
	}
}
