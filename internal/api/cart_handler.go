package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/veldrane/cartd/internal/store"
)

// CartService is the slice of the store the HTTP surface uses.
// *store.Store satisfies it.
type CartService interface {
	Snapshot() store.Update
	AddItem(variantID, productID, title string, unitPrice float64, image, url string) store.Update
	RemoveItem(variantID string) store.Update
	UpdateQuantity(variantID string, quantity int) store.Update
	Clear() store.Update
	EligibleForFreeShipping(threshold float64) bool
	ShippingProgress(threshold float64) float64
	ShippingFee(threshold, fee float64) float64
	Checkout(ctx context.Context) (*store.CheckoutResult, error)
}

// Resolver maps a cart ID from the request to its store.
type Resolver func(ctx context.Context, cartID string) CartService

type CartHandler struct {
	resolve           Resolver
	timeout           time.Duration
	shippingThreshold float64
	shippingFee       float64
}

func NewCartHandler(resolve Resolver, timeout time.Duration, shippingThreshold, shippingFee float64) *CartHandler {
	return &CartHandler{
		resolve:           resolve,
		timeout:           timeout,
		shippingThreshold: shippingThreshold,
		shippingFee:       shippingFee,
	}
}

type AddItemRequestDTO struct {
	VariantID string  `json:"variant_id"`
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Image     string  `json:"image"`
	URL       string  `json:"url"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CheckoutResponseDTO struct {
	CheckoutURL string `json:"checkout_url"`
	ItemCount   int    `json:"item_count"`
	TotalPrice  int64  `json:"total_price"`
}

type ShippingResponseDTO struct {
	Subtotal  float64 `json:"subtotal"`
	Threshold float64 `json:"threshold"`
	Eligible  bool    `json:"eligible"`
	Progress  float64 `json:"progress"`
	Fee       float64 `json:"fee"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Routes mounts the cart API. One route set serves every device class; the
// cart ID middleware picks the canonical cart.
func (h *CartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/cart", h.GetCart)
	r.Post("/cart/items", h.AddItem)
	r.Put("/cart/items/{variant_id}", h.UpdateQuantity)
	r.Delete("/cart/items/{variant_id}", h.RemoveItem)
	r.Delete("/cart", h.ClearCart)
	r.Get("/cart/shipping", h.Shipping)
	r.Post("/checkout", h.Checkout)
	return r
}

func (h *CartHandler) cart(w http.ResponseWriter, r *http.Request) (CartService, bool) {
	cartID := getCartIDFromContext(r.Context())
	if cartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "no cart id on request")
		return nil, false
	}
	return h.resolve(r.Context(), cartID), true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cart.Snapshot())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Invalid input is rejected here rather than silently coerced; the
	// store only ever sees clean values.
	if req.VariantID == "" {
		respondError(w, http.StatusBadRequest, "invalid_variant_id", "variant_id is required")
		return
	}
	if req.UnitPrice < 0 || math.IsNaN(req.UnitPrice) || math.IsInf(req.UnitPrice, 0) {
		respondError(w, http.StatusBadRequest, "invalid_unit_price", "unit_price must be a non-negative number")
		return
	}

	update := cart.AddItem(req.VariantID, req.ProductID, req.Title, req.UnitPrice, req.Image, req.URL)
	respondJSON(w, http.StatusCreated, update)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	variantID := chi.URLParam(r, "variant_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Zero removes the line; negative quantities are caller bugs.
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	respondJSON(w, http.StatusOK, cart.UpdateQuantity(variantID, req.Quantity))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	variantID := chi.URLParam(r, "variant_id")
	respondJSON(w, http.StatusOK, cart.RemoveItem(variantID))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cart.Clear())
}

func (h *CartHandler) Shipping(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	threshold := h.shippingThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_threshold", "threshold must be a number")
			return
		}
		threshold = parsed
	}

	snapshot := cart.Snapshot()
	respondJSON(w, http.StatusOK, ShippingResponseDTO{
		Subtotal:  snapshot.Subtotal,
		Threshold: threshold,
		Eligible:  cart.EligibleForFreeShipping(threshold),
		Progress:  cart.ShippingProgress(threshold),
		Fee:       cart.ShippingFee(threshold, h.shippingFee),
	})
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := cart.Checkout(ctx)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		CheckoutURL: result.CheckoutURL,
		ItemCount:   result.Remote.ItemCount,
		TotalPrice:  result.Remote.TotalPrice,
	})
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrEmptyCart) {
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
		return
	}

	var syncErr *store.CheckoutSyncError
	if errors.As(err, &syncErr) {
		log.Printf("checkout sync failed: %v", syncErr.Err)
		respondErrorDetails(w, http.StatusBadGateway, "checkout_sync_failed",
			"could not sync cart with the storefront", syncErr.Err.Error())
		return
	}

	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}
