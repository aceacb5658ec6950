package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/cart"
	"github.com/uwenvati/omotailor/internal/catalog"
	"github.com/uwenvati/omotailor/internal/domain"
	"github.com/uwenvati/omotailor/internal/pricing"
)

const maxLineQuantity = 99

// StoreProvider resolves the cart store of a session.
type StoreProvider interface {
	Get(ctx context.Context, sessionID string) (*cart.Store, error)
}

type CartHandler struct {
	sessions StoreProvider
	catalog  catalog.Catalog
	policy   pricing.Policy
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCartHandler(sessions StoreProvider, c catalog.Catalog, policy pricing.Policy, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		catalog:  c,
		policy:   policy,
		timeout:  timeout,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type UpdateQuantityRequestDTO struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type PromoRequestDTO struct {
	Code string `json:"code"`
}

type CartResponse struct {
	pricing.Summary
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	// a session minted by this request has no cart yet, so no store is created for it
	if isNewSession(r.Context()) {
		respondJSON(w, http.StatusOK, CartResponse{
			Summary:               pricing.Summarize([]domain.LineItem{}, nil, h.policy),
			FreeShippingThreshold: h.policy.FreeShippingThreshold,
		})
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 || req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.Get(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to load product", zap.String("product_id", req.ProductID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	if !product.HasSize(req.Size) {
		respondError(w, http.StatusBadRequest, "invalid_size", "size is not offered for this product")
		return
	}
	if !product.HasColor(req.Color) {
		respondError(w, http.StatusBadRequest, "invalid_color", "color is not offered for this product")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.AddItem(ctx, product.Ref(), req.Quantity, req.Size, req.Color)

	respondJSON(w, http.StatusCreated, cartResponse(store))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	// zero or less removes the line
	if req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not exceed 99")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.UpdateQuantity(ctx, domain.LineKey{ProductID: req.ProductID, Size: req.Size, Color: req.Color}, req.Quantity)

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	key := domain.LineKey{ProductID: q.Get("product_id"), Size: q.Get("size"), Color: q.Get("color")}
	if key.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.RemoveItem(ctx, key)

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Clear(ctx)

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PromoRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if !store.ApplyPromoCode(ctx, req.Code) {
		respondError(w, http.StatusUnprocessableEntity, "invalid_promo_code", "promo code is not valid")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.RemovePromoCode(ctx)

	respondJSON(w, http.StatusOK, cartResponse(store))
}

// store resolves the session's cart, writing the error response itself on failure.
func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	return resolveStore(w, r, h.sessions, h.logger)
}

func resolveStore(w http.ResponseWriter, r *http.Request, sessions StoreProvider, logger *zap.Logger) (*cart.Store, bool) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "missing session id")
		return nil, false
	}
	store, err := sessions.Get(r.Context(), sessionID)
	if err != nil {
		// the stored cart could not be read; answering with an empty one would overwrite it
		logger.Error("failed to resolve cart", zap.String("session_id", sessionID), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "cart storage is unavailable, try again")
		return nil, false
	}
	return store, true
}

func cartResponse(store *cart.Store) CartResponse {
	return CartResponse{
		Summary:               store.Snapshot(),
		FreeShippingThreshold: store.Policy().FreeShippingThreshold,
	}
}
