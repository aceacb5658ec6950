package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/checkout"
	"github.com/uwenvati/omotailor/internal/orders"
)

type CheckoutHandler struct {
	sessions StoreProvider
	service  *checkout.Service
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCheckoutHandler(sessions StoreProvider, service *checkout.Service, timeout time.Duration, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		service:  service,
		timeout:  timeout,
		logger:   logger,
	}
}

type CheckoutOptionsResponse struct {
	ShippingMethods []checkout.ShippingMethod `json:"shipping_methods"`
	PaymentMethods  []checkout.PaymentMethod  `json:"payment_methods"`
	States          []string                  `json:"states"`
}

func (h *CheckoutHandler) Options(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, CheckoutOptionsResponse{
		ShippingMethods: checkout.ShippingMethods(),
		PaymentMethods:  checkout.PaymentMethods(),
		States:          checkout.States,
	})
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkout.Request
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	store, ok := resolveStore(w, r, h.sessions, h.logger)
	if !ok {
		return
	}

	order, err := h.service.PlaceOrder(ctx, getSessionID(r.Context()), store, req)
	if err != nil {
		h.handleCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.service.GetOrder(ctx, getSessionID(r.Context()), chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order_not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to load order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *CheckoutHandler) handleCheckoutError(w http.ResponseWriter, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		respondErrorDetails(w, http.StatusUnprocessableEntity, "validation_failed", "invalid checkout details", verr.Fields)
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrTermsNotAccepted):
		respondError(w, http.StatusUnprocessableEntity, "terms_not_accepted", err.Error())
	case errors.Is(err, checkout.ErrUnknownShippingMethod):
		respondError(w, http.StatusBadRequest, "invalid_shipping_method", err.Error())
	case errors.Is(err, checkout.ErrPaymentMethodUnavailable):
		respondError(w, http.StatusBadRequest, "payment_method_unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		h.logger.Error("checkout failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
