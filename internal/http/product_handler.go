package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/catalog"
	"github.com/uwenvati/omotailor/internal/domain"
)

type ProductHandler struct {
	catalog catalog.Catalog
	timeout time.Duration
	logger  *zap.Logger
}

func NewProductHandler(c catalog.Catalog, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		timeout: timeout,
		logger:  logger,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	category, ok := parseCategory(q.Get("category"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_category", "category must be one of Men, Women, Unisex")
		return
	}
	order, ok := catalog.ParseSortOrder(strings.ToLower(q.Get("sort")))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_sort", "sort must be one of featured, price_asc, price_desc")
		return
	}

	products, err := h.catalog.List(ctx, category)
	if err != nil {
		h.logger.Error("failed to list products", zap.String("category", string(category)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	catalog.Sort(products, order)
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	product, err := h.catalog.Get(ctx, id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to load product", zap.String("product_id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func parseCategory(raw string) (domain.Category, bool) {
	if raw == "" {
		return "", true
	}
	for _, c := range []domain.Category{domain.CategoryMen, domain.CategoryWomen, domain.CategoryUnisex} {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}
