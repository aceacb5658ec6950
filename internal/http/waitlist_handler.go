package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/waitlist"
)

type WaitlistHandler struct {
	list    *waitlist.List
	timeout time.Duration
	logger  *zap.Logger
}

func NewWaitlistHandler(list *waitlist.List, timeout time.Duration, logger *zap.Logger) *WaitlistHandler {
	return &WaitlistHandler{
		list:    list,
		timeout: timeout,
		logger:  logger,
	}
}

type JoinWaitlistRequestDTO struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

// Join answers 201 for a new sign-up and 200 when the address is already listed.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req JoinWaitlistRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	entry, created, err := h.list.Join(ctx, req.Email, req.Source)
	if errors.Is(err, waitlist.ErrInvalidEmail) {
		respondError(w, http.StatusUnprocessableEntity, "invalid_email", "Please enter a valid email address")
		return
	}
	if err != nil {
		h.logger.Error("failed to join waitlist", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, entry)
}
