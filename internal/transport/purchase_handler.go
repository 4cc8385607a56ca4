package transport

import (
	"encoding/json"
	"net/http"

	"fleamarket/internal/middleware"
	"fleamarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateStatusRequest moves a purchase to another status
type UpdateStatusRequest struct {
	StatusID int64 `json:"status_id"`
}

// PurchaseHandler handles checkout and order tracking
type PurchaseHandler struct {
	purchaseService service.PurchaseService
	logger          *zap.Logger
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService service.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		logger:          logger,
	}
}

func (h *PurchaseHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.With(guards.Auth).Get("/api/purchases", h.ListPurchases)
	r.With(guards.Auth).Get("/api/purchases/{id}/receipt", h.GetReceipt)
	r.With(guards.Mutating()...).Post("/api/purchases", h.CreatePurchase)
	r.With(guards.Mutating()...).Patch("/api/purchases/{id}/status", h.UpdateStatus)
}

// CreatePurchase handles POST /api/purchases. Any status_id in the body is
// ignored.
func (h *PurchaseHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}

	var input service.PurchaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	purchase, err := h.purchaseService.CreatePurchase(r.Context(), principal, input)
	if err != nil {
		respondError(w, h.logger, err, "failed to create purchase")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, purchase)
}

func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}

	purchases, err := h.purchaseService.ListPurchases(r.Context(), principal.UserID)
	if err != nil {
		respondError(w, h.logger, err, "failed to list purchases")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, purchases)
}

func (h *PurchaseHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}
	purchaseID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "purchase not found")
		return
	}

	receipt, err := h.purchaseService.GetReceipt(r.Context(), principal, purchaseID)
	if err != nil {
		respondError(w, h.logger, err, "failed to load receipt")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, receipt)
}

func (h *PurchaseHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}
	purchaseID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "purchase not found")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	purchase, err := h.purchaseService.UpdateStatus(r.Context(), principal, purchaseID, req.StatusID)
	if err != nil {
		respondError(w, h.logger, err, "failed to update purchase status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, purchase)
}
