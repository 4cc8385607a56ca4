package transport

import (
	"net/http"

	"fleamarket/internal/middleware"
	"fleamarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReferenceHandler serves the seeded lookup tables
type ReferenceHandler struct {
	referenceService service.ReferenceService
	logger           *zap.Logger
}

// NewReferenceHandler creates a new ReferenceHandler
func NewReferenceHandler(referenceService service.ReferenceService, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		referenceService: referenceService,
		logger:           logger,
	}
}

// RegisterRoutes registers the lookup routes. Roles are admin only.
func (h *ReferenceHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Get("/api/reference", h.All)
	r.Get("/api/categories", h.Categories)
	r.With(guards.Auth, middleware.RequireAdmin(h.logger)).Get("/api/admin/roles", h.Roles)
}

func (h *ReferenceHandler) All(w http.ResponseWriter, r *http.Request) {
	data, err := h.referenceService.All(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to load reference data")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, data)
}

// Categories lists the children of parent_id, or the roots without it
func (h *ReferenceHandler) Categories(w http.ResponseWriter, r *http.Request) {
	parentID, err := queryID(r, "parent_id")
	if err != nil {
		respondError(w, h.logger, err, "failed to list categories")
		return
	}

	categories, err := h.referenceService.ChildrenOf(r.Context(), parentID)
	if err != nil {
		respondError(w, h.logger, err, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *ReferenceHandler) Roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.referenceService.ListRoles(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list roles")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, roles)
}
