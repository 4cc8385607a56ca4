package transport

import (
	"context"
	"net/http"

	"fleamarket/internal/middleware"
	"fleamarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FavoriteResponse reports the bookmark state after a toggle
type FavoriteResponse struct {
	ItemID        int64 `json:"item_id"`
	Favorited     bool  `json:"favorited"`
	FavoriteCount int   `json:"favorite_count"`
}

// FavoriteHandler handles bookmark toggles
type FavoriteHandler struct {
	favoriteService service.FavoriteService
	logger          *zap.Logger
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favoriteService service.FavoriteService, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteService: favoriteService,
		logger:          logger,
	}
}

func (h *FavoriteHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.With(guards.Mutating()...).Post("/api/items/{id}/favorite", h.Attach)
	r.With(guards.Mutating()...).Delete("/api/items/{id}/favorite", h.Detach)
}

func (h *FavoriteHandler) Attach(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.favoriteService.Attach)
}

func (h *FavoriteHandler) Detach(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.favoriteService.Detach)
}

func (h *FavoriteHandler) toggle(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID, itemID int64) error) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := apply(r.Context(), principal.UserID, itemID); err != nil {
		respondError(w, h.logger, err, "failed to update favorite")
		return
	}

	count, err := h.favoriteService.CountFavorites(r.Context(), itemID)
	if err != nil {
		respondError(w, h.logger, err, "failed to count favorites")
		return
	}
	favorited, err := h.favoriteService.IsFavoritedBy(r.Context(), itemID, principal.UserID)
	if err != nil {
		respondError(w, h.logger, err, "failed to check favorite")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, FavoriteResponse{
		ItemID:        itemID,
		Favorited:     favorited,
		FavoriteCount: count,
	})
}
