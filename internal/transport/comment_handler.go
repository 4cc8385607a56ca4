package transport

import (
	"encoding/json"
	"net/http"

	"fleamarket/internal/middleware"
	"fleamarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CommentHandler handles comments on items
type CommentHandler struct {
	commentService service.CommentService
	logger         *zap.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService service.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

func (h *CommentHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Get("/api/items/{id}/comments", h.ListComments)
	r.With(guards.Mutating()...).Post("/api/items/{id}/comments", h.CreateComment)
}

func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "item not found")
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), itemID)
	if err != nil {
		respondError(w, h.logger, err, "failed to list comments")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "item not found")
		return
	}

	var input service.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), principal, itemID, input)
	if err != nil {
		respondError(w, h.logger, err, "failed to create comment")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, comment)
}
