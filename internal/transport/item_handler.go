package transport

import (
	"encoding/json"
	"net/http"
	"strings"

	"fleamarket/internal/domain"
	"fleamarket/internal/middleware"
	"fleamarket/internal/service"
	"fleamarket/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateItemResponse is returned after a listing is created
type CreateItemResponse struct {
	Item   *domain.Item       `json:"item"`
	Images []domain.ItemImage `json:"item_images"`
}

// ItemImagesResponse is the image set after reconciliation
type ItemImagesResponse struct {
	Images []domain.ItemImage `json:"item_images"`
}

// ItemHandler handles HTTP requests for listings
type ItemHandler struct {
	itemService service.ItemService
	logger      *zap.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService service.ItemService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// RegisterRoutes registers the listing routes
func (h *ItemHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.With(guards.OptionalAuth).Get("/api/items", h.ListItems)
	r.With(guards.OptionalAuth).Get("/api/items/{id}", h.GetItem)

	r.With(guards.Mutating()...).Post("/api/items", h.CreateItem)
	r.With(guards.Mutating()...).Put("/api/items/{id}/detail", h.UpdateDetail)
	r.With(guards.Mutating()...).Post("/api/items/{id}/images", h.UpdateImages)
	r.With(guards.Mutating()...).Delete("/api/items/{id}", h.DeleteItem)
}

// ListItems handles GET /api/items with optional seller, category and
// keyword filters
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	sellerID, err := queryID(r, "seller_id")
	if err != nil {
		respondError(w, h.logger, err, "failed to list items")
		return
	}
	categoryID, err := queryID(r, "category_id")
	if err != nil {
		respondError(w, h.logger, err, "failed to list items")
		return
	}

	filter := domain.ItemFilter{
		SellerID:   sellerID,
		CategoryID: categoryID,
		Keyword:    strings.TrimSpace(r.URL.Query().Get("keyword")),
	}

	items, err := h.itemService.ListItems(r.Context(), middleware.ViewerID(r.Context()), filter)
	if err != nil {
		respondError(w, h.logger, err, "failed to list items")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// GetItem handles GET /api/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "item not found")
		return
	}

	item, err := h.itemService.GetItem(r.Context(), itemID, middleware.ViewerID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err, "failed to get item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// itemInputFromForm reads the editable item fields of a multipart form
func itemInputFromForm(r *http.Request) (service.ItemInput, validation.Errors) {
	var errs validation.Errors
	input := service.ItemInput{
		Name:        r.FormValue("name"),
		CategoryID:  formInt(r, "category_id", &errs),
		Brand:       r.FormValue("brand"),
		ConditionID: formInt(r, "condition_id", &errs),
		Description: r.FormValue("description"),
		Price:       int(formInt(r, "price", &errs)),
	}
	return input, errs
}

// CreateItem handles the multipart POST /api/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}

	if err := parseMultipart(w, r); err != nil {
		h.logger.Debug("Create item form rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	input, errs := itemInputFromForm(r)
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	uploads, err := formUploads(r, "files")
	if err != nil {
		respondError(w, h.logger, err, "failed to read uploaded files")
		return
	}

	item, images, err := h.itemService.CreateItem(r.Context(), principal, input, uploads)
	if err != nil {
		respondError(w, h.logger, err, "failed to create item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, CreateItemResponse{Item: item, Images: images})
}

// UpdateDetail handles the JSON PUT /api/items/{id}/detail
func (h *ItemHandler) UpdateDetail(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "item not found")
		return
	}

	var input service.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.itemService.UpdateDetail(r.Context(), principal, itemID, input)
	if err != nil {
		respondError(w, h.logger, err, "failed to update item")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// UpdateImages handles the multipart POST /api/items/{id}/images. Images
// whose ids are not listed in keep_image_ids are removed.
func (h *ItemHandler) UpdateImages(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := parseMultipart(w, r); err != nil {
		h.logger.Debug("Update images form rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	keep, errs := formIDs(r, "keep_image_ids")
	if len(errs) > 0 {
		middleware.RespondWithValidationErrors(w, errs)
		return
	}

	uploads, err := formUploads(r, "files")
	if err != nil {
		respondError(w, h.logger, err, "failed to read uploaded files")
		return
	}

	images, err := h.itemService.UpdateImages(r.Context(), principal, itemID, keep, uploads)
	if err != nil {
		respondError(w, h.logger, err, "failed to update item images")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ItemImagesResponse{Images: images})
}

// DeleteItem handles DELETE /api/items/{id}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}
	itemID, ok := pathID(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := h.itemService.DeleteItem(r.Context(), principal, itemID); err != nil {
		respondError(w, h.logger, err, "failed to delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
