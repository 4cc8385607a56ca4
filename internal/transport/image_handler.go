package transport

import (
	"net/http"
	"strconv"

	"fleamarket/internal/middleware"
	"fleamarket/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ImageHandler streams stored image blobs
type ImageHandler struct {
	stores map[string]storage.BlobStore
	logger *zap.Logger
}

// NewImageHandler serves items from the item image store and users from the
// avatar store
func NewImageHandler(itemImages, userImages storage.BlobStore, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		stores: map[string]storage.BlobStore{
			"items": itemImages,
			"users": userImages,
		},
		logger: logger,
	}
}

func (h *ImageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/images/{namespace}/{name}", h.Serve)
}

// Serve writes the blob with its sniffed content type
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	store, ok := h.stores[chi.URLParam(r, "namespace")]
	name := chi.URLParam(r, "name")
	if !ok || name == "" || storage.SanitizeFilename(name) != name {
		middleware.RespondWithError(w, http.StatusNotFound, "image not found")
		return
	}

	data, err := store.Get(r.Context(), name)
	if err != nil {
		respondError(w, h.logger, err, "failed to read image")
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
