package transport

import (
	"errors"
	"net/http"
	"strconv"

	"fleamarket/internal/domain"
	"fleamarket/internal/middleware"
	"fleamarket/internal/repository"
	"fleamarket/internal/service"
	"fleamarket/internal/storage"
	"fleamarket/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Guards are the per-route middlewares handlers attach to their routes
type Guards struct {
	Auth         func(http.Handler) http.Handler
	OptionalAuth func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
}

// Mutating returns the chain for authenticated, rate limited routes
func (g Guards) Mutating() []func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{g.Auth}
	if g.RateLimit != nil {
		chain = append(chain, g.RateLimit)
	}
	return chain
}

var notFoundErrors = []error{
	repository.ErrItemNotFound,
	repository.ErrUserNotFound,
	repository.ErrPurchaseNotFound,
	repository.ErrCategoryNotFound,
	storage.ErrBlobNotFound,
}

// respondError maps a service error onto the HTTP error contract. fallback
// is the message for unexpected failures.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	if verrs, ok := validation.As(err); ok {
		logger.Debug("Validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, verrs)
		return
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			middleware.RespondWithError(w, http.StatusNotFound, target.Error())
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrForbidden):
		middleware.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, repository.ErrPurchaseStatusChanged):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrOperationFailed):
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// pathID parses the named chi URL parameter as a positive id
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive id query parameter
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, validation.Errors{}.Add(name, name+" must be a positive integer")
	}
	return &id, nil
}

// principalOrAbort fetches the principal set by the auth middleware
func principalOrAbort(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}
