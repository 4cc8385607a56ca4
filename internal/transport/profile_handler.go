package transport

import (
	"encoding/json"
	"net/http"

	"fleamarket/internal/middleware"
	"fleamarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DeleteAccountRequest re-confirms the password before an account is removed
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// ProfileHandler handles the acting user's own profile
type ProfileHandler struct {
	profileService service.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.With(guards.Auth).Get("/api/profile", h.GetProfile)
	r.With(guards.Mutating()...).Post("/api/profile", h.UpdateProfile)
	r.With(guards.Mutating()...).Patch("/api/profile/detail", h.UpdateDetail)
	r.With(guards.Mutating()...).Delete("/api/profile", h.DeleteAccount)
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		respondError(w, h.logger, err, "failed to load profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles the multipart profile form: name, email and an
// optional avatar file
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}

	if err := parseMultipart(w, r); err != nil {
		h.logger.Debug("Profile form rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	avatar, err := formUpload(r, "file")
	if err != nil {
		respondError(w, h.logger, err, "failed to read uploaded file")
		return
	}

	input := service.CoreInput{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), principal.UserID, input, avatar)
	if err != nil {
		respondError(w, h.logger, err, "failed to update profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateDetail(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}

	var input service.DetailInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.profileService.UpdateUserDetail(r.Context(), principal.UserID, input)
	if err != nil {
		respondError(w, h.logger, err, "failed to update profile detail")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, detail)
}

func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrAbort(w, r)
	if !ok {
		return
	}

	var req DeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.profileService.DeleteAccount(r.Context(), principal.UserID, req.Password); err != nil {
		respondError(w, h.logger, err, "failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
