package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tipgrid/tipgrid/internal/auth"
	"github.com/tipgrid/tipgrid/internal/handler/dto"
	"github.com/tipgrid/tipgrid/internal/media"
	"github.com/tipgrid/tipgrid/internal/service"
)

// ProfileHandler handles profile management and public page endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
	baseURL  string
	maxBody  int64
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger, baseURL string, maxUploadSize int64) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger.With("component", "handler.profile"),
		baseURL:  baseURL,
		maxBody:  maxUploadSize,
	}
}

// CreateProfile handles POST /v1/profiles.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	profile, err := h.profiles.CreateProfile(r.Context(), service.CreateProfileInput{
		OwnerID:   authCtx.UserID,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AltName:   req.AltName,
		Email:     req.Email,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToProfileResponse(profile, h.baseURL))
}

// GetOwnProfile handles GET /v1/profiles/me.
func (h *ProfileHandler) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	profile, err := h.profiles.GetOwnProfile(r.Context(), authCtx.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(profile, h.baseURL))
}

// UpdateProfile handles PATCH /v1/profiles/{id}.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	profileID := chi.URLParam(r, "id")
	if profileID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Profile ID is required")
		return
	}

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), authCtx.UserID, profileID, service.UpdateProfileInput{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		AltName:           req.AltName,
		Email:             req.Email,
		Phone:             req.Phone,
		Street:            req.Street,
		City:              req.City,
		State:             req.State,
		PostalCode:        req.PostalCode,
		Subscription:      req.Subscription,
		AcceptsApplePay:   req.AcceptsApplePay,
		AcceptsGooglePay:  req.AcceptsGooglePay,
		AcceptsSamsungPay: req.AcceptsSamsungPay,
		TaxID:             req.TaxID,
		Description:       req.Description,
		Tags:              req.Tags,
		Genres:            req.Genres,
		PayPalMeUser:      req.PayPalMeUser,
		VenmoUsername:     req.VenmoUsername,
		CashAppTag:        req.CashAppTag,
		SpotifyURL:        req.SpotifyURL,
		YouTubeURL:        req.YouTubeURL,
		TikTokURL:         req.TikTokURL,
		ThemeColor:        req.ThemeColor,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(profile, h.baseURL))
}

// UploadBanner handles POST /v1/profiles/{id}/banner.
// The body is the raw image; the palette is extracted before responding.
func (h *ProfileHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, func(authUserID, profileID string, req *http.Request) (any, error) {
		profile, err := h.profiles.UploadBanner(req.Context(), authUserID, profileID, req.Body)
		if err != nil {
			return nil, err
		}
		return dto.ToProfileResponse(profile, h.baseURL), nil
	})
}

// UploadAvatar handles POST /v1/profiles/{id}/avatar.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, func(authUserID, profileID string, req *http.Request) (any, error) {
		profile, err := h.profiles.UploadAvatar(req.Context(), authUserID, profileID, req.Body)
		if err != nil {
			return nil, err
		}
		return dto.ToProfileResponse(profile, h.baseURL), nil
	})
}

// AddGalleryImage handles POST /v1/profiles/{id}/gallery.
func (h *ProfileHandler) AddGalleryImage(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, func(authUserID, profileID string, req *http.Request) (any, error) {
		url, err := h.profiles.AddGalleryImage(req.Context(), authUserID, profileID, req.Body)
		if err != nil {
			return nil, err
		}
		return map[string]string{"image_url": url}, nil
	})
}

// GetPublicProfile handles GET /p/{username}.
// This is the anonymous hot path behind the public page.
func (h *ProfileHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Username is required")
		return
	}

	profile, err := h.profiles.GetPublicProfile(r.Context(), username)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Profile not found")
			return
		}
		h.logger.Error("failed to load public profile", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPublicProfileResponse(profile, h.baseURL))
}

// handleUpload wraps the shared auth, param and body-limit logic of the
// image upload endpoints.
func (h *ProfileHandler) handleUpload(w http.ResponseWriter, r *http.Request, fn func(authUserID, profileID string, req *http.Request) (any, error)) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	profileID := chi.URLParam(r, "id")
	if profileID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Profile ID is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	response, err := fn(authCtx.UserID, profileID, r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// writeServiceError maps service errors to HTTP responses.
func (h *ProfileHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, "INVALID_USERNAME", err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username already taken")
	case errors.Is(err, service.ErrMissingName):
		writeError(w, http.StatusBadRequest, "MISSING_NAME", "First and last name are required")
	case errors.Is(err, service.ErrInvalidSubscription):
		writeError(w, http.StatusBadRequest, "INVALID_SUBSCRIPTION", "Subscription must be monthly or yearly")
	case errors.Is(err, service.ErrWalletNeedsTaxID):
		writeError(w, http.StatusBadRequest, "TAX_ID_REQUIRED", "Tax ID is required when a mobile wallet is enabled")
	case errors.Is(err, service.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Profile not found")
	case errors.Is(err, service.ErrNotProfileOwner):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Profile does not belong to caller")
	case errors.Is(err, media.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Uploaded file exceeds size limit")
	case errors.Is(err, media.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", "Upload must be a JPEG, PNG, GIF or WebP image")
	default:
		h.logger.Error("profile request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
