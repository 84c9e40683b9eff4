package handlers

import (
	"log/slog"
	"net/http"

	"github.com/focusnest/server/internal/auth"
	"github.com/focusnest/server/internal/model"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	authService *auth.AuthService
	logger      *slog.Logger
}

func NewUserHandler(authService *auth.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{authService: authService, logger: logger}
}

type preferencesRequest struct {
	FocusPeaks []string `json:"focusPeaks"`
}

type preferencesResponse struct {
	FocusPeaks []string `json:"focusPeaks"`
}

// userResponse never carries the password hash or OTP state.
type userResponse struct {
	ID         string   `json:"id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email"`
	FocusPeaks []string `json:"focusPeaks"`
}

func newUserResponse(u *model.User) userResponse {
	peaks := u.FocusPeaks
	if peaks == nil {
		peaks = []string{}
	}
	return userResponse{
		ID:         u.ID.String(),
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		FocusPeaks: peaks,
	}
}

// HandleSetPreferences handles PUT /user/preferences
func (h *UserHandler) HandleSetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req preferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	peaks, err := h.authService.SetFocusPeaks(r.Context(), userID, req.FocusPeaks)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, preferencesResponse{FocusPeaks: peaks})
}

// HandleMe handles GET /user/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}
