package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/focusnest/server/internal/apperr"
	"github.com/focusnest/server/internal/auth"
	"github.com/focusnest/server/internal/model"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// registerRequest is the request body for POST /auth/register
type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// loginRequest is the request body for POST /auth/login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// verifyOTPRequest is the request body for POST /auth/verify-otp. Older
// clients send the code as "otp".
type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
	OTP   string `json:"otp"`
}

// resendOTPRequest is the request body for POST /auth/resend-otp
type resendOTPRequest struct {
	Email string `json:"email"`
}

// otpResponse is the JSON response for login and resend
type otpResponse struct {
	Message string `json:"message"`
	DevOTP  string `json:"dev_otp,omitempty"`
}

// sessionResponse is returned once the caller holds a session token
type sessionResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Token     string `json:"token"`
}

func newSessionResponse(u *model.User, token string) sessionResponse {
	return sessionResponse{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Token:     token,
	}
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, token, err := h.authService.Register(r.Context(), auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(user, token))
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	issued, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, otpResponse{Message: issued.Message, DevOTP: issued.DevOTP})
}

// HandleVerifyOTP handles POST /auth/verify-otp
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = strings.TrimSpace(req.OTP)
	}
	if strings.TrimSpace(req.Email) == "" || code == "" {
		writeError(w, r, h.logger, apperr.BadRequest("email and code are required"))
		return
	}

	user, token, err := h.authService.VerifyOTP(r.Context(), req.Email, code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(user, token))
}

// HandleResendOTP handles POST /auth/resend-otp
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	issued, err := h.authService.ResendOTP(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, otpResponse{Message: issued.Message, DevOTP: issued.DevOTP})
}
