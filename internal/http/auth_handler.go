package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/bagshop/internal/auth"
)

type AuthService interface {
	SendOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, otp string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth    AuthService
	timeout time.Duration
}

func NewAuthHandler(svc AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{auth: svc, timeout: timeout}
}

type SendOTPRequestDTO struct {
	Phone string `json:"phone"`
}

type VerifyOTPRequestDTO struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type SessionResponseDTO struct {
	Token     string    `json:"token"`
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// POST /api/v1/auth/otp/send
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SendOTPRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.auth.SendOTP(ctx, req.Phone); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// POST /api/v1/auth/otp/verify
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VerifyOTPRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sess, err := h.auth.VerifyOTP(ctx, req.Phone, req.OTP)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, SessionResponseDTO{
		Token:     sess.Token,
		Phone:     sess.Phone,
		ExpiresAt: sess.ExpiresAt,
	})
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	if err := h.auth.Logout(ctx, sess.Token); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
