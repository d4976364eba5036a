package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/CompanyDirectory/internal/domain"
	"github.com/utafrali/CompanyDirectory/internal/service"
	"github.com/utafrali/CompanyDirectory/pkg/httputil"
	"github.com/utafrali/CompanyDirectory/pkg/middleware"
	"github.com/utafrali/CompanyDirectory/pkg/validator"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	FullName string `json:"full_name" validate:"notblank,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,maxbytes=72"`
	MobileNo string `json:"mobile_no" validate:"omitempty,max=32"`
	Gender   string `json:"gender"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// VerifyMobileRequest carries the proof issued by the phone identity provider.
type VerifyMobileRequest struct {
	FirebaseToken string `json:"firebase_token" validate:"notblank"`
}

// --- Response types ---

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    any    `json:"user"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// MobileResponse is returned when mobile verification starts.
type MobileResponse struct {
	Message string `json:"message"`
	Mobile  string `json:"mobile"`
}

// meResponse keeps data present as null when the account is gone.
type meResponse struct {
	Data *domain.PublicUser `json:"data"`
}

// --- Handlers ---

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.service.Register(r.Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		MobileNo: req.MobileNo,
		Gender:   req.Gender,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{Message: "User registered successfully", Token: token, User: user.Public()},
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{Message: "Login successful", Token: token, User: user.Login()},
	})
}

// SendVerifyEmail handles POST /api/auth/send-verify-email
func (h *AuthHandler) SendVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.InitiateEmailVerification(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: MessageResponse{Message: "Verification email sent"},
	})
}

// VerifyEmail handles GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CompleteEmailVerification(r.Context(), r.URL.Query().Get("token")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: MessageResponse{Message: "Email verified successfully"},
	})
}

// SendVerifyMobile handles POST /api/auth/send-verify-mobile
func (h *AuthHandler) SendVerifyMobile(w http.ResponseWriter, r *http.Request) {
	mobile, err := h.service.InitiateMobileVerification(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: MobileResponse{Message: "Continue phone verification on the client", Mobile: mobile},
	})
}

// VerifyMobile handles POST /api/auth/verify-mobile
func (h *AuthHandler) VerifyMobile(w http.ResponseWriter, r *http.Request) {
	var req VerifyMobileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.CompleteMobileVerification(r.Context(), middleware.UserIDFromContext(r.Context()), req.FirebaseToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: MessageResponse{Message: "Mobile number verified successfully"},
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var resp meResponse
	if user != nil {
		resp.Data = user.Public()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// decodeJSON decodes and validates the request body into dst, writing the
// error response itself. It reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return false
	}
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
	})
	return false
}
