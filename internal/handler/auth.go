package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jotter/jotter/internal/auth"
	"github.com/jotter/jotter/internal/handler/dto"
	"github.com/jotter/jotter/internal/service"
)

// AuthHandler handles HTTP requests for accounts and sessions.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if issues := dto.Validate(req); issues != nil {
		writeError(w, http.StatusBadRequest, registerIssueMessage(issues))
		return
	}

	session, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err, "Internal server error during registration")
		return
	}

	h.logger.Info("user_registered", slog.String("user_id", session.User.ID))

	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		Success: true,
		Message: "User registered successfully",
		Token:   session.Token,
		User:    session.User.Public(),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if issues := dto.Validate(req); issues != nil {
		message := "Email and password are required"
		if issue, ok := dto.TextIssue(issues); ok && !dto.HasTag(issues, "required") {
			message = invalidTextMessage(issue)
		}
		writeError(w, http.StatusBadRequest, message)
		return
	}

	session, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err, "Internal server error during login")
		return
	}

	h.logger.Info("user_logged_in", slog.String("user_id", session.User.ID))

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   session.Token,
		User:    session.User.Public(),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), auth.ClaimsFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err, "Error fetching user")
		return
	}

	writeJSON(w, http.StatusOK, dto.UserResponse{Success: true, User: user.Public()})
}

// handleServiceError maps service errors to HTTP responses.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrRegistrationFieldsRequired):
		writeError(w, http.StatusBadRequest, "Username, email, and password are required")
	case errors.Is(err, service.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
	case errors.Is(err, service.ErrLoginFieldsRequired):
		writeError(w, http.StatusBadRequest, "Email and password are required")
	case errors.Is(err, service.ErrUserExists):
		writeError(w, http.StatusConflict, "Username or email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		logInternal(h.logger, r, "auth request failed", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// registerIssueMessage picks the single message shown for failed
// registration rules, missing fields first.
func registerIssueMessage(issues []dto.FieldIssue) string {
	if dto.HasTag(issues, "required") {
		return "Username, email, and password are required"
	}
	if issue, ok := dto.TextIssue(issues); ok {
		return invalidTextMessage(issue)
	}
	if issue, ok := dto.Find(issues, "password"); ok && issue.Tag == "min" {
		return "Password must be at least 6 characters long"
	}
	if issue, ok := dto.Find(issues, "email"); ok && issue.Tag == "email" {
		return "Please provide a valid email address"
	}
	issue := issues[0]
	if issue.Tag == "max" {
		return fmt.Sprintf("%s must be at most %s characters long", issue.Field, issue.Param)
	}
	return "Invalid registration details"
}
