package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studnotes/notes-api/internal/transport/http/middleware"
)

type cryptoUsecaser interface {
	Config(ctx context.Context, userID string) (salt, dek []byte, err error)
	SetDEK(ctx context.Context, userID string, dek []byte) error
}

type CryptoHandler struct {
	crypto cryptoUsecaser
	logger *slog.Logger
}

func NewCryptoHandler(crypto cryptoUsecaser, logger *slog.Logger) *CryptoHandler {
	return &CryptoHandler{crypto: crypto, logger: logger.With("component", "crypto_handler")}
}

type cryptoConfigResponse struct {
	CryptoSaltB64 string  `json:"crypto_salt_b64"`
	DEKForUserB64 *string `json:"dek_for_user_b64"`
}

// GET /crypto/config
// First call generates the salt; every later call returns the same value.
func (h *CryptoHandler) Config(c *gin.Context) {
	principal := middleware.Principal(c)

	salt, dek, err := h.crypto.Config(c.Request.Context(), principal.ID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "crypto config", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := cryptoConfigResponse{
		CryptoSaltB64: base64.StdEncoding.EncodeToString(salt),
	}
	if dek != nil {
		s := base64.StdEncoding.EncodeToString(dek)
		resp.DEKForUserB64 = &s
	}
	c.JSON(http.StatusOK, resp)
}

type dekUpdateRequest struct {
	DEKForUserB64 string `json:"dek_for_user_b64" binding:"required,min=10"`
}

// POST /crypto/dek — stores the wrapped DEK blob verbatim.
func (h *CryptoHandler) SetDEK(c *gin.Context) {
	var req dekUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	dek, err := base64.StdEncoding.DecodeString(req.DEKForUserB64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "dek_for_user_b64 is not valid base64"})
		return
	}

	principal := middleware.Principal(c)
	if err := h.crypto.SetDEK(c.Request.Context(), principal.ID, dek); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "set dek", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
