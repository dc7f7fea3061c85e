package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studnotes/notes-api/internal/domain"
	"github.com/studnotes/notes-api/internal/metrics"
)

// sessionMaxAge is deliberately shorter than the 14-day key validity: the
// cookie is a browsing-session convenience, the key is the credential.
const sessionMaxAge = 8 * 60 * 60

type sessionStarter interface {
	StartSession(ctx context.Context, key string) (*domain.User, error)
}

type SessionHandler struct {
	auth       sessionStarter
	cookieName string
	cookiePath string
	logger     *slog.Logger
}

func NewSessionHandler(auth sessionStarter, cookieName, cookiePath string, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		auth:       auth,
		cookieName: cookieName,
		cookiePath: cookiePath,
		logger:     logger.With("component", "session_handler"),
	}
}

type startSessionRequest struct {
	Key string `json:"key" binding:"required,min=8"`
}

// POST /session/start
// Exchanges a valid bearer key for the session cookie. The cookie carries the
// key itself; there is no server-side session row.
func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	_, err := h.auth.StartSession(c.Request.Context(), req.Key)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredential):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidKey})
		case errors.Is(err, domain.ErrCredentialExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errKeyExpired})
		default:
			h.logger.ErrorContext(c.Request.Context(), "start session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, req.Key, sessionMaxAge, h.cookiePath, "", true, true)
	metrics.SessionsStartedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /session/end
// Clears the cookie unconditionally. Needs no valid session and cannot fail.
func (h *SessionHandler) End(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, h.cookiePath, "", true, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
