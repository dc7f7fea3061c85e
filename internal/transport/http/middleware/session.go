package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studnotes/notes-api/internal/domain"
	"github.com/studnotes/notes-api/internal/metrics"
	"github.com/studnotes/notes-api/internal/repository"
)

const (
	errMissingSession = "Missing session cookie"
	errInvalidSession = "Invalid session"
	errSessionExpired = "Session expired/inactive"

	principalKey = "principal"
)

// Session resolves the bearer-key cookie into an authenticated principal and
// stores it in the gin context. The cookie is stateless: every request
// revalidates the key against the users table. Check order: missing cookie,
// unknown key, expired/deactivated account.
func Session(users repository.UserRepository, cookieName string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(cookieName)
		if err != nil || key == "" {
			metrics.AuthRejectionsTotal.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingSession})
			return
		}

		user, err := users.FindByKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				metrics.AuthRejectionsTotal.WithLabelValues("invalid").Inc()
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidSession})
				return
			}
			logger.ErrorContext(c.Request.Context(), "session lookup", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Internal server error"})
			return
		}

		if !user.CanAuthenticate(time.Now().UTC()) {
			metrics.AuthRejectionsTotal.WithLabelValues("expired").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errSessionExpired})
			return
		}

		c.Set(principalKey, user.Principal())
		c.Next()
	}
}

// Principal returns the identity set by Session. Handlers must scope every
// data access to it and never trust user ids arriving in request bodies.
func Principal(c *gin.Context) domain.Principal {
	p, _ := c.Get(principalKey)
	principal, _ := p.(domain.Principal)
	return principal
}
