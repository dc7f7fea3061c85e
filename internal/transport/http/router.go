package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"
	"github.com/studnotes/notes-api/internal/repository"
	"github.com/studnotes/notes-api/internal/transport/http/handler"
	"github.com/studnotes/notes-api/internal/transport/http/middleware"
)

func NewRouter(
	logger *slog.Logger,
	authHandler *handler.AuthHandler,
	sessionHandler *handler.SessionHandler,
	studentHandler *handler.StudentHandler,
	noteHandler *handler.NoteHandler,
	cryptoHandler *handler.CryptoHandler,
	userRepo repository.UserRepository,
	cookieName string,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Key issuance and session binding are the only endpoints reachable
	// without a session cookie.
	r.POST("/register", authHandler.Register)
	r.POST("/magic-link", authHandler.RequestMagicLink)
	r.POST("/session/start", sessionHandler.Start)
	r.POST("/session/end", sessionHandler.End)

	session := middleware.Session(userRepo, cookieName, logger)

	students := r.Group("/students", session)
	students.GET("", studentHandler.List)
	students.POST("", studentHandler.Create)

	notes := r.Group("/notes", session)
	notes.GET("/:id", noteHandler.ListByStudent) // :id is a student id here
	notes.POST("", noteHandler.Create)
	notes.PUT("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)

	crypto := r.Group("/crypto", session)
	crypto.GET("/config", cryptoHandler.Config)
	crypto.POST("/dek", cryptoHandler.SetDEK)

	return r
}
