package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studnotes/notes-api/internal/domain"
)

type studentUsecaser interface {
	ListStudents(ctx context.Context, query string) ([]*domain.Student, error)
	CreateStudent(ctx context.Context, studNr int64, graduated bool) (*domain.Student, error)
}

type StudentHandler struct {
	students studentUsecaser
	logger   *slog.Logger
}

func NewStudentHandler(students studentUsecaser, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{students: students, logger: logger.With("component", "student_handler")}
}

type studentResponse struct {
	ID        int64 `json:"id"`
	StudNr    int64 `json:"stud_nr"`
	Graduated bool  `json:"graduated"`
}

// GET /students?q=
func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.students.ListStudents(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list students", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]studentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, studentResponse{ID: s.ID, StudNr: s.StudNr, Graduated: s.Graduated})
	}
	c.JSON(http.StatusOK, out)
}

type createStudentRequest struct {
	StudNr    int64 `json:"stud_nr" binding:"required"`
	Graduated bool  `json:"graduated"`
}

// POST /students
func (h *StudentHandler) Create(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s, err := h.students.CreateStudent(c.Request.Context(), req.StudNr, req.Graduated)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "create student", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusCreated, studentResponse{ID: s.ID, StudNr: s.StudNr, Graduated: s.Graduated})
}
