package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studnotes/notes-api/internal/domain"
	"github.com/studnotes/notes-api/internal/transport/http/middleware"
	"github.com/studnotes/notes-api/internal/usecase"
)

// noteUsecaser is the subset of NoteUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type noteUsecaser interface {
	CreateNote(ctx context.Context, input usecase.CreateNoteInput) (*domain.Note, error)
	ListNotes(ctx context.Context, studentID int64, ownerID string) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, id int64, ownerID, ciphertext string, nonce []byte, encryptionVersion int) (*domain.Note, error)
	DeleteNote(ctx context.Context, id int64, ownerID string) error
}

type NoteHandler struct {
	notes  noteUsecaser
	logger *slog.Logger
}

func NewNoteHandler(notes noteUsecaser, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger.With("component", "note_handler")}
}

type createNoteRequest struct {
	StudentID         int64  `json:"student_id"         binding:"required"`
	CiphertextB64     string `json:"ciphertext_b64"     binding:"required,min=10"`
	NonceB64          string `json:"nonce_b64"          binding:"required,min=10"`
	EncryptionVersion int    `json:"encryption_version"`
}

type updateNoteRequest struct {
	CiphertextB64     string `json:"ciphertext_b64" binding:"required,min=10"`
	NonceB64          string `json:"nonce_b64"      binding:"required,min=10"`
	EncryptionVersion int    `json:"encryption_version"`
}

type noteResponse struct {
	ID                int64     `json:"id"`
	Owner             string    `json:"owner"`
	Student           int64     `json:"student"`
	CiphertextB64     string    `json:"ciphertext_b64"`
	NonceB64          *string   `json:"nonce_b64"`
	Created           time.Time `json:"created"`
	Updated           time.Time `json:"updated"`
	EncryptionVersion int       `json:"encryption_version"`
}

func toNoteResponse(n *domain.Note) noteResponse {
	var nonce *string
	if n.Nonce != nil {
		s := base64.StdEncoding.EncodeToString(n.Nonce)
		nonce = &s
	}
	return noteResponse{
		ID:                n.ID,
		Owner:             n.Owner,
		Student:           n.Student,
		CiphertextB64:     n.Ciphertext,
		NonceB64:          nonce,
		Created:           n.CreatedAt,
		Updated:           n.UpdatedAt,
		EncryptionVersion: n.EncryptionVersion,
	}
}

// GET /notes/:id — lists the caller's live notes for one student.
// The owner filter is applied in SQL; other users' notes are simply absent.
func (h *NoteHandler) ListByStudent(c *gin.Context) {
	studentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid student id"})
		return
	}

	principal := middleware.Principal(c)
	notes, err := h.notes.ListNotes(c.Request.Context(), studentID, principal.ID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list notes", "student_id", studentID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	c.JSON(http.StatusOK, out)
}

// POST /notes
func (h *NoteHandler) Create(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	nonce, err := base64.StdEncoding.DecodeString(req.NonceB64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "nonce_b64 is not valid base64"})
		return
	}

	principal := middleware.Principal(c)
	note, err := h.notes.CreateNote(c.Request.Context(), usecase.CreateNoteInput{
		OwnerID:           principal.ID,
		StudentID:         req.StudentID,
		Ciphertext:        req.CiphertextB64,
		Nonce:             nonce,
		EncryptionVersion: req.EncryptionVersion,
	})
	if err != nil {
		if errors.Is(err, domain.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errStudentNotFound})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "create note", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                 note.ID,
		"created":            note.CreatedAt,
		"updated":            note.UpdatedAt,
		"encryption_version": note.EncryptionVersion,
	})
}

// PUT /notes/:id
// 404 for an absent note, 403 for someone else's: the id in the path already
// implies existence, so the split leaks nothing extra.
func (h *NoteHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid note id"})
		return
	}

	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	nonce, err := base64.StdEncoding.DecodeString(req.NonceB64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "nonce_b64 is not valid base64"})
		return
	}

	encVer := req.EncryptionVersion
	if encVer == 0 {
		encVer = 1
	}

	principal := middleware.Principal(c)
	note, err := h.notes.UpdateNote(c.Request.Context(), id, principal.ID, req.CiphertextB64, nonce, encVer)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errNoteNotFound})
		case errors.Is(err, domain.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": errNotYourNote})
		default:
			h.logger.ErrorContext(c.Request.Context(), "update note", "note_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                 note.ID,
		"updated":            note.UpdatedAt,
		"encryption_version": note.EncryptionVersion,
	})
}

// DELETE /notes/:id — soft delete; the row stays for audit, listings skip it.
func (h *NoteHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid note id"})
		return
	}

	principal := middleware.Principal(c)
	if err := h.notes.DeleteNote(c.Request.Context(), id, principal.ID); err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNoteGone})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "delete note", "note_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
