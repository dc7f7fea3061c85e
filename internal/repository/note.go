package repository

import (
	"context"

	"github.com/studnotes/notes-api/internal/domain"
)

type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) (*domain.Note, error)

	// ListByStudent returns live (non-deleted) notes for one student,
	// already filtered to ownerID at the SQL level.
	ListByStudent(ctx context.Context, studentID int64, ownerID string) ([]*domain.Note, error)

	// GetOwner returns the owner of a note regardless of its deleted flag.
	// Returns ErrNoteNotFound when the row is absent.
	GetOwner(ctx context.Context, id int64) (string, error)

	Update(ctx context.Context, id int64, ciphertext string, nonce []byte, encryptionVersion int) (*domain.Note, error)

	// SoftDelete marks the note deleted if it exists and belongs to ownerID.
	// Reports whether a row was affected.
	SoftDelete(ctx context.Context, id int64, ownerID string) (bool, error)
}
