package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/studnotes/notes-api/internal/domain"
	"github.com/studnotes/notes-api/internal/repository"
)

type NoteUsecase struct {
	notes    repository.NoteRepository
	students repository.StudentRepository
}

func NewNoteUsecase(notes repository.NoteRepository, students repository.StudentRepository) *NoteUsecase {
	return &NoteUsecase{notes: notes, students: students}
}

type CreateNoteInput struct {
	OwnerID           string
	StudentID         int64
	Ciphertext        string
	Nonce             []byte
	EncryptionVersion int
}

func (u *NoteUsecase) CreateNote(ctx context.Context, input CreateNoteInput) (*domain.Note, error) {
	exists, err := u.students.Exists(ctx, input.StudentID)
	if err != nil {
		return nil, fmt.Errorf("check student: %w", err)
	}
	if !exists {
		return nil, domain.ErrStudentNotFound
	}

	if input.EncryptionVersion == 0 {
		input.EncryptionVersion = 1
	}

	note, err := u.notes.Create(ctx, &domain.Note{
		Owner:             input.OwnerID,
		Student:           input.StudentID,
		Ciphertext:        input.Ciphertext,
		Nonce:             input.Nonce,
		EncryptionVersion: input.EncryptionVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (u *NoteUsecase) ListNotes(ctx context.Context, studentID int64, ownerID string) ([]*domain.Note, error) {
	notes, err := u.notes.ListByStudent(ctx, studentID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// UpdateNote distinguishes "absent" from "not yours": the caller already
// named a concrete note id, so a 403 here leaks nothing that the 404 on a
// random id would not.
func (u *NoteUsecase) UpdateNote(ctx context.Context, id int64, ownerID, ciphertext string, nonce []byte, encryptionVersion int) (*domain.Note, error) {
	owner, err := u.notes.GetOwner(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note owner: %w", err)
	}
	if owner != ownerID {
		return nil, domain.ErrNotOwner
	}

	note, err := u.notes.Update(ctx, id, ciphertext, nonce, encryptionVersion)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return note, nil
}

// DeleteNote soft-deletes and folds "absent" and "not yours" into one
// not-found result, matching the listing behavior.
func (u *NoteUsecase) DeleteNote(ctx context.Context, id int64, ownerID string) error {
	deleted, err := u.notes.SoftDelete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if !deleted {
		return domain.ErrNoteNotFound
	}
	return nil
}
