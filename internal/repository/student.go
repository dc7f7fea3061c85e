package repository

import (
	"context"

	"github.com/studnotes/notes-api/internal/domain"
)

type StudentRepository interface {
	// List returns at most 200 students, newest first. A non-empty query
	// substring-matches the student number.
	List(ctx context.Context, query string) ([]*domain.Student, error)
	Create(ctx context.Context, studNr int64, graduated bool) (*domain.Student, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
