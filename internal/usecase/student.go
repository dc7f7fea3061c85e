package usecase

import (
	"context"
	"fmt"

	"github.com/studnotes/notes-api/internal/domain"
	"github.com/studnotes/notes-api/internal/repository"
)

type StudentUsecase struct {
	students repository.StudentRepository
}

func NewStudentUsecase(students repository.StudentRepository) *StudentUsecase {
	return &StudentUsecase{students: students}
}

func (u *StudentUsecase) ListStudents(ctx context.Context, query string) ([]*domain.Student, error) {
	students, err := u.students.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (u *StudentUsecase) CreateStudent(ctx context.Context, studNr int64, graduated bool) (*domain.Student, error) {
	s, err := u.students.Create(ctx, studNr, graduated)
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return s, nil
}
