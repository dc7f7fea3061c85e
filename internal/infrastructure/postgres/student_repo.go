package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studnotes/notes-api/internal/domain"
)

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func (r *StudentRepository) List(ctx context.Context, query string) ([]*domain.Student, error) {
	sql := `SELECT id, stud_nr, graduated FROM students`
	args := []any{}
	if query != "" {
		sql += ` WHERE CAST(stud_nr AS TEXT) LIKE $1`
		args = append(args, "%"+query+"%")
	}
	sql += ` ORDER BY id DESC LIMIT 200`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []*domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(&s.ID, &s.StudNr, &s.Graduated); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, &s)
	}
	return students, rows.Err()
}

func (r *StudentRepository) Create(ctx context.Context, studNr int64, graduated bool) (*domain.Student, error) {
	var s domain.Student
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (stud_nr, graduated) VALUES ($1, $2)
		RETURNING id, stud_nr, graduated`, studNr, graduated).
		Scan(&s.ID, &s.StudNr, &s.Graduated)
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return &s, nil
}

func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("student exists: %w", err)
	}
	return exists, nil
}
