package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studnotes/notes-api/internal/domain"
)

const noteColumns = `id, owner, student, note_ciphertext, nonce,
	       encryption_version, deleted, created_at, updated_at`

type NoteRepository struct {
	pool *pgxpool.Pool
}

func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	query := `
		INSERT INTO notes (owner, student, note_ciphertext, nonce, encryption_version)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + noteColumns

	row := r.pool.QueryRow(ctx, query,
		note.Owner, note.Student, note.Ciphertext, note.Nonce, note.EncryptionVersion)

	created, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return created, nil
}

func (r *NoteRepository) ListByStudent(ctx context.Context, studentID int64, ownerID string) ([]*domain.Note, error) {
	// Owner scoping happens here, not after the fetch: another user's notes
	// never leave the database.
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE student = $1 AND owner = $2 AND deleted = FALSE
		ORDER BY id DESC`

	rows, err := r.pool.Query(ctx, query, studentID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepository) GetOwner(ctx context.Context, id int64) (string, error) {
	var owner string
	err := r.pool.QueryRow(ctx, `SELECT owner FROM notes WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNoteNotFound
		}
		return "", fmt.Errorf("get note owner: %w", err)
	}
	return owner, nil
}

func (r *NoteRepository) Update(ctx context.Context, id int64, ciphertext string, nonce []byte, encryptionVersion int) (*domain.Note, error) {
	query := `
		UPDATE notes
		SET note_ciphertext    = $2,
		    nonce              = $3,
		    encryption_version = $4,
		    updated_at         = NOW()
		WHERE id = $1
		RETURNING ` + noteColumns

	row := r.pool.QueryRow(ctx, query, id, ciphertext, nonce, encryptionVersion)
	updated, err := scanNote(row)
	if err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

func (r *NoteRepository) SoftDelete(ctx context.Context, id int64, ownerID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notes SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND owner = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var n domain.Note
	err := row.Scan(&n.ID, &n.Owner, &n.Student, &n.Ciphertext, &n.Nonce,
		&n.EncryptionVersion, &n.Deleted, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	return &n, nil
}
