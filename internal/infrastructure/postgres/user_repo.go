package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studnotes/notes-api/internal/domain"
)

const userColumns = `id, name, email, bearer_key, valid_until, active,
	       crypto_salt, dek_for_user, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) UpsertCredential(ctx context.Context, name, email, key string, validUntil time.Time) (*domain.User, error) {
	// Single statement so two concurrent issuances can never leave the row
	// with the name of one and the key of the other.
	query := `
		INSERT INTO users (id, name, email, bearer_key, valid_until, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (email) DO UPDATE
		SET name        = EXCLUDED.name,
		    bearer_key  = EXCLUDED.bearer_key,
		    valid_until = EXCLUDED.valid_until,
		    active      = TRUE,
		    updated_at  = NOW()
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), name, email, key, validUntil)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("upsert credential: %w", err)
	}
	return u, nil
}

func (r *UserRepository) RotateCredential(ctx context.Context, email, key string, validUntil time.Time) (*domain.User, error) {
	query := `
		UPDATE users
		SET bearer_key  = $2,
		    valid_until = $3,
		    active      = TRUE,
		    updated_at  = NOW()
		WHERE email = $1
		RETURNING ` + userColumns

	// scanUser maps pgx.ErrNoRows to ErrUserNotFound: an UPDATE matching
	// nothing is how "no account has that email" surfaces here.
	return scanUser(r.pool.QueryRow(ctx, query, email, key, validUntil))
}

func (r *UserRepository) FindByKey(ctx context.Context, key string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE bearer_key = $1`
	return scanUser(r.pool.QueryRow(ctx, query, key))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) InitCryptoSalt(ctx context.Context, id string, salt []byte) ([]byte, error) {
	// The WHERE clause makes initialization first-writer-wins; the SELECT
	// afterwards returns the winning value regardless of which caller won.
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET crypto_salt = $2, updated_at = NOW()
		WHERE id = $1 AND crypto_salt IS NULL`, id, salt)
	if err != nil {
		return nil, fmt.Errorf("init crypto salt: %w", err)
	}

	var stored []byte
	err = r.pool.QueryRow(ctx, `SELECT crypto_salt FROM users WHERE id = $1`, id).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("read crypto salt: %w", err)
	}
	return stored, nil
}

func (r *UserRepository) SetDEK(ctx context.Context, id string, dek []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET dek_for_user = $2, updated_at = NOW() WHERE id = $1`, id, dek)
	if err != nil {
		return fmt.Errorf("set dek: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.BearerKey, &u.ValidUntil, &u.Active,
		&u.CryptoSalt, &u.DEK, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	// The rest of the codebase compares expiry against time.Now().UTC();
	// a session-local zone leaking out of the driver must not change the
	// comparison result.
	u.ValidUntil = u.ValidUntil.UTC()
	return &u, nil
}
