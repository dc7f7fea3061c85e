package repository

import (
	"context"
	"time"

	"github.com/studnotes/notes-api/internal/domain"
)

type UserRepository interface {
	// UpsertCredential creates the user or, if the email is already
	// registered, overwrites name and credential in one atomic statement.
	// Either way the account ends up active with a fresh key.
	UpsertCredential(ctx context.Context, name, email, key string, validUntil time.Time) (*domain.User, error)

	// RotateCredential replaces the key and expiry of an existing account.
	// Returns ErrUserNotFound when no account has that email; it never
	// creates one.
	RotateCredential(ctx context.Context, email, key string, validUntil time.Time) (*domain.User, error)

	FindByKey(ctx context.Context, key string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// InitCryptoSalt sets the salt only if none is stored yet and returns
	// whatever value ends up persisted, so concurrent initializers all
	// observe the single winning salt.
	InitCryptoSalt(ctx context.Context, id string, salt []byte) ([]byte, error)

	SetDEK(ctx context.Context, id string, dek []byte) error
}
