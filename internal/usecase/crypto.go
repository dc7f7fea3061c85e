package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/studnotes/notes-api/internal/repository"
)

const saltBytes = 16

type CryptoUsecase struct {
	users repository.UserRepository
}

func NewCryptoUsecase(users repository.UserRepository) *CryptoUsecase {
	return &CryptoUsecase{users: users}
}

// Config returns the user's key-derivation salt and wrapped DEK. The salt is
// generated on first fetch and never changes afterwards; the DEK is nil until
// the client uploads one.
func (u *CryptoUsecase) Config(ctx context.Context, userID string) (salt, dek []byte, err error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if user.CryptoSalt != nil {
		return user.CryptoSalt, user.DEK, nil
	}

	fresh := make([]byte, saltBytes)
	if _, err := io.ReadFull(rand.Reader, fresh); err != nil {
		return nil, nil, fmt.Errorf("generate salt: %w", err)
	}

	// InitCryptoSalt is first-writer-wins, so a concurrent fetch racing us
	// here still leaves both callers holding the same stored salt.
	stored, err := u.users.InitCryptoSalt(ctx, userID, fresh)
	if err != nil {
		return nil, nil, fmt.Errorf("init crypto salt: %w", err)
	}
	return stored, user.DEK, nil
}

// SetDEK stores the client's wrapped data-encryption-key verbatim.
func (u *CryptoUsecase) SetDEK(ctx context.Context, userID string, dek []byte) error {
	if err := u.users.SetDEK(ctx, userID, dek); err != nil {
		return fmt.Errorf("set dek: %w", err)
	}
	return nil
}
