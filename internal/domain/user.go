package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("credential is not recognized")
	ErrCredentialExpired = errors.New("credential is expired or deactivated")
)

// User is a credential row. BearerKey is the single long-lived secret for the
// account; issuing a new one overwrites the old value, there is never more
// than one valid key per user.
type User struct {
	ID        string
	Name      string
	Email     string
	BearerKey string
	// ValidUntil is always UTC. The store boundary normalizes it; nothing
	// past the repository may see a naive or local timestamp.
	ValidUntil time.Time
	Active     bool

	// CryptoSalt is set lazily on first crypto-config fetch and is immutable
	// afterwards: rotating it would orphan every DEK wrapped under it.
	CryptoSalt []byte
	// DEK is the client's data-encryption-key, wrapped client-side. The
	// server stores and returns it, never interprets it.
	DEK []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanAuthenticate reports whether the stored credential is usable at now.
// Expiry is strict: now == ValidUntil is already expired.
func (u *User) CanAuthenticate(now time.Time) bool {
	return u.Active && now.Before(u.ValidUntil)
}

// Principal is the authenticated identity handlers act on behalf of.
// It carries no key or crypto material.
type Principal struct {
	ID    string
	Name  string
	Email string
}

func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NormalizeEmail canonicalizes an address for use as the account's natural key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
