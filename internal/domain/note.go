package domain

import (
	"errors"
	"time"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	// ErrNotOwner is only returned for single-note-by-id operations, where
	// the request itself already implies the note exists. Listings never
	// distinguish "someone else's" from "absent".
	ErrNotOwner = errors.New("note belongs to another user")
)

// Note holds an opaque ciphertext produced client-side. The server never
// holds the plaintext or the key that decrypts it.
type Note struct {
	ID                int64
	Owner             string
	Student           int64
	Ciphertext        string
	Nonce             []byte
	EncryptionVersion int
	Deleted           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
