package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/studnotes/notes-api/internal/domain"
	"github.com/studnotes/notes-api/internal/usecase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---- fakes ----

type fakeUserRepo struct {
	upsertCredential func(ctx context.Context, name, email, key string, validUntil time.Time) (*domain.User, error)
	rotateCredential func(ctx context.Context, email, key string, validUntil time.Time) (*domain.User, error)
	findByKey        func(ctx context.Context, key string) (*domain.User, error)
	findByID         func(ctx context.Context, id string) (*domain.User, error)
	initCryptoSalt   func(ctx context.Context, id string, salt []byte) ([]byte, error)
	setDEK           func(ctx context.Context, id string, dek []byte) error
}

func (r *fakeUserRepo) UpsertCredential(ctx context.Context, name, email, key string, validUntil time.Time) (*domain.User, error) {
	return r.upsertCredential(ctx, name, email, key, validUntil)
}

func (r *fakeUserRepo) RotateCredential(ctx context.Context, email, key string, validUntil time.Time) (*domain.User, error) {
	return r.rotateCredential(ctx, email, key, validUntil)
}

func (r *fakeUserRepo) FindByKey(ctx context.Context, key string) (*domain.User, error) {
	return r.findByKey(ctx, key)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id)
}

func (r *fakeUserRepo) InitCryptoSalt(ctx context.Context, id string, salt []byte) ([]byte, error) {
	return r.initCryptoSalt(ctx, id, salt)
}

func (r *fakeUserRepo) SetDEK(ctx context.Context, id string, dek []byte) error {
	return r.setDEK(ctx, id, dek)
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

// ---- helpers ----

const testMagicLinkBase = "http://localhost:8080"

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newAuth(repo *fakeUserRepo, sender *fakeEmailSender) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(repo, sender, testMagicLinkBase, discardLogger()).
		WithClock(func() time.Time { return fixedNow })
}

func okSender() *fakeEmailSender {
	return &fakeEmailSender{send: func(_ context.Context, _, _, _ string) error { return nil }}
}

func userWith(key string, validUntil time.Time, active bool) *domain.User {
	return &domain.User{
		ID:         "user-1",
		Name:       "Ann",
		Email:      "ann@x.no",
		BearerKey:  key,
		ValidUntil: validUntil,
		Active:     active,
	}
}

// ---- Register ----

func TestRegister_MintsKeyAndEmailsIt(t *testing.T) {
	var storedKey, emailedBody string

	repo := &fakeUserRepo{
		upsertCredential: func(_ context.Context, name, email, key string, _ time.Time) (*domain.User, error) {
			storedKey = key
			return userWith(key, fixedNow.Add(14*24*time.Hour), true), nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			emailedBody = body
			return nil
		},
	}

	result, err := newAuth(repo, sender).Register(context.Background(), "Ann", "ann@x.no")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Key != storedKey {
		t.Errorf("returned key %q != stored key %q", result.Key, storedKey)
	}
	if !strings.Contains(emailedBody, storedKey) {
		t.Error("email body does not contain the issued key")
	}
	if !result.Delivered {
		t.Error("Delivered = false, want true")
	}
}

func TestRegister_KeyIsURLSafeWith256Bits(t *testing.T) {
	var keys []string
	repo := &fakeUserRepo{
		upsertCredential: func(_ context.Context, _, _, key string, _ time.Time) (*domain.User, error) {
			keys = append(keys, key)
			return userWith(key, fixedNow.Add(14*24*time.Hour), true), nil
		},
	}
	auth := newAuth(repo, okSender())

	for i := 0; i < 2; i++ {
		if _, err := auth.Register(context.Background(), "Ann", "ann@x.no"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 32 bytes base64url without padding is 43 characters.
	for _, key := range keys {
		if len(key) != 43 {
			t.Errorf("key length = %d, want 43: %q", len(key), key)
		}
		if strings.ContainsAny(key, "+/=") {
			t.Errorf("key is not URL-safe: %q", key)
		}
	}
	if keys[0] == keys[1] {
		t.Error("two issuances produced the same key")
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	var storedEmail string
	repo := &fakeUserRepo{
		upsertCredential: func(_ context.Context, _, email, key string, _ time.Time) (*domain.User, error) {
			storedEmail = email
			return userWith(key, fixedNow.Add(14*24*time.Hour), true), nil
		},
	}

	if _, err := newAuth(repo, okSender()).Register(context.Background(), "Ann", "  Ann@X.No "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storedEmail != "ann@x.no" {
		t.Errorf("stored email = %q, want %q", storedEmail, "ann@x.no")
	}
}

func TestRegister_ExpiryIsFourteenDaysOut(t *testing.T) {
	var storedValidUntil time.Time
	repo := &fakeUserRepo{
		upsertCredential: func(_ context.Context, _, _, key string, validUntil time.Time) (*domain.User, error) {
			storedValidUntil = validUntil
			return userWith(key, validUntil, true), nil
		},
	}

	if _, err := newAuth(repo, okSender()).Register(context.Background(), "Ann", "ann@x.no"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := fixedNow.Add(14 * 24 * time.Hour)
	if !storedValidUntil.Equal(want) {
		t.Errorf("valid_until = %v, want %v", storedValidUntil, want)
	}
}

func TestRegister_EmailFailure_KeyStillIssued(t *testing.T) {
	upserted := false
	repo := &fakeUserRepo{
		upsertCredential: func(_ context.Context, _, _, key string, _ time.Time) (*domain.User, error) {
			upserted = true
			return userWith(key, fixedNow.Add(14*24*time.Hour), true), nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return errors.New("smtp unavailable") },
	}

	result, err := newAuth(repo, sender).Register(context.Background(), "Ann", "ann@x.no")
	if err != nil {
		t.Fatalf("delivery failure must not fail the request: %v", err)
	}
	if !upserted {
		t.Error("credential was not committed")
	}
	if result.Delivered {
		t.Error("Delivered = true, want false")
	}
	if result.Key == "" {
		t.Error("key missing from result after delivery failure")
	}
}

func TestRegister_StoreError_Propagates(t *testing.T) {
	repoErr := errors.New("db down")
	repo := &fakeUserRepo{
		upsertCredential: func(_ context.Context, _, _, _ string, _ time.Time) (*domain.User, error) {
			return nil, repoErr
		},
	}

	_, err := newAuth(repo, okSender()).Register(context.Background(), "Ann", "ann@x.no")
	if !errors.Is(err, repoErr) {
		t.Errorf("want wrapped repoErr, got %v", err)
	}
}

// ---- RequestMagicLink ----

func TestRequestMagicLink_RotatesAndEmails(t *testing.T) {
	var rotatedKey, emailedBody string
	repo := &fakeUserRepo{
		rotateCredential: func(_ context.Context, _, key string, _ time.Time) (*domain.User, error) {
			rotatedKey = key
			return userWith(key, fixedNow.Add(14*24*time.Hour), true), nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			emailedBody = body
			return nil
		},
	}

	if err := newAuth(repo, sender).RequestMagicLink(context.Background(), "ann@x.no"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rotatedKey == "" {
		t.Fatal("no key was minted")
	}
	if !strings.Contains(emailedBody, rotatedKey) {
		t.Error("email body does not contain the rotated key")
	}
}

func TestRequestMagicLink_UnknownEmail_NoticeInsteadOfKey(t *testing.T) {
	var mintedKey, sentTo, sentBody string
	repo := &fakeUserRepo{
		rotateCredential: func(_ context.Context, _, key string, _ time.Time) (*domain.User, error) {
			mintedKey = key
			return nil, domain.ErrUserNotFound
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, to, _, body string) error {
			sentTo, sentBody = to, body
			return nil
		},
	}

	if err := newAuth(repo, sender).RequestMagicLink(context.Background(), "nobody@x.no"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if sentTo != "nobody@x.no" {
		t.Errorf("notice went to %q, want the claimed address", sentTo)
	}
	if strings.Contains(sentBody, mintedKey) {
		t.Error("notice for an unknown address must not carry the minted key")
	}
}

// Both branches perform exactly one synchronous send. If either branch ever
// skips its delivery, the response latency becomes an oracle for whether an
// account exists.
func TestRequestMagicLink_SendCountEqualAcrossBranches(t *testing.T) {
	sendsFor := func(email string) int {
		repo := &fakeUserRepo{
			rotateCredential: func(_ context.Context, addr, key string, _ time.Time) (*domain.User, error) {
				if addr != "ann@x.no" {
					return nil, domain.ErrUserNotFound
				}
				return userWith(key, fixedNow.Add(14*24*time.Hour), true), nil
			},
		}
		sends := 0
		sender := &fakeEmailSender{
			send: func(_ context.Context, _, _, _ string) error {
				sends++
				return nil
			},
		}
		if err := newAuth(repo, sender).RequestMagicLink(context.Background(), email); err != nil {
			t.Fatalf("RequestMagicLink(%q): %v", email, err)
		}
		return sends
	}

	known := sendsFor("ann@x.no")
	unknown := sendsFor("nobody@x.no")
	if known != 1 || unknown != 1 {
		t.Errorf("sends: known=%d unknown=%d, want exactly 1 each", known, unknown)
	}
}

func TestRequestMagicLink_NoticeFailure_Swallowed(t *testing.T) {
	repo := &fakeUserRepo{
		rotateCredential: func(_ context.Context, _, _ string, _ time.Time) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return errors.New("smtp unavailable") },
	}

	if err := newAuth(repo, sender).RequestMagicLink(context.Background(), "nobody@x.no"); err != nil {
		t.Errorf("notice failure must not surface: %v", err)
	}
}

func TestRequestMagicLink_EmailFailure_Swallowed(t *testing.T) {
	repo := &fakeUserRepo{
		rotateCredential: func(_ context.Context, _, key string, _ time.Time) (*domain.User, error) {
			return userWith(key, fixedNow.Add(14*24*time.Hour), true), nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return errors.New("smtp unavailable") },
	}

	if err := newAuth(repo, sender).RequestMagicLink(context.Background(), "ann@x.no"); err != nil {
		t.Errorf("delivery failure must not surface: %v", err)
	}
}

// ---- StartSession ----

func TestStartSession_UnknownKey_InvalidCredential(t *testing.T) {
	repo := &fakeUserRepo{
		findByKey: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}

	_, err := newAuth(repo, okSender()).StartSession(context.Background(), "garbage")
	if !errors.Is(err, domain.ErrInvalidCredential) {
		t.Errorf("want ErrInvalidCredential, got %v", err)
	}
}

func TestStartSession_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name       string
		validUntil time.Time
		wantErr    error
	}{
		{"one second before expiry succeeds", fixedNow.Add(time.Second), nil},
		{"exactly at expiry fails", fixedNow, domain.ErrCredentialExpired},
		{"after expiry fails", fixedNow.Add(-time.Second), domain.ErrCredentialExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUserRepo{
				findByKey: func(_ context.Context, key string) (*domain.User, error) {
					return userWith(key, tt.validUntil, true), nil
				},
			}

			_, err := newAuth(repo, okSender()).StartSession(context.Background(), "some-key")
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStartSession_InactiveRejectedDespiteFreshExpiry(t *testing.T) {
	repo := &fakeUserRepo{
		findByKey: func(_ context.Context, key string) (*domain.User, error) {
			return userWith(key, fixedNow.Add(24*time.Hour), false), nil
		},
	}

	_, err := newAuth(repo, okSender()).StartSession(context.Background(), "some-key")
	if !errors.Is(err, domain.ErrCredentialExpired) {
		t.Errorf("want ErrCredentialExpired, got %v", err)
	}
}

func TestStartSession_ValidKey_ReturnsUser(t *testing.T) {
	repo := &fakeUserRepo{
		findByKey: func(_ context.Context, key string) (*domain.User, error) {
			return userWith(key, fixedNow.Add(24*time.Hour), true), nil
		},
	}

	user, err := newAuth(repo, okSender()).StartSession(context.Background(), "some-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("user id = %q, want user-1", user.ID)
	}
}
