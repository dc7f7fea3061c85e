package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/studnotes/notes-api/internal/domain"
	"github.com/studnotes/notes-api/internal/email"
	"github.com/studnotes/notes-api/internal/metrics"
	"github.com/studnotes/notes-api/internal/repository"
)

const (
	// keyTTL is the bearer key's validity window. The session cookie lives
	// 8 hours (see the session handler); the key deliberately outlives it.
	keyTTL = 14 * 24 * time.Hour

	keyBytes = 32 // 256 bits of entropy per issued key
)

type AuthUsecase struct {
	users         repository.UserRepository
	email         email.Sender
	magicLinkBase string
	logger        *slog.Logger
	now           func() time.Time
}

func NewAuthUsecase(users repository.UserRepository, emailSender email.Sender, magicLinkBase string, logger *slog.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:         users,
		email:         emailSender,
		magicLinkBase: magicLinkBase,
		logger:        logger.With("component", "auth_usecase"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Tests use it to pin expiry boundaries.
func (u *AuthUsecase) WithClock(now func() time.Time) *AuthUsecase {
	u.now = now
	return u
}

type RegisterResult struct {
	User *domain.User
	// Key is returned to the caller as a fallback channel when email
	// delivery fails. Trusted/internal deployments only.
	Key       string
	Delivered bool
}

// Register creates the account or re-issues its credential. The credential
// mutation commits first; emailing the key afterwards is best effort and its
// failure is reported via Delivered, never as an error.
func (u *AuthUsecase) Register(ctx context.Context, name, emailAddr string) (*RegisterResult, error) {
	emailAddr = domain.NormalizeEmail(emailAddr)

	key, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	user, err := u.users.UpsertCredential(ctx, name, emailAddr, key, u.now().Add(keyTTL))
	if err != nil {
		return nil, fmt.Errorf("upsert credential: %w", err)
	}
	metrics.KeysIssuedTotal.WithLabelValues("register").Inc()

	delivered := u.deliverKey(ctx, emailAddr, key)

	return &RegisterResult{User: user, Key: key, Delivered: delivered}, nil
}

// RequestMagicLink rotates the credential of an existing account and emails
// the fresh key. An unknown email leaves the store untouched but still costs
// one rotate statement and one mail send: callers must not be able to tell
// the two cases apart from the response or from its latency.
func (u *AuthUsecase) RequestMagicLink(ctx context.Context, emailAddr string) error {
	emailAddr = domain.NormalizeEmail(emailAddr)

	key, err := generateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	_, err = u.users.RotateCredential(ctx, emailAddr, key, u.now().Add(keyTTL))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.deliverNoAccountNotice(ctx, emailAddr)
			return nil
		}
		return fmt.Errorf("rotate credential: %w", err)
	}
	metrics.KeysIssuedTotal.WithLabelValues("magic_link").Inc()

	u.deliverKey(ctx, emailAddr, key)
	return nil
}

// StartSession validates a presented bearer key and returns its user.
// The rejection order matters: unknown key first, then expiry/deactivation.
func (u *AuthUsecase) StartSession(ctx context.Context, key string) (*domain.User, error) {
	user, err := u.users.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredential
		}
		return nil, fmt.Errorf("find user by key: %w", err)
	}

	if !user.CanAuthenticate(u.now()) {
		return nil, domain.ErrCredentialExpired
	}
	return user, nil
}

func (u *AuthUsecase) deliverKey(ctx context.Context, to, key string) bool {
	link := u.magicLinkBase + "/login?key=" + key
	subject := "Your notes access key"
	body := fmt.Sprintf(
		`<p>Your new access key:</p><p><code>%s</code></p>`+
			`<p>Sign in directly: <a href="%s">%s</a></p>`+
			`<p>The key is valid for 14 days. Requesting a new one invalidates this one.</p>`,
		key, link, link,
	)

	if err := u.email.Send(ctx, to, subject, body); err != nil {
		// Delivery is a side channel; the rotated credential stands.
		u.logger.ErrorContext(ctx, "key email delivery failed", "error", err)
		metrics.KeyEmailsTotal.WithLabelValues("failed").Inc()
		return false
	}
	metrics.KeyEmailsTotal.WithLabelValues("sent").Inc()
	return true
}

// deliverNoAccountNotice mails the claimed address when no account exists for
// it. Without this send the known-email branch would be slower by one
// synchronous delivery, turning response latency into an existence oracle.
func (u *AuthUsecase) deliverNoAccountNotice(ctx context.Context, to string) {
	subject := "Your notes access key"
	body := `<p>A new access key was requested for this address, but no account ` +
		`is registered to it.</p>` +
		fmt.Sprintf(`<p>If this was you, register first at <a href="%s">%s</a>.</p>`,
			u.magicLinkBase, u.magicLinkBase)

	if err := u.email.Send(ctx, to, subject, body); err != nil {
		u.logger.ErrorContext(ctx, "no-account notice delivery failed", "error", err)
		metrics.KeyEmailsTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.KeyEmailsTotal.WithLabelValues("sent").Inc()
}

func generateKey() (string, error) {
	raw := make([]byte, keyBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
