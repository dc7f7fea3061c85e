package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studnotes/notes-api/internal/domain"
	"github.com/studnotes/notes-api/internal/transport/http/handler"
	"github.com/studnotes/notes-api/internal/transport/http/middleware"
	"github.com/studnotes/notes-api/internal/usecase"
)

// fakeNotes records the owner each call was scoped to, so tests can verify
// the principal from the cookie — not anything client-supplied — drives
// authorization.
type fakeNotes struct {
	lastOwner string
	create    func(ctx context.Context, input usecase.CreateNoteInput) (*domain.Note, error)
	list      func(ctx context.Context, studentID int64, ownerID string) ([]*domain.Note, error)
	update    func(ctx context.Context, id int64, ownerID, ciphertext string, nonce []byte, encryptionVersion int) (*domain.Note, error)
	delete    func(ctx context.Context, id int64, ownerID string) error
}

func (f *fakeNotes) CreateNote(ctx context.Context, input usecase.CreateNoteInput) (*domain.Note, error) {
	f.lastOwner = input.OwnerID
	return f.create(ctx, input)
}

func (f *fakeNotes) ListNotes(ctx context.Context, studentID int64, ownerID string) ([]*domain.Note, error) {
	f.lastOwner = ownerID
	return f.list(ctx, studentID, ownerID)
}

func (f *fakeNotes) UpdateNote(ctx context.Context, id int64, ownerID, ciphertext string, nonce []byte, encryptionVersion int) (*domain.Note, error) {
	f.lastOwner = ownerID
	return f.update(ctx, id, ownerID, ciphertext, nonce, encryptionVersion)
}

func (f *fakeNotes) DeleteNote(ctx context.Context, id int64, ownerID string) error {
	f.lastOwner = ownerID
	return f.delete(ctx, id, ownerID)
}

// cookieRepo backs the real Session middleware so note requests travel the
// same cookie-to-principal path as production traffic.
type cookieRepo struct {
	users map[string]*domain.User
}

func (r *cookieRepo) FindByKey(_ context.Context, key string) (*domain.User, error) {
	if u, ok := r.users[key]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *cookieRepo) FindByID(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *cookieRepo) UpsertCredential(context.Context, string, string, string, time.Time) (*domain.User, error) {
	return nil, nil
}

func (r *cookieRepo) RotateCredential(context.Context, string, string, time.Time) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r *cookieRepo) InitCryptoSalt(context.Context, string, []byte) ([]byte, error) {
	return nil, nil
}

func (r *cookieRepo) SetDEK(context.Context, string, []byte) error { return nil }

func noteUser(id, key string) *domain.User {
	return &domain.User{
		ID:         id,
		Name:       "Owner " + id,
		Email:      id + "@x.no",
		BearerKey:  key,
		ValidUntil: time.Now().UTC().Add(time.Hour),
		Active:     true,
	}
}

func newNoteEngine(notes *fakeNotes, users map[string]*domain.User) *gin.Engine {
	h := handler.NewNoteHandler(notes, discardLogger())
	session := middleware.Session(&cookieRepo{users: users}, testCookieName, discardLogger())

	r := gin.New()
	g := r.Group("/notes", session)
	g.GET("/:id", h.ListByStudent)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return r
}

func doNote(r *gin.Engine, method, path, body, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if key != "" {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: key})
	}
	r.ServeHTTP(w, req)
	return w
}

func TestListNotes_WithoutCookie_Returns401(t *testing.T) {
	notes := &fakeNotes{
		list: func(context.Context, int64, string) ([]*domain.Note, error) { return nil, nil },
	}
	w := doNote(newNoteEngine(notes, nil), http.MethodGet, "/notes/42", "", "")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestListNotes_ScopedToCookiePrincipal(t *testing.T) {
	notes := &fakeNotes{
		list: func(context.Context, int64, string) ([]*domain.Note, error) { return nil, nil },
	}
	users := map[string]*domain.User{"key-a": noteUser("user-a", "key-a")}

	w := doNote(newNoteEngine(notes, users), http.MethodGet, "/notes/42", "", "key-a")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if notes.lastOwner != "user-a" {
		t.Errorf("list scoped to %q, want user-a", notes.lastOwner)
	}
	if body := w.Body.String(); body != "[]" {
		t.Errorf("empty listing body = %s, want []", body)
	}
}

func TestUpdateNote_ForeignNote_Returns403(t *testing.T) {
	notes := &fakeNotes{
		update: func(context.Context, int64, string, string, []byte, int) (*domain.Note, error) {
			return nil, domain.ErrNotOwner
		},
	}
	users := map[string]*domain.User{"key-b": noteUser("user-b", "key-b")}

	body := `{"ciphertext_b64":"Y2lwaGVydGV4dA==","nonce_b64":"bm9uY2UxMjM0NTY="}`
	w := doNote(newNoteEngine(notes, users), http.MethodPut, "/notes/7", body, "key-b")

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Not your note") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestUpdateNote_AbsentNote_Returns404(t *testing.T) {
	notes := &fakeNotes{
		update: func(context.Context, int64, string, string, []byte, int) (*domain.Note, error) {
			return nil, domain.ErrNoteNotFound
		},
	}
	users := map[string]*domain.User{"key-b": noteUser("user-b", "key-b")}

	body := `{"ciphertext_b64":"Y2lwaGVydGV4dA==","nonce_b64":"bm9uY2UxMjM0NTY="}`
	w := doNote(newNoteEngine(notes, users), http.MethodPut, "/notes/7", body, "key-b")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteNote_ForeignOrAbsent_SameResponse(t *testing.T) {
	// Deletion never reveals whether the note existed under another owner.
	notes := &fakeNotes{
		delete: func(context.Context, int64, string) error { return domain.ErrNoteNotFound },
	}
	users := map[string]*domain.User{"key-b": noteUser("user-b", "key-b")}

	w := doNote(newNoteEngine(notes, users), http.MethodDelete, "/notes/7", "", "key-b")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if body := w.Body.String(); body != `{"error":"Note not found or not yours"}` {
		t.Errorf("body = %s", body)
	}
}

func TestCreateNote_UnknownStudent_Returns404(t *testing.T) {
	notes := &fakeNotes{
		create: func(context.Context, usecase.CreateNoteInput) (*domain.Note, error) {
			return nil, domain.ErrStudentNotFound
		},
	}
	users := map[string]*domain.User{"key-a": noteUser("user-a", "key-a")}

	body := `{"student_id":42,"ciphertext_b64":"Y2lwaGVydGV4dA==","nonce_b64":"bm9uY2UxMjM0NTY="}`
	w := doNote(newNoteEngine(notes, users), http.MethodPost, "/notes", body, "key-a")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateNote_OwnerComesFromCookieNotBody(t *testing.T) {
	created := &domain.Note{ID: 1, Owner: "user-a", Student: 42, EncryptionVersion: 1}
	notes := &fakeNotes{
		create: func(_ context.Context, input usecase.CreateNoteInput) (*domain.Note, error) {
			return created, nil
		},
	}
	users := map[string]*domain.User{"key-a": noteUser("user-a", "key-a")}

	// The body tries to smuggle an owner field; it must be ignored.
	body := `{"owner":"user-z","student_id":42,"ciphertext_b64":"Y2lwaGVydGV4dA==","nonce_b64":"bm9uY2UxMjM0NTY="}`
	w := doNote(newNoteEngine(notes, users), http.MethodPost, "/notes", body, "key-a")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if notes.lastOwner != "user-a" {
		t.Errorf("owner = %q, want the cookie principal user-a", notes.lastOwner)
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 1 {
		t.Errorf("id = %d, want 1", resp.ID)
	}
}
