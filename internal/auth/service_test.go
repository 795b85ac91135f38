package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mosehq/backend-mose/internal/common"
)

type memStore struct {
	users    map[string]UserRecord
	sessions map[string]SessionRecord
	resets   map[string]ResetRecord
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]UserRecord{},
		sessions: map[string]SessionRecord{},
		resets:   map[string]ResetRecord{},
	}
}

func (m *memStore) id() string {
	m.nextID++
	return string(rune('a' + m.nextID - 1))
}

func (m *memStore) CreateUser(_ context.Context, name, email, hash string) (UserRecord, error) {
	for _, u := range m.users {
		if u.Email == email {
			return UserRecord{}, ErrEmailTaken
		}
	}
	u := UserRecord{ID: m.id(), Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return UserRecord{}, ErrNoRecord
}

func (m *memStore) GetUserByID(_ context.Context, id string) (UserRecord, error) {
	u, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrNoRecord
	}
	return u, nil
}

func (m *memStore) UpdatePassword(_ context.Context, userID, hash string) error {
	u, ok := m.users[userID]
	if !ok {
		return ErrNoRecord
	}
	u.PasswordHash = hash
	m.users[userID] = u
	return nil
}

func (m *memStore) CreateSession(_ context.Context, s SessionRecord) error {
	if s.ID == "" {
		s.ID = m.id()
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) GetSessionByTokenHash(_ context.Context, hash string) (SessionRecord, error) {
	for _, s := range m.sessions {
		if s.TokenHash == hash {
			return s, nil
		}
	}
	return SessionRecord{}, ErrNoRecord
}

func (m *memStore) RotateSession(_ context.Context, sessionID, newHash string, expiresAt time.Time) error {
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNoRecord
	}
	s.TokenHash = newHash
	s.ExpiresAt = expiresAt
	m.sessions[sessionID] = s
	return nil
}

func (m *memStore) DeleteSessionByTokenHash(_ context.Context, hash string) error {
	for id, s := range m.sessions {
		if s.TokenHash == hash {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *memStore) DeleteSessionsByUser(_ context.Context, userID string) error {
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *memStore) CreatePasswordReset(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.resets[token] = ResetRecord{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (m *memStore) GetPasswordReset(_ context.Context, token string) (ResetRecord, error) {
	r, ok := m.resets[token]
	if !ok {
		return ResetRecord{}, ErrNoRecord
	}
	return r, nil
}

func (m *memStore) UsePasswordReset(_ context.Context, token string) error {
	r, ok := m.resets[token]
	if !ok {
		return ErrNoRecord
	}
	r.Used = true
	m.resets[token] = r
	return nil
}

func (m *memStore) DeletePasswordResetsByUser(_ context.Context, userID string) error {
	for token, r := range m.resets {
		if r.UserID == userID {
			delete(m.resets, token)
		}
	}
	return nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := NewService(Config{Store: store, Secret: "test-secret"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Ada", "ADA@Example.com ", "supersecret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}

	result, err := svc.Login(ctx, "ada@example.com", "supersecret", "ua", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	subject, err := svc.ParseAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if subject != user.ID {
		t.Fatalf("subject = %q, want %q", subject, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "supersecret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, "Eve", "ada@example.com", "supersecret")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "EMAIL_ALREADY_USED" {
		t.Fatalf("expected EMAIL_ALREADY_USED, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "supersecret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Login(ctx, "ada@example.com", "wrong", "", "")
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "supersecret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, "ada@example.com", "supersecret", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The old token is no longer valid after rotation.
	if _, err := svc.Refresh(ctx, login.RefreshToken); err == nil {
		t.Fatal("expected rotated-out token to be rejected")
	}
}

func TestRefreshExpiredSession(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "supersecret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	login, err := svc.Login(ctx, "ada@example.com", "supersecret", "", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.WithNow(func() time.Time { return time.Now().Add(365 * 24 * time.Hour) })
	if _, err := svc.Refresh(ctx, login.RefreshToken); err == nil {
		t.Fatal("expected expired session to be rejected")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()
	inbox := &common.InMemoryEmail{}

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", "supersecret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.Forgot(ctx, "ada@example.com", "https://shop.example", inbox); err != nil {
		t.Fatalf("Forgot: %v", err)
	}
	if len(inbox.Outbox) != 1 {
		t.Fatalf("expected 1 reset email, got %d", len(inbox.Outbox))
	}
	if len(store.resets) != 1 {
		t.Fatalf("expected 1 reset record, got %d", len(store.resets))
	}

	var token string
	for tok := range store.resets {
		token = tok
	}
	if err := svc.Reset(ctx, token, "newpassword"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "newpassword", "", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "supersecret", "", ""); err == nil {
		t.Fatal("old password still accepted")
	}

	// Tokens are single use.
	if err := svc.Reset(ctx, token, "anotherpass"); err == nil {
		t.Fatal("expected used token to be rejected")
	}
}

func TestForgotUnknownEmailIsSilent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	inbox := &common.InMemoryEmail{}

	if err := svc.Forgot(context.Background(), "nobody@example.com", "", inbox); err != nil {
		t.Fatalf("Forgot: %v", err)
	}
	if len(inbox.Outbox) != 0 {
		t.Fatal("no email should be sent for unknown addresses")
	}
}
