package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEmailTaken signals a registration attempt with an already registered email.
var ErrEmailTaken = errors.New("email already registered")

// ErrNoRecord signals a lookup miss in the auth store.
var ErrNoRecord = errors.New("record not found")

// UserRecord is a stored user account.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionRecord is a stored refresh token session.
type SessionRecord struct {
	ID        string
	UserID    string
	TokenHash string
	UserAgent string
	IP        string
	ExpiresAt time.Time
}

// ResetRecord is a stored password reset token.
type ResetRecord struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
}

// Store abstracts user, session, and password reset persistence.
type Store interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, id string) (UserRecord, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	CreateSession(ctx context.Context, s SessionRecord) error
	GetSessionByTokenHash(ctx context.Context, hash string) (SessionRecord, error)
	RotateSession(ctx context.Context, sessionID, newHash string, expiresAt time.Time) error
	DeleteSessionByTokenHash(ctx context.Context, hash string) error
	DeleteSessionsByUser(ctx context.Context, userID string) error

	CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetPasswordReset(ctx context.Context, token string) (ResetRecord, error)
	UsePasswordReset(ctx context.Context, token string) error
	DeletePasswordResetsByUser(ctx context.Context, userID string) error
}

// PGStore implements Store over Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) CreateUser(ctx context.Context, name, email, passwordHash string) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id::text, name, email, password_hash, roles, created_at, updated_at`,
		name, email, passwordHash)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return UserRecord{}, ErrEmailTaken
		}
		return UserRecord{}, err
	}
	return u, nil
}

func (s PGStore) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id::text, name, email, password_hash, roles, created_at, updated_at
		FROM users WHERE email = $1`, email)
	return userOrNoRecord(scanUser(row))
}

func (s PGStore) GetUserByID(ctx context.Context, id string) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id::text, name, email, password_hash, roles, created_at, updated_at
		FROM users WHERE id = $1::uuid`, id)
	return userOrNoRecord(scanUser(row))
}

func (s PGStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1::uuid`,
		userID, passwordHash)
	return err
}

func (s PGStore) CreateSession(ctx context.Context, sess SessionRecord) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip, expires_at)
		VALUES ($1::uuid, $2, NULLIF($3, ''), NULLIF($4, ''), $5)`,
		sess.UserID, sess.TokenHash, sess.UserAgent, sess.IP, sess.ExpiresAt)
	return err
}

func (s PGStore) GetSessionByTokenHash(ctx context.Context, hash string) (SessionRecord, error) {
	var (
		sess      SessionRecord
		userAgent *string
		ip        *string
	)
	err := s.Pool.QueryRow(ctx, `
		SELECT id::text, user_id::text, refresh_token, user_agent, ip, expires_at
		FROM sessions WHERE refresh_token = $1`, hash).
		Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &userAgent, &ip, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SessionRecord{}, ErrNoRecord
		}
		return SessionRecord{}, err
	}
	if userAgent != nil {
		sess.UserAgent = *userAgent
	}
	if ip != nil {
		sess.IP = *ip
	}
	return sess, nil
}

func (s PGStore) RotateSession(ctx context.Context, sessionID, newHash string, expiresAt time.Time) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET refresh_token = $2, expires_at = $3 WHERE id = $1::uuid`,
		sessionID, newHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRecord
	}
	return nil
}

func (s PGStore) DeleteSessionByTokenHash(ctx context.Context, hash string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, hash)
	return err
}

func (s PGStore) DeleteSessionsByUser(ctx context.Context, userID string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1::uuid`, userID)
	return err
}

func (s PGStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO password_resets (user_id, token, expires_at)
		VALUES ($1::uuid, $2, $3)`, userID, token, expiresAt)
	return err
}

func (s PGStore) GetPasswordReset(ctx context.Context, token string) (ResetRecord, error) {
	var (
		rec    ResetRecord
		usedAt *time.Time
	)
	err := s.Pool.QueryRow(ctx, `
		SELECT user_id::text, token, expires_at, used_at
		FROM password_resets WHERE token = $1`, token).
		Scan(&rec.UserID, &rec.Token, &rec.ExpiresAt, &usedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ResetRecord{}, ErrNoRecord
		}
		return ResetRecord{}, err
	}
	rec.Used = usedAt != nil
	return rec, nil
}

func (s PGStore) UsePasswordReset(ctx context.Context, token string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE password_resets SET used_at = now() WHERE token = $1`, token)
	return err
}

func (s PGStore) DeletePasswordResetsByUser(ctx context.Context, userID string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM password_resets WHERE user_id = $1::uuid`, userID)
	return err
}

func scanUser(row interface{ Scan(dest ...any) error }) (UserRecord, error) {
	var u UserRecord
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return UserRecord{}, err
	}
	return u, nil
}

func userOrNoRecord(u UserRecord, err error) (UserRecord, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrNoRecord
		}
		return UserRecord{}, err
	}
	return u, nil
}
