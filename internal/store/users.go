package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/auditdays/internal/apperr"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account allowed to sign in.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
}

// IsAdmin reports whether the user may edit the configuration.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStore reads and writes user accounts.
type UserStore struct {
	db *sql.DB
}

// NewUserStore returns a store backed by db.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// GetByEmail returns the user with the given email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	const op = "user.get"

	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role FROM users WHERE email = ?
	`, normalizeEmail(email)).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperr.NotFound(op, "user", email)
	}
	if err != nil {
		return User{}, apperr.Internal(err, op, "query user")
	}
	return u, nil
}

// Authenticate returns the user when password matches the stored hash.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (User, bool, error) {
	u, err := s.GetByEmail(ctx, email)
	if apperr.ErrorCode(err) == apperr.ENOTFOUND {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, false, nil
	}
	return u, true, nil
}

type queryExecer interface {
	execer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EnsureUser creates the user when the email is not registered yet and reports whether
// a row was inserted. db may be a transaction.
func EnsureUser(ctx context.Context, db queryExecer, email, password, role string) (bool, error) {
	const op = "user.ensure"

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return false, apperr.Internal(err, op, "check user existence")
	}
	if exists {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, apperr.Internal(err, op, "hash password")
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, role, created_at) VALUES (?, ?, ?, ?)
	`, email, hash, role, formatTime(utcNow())); err != nil {
		return false, apperr.Internal(err, op, "insert user")
	}
	return true, nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("generate bcrypt hash: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
