// Package auth authenticates back office users and carries their session in
// a signed cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"aguin/internal/core"
	"aguin/internal/log"
	"aguin/internal/store"
)

var (
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid session token")
	// ErrSessionRevoked means the session's user was deleted or replaced.
	ErrSessionRevoked = errors.New("session user no longer exists")
)

// MinPasswordLength applies to passwords set through CreateUser.
const MinPasswordLength = 8

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticator checks usernames and passwords against the user store.
type Authenticator struct {
	users     store.UserStore
	dummyHash []byte
	logger    *log.Logger
}

func NewAuthenticator(users store.UserStore, logger *log.Logger) *Authenticator {
	if logger == nil {
		logger = log.Discard()
	}
	// compared against when the user does not exist, so both failure paths
	// cost one bcrypt comparison
	dummy, _ := bcrypt.GenerateFromPassword([]byte("aguin-missing-user"), bcrypt.DefaultCost)
	return &Authenticator{users: users, dummyHash: dummy, logger: logger.WithComponent(log.ComponentAuth)}
}

// Login returns the user when password matches.
func (a *Authenticator) Login(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return core.User{}, ErrInvalidCredentials
	}

	u, err := a.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		a.logger.InfoContext(ctx, "Login rejected", log.FieldUsername, username, "reason", "unknown user")
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		a.logger.InfoContext(ctx, "Login rejected", log.FieldUsername, username, "reason", "wrong password")
		return core.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Current reloads the user behind s so deletions and role changes apply
// before the session token expires. A user that no longer exists, or whose
// name now belongs to another account, yields ErrSessionRevoked.
func (a *Authenticator) Current(ctx context.Context, s Session) (Session, error) {
	u, err := a.users.GetUserByUsername(ctx, s.Username)
	if errors.Is(err, store.ErrNotFound) || (err == nil && u.ID != s.UserID) {
		return Session{}, ErrSessionRevoked
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session user: %w", err)
	}
	s.Role = u.Role
	return s, nil
}

// CreateUser hashes password and stores a new user.
func CreateUser(ctx context.Context, users store.UserStore, username, password string, role core.Role) (core.User, error) {
	if len(password) < MinPasswordLength {
		return core.User{}, &core.ValidationError{Field: "contraseña", Message: fmt.Sprintf("la contraseña debe tener al menos %d caracteres", MinPasswordLength)}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	u := core.User{Username: strings.TrimSpace(username), PasswordHash: hash, Role: role}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	u, err = users.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}

// EnsureAdmin creates an admin user unless one with that name exists.
// It reports whether a user was created.
func EnsureAdmin(ctx context.Context, users store.UserStore, username, password string) (bool, error) {
	_, err := users.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}
	if _, err := CreateUser(ctx, users, username, password, core.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}
