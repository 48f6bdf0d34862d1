// Package users handles registration and API-key authentication. The
// admin role is assigned out of band (there is no self-service promotion
// endpoint); it is read back from whatever the operator set directly.
package users

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"clobrub/internal/models"
)

// ErrNameTooShort is returned by Register when the requested name is
// under 3 characters.
var ErrNameTooShort = errors.New("name must be at least 3 characters")

// ErrUnauthorized is returned when an API key matches no user.
var ErrUnauthorized = errors.New("invalid or missing api key")

// ErrForbidden is returned when a non-admin principal calls an admin route.
var ErrForbidden = errors.New("admin role required")

// ErrUnknown is returned when a referenced user id has no matching row.
var ErrUnknown = errors.New("unknown user")

// Store manages the users table.
type Store struct {
	db *sql.DB
}

// New constructs a Store bound to db.
func New(db *sql.DB) *Store { return &Store{db: db} }

// generateAPIKey returns a 32-byte random, base64url-encoded opaque token.
func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Register creates a new USER-role principal with a freshly issued API key.
func (s *Store) Register(ctx context.Context, name string) (models.User, error) {
	if utf8.RuneCountInString(name) < 3 {
		return models.User{}, ErrNameTooShort
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		ID:     uuid.New(),
		Name:   name,
		Role:   models.RoleUser,
		APIKey: apiKey,
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, role, api_key) VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, u.ID, u.Name, u.Role, u.APIKey).Scan(&u.CreatedAt)
	if err != nil {
		return models.User{}, fmt.Errorf("register user: %w", err)
	}
	return u, nil
}

// ByAPIKey resolves the authenticated principal for a request, or
// ErrUnauthorized if the key matches nothing.
func (s *Store) ByAPIKey(ctx context.Context, apiKey string) (models.User, error) {
	if apiKey == "" {
		return models.User{}, ErrUnauthorized
	}
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, api_key, created_at FROM users WHERE api_key = $1
	`, apiKey).Scan(&u.ID, &u.Name, &u.Role, &u.APIKey, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUnauthorized
	}
	if err != nil {
		return models.User{}, fmt.Errorf("lookup api key: %w", err)
	}
	return u, nil
}

// ByID loads a user by id, for validating admin deposit/withdraw targets.
func (s *Store) ByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, api_key, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Role, &u.APIKey, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUnknown
	}
	if err != nil {
		return models.User{}, fmt.Errorf("lookup user %s: %w", id, err)
	}
	return u, nil
}
