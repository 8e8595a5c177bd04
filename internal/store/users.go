package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/motivaitor/insight/internal/activity"
)

// User is an account that owns activity.
type User struct {
	ID          activity.OwnerID `json:"id"`
	Email       string           `json:"email"`
	DisplayName string           `json:"display_name,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// CreateUser inserts a user with a fresh random id.
func (db *DB) CreateUser(ctx context.Context, email, displayName string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, errors.New("email required")
	}
	u := &User{
		ID:          activity.OwnerID(uuid.NewString()),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, created_at)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Email, u.DisplayName, millis(u.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUser returns the user with the given id, or activity.ErrNotFound.
func (db *DB) GetUser(ctx context.Context, id activity.OwnerID) (*User, error) {
	var u User
	var displayName sql.NullString
	var created int64
	err := db.QueryRowContext(ctx, `
		SELECT id, email, display_name, created_at FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &displayName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, activity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.DisplayName = displayName.String
	u.CreatedAt = fromMillis(created)
	return &u, nil
}
