package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrUserNotFound = errors.New("user not found")

// User is an account row.
type User struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   string
}

// UserByID loads an account by id.
func (d *DB) UserByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := d.QueryRowContext(ctx, `
		SELECT id, email, display_name, avatar_url
		FROM users
		WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.DisplayName, &u.AvatarURL)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db: load user: %w", err)
	}
	return &u, nil
}

// SetDisplayName updates the profile name of an account.
func (d *DB) SetDisplayName(ctx context.Context, id, name string) error {
	res, err := d.ExecContext(ctx, `
		UPDATE users
		SET display_name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, id)
	if err != nil {
		return fmt.Errorf("db: update display name: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db: update display name: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
