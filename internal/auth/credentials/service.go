package credentials

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"handyman-auth/internal/db"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyRegistered  = errors.New("email address is already in use by another account")
	ErrInvalidEmail       = errors.New("email address is badly formatted")
)

var validate = validator.New()

type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

// Register creates an account with an email/password credential and
// returns the new user id. Accounts created through other providers with
// the same email are not linked.
func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
) (string, error) {

	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}

	// 1. Reject if an email account already exists
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM users u
			JOIN credentials c ON c.user_id = u.id
			WHERE LOWER(u.email) = LOWER(?)
		)
	`, email).Scan(&exists)

	if err != nil {
		return "", err
	}

	if exists {
		return "", ErrAlreadyRegistered
	}

	// 2. Hash password
	hash, version, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	// 3. Insert user and credential together
	userID := uuid.NewString()
	err = s.db.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, email, email_verified)
			VALUES (?, ?, ?)
		`, userID, email, false); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO credentials (id, user_id, password_hash, hash_version)
			VALUES (?, ?, ?, ?)
		`, uuid.NewString(), userID, hash, version)
		return err
	})

	if err != nil {
		return "", err
	}

	return userID, nil
}

func (s *Service) Authenticate(
	ctx context.Context,
	email string,
	password string,
) (string, error) {

	var (
		userID       string
		passwordHash string
	)

	// 1. Find user + credentials
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, c.password_hash
		FROM users u
		JOIN credentials c ON c.user_id = u.id
		WHERE LOWER(u.email) = LOWER(?)
	`, strings.TrimSpace(email)).Scan(&userID, &passwordHash)

	if errors.Is(err, sql.ErrNoRows) {
		// hide whether user exists or not
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	// 2. Verify password
	if err := VerifyPassword(passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return userID, nil
}
