package resolver

import (
	"context"
	"database/sql"
	"errors"

	"handyman-auth/internal/auth"
	"handyman-auth/internal/db"

	"github.com/google/uuid"
)

// DBResolver resolves identities using the database. Identities are keyed by
// (provider, provider_user_id) only; a new provider account always gets a
// new user, even when the email matches an existing one.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	identity *auth.ExternalIdentity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}
	if identity.Provider == "" || identity.ProviderUserID == "" {
		return "", errors.New("identity is missing provider or subject")
	}

	// 1. Try identity lookup (provider + provider_user_id)
	var userID string
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM identities
		WHERE provider = ?
		  AND provider_user_id = ?
	`,
		identity.Provider,
		identity.ProviderUserID,
	).Scan(&userID)

	if err == nil {
		return userID, r.refreshProfile(ctx, userID, identity)
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	// 2. Create new user from the provider profile
	userID = uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, email_verified, display_name, avatar_url)
		VALUES (?, ?, ?, ?, ?)
	`,
		userID,
		identity.Email,
		identity.EmailVerified,
		identity.DisplayName,
		identity.AvatarURL,
	)

	if err != nil {
		return "", err
	}

	// 3. Create identity mapping
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO identities (id, user_id, provider, provider_user_id)
		VALUES (?, ?, ?, ?)
	`,
		uuid.NewString(),
		userID,
		identity.Provider,
		identity.ProviderUserID,
	)

	if err != nil {
		return "", err
	}

	return userID, nil
}

// refreshProfile fills profile fields the user has not set yet from the
// provider's latest claims.
func (r *DBResolver) refreshProfile(
	ctx context.Context,
	userID string,
	identity *auth.ExternalIdentity,
) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET display_name = CASE WHEN display_name = '' THEN ? ELSE display_name END,
		    avatar_url = CASE WHEN ? <> '' THEN ? ELSE avatar_url END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		identity.DisplayName,
		identity.AvatarURL,
		identity.AvatarURL,
		userID,
	)
	return err
}
