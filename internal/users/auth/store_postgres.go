// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/dberr"
)

// Unique index names from data/migrations, used to tell which identity collided.
const (
	uniqueUsernameIndex = "ux_account_username"
	uniqueEmailIndex    = "ux_account_email"
)

// userColumns is the projection shared by every credential lookup.
const userColumns = `
	id, username, email, fullname, avatarurl, COALESCE(coverimageurl, ''),
	passwordhash, COALESCE(refreshtokenhash, ''), createdat, updatedat`

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.PasswordHash,
		&user.RefreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist; timestamps are filled in)

Returns:
  - error: apperr.Conflict naming the duplicated identity, or database errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, fullname, avatarurl, coverimageurl, passwordhash, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $8)`

	now := time.Now().UTC()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.AvatarURL,
		user.CoverImageURL,
		user.PasswordHash,
		now,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return conflictFor(dberr.ConstraintName(err))
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func conflictFor(constraint string) *apperr.AppError {
	switch constraint {
	case uniqueUsernameIndex:
		return apperr.Conflict("Username is already taken")
	case uniqueEmailIndex:
		return apperr.Conflict("Email is already registered")
	default:
		return apperr.Conflict("User with email or username already exists")
	}
}

/*
FindByID retrieves a live user record by primary key.

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundOr(err, "User", "postgres_user_repo_find_by_id_failed")
	}
	return user, nil
}

/*
FindByUsernameOrEmail retrieves the oldest live user matching either identity.

Description: Empty arguments never match because stored identities are non-empty.

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsernameOrEmail(context context.Context, username, email string) (*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users.account
		WHERE (username = $1 OR email = $2) AND deletedat IS NULL
		ORDER BY createdat
		LIMIT 1`

	user, err := scanUser(repository.pool.QueryRow(context, query, username, email))
	if err != nil {
		return nil, dberr.NotFoundOr(err, "User", "postgres_user_repo_find_by_identity_failed")
	}
	return user, nil
}

/*
UpdatePassword overwrites the password hash. The refresh token is untouched.
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, userID, newHash)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

/*
SetRefreshToken stores the digest of a freshly issued refresh token.
*/
func (repository *PostgresUserRepository) SetRefreshToken(context context.Context, userID, tokenHash string) error {
	const query = `
		UPDATE users.account
		SET refreshtokenhash = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, userID, tokenHash)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_refresh_token_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

/*
RotateRefreshToken is a compare-and-swap on refreshtokenhash.

Description: The row lock taken by UPDATE serializes concurrent rotations of
the same user; the loser re-evaluates the WHERE clause against the winner's
value and affects zero rows.

Returns:
  - bool: true when this call performed the swap
*/
func (repository *PostgresUserRepository) RotateRefreshToken(context context.Context, userID, oldHash, newHash string) (bool, error) {
	const query = `
		UPDATE users.account
		SET refreshtokenhash = $3, updatedat = NOW()
		WHERE id = $1 AND refreshtokenhash = $2 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, userID, oldHash, newHash)
	if err != nil {
		return false, fmt.Errorf("postgres_user_repo_rotate_refresh_token_failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

/*
ClearRefreshToken ends the session. Idempotent.
*/
func (repository *PostgresUserRepository) ClearRefreshToken(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET refreshtokenhash = NULL, updatedat = NOW()
		WHERE id = $1 AND refreshtokenhash IS NOT NULL`

	if _, err := repository.pool.Exec(context, query, userID); err != nil {
		return fmt.Errorf("postgres_user_repo_clear_refresh_token_failed: %w", err)
	}
	return nil
}
