// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the storage layer for profile data.

# Schema Table Mapping
  - users.account: Identity and profile columns.
  - users.subscription: Subscriber to channel edges.
  - library.watchhistory: One row per watch event.
  - core.video: Video metadata, joined for history.
*/
package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/vidtube/internal/platform/database/schema"
	"github.com/taibuivan/vidtube/internal/platform/dberr"
	"github.com/taibuivan/vidtube/internal/users/auth"
)

// # Repository Implementations

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new Postgres implementation for profile management.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// PostgresSubscriptionRepository implements [SubscriptionRepository] using pgx.
type PostgresSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new Postgres implementation for channel counts.
func NewSubscriptionRepository(pool *pgxpool.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// PostgresHistoryRepository implements [HistoryRepository] using pgx.
type PostgresHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new Postgres implementation for watch history.
func NewHistoryRepository(pool *pgxpool.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{pool: pool}
}

// # AccountRepository Methods

// profileColumns is the non-secret projection of users.account.
var profileColumns = fmt.Sprintf("%s, %s, %s, %s, %s, COALESCE(%s, ''), %s, %s",
	schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Email,
	schema.UserAccount.FullName, schema.UserAccount.AvatarURL, schema.UserAccount.CoverImageURL,
	schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
)

func scanProfile(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
FindByID retrieves a live profile from the users.account table.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *auth.User: Profile without credential material
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		profileColumns,
		schema.UserAccount.Table, schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	user, err := scanProfile(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.NotFoundOr(err, "Account", "postgres_account_repo_find_by_id_failed")
	}
	return user, nil
}

/*
FindByUsername retrieves a live profile by canonical username.
*/
func (repository *PostgresAccountRepository) FindByUsername(context context.Context, username string) (*auth.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		profileColumns,
		schema.UserAccount.Table, schema.UserAccount.Username, schema.UserAccount.DeletedAt,
	)

	user, err := scanProfile(repository.pool.QueryRow(context, query, username))
	if err != nil {
		return nil, dberr.NotFoundOr(err, "Account", "postgres_account_repo_find_by_username_failed")
	}
	return user, nil
}

// UpdateFullName implements [AccountRepository].
func (repository *PostgresAccountRepository) UpdateFullName(context context.Context, userID, fullName string) (*auth.User, error) {
	return repository.updateColumn(context, schema.UserAccount.FullName, userID, fullName)
}

// UpdateAvatar implements [AccountRepository].
func (repository *PostgresAccountRepository) UpdateAvatar(context context.Context, userID, avatarURL string) (*auth.User, error) {
	return repository.updateColumn(context, schema.UserAccount.AvatarURL, userID, avatarURL)
}

// UpdateCoverImage implements [AccountRepository].
func (repository *PostgresAccountRepository) UpdateCoverImage(context context.Context, userID, coverImageURL string) (*auth.User, error) {
	return repository.updateColumn(context, schema.UserAccount.CoverImageURL, userID, coverImageURL)
}

/*
updateColumn sets one profile column and returns the fresh row.

Description: column always comes from the schema package, never from input.
*/
func (repository *PostgresAccountRepository) updateColumn(context context.Context, column, userID, value string) (*auth.User, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NOW()
		WHERE %s = $1 AND %s IS NULL
		RETURNING %s`,
		schema.UserAccount.Table,
		column, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
		profileColumns,
	)

	user, err := scanProfile(repository.pool.QueryRow(context, query, userID, value))
	if err != nil {
		return nil, dberr.NotFoundOr(err, "Account", "postgres_account_repo_update_"+column+"_failed")
	}
	return user, nil
}

// # SubscriptionRepository Methods

/*
Counts aggregates both sides of users.subscription for one channel in a
single round trip. Deleted accounts are not counted.
*/
func (repository *PostgresSubscriptionRepository) Counts(context context.Context, channelID string) (SubscriptionCounts, error) {
	sub := schema.UserSubscription
	acc := schema.UserAccount

	query := fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM %[1]s s JOIN %[2]s a ON a.%[3]s = s.%[4]s
			 WHERE s.%[5]s = $1 AND a.%[6]s IS NULL),
			(SELECT COUNT(*) FROM %[1]s s JOIN %[2]s a ON a.%[3]s = s.%[5]s
			 WHERE s.%[4]s = $1 AND a.%[6]s IS NULL)`,
		sub.Table, acc.Table, acc.ID, sub.SubscriberID, sub.ChannelID, acc.DeletedAt,
	)

	var counts SubscriptionCounts
	if err := repository.pool.QueryRow(context, query, channelID).Scan(&counts.Subscribers, &counts.SubscribedTo); err != nil {
		return SubscriptionCounts{}, fmt.Errorf("postgres_subscription_repo_counts_failed: %w", err)
	}
	return counts, nil
}

// IsSubscribed implements [SubscriptionRepository].
func (repository *PostgresSubscriptionRepository) IsSubscribed(context context.Context, subscriberID, channelID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2)`,
		schema.UserSubscription.Table, schema.UserSubscription.SubscriberID, schema.UserSubscription.ChannelID,
	)

	var subscribed bool
	if err := repository.pool.QueryRow(context, query, subscriberID, channelID).Scan(&subscribed); err != nil {
		return false, fmt.Errorf("postgres_subscription_repo_is_subscribed_failed: %w", err)
	}
	return subscribed, nil
}

// # HistoryRepository Methods

/*
FindByUserID joins watch history with videos and their owners.

Description: A video watched several times appears once per watch event.
Soft-deleted videos and owners are filtered out.
*/
func (repository *PostgresHistoryRepository) FindByUserID(context context.Context, userID string) ([]WatchedVideo, error) {
	h := schema.LibraryWatchHistory
	v := schema.CoreVideo
	a := schema.UserAccount

	query := fmt.Sprintf(`
		SELECT v.%s, v.%s, v.%s, v.%s, v.%s, v.%s, v.%s, v.%s, v.%s, v.%s,
		       a.%s, a.%s, a.%s,
		       h.%s
		FROM %s h
		JOIN %s v ON v.%s = h.%s
		JOIN %s a ON a.%s = v.%s
		WHERE h.%s = $1 AND v.%s IS NULL AND a.%s IS NULL
		ORDER BY h.%s DESC`,
		v.ID, v.VideoURL, v.ThumbnailURL, v.Title, v.Description, v.DurationSec, v.ViewCount, v.IsPublished, v.CreatedAt, v.UpdatedAt,
		a.Username, a.FullName, a.AvatarURL,
		h.WatchedAt,
		h.Table,
		v.Table, v.ID, h.VideoID,
		a.Table, a.ID, v.OwnerID,
		h.UserID, v.DeletedAt, a.DeletedAt,
		h.WatchedAt,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_history_repo_query_failed: %w", err)
	}
	defer rows.Close()

	videos := make([]WatchedVideo, 0)
	for rows.Next() {
		var video WatchedVideo
		err := rows.Scan(
			&video.ID, &video.VideoFile, &video.Thumbnail, &video.Title, &video.Description,
			&video.Duration, &video.Views, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt,
			&video.Owner.Username, &video.Owner.FullName, &video.Owner.AvatarURL,
			&video.WatchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_history_repo_scan_failed: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_history_repo_rows_failed: %w", err)
	}

	return videos, nil
}
