// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/validate"
	"github.com/taibuivan/vidtube/internal/users/auth"
	"github.com/taibuivan/vidtube/pkg/canon"
)

// # Service Layer

// Service orchestrates profile reads and updates.
type Service struct {
	accountRepository      AccountRepository
	subscriptionRepository SubscriptionRepository
	historyRepository      HistoryRepository
	countsCache            CountsCache
	mediaRemover           MediaRemover
	logger                 *slog.Logger
}

// NewService constructs a new [Service]. countsCache and mediaRemover may be
// nil, which disables caching and cleanup of replaced images respectively.
func NewService(
	accountRepo AccountRepository,
	subscriptionRepo SubscriptionRepository,
	historyRepo HistoryRepository,
	countsCache CountsCache,
	mediaRemover MediaRemover,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		accountRepository:      accountRepo,
		subscriptionRepository: subscriptionRepo,
		historyRepository:      historyRepo,
		countsCache:            countsCache,
		mediaRemover:           mediaRemover,
		logger:                 logger,
	}
}

// # Profile Management

/*
GetCurrentUser retrieves the sanitized profile of the given user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Profile without credential material
  - error: apperr.NotFound or storage failures
*/
func (service *Service) GetCurrentUser(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_current_user_failed: %w", err)
	}
	return user.Sanitized(), nil
}

/*
UpdateAccountDetails changes the display name. Username and email are immutable.

Returns:
  - *auth.User: The updated profile
  - error: ValidationError, apperr.NotFound or storage failures
*/
func (service *Service) UpdateAccountDetails(context context.Context, userID, fullName string) (*auth.User, error) {
	fullName = canon.FullName(fullName)

	validator := &validate.Validator{}
	validator.Required(auth.FieldFullName, fullName).
		MaxLen(auth.FieldFullName, fullName, auth.FullNameMaxLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := service.accountRepository.UpdateFullName(context, userID, fullName)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_details_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_profile_updated", slog.String("user_id", userID))

	return user.Sanitized(), nil
}

/*
UpdateAvatar points the account at a newly uploaded avatar. The previous
object is removed afterwards on a best-effort basis.

Returns:
  - *auth.User: The updated profile
  - error: ValidationError, apperr.NotFound or storage failures
*/
func (service *Service) UpdateAvatar(context context.Context, userID, avatarURL string) (*auth.User, error) {
	return service.replaceImage(context, userID, avatarURL, auth.FieldAvatar,
		func(user *auth.User) string { return user.AvatarURL },
		service.accountRepository.UpdateAvatar,
	)
}

/*
UpdateCoverImage points the account at a newly uploaded cover image.
*/
func (service *Service) UpdateCoverImage(context context.Context, userID, coverImageURL string) (*auth.User, error) {
	return service.replaceImage(context, userID, coverImageURL, auth.FieldCoverImage,
		func(user *auth.User) string { return user.CoverImageURL },
		service.accountRepository.UpdateCoverImage,
	)
}

func (service *Service) replaceImage(
	context context.Context,
	userID, url, field string,
	current func(*auth.User) string,
	update func(context.Context, string, string) (*auth.User, error),
) (*auth.User, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, validate.RequiredError(field, "File is missing")
	}

	existing, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_replace_%s_lookup_failed: %w", field, err)
	}

	user, err := update(context, userID, url)
	if err != nil {
		return nil, fmt.Errorf("account_service_replace_%s_failed: %w", field, err)
	}

	if previous := current(existing); previous != "" && previous != url && service.mediaRemover != nil {
		if err := service.mediaRemover.Delete(context, previous); err != nil {
			service.logger.WarnContext(context, "account_previous_media_delete_failed",
				slog.String("user_id", userID),
				slog.String("url", previous),
				slog.Any("error", err),
			)
		}
	}

	return user.Sanitized(), nil
}

// # Channel Page

/*
GetChannelProfile builds the public page of a channel for a viewer.

Description: Counts come from the cache when present. A cache miss or cache
error falls back to Postgres; IsSubscribed is always read live.

Parameters:
  - context: context.Context
  - viewerID: string (may be empty for anonymous viewers)
  - username: string

Returns:
  - *ChannelProfile: Aggregated channel page
  - error: ValidationError, apperr.NotFound or storage failures
*/
func (service *Service) GetChannelProfile(context context.Context, viewerID, username string) (*ChannelProfile, error) {
	username = canon.Username(username)
	if username == "" {
		return nil, validate.RequiredError(auth.FieldUsername, "Username is missing")
	}

	channel, err := service.accountRepository.FindByUsername(context, username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Channel")
		}
		return nil, fmt.Errorf("account_service_channel_lookup_failed: %w", err)
	}

	counts, err := service.channelCounts(context, channel.ID)
	if err != nil {
		return nil, err
	}

	subscribed := false
	if viewerID != "" {
		subscribed, err = service.subscriptionRepository.IsSubscribed(context, viewerID, channel.ID)
		if err != nil {
			return nil, fmt.Errorf("account_service_is_subscribed_failed: %w", err)
		}
	}

	return &ChannelProfile{
		ID:                        channel.ID,
		Username:                  channel.Username,
		FullName:                  channel.FullName,
		Email:                     channel.Email,
		AvatarURL:                 channel.AvatarURL,
		CoverImageURL:             channel.CoverImageURL,
		SubscribersCount:          counts.Subscribers,
		ChannelsSubscribedToCount: counts.SubscribedTo,
		IsSubscribed:              subscribed,
	}, nil
}

func (service *Service) channelCounts(context context.Context, channelID string) (SubscriptionCounts, error) {
	if service.countsCache != nil {
		cached, err := service.countsCache.Get(context, channelID)
		if err != nil {
			service.logger.WarnContext(context, "channel_counts_cache_read_failed",
				slog.String("channel_id", channelID),
				slog.Any("error", err),
			)
		} else if cached != nil {
			return *cached, nil
		}
	}

	counts, err := service.subscriptionRepository.Counts(context, channelID)
	if err != nil {
		return SubscriptionCounts{}, fmt.Errorf("account_service_counts_failed: %w", err)
	}

	if service.countsCache != nil {
		if err := service.countsCache.Set(context, channelID, counts); err != nil {
			service.logger.WarnContext(context, "channel_counts_cache_write_failed",
				slog.String("channel_id", channelID),
				slog.Any("error", err),
			)
		}
	}

	return counts, nil
}

// # Watch History

/*
GetWatchHistory lists the videos a user watched, newest first.

Returns:
  - []WatchedVideo: Possibly empty, never nil
  - error: Storage failures
*/
func (service *Service) GetWatchHistory(context context.Context, userID string) ([]WatchedVideo, error) {
	videos, err := service.historyRepository.FindByUserID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_watch_history_failed: %w", err)
	}
	if videos == nil {
		videos = []WatchedVideo{}
	}
	return videos, nil
}
