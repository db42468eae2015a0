// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles the profile side of a user: the private account
view, mutable profile fields, the public channel page and watch history.

Credentials and sessions belong to the auth package; this package only
reads and updates the non-secret columns of the same users.account row.

# Architecture

  - Entities: ChannelProfile, WatchedVideo (read models).
  - Domain: Depends on the auth package for the User entity.
  - Caching: Subscription counts are cached briefly in Redis.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/vidtube/internal/users/auth"
)

// # Read Models

// ChannelProfile is the public page of a channel as seen by a viewer.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullname"`
	Email                     string `json:"email"`
	AvatarURL                 string `json:"avatarUrl"`
	CoverImageURL             string `json:"coverImageUrl,omitempty"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// SubscriptionCounts are the two aggregate numbers shown on a channel page.
type SubscriptionCounts struct {
	Subscribers  int64 `json:"subscribers"`
	SubscribedTo int64 `json:"subscribedTo"`
}

// VideoOwner is the public projection of the account that uploaded a video.
type VideoOwner struct {
	Username  string `json:"username"`
	FullName  string `json:"fullname"`
	AvatarURL string `json:"avatarUrl"`
}

// WatchedVideo is one entry of a user's watch history.
type WatchedVideo struct {
	ID          string     `json:"id"`
	VideoFile   string     `json:"videoFile"`
	Thumbnail   string     `json:"thumbnail"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Duration    int        `json:"duration"` // seconds
	Views       int64      `json:"views"`
	IsPublished bool       `json:"isPublished"`
	Owner       VideoOwner `json:"owner"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	WatchedAt   time.Time  `json:"watchedAt"`
}

// # Repository Contracts

// AccountRepository defines the persistence contract for profile fields.
type AccountRepository interface {
	/*
		FindByID retrieves a live user record by ID.

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		FindByUsername retrieves a live user by canonical username.

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*auth.User, error)

	/*
		UpdateFullName sets the display name and returns the updated user.
	*/
	UpdateFullName(context context.Context, userID, fullName string) (*auth.User, error)

	/*
		UpdateAvatar sets the avatar URL and returns the updated user.
	*/
	UpdateAvatar(context context.Context, userID, avatarURL string) (*auth.User, error)

	/*
		UpdateCoverImage sets the cover image URL and returns the updated user.
	*/
	UpdateCoverImage(context context.Context, userID, coverImageURL string) (*auth.User, error)
}

// SubscriptionRepository answers channel subscription questions.
type SubscriptionRepository interface {
	/*
		Counts returns how many accounts subscribe to channelID and how many
		channels channelID itself subscribes to.
	*/
	Counts(context context.Context, channelID string) (SubscriptionCounts, error)

	/*
		IsSubscribed reports whether subscriberID follows channelID.
	*/
	IsSubscribed(context context.Context, subscriberID, channelID string) (bool, error)
}

// HistoryRepository reads watch history.
type HistoryRepository interface {
	/*
		FindByUserID returns the videos userID watched, newest first, each
		with its owner's public profile. Deleted videos are skipped.
	*/
	FindByUserID(context context.Context, userID string) ([]WatchedVideo, error)
}

// CountsCache stores [SubscriptionCounts] for a short time.
type CountsCache interface {
	// Get returns (nil, nil) on a cache miss.
	Get(context context.Context, channelID string) (*SubscriptionCounts, error)
	Set(context context.Context, channelID string, counts SubscriptionCounts) error
}

// MediaRemover deletes replaced media objects.
type MediaRemover interface {
	Delete(context context.Context, url string) error
}
