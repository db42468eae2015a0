// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/vidtube/internal/media"
	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/users/account"
	"github.com/taibuivan/vidtube/internal/users/auth"
)

// memoryStore backs every repository contract with plain maps.
type memoryStore struct {
	mu            sync.Mutex
	users         map[string]*auth.User
	subscriptions map[[2]string]bool // {subscriber, channel}
	history       map[string][]account.WatchedVideo
	countQueries  int
}

func newMemoryStore(users ...*auth.User) *memoryStore {
	store := &memoryStore{
		users:         make(map[string]*auth.User),
		subscriptions: make(map[[2]string]bool),
		history:       make(map[string][]account.WatchedVideo),
	}
	for _, user := range users {
		store.users[user.ID] = user
	}
	return store
}

func (store *memoryStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	clone := *user
	return &clone, nil
}

func (store *memoryStore) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, user := range store.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *memoryStore) update(userID string, apply func(*auth.User)) (*auth.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	user, ok := store.users[userID]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	apply(user)
	user.UpdatedAt = time.Now().UTC()
	clone := *user
	return &clone, nil
}

func (store *memoryStore) UpdateFullName(_ context.Context, userID, fullName string) (*auth.User, error) {
	return store.update(userID, func(user *auth.User) { user.FullName = fullName })
}

func (store *memoryStore) UpdateAvatar(_ context.Context, userID, url string) (*auth.User, error) {
	return store.update(userID, func(user *auth.User) { user.AvatarURL = url })
}

func (store *memoryStore) UpdateCoverImage(_ context.Context, userID, url string) (*auth.User, error) {
	return store.update(userID, func(user *auth.User) { user.CoverImageURL = url })
}

func (store *memoryStore) subscribe(subscriberID, channelID string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.subscriptions[[2]string{subscriberID, channelID}] = true
}

func (store *memoryStore) Counts(_ context.Context, channelID string) (account.SubscriptionCounts, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.countQueries++
	var counts account.SubscriptionCounts
	for edge := range store.subscriptions {
		if edge[1] == channelID {
			counts.Subscribers++
		}
		if edge[0] == channelID {
			counts.SubscribedTo++
		}
	}
	return counts, nil
}

func (store *memoryStore) IsSubscribed(_ context.Context, subscriberID, channelID string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.subscriptions[[2]string{subscriberID, channelID}], nil
}

func (store *memoryStore) watch(userID string, video account.WatchedVideo) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.history[userID] = append(store.history[userID], video)
}

func (store *memoryStore) FindByUserID(_ context.Context, userID string) ([]account.WatchedVideo, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	videos := append([]account.WatchedVideo(nil), store.history[userID]...)
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].WatchedAt.After(videos[j].WatchedAt) })
	return videos, nil
}

func (store *memoryStore) queries() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.countQueries
}

// memoryCache is a CountsCache that can be told to fail.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]account.SubscriptionCounts
	broken  bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]account.SubscriptionCounts)}
}

func (cache *memoryCache) Get(_ context.Context, channelID string) (*account.SubscriptionCounts, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.broken {
		return nil, errors.New("cache down")
	}
	counts, ok := cache.entries[channelID]
	if !ok {
		return nil, nil
	}
	return &counts, nil
}

func (cache *memoryCache) Set(_ context.Context, channelID string, counts account.SubscriptionCounts) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.broken {
		return errors.New("cache down")
	}
	cache.entries[channelID] = counts
	return nil
}

// memoryUploader records uploads and deletions.
type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	seq     int
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte)}
}

func (uploader *memoryUploader) Upload(_ context.Context, object media.Object) (string, error) {
	body, err := io.ReadAll(object.Body)
	if err != nil {
		return "", err
	}

	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	uploader.seq++
	url := fmt.Sprintf("https://media.test/%s/%d", object.Prefix, uploader.seq)
	uploader.objects[url] = body
	return url, nil
}

func (uploader *memoryUploader) Delete(_ context.Context, url string) error {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	delete(uploader.objects, url)
	uploader.deleted = append(uploader.deleted, url)
	return nil
}

func (uploader *memoryUploader) deletedURLs() []string {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()
	return append([]string(nil), uploader.deleted...)
}

func newUser(id, username string) *auth.User {
	return &auth.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "User " + username,
		AvatarURL:    "https://media.test/avatars/" + username,
		PasswordHash: "hash",
	}
}
