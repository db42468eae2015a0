// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/media"
	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/broker"
	"github.com/taibuivan/vidtube/internal/platform/sec"
	"github.com/taibuivan/vidtube/internal/users/auth"
)

// # In-memory credential store

// memoryRepository mirrors the Postgres store, including the conditional
// refresh-token swap.
type memoryRepository struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[string]*auth.User)}
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *memoryRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, user := range repository.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryRepository) Create(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}

	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *memoryRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	return repository.mutate(userID, func(user *auth.User) { user.PasswordHash = newHash })
}

func (repository *memoryRepository) SetRefreshToken(_ context.Context, userID, tokenHash string) error {
	return repository.mutate(userID, func(user *auth.User) { user.RefreshTokenHash = tokenHash })
}

func (repository *memoryRepository) RotateRefreshToken(_ context.Context, userID, oldHash, newHash string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[userID]
	if !ok || user.RefreshTokenHash != oldHash {
		return false, nil
	}
	user.RefreshTokenHash = newHash
	return true, nil
}

func (repository *memoryRepository) ClearRefreshToken(_ context.Context, userID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if user, ok := repository.users[userID]; ok {
		user.RefreshTokenHash = ""
	}
	return nil
}

func (repository *memoryRepository) mutate(userID string, apply func(*auth.User)) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	apply(user)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// stored returns the raw record, credentials included.
func (repository *memoryRepository) stored(t *testing.T, userID string) auth.User {
	t.Helper()
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[userID]
	require.True(t, ok, "user %s not stored", userID)
	return *user
}

func (repository *memoryRepository) remove(userID string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.users, userID)
}

// # Collaborators

type recordingPublisher struct {
	mu       sync.Mutex
	events   []broker.Event
	contexts []context.Context
}

func (publisher *recordingPublisher) Publish(ctx context.Context, event broker.Event) error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	publisher.events = append(publisher.events, event)
	publisher.contexts = append(publisher.contexts, ctx)
	return nil
}

func (publisher *recordingPublisher) Close() error { return nil }

func (publisher *recordingPublisher) types() []string {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	types := make([]string, 0, len(publisher.events))
	for _, event := range publisher.events {
		types = append(types, event.Type)
	}
	return types
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (recorder *countingRecorder) ObserveAuthEvent(event, outcome string) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if recorder.counts == nil {
		recorder.counts = make(map[string]int)
	}
	recorder.counts[event+"/"+outcome]++
}

func (recorder *countingRecorder) count(key string) int {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return recorder.counts[key]
}

// memoryUploader keeps uploaded objects in a map keyed by URL.
type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
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
	return nil
}

func (uploader *memoryUploader) urls() []string {
	uploader.mu.Lock()
	defer uploader.mu.Unlock()

	urls := make([]string, 0, len(uploader.objects))
	for url := range uploader.objects {
		urls = append(urls, url)
	}
	return urls
}

// # Fixture

type fixture struct {
	repository *memoryRepository
	tokens     *sec.TokenService
	publisher  *recordingPublisher
	recorder   *countingRecorder
	service    *auth.Service
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithTTL(t, 15*time.Minute, 240*time.Hour)
}

func newFixtureWithTTL(t *testing.T, accessTTL, refreshTTL time.Duration) *fixture {
	t.Helper()

	tokens, err := sec.NewTokenService("access-secret-for-tests", "refresh-secret-for-tests", accessTTL, refreshTTL, "vidtube.test")
	require.NoError(t, err)

	f := &fixture{
		repository: newMemoryRepository(),
		tokens:     tokens,
		publisher:  &recordingPublisher{},
		recorder:   &countingRecorder{},
	}
	f.service = auth.NewService(f.repository, tokens, f.publisher, f.recorder, nil)
	return f
}

func registerInput(username string) auth.RegisterInput {
	return auth.RegisterInput{
		FullName:  "Ada Lovelace",
		Username:  username,
		Email:     strings.ToLower(username) + "@example.com",
		Password:  "analytical-engine",
		AvatarURL: "https://media.test/avatars/" + username,
	}
}

func (f *fixture) register(t *testing.T, username string) *auth.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), registerInput(username))
	require.NoError(t, err)
	return user
}

func (f *fixture) login(t *testing.T, username string) *auth.Session {
	t.Helper()
	session, err := f.service.Login(context.Background(), auth.LoginInput{
		Username: username,
		Password: "analytical-engine",
	})
	require.NoError(t, err)
	return session
}
