// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/broker"
	"github.com/taibuivan/vidtube/internal/platform/constants"
	"github.com/taibuivan/vidtube/internal/platform/sec"
	"github.com/taibuivan/vidtube/internal/platform/validate"
	"github.com/taibuivan/vidtube/pkg/canon"
	"github.com/taibuivan/vidtube/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for minting and checking session tokens.
type TokenProvider interface {
	GenerateAccessToken(identity sec.Identity) (string, error)
	GenerateRefreshToken(userID string) (string, error)
	VerifyAccessToken(token string) (*sec.AccessClaims, error)
	VerifyRefreshToken(token string) (*sec.RefreshClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// EventRecorder counts session lifecycle outcomes.
type EventRecorder interface {
	ObserveAuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAuthEvent(string, string) {}

// Service implements the session lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// rotation, or reuse detection must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
	publisher      broker.Publisher
	recorder       EventRecorder
	logger         *slog.Logger
}

// NewService constructs a new [Service]. A nil publisher or recorder disables
// event publishing or metrics respectively.
func NewService(
	userRepo UserRepository,
	tokenProv TokenProvider,
	publisher broker.Publisher,
	recorder EventRecorder,
	logger *slog.Logger,
) *Service {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		userRepository: userRepo,
		tokenProvider:  tokenProv,
		publisher:      publisher,
		recorder:       recorder,
		logger:         logger,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new channel owner.
// Media references are already uploaded URLs.
type RegisterInput struct {
	FullName      string
	Username      string
	Email         string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

/*
Register validates, hashes, and persists a brand new user account.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity without credential material
  - error: ValidationError, Conflict (identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	fullName := canon.FullName(input.FullName)
	username := canon.Username(input.Username)
	email := canon.Email(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldFullName, fullName).
		MaxLen(FieldFullName, fullName, FullNameMaxLength).
		Required(FieldUsername, username).
		MaxLen(FieldUsername, username, UsernameMaxLength).
		Required(FieldEmail, email).
		MaxLen(FieldEmail, email, EmailMaxLength).
		Required(FieldPassword, input.Password).
		Custom(FieldPassword, len(input.Password) > PasswordMaxBytes, fmt.Sprintf("Maximum %d bytes", PasswordMaxBytes)).
		Required(FieldAvatar, input.AvatarURL)

	// The format rule only runs once presence passed, to keep one message per field.
	if email != "" {
		validator.Email(FieldEmail, email)
	}

	if err := validator.Err(); err != nil {
		service.recorder.ObserveAuthEvent(eventRegister, outcomeFailure)
		return nil, err
	}

	// Early uniqueness check for a precise message. The unique indexes still
	// guard the race between this read and the insert.
	existing, err := service.userRepository.FindByUsernameOrEmail(context, username, email)
	switch {
	case err == nil && existing.Username == username:
		service.recorder.ObserveAuthEvent(eventRegister, outcomeFailure)
		return nil, apperr.Conflict("Username is already taken")
	case err == nil:
		service.recorder.ObserveAuthEvent(eventRegister, outcomeFailure)
		return nil, apperr.Conflict("Email is already registered")
	case !apperr.IsNotFound(err):
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:            uuid.New(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     strings.TrimSpace(input.AvatarURL),
		CoverImageURL: strings.TrimSpace(input.CoverImageURL),
		PasswordHash:  hashedPassword,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.IsCode(err, apperr.CodeConflict) {
			service.recorder.ObserveAuthEvent(eventRegister, outcomeFailure)
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.recorder.ObserveAuthEvent(eventRegister, outcomeSuccess)
	service.publish(context, constants.EventUserRegistered, user)

	return user.Sanitized(), nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt. At least one
// of Email or Username must be set.
type LoginInput struct {
	Email    string
	Username string
	Password string
}

/*
Login validates user credentials and issues a new token pair.

Description: Overwrites any previous refresh token, so only the newest
login holds a usable session.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Sanitized user and both tokens
  - error: ValidationError, NotFound, Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	username := canon.Username(input.Username)
	email := canon.Email(input.Email)

	if username == "" && email == "" {
		service.recorder.ObserveAuthEvent(eventLogin, outcomeFailure)
		return nil, validate.RequiredError(FieldEmail, "Username or email is required")
	}

	user, err := service.userRepository.FindByUsernameOrEmail(context, username, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			service.recorder.ObserveAuthEvent(eventLogin, outcomeFailure)
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	// bcrypt compares in constant time.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		service.recorder.ObserveAuthEvent(eventLogin, outcomeFailure)
		return nil, apperr.Unauthorized("Invalid user credentials")
	}

	tokens, err := service.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := service.userRepository.SetRefreshToken(context, user.ID, sec.HashToken(tokens.RefreshToken)); err != nil {
		return nil, fmt.Errorf("auth_service_login_store_refresh_failed: %w", err)
	}

	service.recorder.ObserveAuthEvent(eventLogin, outcomeSuccess)

	return &Session{User: user.Sanitized(), TokenPair: *tokens}, nil
}

/*
Logout clears the stored refresh token. Idempotent.
*/
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.userRepository.ClearRefreshToken(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.recorder.ObserveAuthEvent(eventLogout, outcomeSuccess)
	return nil
}

// # Session Management

/*
RefreshSession implements the Refresh Token Rotation mechanism.

Description: Verifies the presented refresh token, checks it is the one
currently stored, and swaps in a new one with a conditional write. A token
that was already rotated out, or a swap lost to a concurrent caller, is
treated as reuse and rejected. Reuse does not end the current session.

Parameters:
  - context: context.Context
  - presentedToken: string

Returns:
  - *TokenPair: New session credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) RefreshSession(context context.Context, presentedToken string) (*TokenPair, error) {
	if presentedToken == "" {
		service.recorder.ObserveAuthEvent(eventRefresh, outcomeFailure)
		return nil, apperr.Unauthorized("Refresh token is required")
	}

	claims, err := service.tokenProvider.VerifyRefreshToken(presentedToken)
	if err != nil {
		service.recorder.ObserveAuthEvent(eventRefresh, outcomeFailure)
		if errors.Is(err, sec.ErrExpiredToken) {
			return nil, apperr.Unauthorized("Refresh token is expired")
		}
		return nil, apperr.Unauthorized("Invalid refresh token")
	}
	if !uuid.Valid(claims.UserID) {
		service.recorder.ObserveAuthEvent(eventRefresh, outcomeFailure)
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			service.recorder.ObserveAuthEvent(eventRefresh, outcomeFailure)
			return nil, apperr.Unauthorized("Invalid refresh token")
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	presentedHash := sec.HashToken(presentedToken)
	if user.RefreshTokenHash == "" || subtle.ConstantTimeCompare([]byte(presentedHash), []byte(user.RefreshTokenHash)) != 1 {
		return nil, service.rejectReuse(context, user.ID)
	}

	tokens, err := service.issueTokens(user)
	if err != nil {
		return nil, err
	}

	swapped, err := service.userRepository.RotateRefreshToken(context, user.ID, presentedHash, sec.HashToken(tokens.RefreshToken))
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_rotate_failed: %w", err)
	}
	if !swapped {
		return nil, service.rejectReuse(context, user.ID)
	}

	service.recorder.ObserveAuthEvent(eventRefresh, outcomeSuccess)
	return tokens, nil
}

func (service *Service) rejectReuse(context context.Context, userID string) error {
	service.recorder.ObserveAuthEvent(eventRefresh, outcomeReuse)
	service.logger.WarnContext(context, "refresh_token_reuse_detected", slog.String("user_id", userID))
	return apperr.Unauthorized("Refresh token is expired or used")
}

// issueTokens mints both tokens before any write happens, so a signing
// failure never leaves a half-updated session.
func (service *Service) issueTokens(user *User) (*TokenPair, error) {
	issuedAt := time.Now()

	accessToken, err := service.tokenProvider.GenerateAccessToken(sec.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokenProvider.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  issuedAt.Add(service.tokenProvider.AccessTTL()),
		RefreshTokenExpiresAt: issuedAt.Add(service.tokenProvider.RefreshTTL()),
	}, nil
}

// # Credential Management

// ChangePasswordInput carries a password change for an authenticated user.
type ChangePasswordInput struct {
	UserID      string
	OldPassword string
	NewPassword string
}

/*
ChangePassword verifies the current password and stores a new hash.

Description: The active refresh token is left as is.

Returns:
  - error: ValidationError, NotFound, Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, input ChangePasswordInput) error {
	validator := &validate.Validator{}
	validator.Required(FieldNewPassword, input.NewPassword).
		Custom(FieldNewPassword, len(input.NewPassword) > PasswordMaxBytes, fmt.Sprintf("Maximum %d bytes", PasswordMaxBytes))
	if err := validator.Err(); err != nil {
		service.recorder.ObserveAuthEvent(eventChangePassword, outcomeFailure)
		return err
	}

	user, err := service.userRepository.FindByID(context, input.UserID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(input.OldPassword, user.PasswordHash) {
		service.recorder.ObserveAuthEvent(eventChangePassword, outcomeFailure)
		return apperr.Unauthorized("Invalid old password")
	}

	hashedPassword, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	service.recorder.ObserveAuthEvent(eventChangePassword, outcomeSuccess)
	service.publish(context, constants.EventUserPasswordChanged, user)

	return nil
}

// # Request Authentication

/*
Authenticate resolves an access token to the live, sanitized user.

Description: Read-only; the credential store is never written here.

Returns:
  - *User: Sanitized user
  - error: Unauthorized or storage failures
*/
func (service *Service) Authenticate(context context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, apperr.Unauthorized("Unauthorized request")
	}

	claims, err := service.tokenProvider.VerifyAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, sec.ErrExpiredToken) {
			return nil, apperr.Unauthorized("Access token is expired")
		}
		return nil, apperr.Unauthorized("Invalid access token")
	}

	// The id column is typed uuid; a malformed subject would fail the query.
	if !uuid.Valid(claims.UserID) {
		return nil, apperr.Unauthorized("Invalid access token")
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid access token")
		}
		return nil, fmt.Errorf("auth_service_authenticate_lookup_failed: %w", err)
	}

	return user.Sanitized(), nil
}

// # Events

// userEvent is the payload of account events. Credential material never leaves.
type userEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// publish is fire-and-forget: the state change is already committed, so the
// event outlives a cancelled request but never holds the response past
// EventPublishTimeout.
func (service *Service) publish(requestCtx context.Context, eventType string, user *User) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(requestCtx), EventPublishTimeout)
	defer cancel()

	event := broker.NewEvent(eventType, userEvent{UserID: user.ID, Username: user.Username, Email: user.Email})
	if err := service.publisher.Publish(ctx, event); err != nil {
		service.logger.ErrorContext(ctx, "auth_event_publish_failed",
			slog.String("event", eventType),
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
}
