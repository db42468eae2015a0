// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the credential record (User), the session lifecycle (register,
login, refresh rotation, logout, password change) and the request
authenticator that resolves an access token to a user.

# Architecture

A user holds at most one live refresh token. The token itself is never
stored; only its SHA-256 digest is, and every rotation is a conditional
write keyed on the previous digest.
*/
package auth

import (
	"time"
)

// # Domain Entities

// User represents a registered channel owner.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Credential material. Explicitly omitted from JSON for security.
	PasswordHash     string `json:"-"`
	RefreshTokenHash string `json:"-"`
}

// Sanitized returns a copy of the user without credential material.
func (user *User) Sanitized() *User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	clean.RefreshTokenHash = ""
	return &clean
}

// TokenPair is a freshly minted access/refresh token pair.
type TokenPair struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
}

// Session is the result of a successful login.
type Session struct {
	User *User `json:"user"`
	TokenPair
}

// # Field Identifiers

// Field names used in validation errors and request payloads.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldFullName     = "fullname"
	FieldAvatar       = "avatar"
	FieldCoverImage   = "coverImage"
	FieldOldPassword  = "oldPassword"
	FieldNewPassword  = "newPassword"
	FieldRefreshToken = "refreshToken"
	FieldAccessToken  = "accessToken"
	FieldUser         = "user"
)
