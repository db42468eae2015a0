// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
)

// # User Data Access

// UserRepository defines the credential store contract.
//
// Username and email arguments are expected in canonical form (see pkg/canon).
// Lookups return an apperr NOT_FOUND error when no live row matches.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity including credential material
		  - error: apperr.NotFound or database failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsernameOrEmail returns the first account whose username or email
		matches. Either argument may be empty.

		Parameters:
		  - context: context.Context
		  - username: string
		  - email: string

		Returns:
		  - *User: Hydrated entity including credential material
		  - error: apperr.NotFound or database failures
	*/
	FindByUsernameOrEmail(context context.Context, username, email string) (*User, error)

	/*
		Create persists a brand-new user account.

		Parameters:
		  - context: context.Context
		  - user: *User (PasswordHash already set)

		Returns:
		  - error: apperr.Conflict on a duplicate username/email
	*/
	Create(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Returns:
		  - error: apperr.NotFound when the user is gone
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		SetRefreshToken unconditionally stores the digest of the newest
		refresh token, replacing any previous session.
	*/
	SetRefreshToken(context context.Context, userID, tokenHash string) error

	/*
		RotateRefreshToken replaces oldHash with newHash only if oldHash is
		still the stored value.

		Returns:
		  - bool: false when another caller rotated or cleared it first
		  - error: Database failures
	*/
	RotateRefreshToken(context context.Context, userID, oldHash, newHash string) (bool, error)

	/*
		ClearRefreshToken ends the user's session. Clearing an absent session
		is not an error.
	*/
	ClearRefreshToken(context context.Context, userID string) error
}
