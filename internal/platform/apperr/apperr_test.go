// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
)

/*
TestAppError_StatusMapping verifies every error kind maps to its HTTP status.
*/
func TestAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		status int
		code   string
	}{
		{"validation", apperr.ValidationError("bad"), http.StatusBadRequest, apperr.CodeValidation},
		{"conflict", apperr.Conflict("dup"), http.StatusConflict, apperr.CodeConflict},
		{"not_found", apperr.NotFound("User"), http.StatusNotFound, apperr.CodeNotFound},
		{"unauthorized", apperr.Unauthorized("no"), http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"internal", apperr.Internal(errors.New("boom")), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

/*
TestAppError_Unwrap checks that wrapped AppErrors are still discoverable.
*/
func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := fmt.Errorf("account_service_update_failed: %w", apperr.Internal(cause))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotNil(t, apperr.As(wrapped))
	assert.False(t, apperr.IsNotFound(wrapped))

	assert.True(t, apperr.IsNotFound(fmt.Errorf("lookup: %w", apperr.NotFound("Channel"))))
	assert.Nil(t, apperr.As(errors.New("plain")))
}
