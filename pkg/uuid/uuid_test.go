// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vidtube/pkg/uuid"
)

func TestNew_IsTimeOrdered(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = uuid.New()
	}

	assert.True(t, sort.StringsAreSorted(ids))
	assert.True(t, uuid.Valid(ids[0]))
	assert.Equal(t, byte('7'), ids[0][14])
}

func TestValid(t *testing.T) {
	assert.True(t, uuid.Valid("0190a3c4-1b2c-7d3e-8f40-123456789abc"))
	assert.True(t, uuid.Valid("0190A3C4-1B2C-7D3E-8F40-123456789ABC"))
	assert.False(t, uuid.Valid(""))
	assert.False(t, uuid.Valid("0190a3c41b2c7d3e8f40123456789abc"))
	assert.False(t, uuid.Valid("urn:uuid:0190a3c4-1b2c-7d3e-8f40-123456789abc"))
	assert.False(t, uuid.Valid("not-a-uuid-at-all-but-36-characters!"))
}
