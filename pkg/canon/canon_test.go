// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package canon_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/vidtube/pkg/canon"
)

func TestUsername(t *testing.T) {
	assert.Equal(t, "ada", canon.Username("  Ada "))
	assert.Equal(t, "ada", canon.Username("ＡＤＡ"))
	assert.Equal(t, canon.Username("ADA"), canon.Username("ada"))
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "ada@x.com", canon.Email(" Ada@X.com"))
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", canon.FullName("  Ada \t  Lovelace \n"))
	assert.Empty(t, canon.FullName("   "))
}
