package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLink_IsExpiredAt(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	link := &Link{CreatedAt: created, ExpirationHours: 1}

	assert.Equal(t, created.Add(time.Hour), link.ExpiresAt())
	assert.False(t, link.IsExpiredAt(created.Add(59*time.Minute)))
	assert.True(t, link.IsExpiredAt(created.Add(60*time.Minute)), "the exact expiry instant is already expired")
	assert.True(t, link.IsExpiredAt(created.Add(61*time.Minute)))
}

func TestLink_ExpiresAtIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	link := &Link{CreatedAt: time.Date(2025, 3, 1, 18, 0, 0, 0, loc), ExpirationHours: 720}

	expires := link.ExpiresAt()
	assert.Equal(t, time.UTC, expires.Location())
	assert.Equal(t, time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC), expires)
}
