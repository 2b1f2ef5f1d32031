// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apikey manages the credentials that gate the catalog API.

Keys are opaque random tokens created by an operator. Every gateway request
looks its key up, refreshes the last-used timestamp in the background and
bumps a daily usage counter. The declared rate limit is stored and reported
but never enforced.
*/
package apikey

import (
	"time"

	"github.com/taibuivan/aihub/internal/platform/apperr"
)

// Status is the lifecycle state of a key. Only active keys authenticate.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// ErrKeyNotFound is returned for unknown key ids.
var ErrKeyNotFound = apperr.NotFound("API key")

// Key is a stored API key.
type Key struct {
	ID          int64      `json:"id"`
	Token       string     `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	RateLimit   int        `json:"rate_limit"`
	Status      Status     `json:"status"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Usable reports whether the key may authenticate at the given time.
func (key *Key) Usable(now time.Time) bool {
	if key.Status != StatusActive {
		return false
	}
	return key.ExpiresAt == nil || now.Before(*key.ExpiresAt)
}

// View is the listing shape of a key. The full token is never listed.
type View struct {
	Key
	Preview    string `json:"api_key_preview"`
	UsageToday int64  `json:"usage_today"`
}

// Generated is returned once, at creation, and is the only place the full token appears.
type Generated struct {
	Key
	Token string `json:"api_key"`
}

// GenerateInput is the operator's request for a new key.
type GenerateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RateLimit   *int   `json:"rate_limit"`
}
