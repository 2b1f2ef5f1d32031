// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apikey

import (
	"context"
	"time"
)

// Repository persists API keys.
type Repository interface {
	Create(context context.Context, key *Key) error

	// FindByToken returns [ErrKeyNotFound] for unknown tokens.
	FindByToken(context context.Context, token string) (*Key, error)
	List(context context.Context) ([]*Key, error)
	Delete(context context.Context, id int64) error

	TouchLastUsed(context context.Context, id int64, at time.Time) error

	Count(context context.Context) (int, error)
	CountActive(context context.Context) (int, error)
}

// UsageRecorder keeps per-key daily request counters.
type UsageRecorder interface {
	Increment(context context.Context, keyID int64, day time.Time) error

	// Usage returns the counters of day for the given keys. Missing keys count zero.
	Usage(context context.Context, keyIDs []int64, day time.Time) (map[int64]int64, error)
}
