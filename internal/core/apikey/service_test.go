// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apikey

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aihub/internal/platform/apperr"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/pkg/pointer"
)

// # Test Doubles

type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	keys   map[int64]*Key
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{keys: make(map[int64]*Key)}
}

func (repository *memoryRepository) Create(_ context.Context, key *Key) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	repository.nextID++
	key.ID = repository.nextID
	key.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(key.ID) * time.Minute)
	stored := *key
	repository.keys[key.ID] = &stored
	return nil
}

func (repository *memoryRepository) FindByToken(_ context.Context, token string) (*Key, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, key := range repository.keys {
		if key.Token == token {
			found := *key
			return &found, nil
		}
	}
	return nil, ErrKeyNotFound
}

func (repository *memoryRepository) List(context.Context) ([]*Key, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	keys := make([]*Key, 0, len(repository.keys))
	for _, key := range repository.keys {
		listed := *key
		keys = append(keys, &listed)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].CreatedAt.After(keys[j].CreatedAt) })
	return keys, nil
}

func (repository *memoryRepository) Delete(_ context.Context, id int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.keys[id]; !ok {
		return ErrKeyNotFound
	}
	delete(repository.keys, id)
	return nil
}

func (repository *memoryRepository) TouchLastUsed(_ context.Context, id int64, at time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if key, ok := repository.keys[id]; ok {
		key.LastUsedAt = &at
	}
	return nil
}

func (repository *memoryRepository) Count(context.Context) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return len(repository.keys), nil
}

func (repository *memoryRepository) CountActive(context.Context) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	count := 0
	for _, key := range repository.keys {
		if key.Status == StatusActive {
			count++
		}
	}
	return count, nil
}

func (repository *memoryRepository) get(id int64) Key {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return *repository.keys[id]
}

func (repository *memoryRepository) put(key Key) *Key {
	stored := key
	_ = repository.Create(context.Background(), &stored)
	return &stored
}

type fakeUsage struct {
	mu      sync.Mutex
	counts  map[int64]int64
	readErr error
}

func newFakeUsage() *fakeUsage {
	return &fakeUsage{counts: make(map[int64]int64)}
}

func (usage *fakeUsage) Increment(_ context.Context, keyID int64, _ time.Time) error {
	usage.mu.Lock()
	defer usage.mu.Unlock()
	usage.counts[keyID]++
	return nil
}

func (usage *fakeUsage) Usage(_ context.Context, keyIDs []int64, _ time.Time) (map[int64]int64, error) {
	usage.mu.Lock()
	defer usage.mu.Unlock()

	if usage.readErr != nil {
		return nil, usage.readErr
	}
	result := make(map[int64]int64, len(keyIDs))
	for _, id := range keyIDs {
		if count, ok := usage.counts[id]; ok {
			result[id] = count
		}
	}
	return result, nil
}

func (usage *fakeUsage) count(keyID int64) int64 {
	usage.mu.Lock()
	defer usage.mu.Unlock()
	return usage.counts[keyID]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	repo    *memoryRepository
	usage   *fakeUsage
	service *Service
}

func newFixture() *fixture {
	repo := newMemoryRepository()
	usage := newFakeUsage()
	return &fixture{repo: repo, usage: usage, service: NewService(repo, usage, discardLogger())}
}

// # Tests

func TestGenerate_Defaults(t *testing.T) {
	f := newFixture()

	generated, err := f.service.Generate(context.Background(), GenerateInput{Name: "  Partner  "}, "admin")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(generated.Token, constants.APIKeyPrefix))
	assert.Len(t, generated.Token, len(constants.APIKeyPrefix)+2*tokenBytes)
	assert.Equal(t, "Partner", generated.Name)
	assert.Equal(t, constants.DefaultAPIKeyRateLimit, generated.RateLimit)
	assert.Equal(t, StatusActive, generated.Status)
	assert.Equal(t, "admin", generated.CreatedBy)
	assert.NotZero(t, generated.ID)

	stored := f.repo.get(generated.ID)
	assert.Equal(t, generated.Token, stored.Token)
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input GenerateInput
		field string
	}{
		{name: "missing name", input: GenerateInput{Name: "   "}, field: "name"},
		{name: "long name", input: GenerateInput{Name: strings.Repeat("n", maxNameLength+1)}, field: "name"},
		{name: "negative limit", input: GenerateInput{Name: "ok", RateLimit: pointer.To(-1)}, field: "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.service.Generate(context.Background(), tt.input, "admin")
			require.Error(t, err)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperr.CodeValidation, appErr.Code)
			require.NotEmpty(t, appErr.Details)
			assert.Equal(t, tt.field, appErr.Details[0].Field)

			count, _ := f.repo.Count(context.Background())
			assert.Zero(t, count)
		})
	}
}

func TestGenerate_ZeroRateLimitIsAllowed(t *testing.T) {
	f := newFixture()

	generated, err := f.service.Generate(context.Background(), GenerateInput{Name: "Unlimited", RateLimit: pointer.To(0)}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, generated.RateLimit)
}

func TestList_PreviewAndUsage(t *testing.T) {
	f := newFixture()
	older := f.repo.put(Key{Token: "ak_aaaaaaaaaaaaaaaaaaaa", Name: "Older", Status: StatusActive})
	newer := f.repo.put(Key{Token: "ak_bbbbbbbbbbbbbbbbbbbb", Name: "Newer", Status: StatusSuspended})
	f.usage.counts[older.ID] = 7

	views, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, "ak_bbbbbbbbb...", views[0].Preview)
	assert.Zero(t, views[0].UsageToday)

	assert.Equal(t, older.ID, views[1].ID)
	assert.Equal(t, int64(7), views[1].UsageToday)
}

func TestList_UsageUnavailable(t *testing.T) {
	f := newFixture()
	f.repo.put(Key{Token: "ak_cccccccccccccccccccc", Name: "Key", Status: StatusActive})
	f.usage.readErr = errors.New("redis down")

	views, err := f.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Zero(t, views[0].UsageToday)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "ak_short", Preview("ak_short"))
	assert.Equal(t, "ak_123456789...", Preview("ak_1234567890abcdef"))
}

func TestDelete(t *testing.T) {
	f := newFixture()
	key := f.repo.put(Key{Token: "ak_dddddddddddddddddddd", Name: "Key", Status: StatusActive})

	require.NoError(t, f.service.Delete(context.Background(), key.ID))

	err := f.service.Delete(context.Background(), key.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestAuthenticate(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	f.repo.put(Key{Token: "ak_active", Name: "Active", Status: StatusActive})
	f.repo.put(Key{Token: "ak_inactive", Name: "Inactive", Status: StatusInactive})
	f.repo.put(Key{Token: "ak_suspended", Name: "Suspended", Status: StatusSuspended})
	f.repo.put(Key{Token: "ak_expired", Name: "Expired", Status: StatusActive, ExpiresAt: &past})
	f.repo.put(Key{Token: "ak_later", Name: "Later", Status: StatusActive, ExpiresAt: &future})

	tests := []struct {
		token string
		code  string
	}{
		{token: "", code: apperr.CodeMissingKey},
		{token: "   ", code: apperr.CodeMissingKey},
		{token: "ak_unknown", code: apperr.CodeInvalidKey},
		{token: "ak_inactive", code: apperr.CodeInvalidKey},
		{token: "ak_suspended", code: apperr.CodeInvalidKey},
		{token: "ak_expired", code: apperr.CodeInvalidKey},
		{token: "ak_active"},
		{token: "ak_later"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			key, err := f.service.Authenticate(context.Background(), tt.token)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.token, key.Token)
				return
			}
			assert.Nil(t, key)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestRecordUse_SurvivesCancelledRequest(t *testing.T) {
	f := newFixture()
	key := f.repo.put(Key{Token: "ak_eeeeeeeeeeeeeeeeeeee", Name: "Key", Status: StatusActive})

	ctx, cancel := context.WithCancel(context.Background())
	f.service.RecordUse(ctx, key)
	cancel()
	f.service.Wait()

	assert.NotNil(t, f.repo.get(key.ID).LastUsedAt)
	assert.Equal(t, int64(1), f.usage.count(key.ID))
}

func TestEnsureDemoKey(t *testing.T) {
	f := newFixture()

	demo, err := f.service.EnsureDemoKey(context.Background())
	require.NoError(t, err)
	require.NotNil(t, demo)

	assert.True(t, strings.HasPrefix(demo.Token, constants.DemoAPIKeyPrefix))
	assert.Len(t, demo.Token, len(constants.DemoAPIKeyPrefix)+2*demoTokenBytes)
	assert.Equal(t, demoKeyName, demo.Name)
	assert.Equal(t, constants.DemoAPIKeyRateLimit, demo.RateLimit)
	assert.Equal(t, systemActor, demo.CreatedBy)

	again, err := f.service.EnsureDemoKey(context.Background())
	require.NoError(t, err)
	assert.Nil(t, again)

	count, _ := f.repo.Count(context.Background())
	assert.Equal(t, 1, count)
}

func TestCountActive(t *testing.T) {
	f := newFixture()
	f.repo.put(Key{Token: "ak_1", Name: "One", Status: StatusActive})
	f.repo.put(Key{Token: "ak_2", Name: "Two", Status: StatusInactive})
	f.repo.put(Key{Token: "ak_3", Name: "Three", Status: StatusActive})

	count, err := f.service.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUsageKey(t *testing.T) {
	day := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*60*60))

	// 23:30 at UTC-5 is already the next UTC day
	assert.Equal(t, "apikey:usage:42:20260310", usageKey(42, day))
}
