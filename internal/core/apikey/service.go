// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apikey

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/aihub/internal/platform/apperr"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/dberr"
	"github.com/taibuivan/aihub/internal/platform/sec"
	"github.com/taibuivan/aihub/internal/platform/validate"
	"github.com/taibuivan/aihub/pkg/pointer"
	"github.com/taibuivan/aihub/pkg/slice"
)

const (
	// tokenBytes yields 48 hex characters after the prefix.
	tokenBytes = 24

	// demoTokenBytes yields 40 hex characters after the demo prefix.
	demoTokenBytes = 20

	demoKeyName = "Demo API Key"
	systemActor = "system"

	maxNameLength        = 100
	maxDescriptionLength = 500
)

// Service owns the key lifecycle and gateway authentication.
type Service struct {
	repo   Repository
	usage  UsageRecorder
	logger *slog.Logger
	now    func() time.Time

	// pending tracks detached last-used writes so shutdown can wait for them.
	pending sync.WaitGroup
}

// NewService constructs a [Service]. A nil usage recorder disables daily counters.
func NewService(repo Repository, usage UsageRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, usage: usage, logger: logger, now: time.Now}
}

// # Operator Operations

/*
Generate creates a new active key.

Parameters:
  - context: context.Context
  - input: GenerateInput (name required, rate_limit defaults to 1000)
  - createdBy: Operator username

Returns:
  - *Generated: The key including its full token
  - error: Validation or storage errors
*/
func (service *Service) Generate(context context.Context, input GenerateInput, createdBy string) (*Generated, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	rateLimit := pointer.Fallback(input.RateLimit, constants.DefaultAPIKeyRateLimit)

	validator := &validate.Validator{}
	validator.Required("name", input.Name).MaxLen("name", input.Name, maxNameLength)
	validator.MaxLen("description", input.Description, maxDescriptionLength)
	validator.Custom("rate_limit", rateLimit < 0, "Must not be negative")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	token, err := sec.RandomToken(constants.APIKeyPrefix, tokenBytes)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	key := &Key{
		Token:       token,
		Name:        input.Name,
		Description: input.Description,
		RateLimit:   rateLimit,
		Status:      StatusActive,
		CreatedBy:   createdBy,
	}
	if err := service.repo.Create(context, key); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "api_key_generated",
		slog.Int64("key_id", key.ID),
		slog.String("name", key.Name),
		slog.String("created_by", createdBy),
	)
	return &Generated{Key: *key, Token: token}, nil
}

// List returns every key with a token preview and today's usage.
func (service *Service) List(context context.Context) ([]View, error) {
	keys, err := service.repo.List(context)
	if err != nil {
		return nil, err
	}

	ids := slice.Map(keys, func(key *Key) int64 { return key.ID })

	var usage map[int64]int64
	if service.usage != nil {
		usage, err = service.usage.Usage(context, ids, service.now())
		if err != nil {
			// Counters are informational; the listing still works without them
			service.logger.WarnContext(context, "api_key_usage_unavailable", slog.String("error", err.Error()))
		}
	}

	return slice.Map(keys, func(key *Key) View {
		return View{Key: *key, Preview: Preview(key.Token), UsageToday: usage[key.ID]}
	}), nil
}

// Delete removes a key by id.
func (service *Service) Delete(context context.Context, id int64) error {
	if err := service.repo.Delete(context, id); err != nil {
		return err
	}
	service.logger.WarnContext(context, "api_key_deleted", slog.Int64("key_id", id))
	return nil
}

// CountActive returns the number of active keys.
func (service *Service) CountActive(context context.Context) (int, error) {
	return service.repo.CountActive(context)
}

// Preview shows the leading characters of a token.
func Preview(token string) string {
	if len(token) <= constants.APIKeyPreviewLength {
		return token
	}
	return token[:constants.APIKeyPreviewLength] + "..."
}

// # Gateway

/*
Authenticate resolves the key presented with a request.

Returns:
  - *Key: The active key
  - error: apperr.MissingKey for an empty token, apperr.InvalidKey for unknown,
    inactive, suspended or expired keys
*/
func (service *Service) Authenticate(context context.Context, token string) (*Key, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.MissingKey()
	}

	key, err := service.repo.FindByToken(context, token)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.InvalidKey()
		}
		return nil, err
	}

	if !key.Usable(service.now()) {
		return nil, apperr.InvalidKey()
	}
	return key, nil
}

// RecordUse refreshes last-used and bumps today's counter without blocking the caller.
func (service *Service) RecordUse(parent context.Context, key *Key) {
	service.pending.Add(1)
	go func() {
		defer service.pending.Done()

		context, cancel := context.WithTimeout(context.WithoutCancel(parent), constants.LastUsedUpdateTimeout)
		defer cancel()

		now := service.now()
		if err := service.repo.TouchLastUsed(context, key.ID, now); err != nil {
			service.logger.WarnContext(context, "api_key_touch_failed",
				slog.Int64("key_id", key.ID),
				slog.String("error", err.Error()),
			)
		}
		if service.usage == nil {
			return
		}
		if err := service.usage.Increment(context, key.ID, now); err != nil {
			service.logger.WarnContext(context, "api_key_usage_failed",
				slog.Int64("key_id", key.ID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Wait blocks until every pending [Service.RecordUse] write finished.
func (service *Service) Wait() {
	service.pending.Wait()
}

// # Bootstrap

/*
EnsureDemoKey creates the demo key when no key exists at all.

Returns:
  - *Generated: The created key, nil when keys already exist
  - error: Storage errors
*/
func (service *Service) EnsureDemoKey(context context.Context) (*Generated, error) {
	count, err := service.repo.Count(context)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	token, err := sec.RandomToken(constants.DemoAPIKeyPrefix, demoTokenBytes)
	if err != nil {
		return nil, err
	}

	key := &Key{
		Token:       token,
		Name:        demoKeyName,
		Description: "Created automatically at first start",
		RateLimit:   constants.DemoAPIKeyRateLimit,
		Status:      StatusActive,
		CreatedBy:   systemActor,
	}
	if err := service.repo.Create(context, key); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "api_key_demo_created",
		slog.Int64("key_id", key.ID),
		slog.String("preview", Preview(token)),
	)
	return &Generated{Key: *key, Token: token}, nil
}
