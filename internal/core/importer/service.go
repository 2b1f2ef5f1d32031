// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package importer is the import pipeline of the catalog.

It turns one flat tool record into a stored catalog entry: the base row, the
downloaded media, the six attribute blocks and the taxonomy links. Only the
base row is mandatory. Every later step that fails becomes a warning on an
otherwise successful result, and nothing is rolled back.

Batch imports run the same pipeline sequentially, in input order, with a
fixed pause between items.
*/
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/core/media"
	"github.com/taibuivan/aihub/internal/core/normalize"
	"github.com/taibuivan/aihub/internal/core/taxonomy"
	"github.com/taibuivan/aihub/internal/platform/apperr"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/dberr"
	"github.com/taibuivan/aihub/internal/platform/metrics"
	"github.com/taibuivan/aihub/internal/platform/validate"
)

// # Collaborators

// Store is the slice of the catalog repository the pipeline writes through.
type Store interface {
	CreateRecord(context context.Context, record *catalog.Record) error
	UpdateRecord(context context.Context, record *catalog.Record) error
	FindByID(context context.Context, id int64) (*catalog.Record, error)
	FindByProductURL(context context.Context, productURL string) (*catalog.Record, error)
	FindByTitle(context context.Context, title string) (*catalog.Record, error)
	SetMeta(context context.Context, toolID int64, key, value string) error
}

// MediaAcquirer downloads and stores one image.
type MediaAcquirer interface {
	Acquire(context context.Context, request media.Request) (*catalog.Asset, error)
}

// TermAttacher resolves and links the classification terms of a record.
type TermAttacher interface {
	Attach(context context.Context, toolID int64, assignment taxonomy.Assignment) []string
}

// Observer receives import outcomes. [*metrics.Recorder] satisfies it.
type Observer interface {
	ObserveImport(outcome string, warnings int)
}

// # Results

// Status says whether an import created a record or updated an existing one.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
)

// Request is one import call.
type Request struct {
	ToolData normalize.Flat `json:"tool_data"`

	// PostID with UpdateMode targets an existing record directly, skipping dedup.
	PostID     int64 `json:"post_id"`
	UpdateMode bool  `json:"update_mode"`
}

// Result is the outcome of a successful import.
type Result struct {
	Status   Status   `json:"status"`
	ToolID   int64    `json:"post_id"`
	ToolName string   `json:"tool_name"`
	Warnings []string `json:"warnings"`
}

// Message is the human readable summary of the result.
func (result *Result) Message() string {
	return fmt.Sprintf("AI tool '%s' %s", result.ToolName, result.Status)
}

// # Service

// Options tunes pacing and budgets.
type Options struct {
	// ItemDelay is the pause between two batch items.
	ItemDelay time.Duration

	// MediaBudget bounds media acquisition of one record, all attempts included.
	MediaBudget time.Duration
}

// Service runs the import pipeline.
type Service struct {
	store    Store
	acquirer MediaAcquirer
	terms    TermAttacher
	observer Observer
	options  Options
	logger   *slog.Logger
}

// NewService constructs a [Service]. A nil observer disables metrics.
func NewService(store Store, acquirer MediaAcquirer, terms TermAttacher, observer Observer, options Options, logger *slog.Logger) *Service {
	if options.MediaBudget <= 0 {
		options.MediaBudget = 20 * time.Second
	}
	if observer == nil {
		observer = (*metrics.Recorder)(nil)
	}
	return &Service{
		store:    store,
		acquirer: acquirer,
		terms:    terms,
		observer: observer,
		options:  options,
		logger:   logger,
	}
}

// ImportOne imports a single flat record with dedup by product URL or title.
func (service *Service) ImportOne(context context.Context, flat normalize.Flat) (*Result, error) {
	return service.Import(context, Request{ToolData: flat})
}

/*
Import creates or updates one catalog entry.

Description: Validation runs before any write. Once the base record is
stored the call succeeds; media, block and taxonomy failures are returned
as warnings.

Returns:
  - *Result: Status, record id and warnings
  - error: Validation, not-found (update mode) or base record failures
*/
func (service *Service) Import(context context.Context, request Request) (*Result, error) {
	flat := request.ToolData
	flat.ProductName = strings.TrimSpace(flat.ProductName)
	flat.ProductURL = strings.TrimSpace(flat.ProductURL)

	validator := &validate.Validator{}
	validator.Required("product_name", flat.ProductName)
	validateRatings(validator, flat)
	if err := validator.Err(); err != nil {
		service.observer.ObserveImport(metrics.OutcomeFailed, 0)
		return nil, err
	}

	record, status, err := service.saveRecord(context, request, flat)
	if err != nil {
		service.observer.ObserveImport(metrics.OutcomeFailed, 0)
		return nil, err
	}

	result := &Result{Status: status, ToolID: record.ID, ToolName: flat.ProductName, Warnings: []string{}}

	blocks := normalize.ToInternal(flat)
	result.Warnings = append(result.Warnings, service.acquireMedia(context, record.ID, flat, &blocks.Media)...)
	result.Warnings = append(result.Warnings, service.saveBlocks(context, record.ID, blocks)...)
	result.Warnings = append(result.Warnings, service.terms.Attach(context, record.ID, assignmentOf(flat))...)

	service.observer.ObserveImport(string(status), len(result.Warnings))

	level := slog.LevelInfo
	if len(result.Warnings) > 0 {
		level = slog.LevelWarn
	}
	service.logger.Log(context, level, "tool_imported",
		slog.Int64("tool_id", record.ID),
		slog.String("tool_name", flat.ProductName),
		slog.String("status", string(status)),
		slog.Any("warnings", result.Warnings),
	)

	return result, nil
}

// validateRatings rejects ratings outside their domain. Values are stored as
// supplied, so out-of-range input is refused rather than clamped.
func validateRatings(validator *validate.Validator, flat normalize.Flat) {
	rating := flat.AverageRating
	validator.Custom("average_rating",
		math.IsNaN(rating) || rating < 0 || rating > constants.MaxAverageRating,
		fmt.Sprintf("must be between 0 and %g", constants.MaxAverageRating))
	validator.Custom("average_rating",
		math.Abs(rating*10-math.Round(rating*10)) > 1e-9,
		"must have at most one decimal place")
	validator.Custom("popularity_score",
		math.IsNaN(flat.PopularityScore) || math.IsInf(flat.PopularityScore, 0) || flat.PopularityScore < 0,
		"must be zero or greater")
	validator.Custom("user_ratings_count", flat.UserRatingsCount < 0, "must be zero or greater")
}

// # Base Record

// saveRecord locates the target record and writes the base row.
func (service *Service) saveRecord(context context.Context, request Request, flat normalize.Flat) (*catalog.Record, Status, error) {
	existing, err := service.locate(context, request, flat)
	if err != nil {
		return nil, "", err
	}

	record := baseRecord(flat)
	if existing != nil {
		record.ID = existing.ID
		if err := service.store.UpdateRecord(context, record); err != nil {
			return nil, "", err
		}
		return record, StatusUpdated, nil
	}

	record.Slug = taxonomy.Slugify(flat.ProductName)
	err = service.store.CreateRecord(context, record)
	if err == nil {
		return record, StatusCreated, nil
	}

	// Another importer stored the same product URL first
	if apperr.HasCode(err, apperr.CodeConflict) && record.ProductURL != "" {
		winner, findErr := service.store.FindByProductURL(context, record.ProductURL)
		if findErr != nil {
			return nil, "", errors.Join(err, findErr)
		}
		record.ID = winner.ID
		if err := service.store.UpdateRecord(context, record); err != nil {
			return nil, "", err
		}
		return record, StatusUpdated, nil
	}
	return nil, "", err
}

// locate finds the record an import should update, or nil to create one.
func (service *Service) locate(context context.Context, request Request, flat normalize.Flat) (*catalog.Record, error) {
	if request.UpdateMode && request.PostID > 0 {
		return service.store.FindByID(context, request.PostID)
	}

	var (
		existing *catalog.Record
		err      error
	)
	if flat.ProductURL != "" {
		existing, err = service.store.FindByProductURL(context, flat.ProductURL)
	} else {
		existing, err = service.store.FindByTitle(context, flat.ProductName)
	}

	if dberr.IsNotFound(err) {
		return nil, nil
	}
	return existing, err
}

// baseRecord derives the base row: the body is the story, or the
// introduction when no story was supplied. The excerpt is the leading part of
// the introduction.
func baseRecord(flat normalize.Flat) *catalog.Record {
	intro := strings.TrimSpace(flat.ShortIntroduction)

	body := strings.TrimSpace(flat.ProductStory)
	if body == "" {
		body = intro
	}

	return &catalog.Record{
		Title:      flat.ProductName,
		ProductURL: flat.ProductURL,
		Body:       body,
		Excerpt:    truncateRunes(intro, constants.ExcerptMaxRunes),
		Status:     catalog.StatusPublish,
	}
}

func truncateRunes(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max])
}

// # Media

// acquireMedia downloads the logo and overview image inside one shared budget
// and records the stored asset ids on the media block.
func (service *Service) acquireMedia(parent context.Context, toolID int64, flat normalize.Flat, block *catalog.MediaData) []string {
	if service.acquirer == nil {
		return nil
	}

	context, cancel := context.WithTimeout(parent, service.options.MediaBudget)
	defer cancel()

	var warnings []string
	requests := []struct {
		request media.Request
		target  *int64
	}{
		{media.Request{ToolID: toolID, Kind: media.KindLogo, CandidateURL: flat.LogoImgURL, SiteURL: flat.ProductURL}, &block.LogoAssetID},
		{media.Request{ToolID: toolID, Kind: media.KindOverview, CandidateURL: flat.OverviewImgURL}, &block.OverviewAssetID},
	}

	for _, item := range requests {
		asset, err := service.acquirer.Acquire(context, item.request)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", item.request.Kind, err))
			continue
		}
		if asset != nil {
			*item.target = asset.ID
		}
	}
	return warnings
}

// # Blocks

// saveBlocks persists the six attribute blocks, one metadata write each.
func (service *Service) saveBlocks(context context.Context, toolID int64, blocks catalog.Blocks) []string {
	encoded, err := catalog.EncodeBlocks(blocks)
	if err != nil {
		return []string{fmt.Sprintf("blocks: %v", err)}
	}

	var warnings []string
	for _, key := range catalog.BlockKeys {
		if err := service.store.SetMeta(context, toolID, key, encoded[key]); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
		}
	}
	return warnings
}

// # Taxonomy

func assignmentOf(flat normalize.Flat) taxonomy.Assignment {
	return taxonomy.Assignment{
		Category:     flat.Category,
		PrimaryTask:  flat.PrimaryTask,
		Inputs:       flat.Inputs,
		Outputs:      flat.Outputs,
		PriceTag:     flat.GeneralPriceTag,
		PricingModel: flat.PricingDetails.PricingModel,
		Tags:         flat.Tags,
	}
}
