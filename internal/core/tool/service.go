// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tool serves the read side of the catalog.

Every record leaves this package in the flat external shape produced by the
normalizer, enrichment included.
*/
package tool

import (
	"context"
	"sort"
	"strings"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/core/normalize"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/dberr"
	"github.com/taibuivan/aihub/internal/platform/validate"
	"github.com/taibuivan/aihub/pkg/pagination"
)

// # Query Defaults

const (
	DefaultRandomCount  = 5
	DefaultPopularCount = 10
)

// # Collaborators

// Store is the slice of the catalog repository the read side queries.
type Store interface {
	List(context context.Context, filter catalog.Filter, limit, offset int) ([]*catalog.Record, int, error)
	Random(context context.Context, limit int) ([]*catalog.Record, error)
	FindByProductURL(context context.Context, productURL string) (*catalog.Record, error)
	LoadMetaMany(context context.Context, toolIDs []int64) (map[int64]map[string]string, error)
	Stats(context context.Context) (*catalog.Stats, error)
}

// Reader turns records into enriched flat records.
type Reader interface {
	External(context context.Context, id int64) (*normalize.Flat, error)
	ExternalMany(context context.Context, records []*catalog.Record) ([]normalize.Flat, error)
}

// KeyCounter reports how many API keys are active.
type KeyCounter interface {
	CountActive(context context.Context) (int, error)
}

// # Service

// Service answers catalog queries.
type Service struct {
	store  Store
	reader Reader
	keys   KeyCounter
}

// NewService constructs a [Service]. A nil key counter reports zero active keys.
func NewService(store Store, reader Reader, keys KeyCounter) *Service {
	return &Service{store: store, reader: reader, keys: keys}
}

// Page is one page of the tool listing.
type Page struct {
	Tools []normalize.Flat
	Meta  pagination.Meta
}

// List returns one page of published tools, newest first.
func (service *Service) List(context context.Context, filter catalog.Filter, params pagination.Params) (*Page, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.CategorySlug = strings.TrimSpace(filter.CategorySlug)

	records, total, err := service.store.List(context, filter, params.Limit, params.Offset())
	if err != nil {
		return nil, err
	}

	tools, err := service.reader.ExternalMany(context, records)
	if err != nil {
		return nil, err
	}

	return &Page{Tools: tools, Meta: pagination.NewMeta(params.Page, params.Limit, total)}, nil
}

// Get returns one published tool.
func (service *Service) Get(context context.Context, id int64) (*normalize.Flat, error) {
	return service.reader.External(context, id)
}

// ByURL returns the published tool stored under productURL.
func (service *Service) ByURL(context context.Context, productURL string) (*normalize.Flat, error) {
	productURL = strings.TrimSpace(productURL)
	if productURL == "" {
		return nil, validate.RequiredError("url", "Product URL is required")
	}

	record, err := service.store.FindByProductURL(context, productURL)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, catalog.ErrToolNotFound
		}
		return nil, err
	}
	return service.reader.External(context, record.ID)
}

// Random returns up to count random published tools.
func (service *Service) Random(context context.Context, count int) ([]normalize.Flat, error) {
	count = clampCount(count, DefaultRandomCount, constants.RandomToolsMax)

	records, err := service.store.Random(context, count)
	if err != nil {
		return nil, err
	}
	return service.reader.ExternalMany(context, records)
}

/*
Popular returns the tools with the highest popularity score.

Description: The score lives inside the ratings block, which the store does
not index. The published listing is read one page at a time and only the best
count records are kept between pages, so every record competes.
*/
func (service *Service) Popular(context context.Context, count int) ([]normalize.Flat, error) {
	count = clampCount(count, DefaultPopularCount, constants.PopularToolsMax)

	type scored struct {
		record     *catalog.Record
		popularity float64
	}
	best := make([]scored, 0, count)

	for offset := 0; ; offset += constants.PopularPageSize {
		records, _, err := service.store.List(context, catalog.Filter{}, constants.PopularPageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			break
		}

		ids := make([]int64, 0, len(records))
		for _, record := range records {
			ids = append(ids, record.ID)
		}
		metas, err := service.store.LoadMetaMany(context, ids)
		if err != nil {
			return nil, err
		}

		for _, record := range records {
			best = append(best, scored{record, catalog.DecodeRatings(metas[record.ID]).PopularityScore})
		}
		// Ties keep listing order: newer pages were appended first
		sort.SliceStable(best, func(i, j int) bool {
			return best[i].popularity > best[j].popularity
		})
		if len(best) > count {
			best = best[:count]
		}

		if len(records) < constants.PopularPageSize {
			break
		}
	}

	records := make([]*catalog.Record, 0, len(best))
	for _, entry := range best {
		records = append(records, entry.record)
	}
	return service.reader.ExternalMany(context, records)
}

// Stats is the catalog summary plus the number of active API keys.
type Stats struct {
	*catalog.Stats
	ActiveAPIKeys int `json:"active_api_keys"`
}

// Stats returns catalog-wide totals.
func (service *Service) Stats(context context.Context) (*Stats, error) {
	stats, err := service.store.Stats(context)
	if err != nil {
		return nil, err
	}

	result := &Stats{Stats: stats}
	if service.keys != nil {
		if result.ActiveAPIKeys, err = service.keys.CountActive(context); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// clampCount applies the default for non-positive counts and the upper cap.
func clampCount(count, def, max int) int {
	if count <= 0 {
		return def
	}
	return pagination.Clamp(count, 1, max)
}
