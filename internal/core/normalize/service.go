// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package normalize

import (
	"context"

	"github.com/taibuivan/aihub/internal/core/catalog"
)

// Store is the part of the catalog the normalizer reads.
type Store interface {
	FindByID(context context.Context, id int64) (*catalog.Record, error)
	LoadMeta(context context.Context, toolID int64) (map[string]string, error)
	LoadMetaMany(context context.Context, toolIDs []int64) (map[int64]map[string]string, error)
	RecordTerms(context context.Context, toolID int64) ([]catalog.Term, error)
}

// Service produces enriched flat records from storage.
type Service struct {
	store    Store
	enricher *Enricher
	baseURL  string
}

// NewService constructs a [Service]. baseURL prefixes the public page links.
func NewService(store Store, enricher *Enricher, baseURL string) *Service {
	return &Service{store: store, enricher: enricher, baseURL: baseURL}
}

/*
External loads one published record as an enriched flat record.

Returns:
  - *Flat: The record
  - error: [catalog.ErrToolNotFound] when the record is missing, unpublished or carries no data
*/
func (service *Service) External(context context.Context, id int64) (*Flat, error) {
	record, err := service.store.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if record.Status != catalog.StatusPublish {
		return nil, catalog.ErrToolNotFound
	}

	meta, err := service.store.LoadMeta(context, id)
	if err != nil {
		return nil, err
	}

	flat, ok, err := service.build(context, record, meta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrToolNotFound
	}
	return flat, nil
}

// ExternalMany converts a page of records, preserving order and skipping
// records without data.
func (service *Service) ExternalMany(context context.Context, records []*catalog.Record) ([]Flat, error) {
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	metas, err := service.store.LoadMetaMany(context, ids)
	if err != nil {
		return nil, err
	}

	flats := make([]Flat, 0, len(records))
	for _, record := range records {
		flat, ok, err := service.build(context, record, metas[record.ID])
		if err != nil {
			return nil, err
		}
		if ok {
			flats = append(flats, *flat)
		}
	}
	return flats, nil
}

func (service *Service) build(context context.Context, record *catalog.Record, meta map[string]string) (*Flat, bool, error) {
	terms, err := service.store.RecordTerms(context, record.ID)
	if err != nil {
		return nil, false, err
	}

	flat, ok := Assemble(Source{Record: record, Meta: meta, Terms: terms, BaseURL: service.baseURL})
	if !ok {
		return nil, false, nil
	}

	service.enricher.Enrich(context, &flat)
	return &flat, true, nil
}
