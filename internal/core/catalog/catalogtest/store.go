// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package catalogtest provides an in-memory [catalog.Repository] for tests.
package catalogtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/platform/apperr"
)

// epoch anchors the deterministic timestamps handed out by the store.
var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Store keeps records, metadata, terms and assets in memory. It enforces the
// same uniqueness rules as the PostgreSQL schema.
type Store struct {
	mu sync.Mutex

	records map[int64]*catalog.Record
	meta    map[int64]map[string]string
	terms   map[int64]*catalog.Term
	links   map[int64]map[int64]bool
	assets  map[int64]*catalog.Asset

	nextID int64
	tick   int64

	// MetaErr, when set, is consulted before every SetMeta.
	MetaErr func(key string) error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		records: make(map[int64]*catalog.Record),
		meta:    make(map[int64]map[string]string),
		terms:   make(map[int64]*catalog.Term),
		links:   make(map[int64]map[int64]bool),
		assets:  make(map[int64]*catalog.Asset),
	}
}

var _ catalog.Repository = (*Store)(nil)

func (store *Store) id() int64 {
	store.nextID++
	return store.nextID
}

func (store *Store) now() time.Time {
	store.tick++
	return epoch.Add(time.Duration(store.tick) * time.Second)
}

// # Records

func (store *Store) CreateRecord(_ context.Context, record *catalog.Record) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if record.ProductURL != "" {
		for _, existing := range store.records {
			if existing.ProductURL == record.ProductURL {
				return apperr.Conflict("Resource already exists")
			}
		}
	}

	record.ID = store.id()
	record.CreatedAt = store.now()
	record.UpdatedAt = record.CreatedAt

	stored := *record
	store.records[record.ID] = &stored
	return nil
}

func (store *Store) UpdateRecord(_ context.Context, record *catalog.Record) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	existing, ok := store.records[record.ID]
	if !ok {
		return catalog.ErrToolNotFound
	}

	record.Slug = existing.Slug
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = store.now()

	stored := *record
	store.records[record.ID] = &stored
	return nil
}

func (store *Store) FindByID(_ context.Context, id int64) (*catalog.Record, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if record, ok := store.records[id]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, catalog.ErrToolNotFound
}

func (store *Store) findFirst(match func(*catalog.Record) bool) (*catalog.Record, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, record := range store.sorted(false) {
		if match(record) {
			copied := *record
			return &copied, nil
		}
	}
	return nil, catalog.ErrToolNotFound
}

func (store *Store) FindByProductURL(_ context.Context, productURL string) (*catalog.Record, error) {
	return store.findFirst(func(record *catalog.Record) bool { return record.ProductURL == productURL })
}

func (store *Store) FindByTitle(_ context.Context, title string) (*catalog.Record, error) {
	return store.findFirst(func(record *catalog.Record) bool { return record.Title == title })
}

// sorted returns records ordered by id, newest first when desc is set.
func (store *Store) sorted(desc bool) []*catalog.Record {
	records := make([]*catalog.Record, 0, len(store.records))
	for _, record := range store.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if desc {
			return records[i].ID > records[j].ID
		}
		return records[i].ID < records[j].ID
	})
	return records
}

func (store *Store) hasTerm(toolID int64, namespace string, match func(*catalog.Term) bool) bool {
	for termID := range store.links[toolID] {
		term := store.terms[termID]
		if term != nil && term.Namespace == namespace && match(term) {
			return true
		}
	}
	return false
}

func (store *Store) List(_ context.Context, filter catalog.Filter, limit, offset int) ([]*catalog.Record, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := make([]*catalog.Record, 0)
	for _, record := range store.sorted(true) {
		if record.Status != catalog.StatusPublish {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(record.Title), search) &&
			!strings.Contains(strings.ToLower(record.Excerpt), search) &&
			!strings.Contains(strings.ToLower(record.Body), search) {
			continue
		}
		if filter.CategorySlug != "" && !store.hasTerm(record.ID, catalog.NamespaceCategory, func(term *catalog.Term) bool {
			return term.Slug == filter.CategorySlug
		}) {
			continue
		}
		copied := *record
		matched = append(matched, &copied)
	}

	total := len(matched)
	if offset >= total {
		return []*catalog.Record{}, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

// Random returns the newest published records; tests need determinism more than shuffling.
func (store *Store) Random(context context.Context, limit int) ([]*catalog.Record, error) {
	records, _, err := store.List(context, catalog.Filter{}, limit, 0)
	return records, err
}

func (store *Store) ListByCategories(_ context.Context, categories []string, excludeID int64, limit, offset int) ([]*catalog.Record, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	wanted := make(map[string]bool, len(categories))
	for _, name := range categories {
		wanted[name] = true
	}

	matched := make([]*catalog.Record, 0)
	skipped := 0
	for _, record := range store.sorted(true) {
		if len(matched) >= limit {
			break
		}
		if record.ID == excludeID || record.Status != catalog.StatusPublish {
			continue
		}
		if !store.hasTerm(record.ID, catalog.NamespaceCategory, func(term *catalog.Term) bool { return wanted[term.Name] }) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		copied := *record
		matched = append(matched, &copied)
	}
	return matched, nil
}

func (store *Store) Stats(context context.Context) (*catalog.Stats, error) {
	categories, err := store.ListTerms(context, catalog.NamespaceCategory, 10)
	if err != nil {
		return nil, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	stats := &catalog.Stats{Categories: make([]catalog.LabelCount, 0), PriceTags: make([]catalog.LabelCount, 0)}
	prices := make(map[string]int)

	for _, record := range store.records {
		if record.Status != catalog.StatusPublish {
			continue
		}
		stats.TotalTools++
		if stats.LastUpdated == nil || record.UpdatedAt.After(*stats.LastUpdated) {
			updated := record.UpdatedAt
			stats.LastUpdated = &updated
		}
		if tag := catalog.DecodeRatings(store.meta[record.ID]).GeneralPriceTag; tag != "" {
			prices[tag]++
		}
	}

	for label, count := range prices {
		stats.PriceTags = append(stats.PriceTags, catalog.LabelCount{Label: label, Count: count})
	}
	sort.Slice(stats.PriceTags, func(i, j int) bool {
		if stats.PriceTags[i].Count != stats.PriceTags[j].Count {
			return stats.PriceTags[i].Count > stats.PriceTags[j].Count
		}
		return stats.PriceTags[i].Label < stats.PriceTags[j].Label
	})

	for _, category := range categories {
		stats.Categories = append(stats.Categories, catalog.LabelCount{Label: category.Name, Count: category.Count})
	}

	return stats, nil
}

// # Metadata

func (store *Store) SetMeta(_ context.Context, toolID int64, key, value string) error {
	if store.MetaErr != nil {
		if err := store.MetaErr(key); err != nil {
			return err
		}
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if store.meta[toolID] == nil {
		store.meta[toolID] = make(map[string]string)
	}
	store.meta[toolID][key] = value
	return nil
}

func (store *Store) LoadMeta(_ context.Context, toolID int64) (map[string]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	values := make(map[string]string, len(store.meta[toolID]))
	for key, value := range store.meta[toolID] {
		values[key] = value
	}
	return values, nil
}

func (store *Store) LoadMetaMany(context context.Context, toolIDs []int64) (map[int64]map[string]string, error) {
	result := make(map[int64]map[string]string, len(toolIDs))
	for _, id := range toolIDs {
		values, _ := store.LoadMeta(context, id)
		if len(values) > 0 {
			result[id] = values
		}
	}
	return result, nil
}

// # Terms

func (store *Store) findTerm(match func(*catalog.Term) bool) (*catalog.Term, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, term := range store.terms {
		if match(term) {
			copied := *term
			return &copied, nil
		}
	}
	return nil, catalog.ErrTermNotFound
}

func (store *Store) FindTermByName(_ context.Context, namespace, name string) (*catalog.Term, error) {
	return store.findTerm(func(term *catalog.Term) bool { return term.Namespace == namespace && term.Name == name })
}

func (store *Store) FindTermBySlug(_ context.Context, namespace, slug string) (*catalog.Term, error) {
	return store.findTerm(func(term *catalog.Term) bool { return term.Namespace == namespace && term.Slug == slug })
}

func (store *Store) CreateTerm(_ context.Context, namespace, name, slug string) (*catalog.Term, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, term := range store.terms {
		if term.Namespace == namespace && (term.Name == name || term.Slug == slug) {
			return nil, &catalog.TermExistsError{Namespace: namespace, Name: name, ExistingID: term.ID}
		}
	}

	term := &catalog.Term{ID: store.id(), Namespace: namespace, Name: name, Slug: slug}
	store.terms[term.ID] = term

	copied := *term
	return &copied, nil
}

func (store *Store) SetRecordTerms(_ context.Context, toolID int64, namespace string, termIDs []int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	links := store.links[toolID]
	if links == nil {
		links = make(map[int64]bool)
		store.links[toolID] = links
	}

	for termID := range links {
		if term := store.terms[termID]; term != nil && term.Namespace == namespace {
			delete(links, termID)
		}
	}
	for _, termID := range termIDs {
		links[termID] = true
	}
	return nil
}

func (store *Store) RecordTerms(_ context.Context, toolID int64) ([]catalog.Term, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	terms := make([]catalog.Term, 0, len(store.links[toolID]))
	for termID := range store.links[toolID] {
		if term := store.terms[termID]; term != nil {
			terms = append(terms, *term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Namespace != terms[j].Namespace {
			return terms[i].Namespace < terms[j].Namespace
		}
		return terms[i].Name < terms[j].Name
	})
	return terms, nil
}

func (store *Store) ListTerms(_ context.Context, namespace string, limit int) ([]catalog.Term, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	counts := make(map[int64]int)
	for toolID, links := range store.links {
		record := store.records[toolID]
		if record == nil || record.Status != catalog.StatusPublish {
			continue
		}
		for termID := range links {
			counts[termID]++
		}
	}

	terms := make([]catalog.Term, 0)
	for termID, count := range counts {
		term := store.terms[termID]
		if term == nil || term.Namespace != namespace {
			continue
		}
		listed := *term
		listed.Count = count
		terms = append(terms, listed)
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Name < terms[j].Name
	})

	if limit > 0 && len(terms) > limit {
		terms = terms[:limit]
	}
	return terms, nil
}

// # Assets

func (store *Store) CreateAsset(_ context.Context, asset *catalog.Asset) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	asset.ID = store.id()
	asset.CreatedAt = store.now()

	stored := *asset
	store.assets[asset.ID] = &stored
	return nil
}

// # Inspection

// Assets returns every stored asset ordered by id.
func (store *Store) Assets() []catalog.Asset {
	store.mu.Lock()
	defer store.mu.Unlock()

	assets := make([]catalog.Asset, 0, len(store.assets))
	for _, asset := range store.assets {
		assets = append(assets, *asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets
}

// RecordCount returns the number of stored records regardless of status.
func (store *Store) RecordCount() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.records)
}

// TermCount returns the number of terms in a namespace.
func (store *Store) TermCount(namespace string) int {
	store.mu.Lock()
	defer store.mu.Unlock()

	count := 0
	for _, term := range store.terms {
		if term.Namespace == namespace {
			count++
		}
	}
	return count
}
