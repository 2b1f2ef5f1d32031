// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "context"

// RecordRepository persists base tool rows.
type RecordRepository interface {
	CreateRecord(context context.Context, record *Record) error
	UpdateRecord(context context.Context, record *Record) error

	FindByID(context context.Context, id int64) (*Record, error)
	FindByProductURL(context context.Context, productURL string) (*Record, error)
	FindByTitle(context context.Context, title string) (*Record, error)

	// List returns published records, newest first, with the total match count.
	List(context context.Context, filter Filter, limit, offset int) ([]*Record, int, error)
	Random(context context.Context, limit int) ([]*Record, error)

	// ListByCategories returns one page of published records attached to any
	// of the named category terms, excluding excludeID, newest first.
	ListByCategories(context context.Context, categories []string, excludeID int64, limit, offset int) ([]*Record, error)

	Stats(context context.Context) (*Stats, error)
}

// MetaRepository persists per-record metadata values.
type MetaRepository interface {
	SetMeta(context context.Context, toolID int64, key, value string) error
	LoadMeta(context context.Context, toolID int64) (map[string]string, error)
	LoadMetaMany(context context.Context, toolIDs []int64) (map[int64]map[string]string, error)
}

// TermRepository persists classification terms and their record links.
type TermRepository interface {
	FindTermByName(context context.Context, namespace, name string) (*Term, error)
	FindTermBySlug(context context.Context, namespace, slug string) (*Term, error)

	// CreateTerm inserts a term. A concurrent or earlier insert of the same
	// name or slug yields a [*TermExistsError].
	CreateTerm(context context.Context, namespace, name, slug string) (*Term, error)

	// SetRecordTerms replaces the record's links inside one namespace.
	SetRecordTerms(context context.Context, toolID int64, namespace string, termIDs []int64) error
	RecordTerms(context context.Context, toolID int64) ([]Term, error)

	// ListTerms returns terms that have at least one published record, largest first.
	// A limit of zero returns all of them.
	ListTerms(context context.Context, namespace string, limit int) ([]Term, error)
}

// AssetRepository persists downloaded media.
type AssetRepository interface {
	CreateAsset(context context.Context, asset *Asset) error
}

// Repository is the full storage surface of the catalog.
type Repository interface {
	RecordRepository
	MetaRepository
	TermRepository
	AssetRepository
}
