// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog is the repository adapter of the tool catalog.

It owns the storage entities (tool records, their metadata blocks, taxonomy
terms and media assets) and is the only package that talks to PostgreSQL for
them. Everything above it works through the [Repository] interface.

# Storage Shape

A record's attributes live in six JSON blocks stored as key/value metadata.
Older records carry a flat set of legacy keys instead. [ResolveShape] decides
at read time which of the two a record uses.
*/
package catalog

import (
	"fmt"
	"time"
)

// # Record Status

// Status is the publication state of a tool record.
type Status string

const (
	StatusPublish Status = "publish"
	StatusDraft   Status = "draft"
)

// # Taxonomy Namespaces

const (
	NamespaceCategory     = "category"
	NamespaceTag          = "tag"
	NamespacePricingModel = "pricing_model"
	NamespaceInputType    = "input_type"
	NamespaceOutputType   = "output_type"
)

// # Entities

// Record is the base row of a catalog entry. Its attribute groups are stored
// separately as metadata blocks.
type Record struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	ProductURL string    `json:"product_url"`
	Body       string    `json:"content"`
	Excerpt    string    `json:"excerpt"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"date_created"`
	UpdatedAt  time.Time `json:"date_modified"`
}

// Term is a classification value inside one namespace.
type Term struct {
	ID        int64  `json:"id"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`

	// Count is the number of published records attached, filled by listings only.
	Count int `json:"count"`
}

// TermExistsError reports that a term with the same name or slug already
// exists in the namespace. Callers racing on creation treat it as success.
type TermExistsError struct {
	Namespace  string
	Name       string
	ExistingID int64
}

func (e *TermExistsError) Error() string {
	return fmt.Sprintf("catalog: term %q already exists in %s (id %d)", e.Name, e.Namespace, e.ExistingID)
}

// Asset is an image downloaded during import.
type Asset struct {
	ID          int64
	ToolID      int64
	SourceURL   string
	ContentType string
	FileName    string
	Content     []byte
	CreatedAt   time.Time
}

// ByteSize returns the size of the stored content.
func (a *Asset) ByteSize() int64 {
	return int64(len(a.Content))
}

// # Query Types

// Filter narrows the tool listing.
type Filter struct {
	// Search matches title, excerpt or body case-insensitively.
	Search string

	// CategorySlug restricts results to records attached to that category term.
	CategorySlug string
}

// LabelCount is a label with the number of records carrying it.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Stats holds catalog-wide totals.
type Stats struct {
	TotalTools  int          `json:"total_tools"`
	Categories  []LabelCount `json:"categories"`
	PriceTags   []LabelCount `json:"pricing"`
	LastUpdated *time.Time   `json:"last_updated"`
}
