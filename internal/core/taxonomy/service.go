// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package taxonomy resolves classification terms and attaches them to tool records.

# Concurrency

Importers race to create the same terms (every tool in a batch tends to share
a category). Resolution is find-or-create: callers inside one process are
coalesced per (namespace, name), and a creation that loses against another
process is detected through [catalog.TermExistsError] and converted into a
lookup of the winner.
*/
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/platform/apperr"
	"github.com/taibuivan/aihub/internal/platform/constants"
	"github.com/taibuivan/aihub/internal/platform/dberr"
	"github.com/taibuivan/aihub/pkg/slug"
)

// tagListLimit caps GET /tags.
const tagListLimit = 50

// # Service Layer

// Service owns term resolution and the term listings.
type Service struct {
	terms  catalog.TermRepository
	flight singleflight.Group
	logger *slog.Logger
}

// NewService constructs a [Service] over the term repository.
func NewService(terms catalog.TermRepository, logger *slog.Logger) *Service {
	return &Service{terms: terms, logger: logger}
}

// # Resolution

/*
Resolve returns the id of the term named name in namespace, creating it when needed.

Description: Lookup order is exact name, then slug, then create. A creation
that reports the term already exists is a success and yields the existing id.

Parameters:
  - parent: context.Context (ends this caller's wait, not the shared lookup)
  - namespace: string (catalog.Namespace*)
  - name: string

Returns:
  - int64: The term id
  - error: Validation error for blank names, storage errors otherwise
*/
func (service *Service) Resolve(parent context.Context, namespace, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperr.ValidationError(
			fmt.Sprintf("Term name must not be blank in namespace %q", namespace),
			apperr.FieldError{Field: namespace, Message: "must not be blank"},
		)
	}

	// The shared call outlives any single caller; each caller still stops
	// waiting when its own context ends.
	key := namespace + "\x00" + name
	results := service.flight.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(parent), constants.TermResolveTimeout)
		defer cancel()
		return service.findOrCreate(shared, namespace, name)
	})

	select {
	case <-parent.Done():
		return 0, parent.Err()
	case result := <-results:
		if result.Err != nil {
			return 0, result.Err
		}
		return result.Val.(int64), nil
	}
}

func (service *Service) findOrCreate(context context.Context, namespace, name string) (int64, error) {

	// 1. Exact name
	term, err := service.terms.FindTermByName(context, namespace, name)
	if err == nil {
		return term.ID, nil
	}
	if !dberr.IsNotFound(err) {
		return 0, err
	}

	// 2. Slug
	termSlug := Slugify(name)
	term, err = service.terms.FindTermBySlug(context, namespace, termSlug)
	if err == nil {
		return term.ID, nil
	}
	if !dberr.IsNotFound(err) {
		return 0, err
	}

	// 3. Create, tolerating a concurrent winner
	term, err = service.terms.CreateTerm(context, namespace, name, termSlug)
	if err == nil {
		service.logger.DebugContext(context, "term_created",
			slog.String("namespace", namespace),
			slog.String("name", name),
			slog.Int64("term_id", term.ID),
		)
		return term.ID, nil
	}

	var exists *catalog.TermExistsError
	if errors.As(err, &exists) {
		return exists.ExistingID, nil
	}
	return 0, err
}

// Slugify derives the term slug. Names without any ASCII letters or digits
// get a hashed slug so they never collide on the empty string.
func Slugify(name string) string {
	if derived := slug.From(name); derived != "" {
		return derived
	}
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return "term-" + strconv.FormatUint(uint64(hash.Sum32()), 36)
}

// # Assignment

// Assignment is the classification derived from one imported record.
type Assignment struct {
	Category     string
	PrimaryTask  string
	Inputs       []string
	Outputs      []string
	PriceTag     string
	PricingModel string

	// Tags are explicit tags supplied with the import.
	Tags []string
}

// namespaces expands the assignment into term names per namespace.
// The tag namespace aggregates every derived label.
func (assignment Assignment) namespaces() map[string][]string {
	aggregated := []string{assignment.PrimaryTask}
	aggregated = append(aggregated, assignment.Inputs...)
	aggregated = append(aggregated, assignment.Outputs...)
	aggregated = append(aggregated, assignment.PriceTag, assignment.Category)
	aggregated = append(aggregated, assignment.Tags...)

	return map[string][]string{
		catalog.NamespaceCategory:     Coalesce([]string{assignment.Category}),
		catalog.NamespaceTag:          Coalesce(aggregated),
		catalog.NamespacePricingModel: Coalesce([]string{assignment.PricingModel}),
		catalog.NamespaceInputType:    Coalesce(assignment.Inputs),
		catalog.NamespaceOutputType:   Coalesce(assignment.Outputs),
	}
}

// attachOrder keeps warnings deterministic.
var attachOrder = []string{
	catalog.NamespaceCategory,
	catalog.NamespaceTag,
	catalog.NamespacePricingModel,
	catalog.NamespaceInputType,
	catalog.NamespaceOutputType,
}

// Coalesce trims names, drops blanks and removes duplicates that share a
// slug, keeping the first spelling.
func Coalesce(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := Slugify(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

/*
Attach resolves every term of the assignment and links them to the record.

Description: Each namespace is handled independently. Failures never abort
the call; they come back as warnings. A namespace with no names keeps the
links the record already has.

Returns:
  - []string: Warnings for the terms or namespaces that could not be attached
*/
func (service *Service) Attach(context context.Context, toolID int64, assignment Assignment) []string {
	var warnings []string
	byNamespace := assignment.namespaces()

	for _, namespace := range attachOrder {
		names := byNamespace[namespace]
		if len(names) == 0 {
			continue
		}

		ids := make([]int64, 0, len(names))
		for _, name := range names {
			id, err := service.Resolve(context, namespace, name)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s %q: %v", namespace, name, err))
				continue
			}
			ids = append(ids, id)
		}

		if len(ids) == 0 {
			continue
		}
		if err := service.terms.SetRecordTerms(context, toolID, namespace, ids); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: attach failed: %v", namespace, err))
		}
	}

	if len(warnings) > 0 {
		service.logger.WarnContext(context, "taxonomy_attach_partial",
			slog.Int64("tool_id", toolID),
			slog.Any("warnings", warnings),
		)
	}
	return warnings
}

// # Listings

// ListCategories returns every category with at least one published tool.
func (service *Service) ListCategories(context context.Context) ([]catalog.Term, error) {
	return service.terms.ListTerms(context, catalog.NamespaceCategory, 0)
}

// ListTags returns the most used tags.
func (service *Service) ListTags(context context.Context) ([]catalog.Term, error) {
	return service.terms.ListTerms(context, catalog.NamespaceTag, tagListLimit)
}
