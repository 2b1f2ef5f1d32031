// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package recommend ranks catalog entries related to a record.

# Scoring

	score = 0.7 * averageRating + 0.3 * min(popularityScore / 100000, 5)

Candidates are sorted by descending score; equal scores keep the order the
store returned them in. The record being recommended for is never among its
own recommendations.

# Flavors

Alternative and other tools come from the same category. Featured matches
prefer categories the [Policy] considers related and are padded from the same
category when fewer than three are found.
*/
package recommend

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/taibuivan/aihub/internal/core/catalog"
)

// Scoring weights.
const (
	ratingWeight     = 0.7
	popularityWeight = 0.3
	popularityUnit   = 100000.0
	popularityCap    = 5.0
)

// Flavor sizes used when filling a record's relationship lists.
const (
	AlternativesCount = 3
	OthersCount       = 4
	FeaturedMax       = 3
)

// Score computes the ranking score of one candidate.
func Score(averageRating, popularityScore float64) float64 {
	return ratingWeight*averageRating + popularityWeight*math.Min(popularityScore/popularityUnit, popularityCap)
}

// Store is the part of the catalog the engine reads.
type Store interface {
	ListByCategories(context context.Context, categories []string, excludeID int64, limit, offset int) ([]*catalog.Record, error)
	LoadMetaMany(context context.Context, toolIDs []int64) (map[int64]map[string]string, error)
	ListTerms(context context.Context, namespace string, limit int) ([]catalog.Term, error)
}

// Engine produces ranked tool summaries.
type Engine struct {
	store    Store
	policy   *Policy
	pageSize int
	logger   *slog.Logger
}

// NewEngine constructs an [Engine]. pageSize is how many candidates are read
// from the store at a time; every candidate is scored regardless.
func NewEngine(store Store, policy *Policy, pageSize int, logger *slog.Logger) *Engine {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Engine{store: store, policy: policy, pageSize: pageSize, logger: logger}
}

// Query selects candidates for one list.
type Query struct {
	Category string
	Count    int

	// Exclude lists record ids that must not appear, the subject record first.
	Exclude []int64
}

// Set holds the three relationship lists of a record.
type Set struct {
	Alternatives []catalog.ToolRef
	Featured     []catalog.ToolRef
	Others       []catalog.ToolRef
}

/*
Recommend returns at most query.Count same-category summaries, best first.

Returns:
  - []catalog.ToolRef: Possibly empty, never nil
  - error: Storage failures
*/
func (engine *Engine) Recommend(context context.Context, query Query) ([]catalog.ToolRef, error) {
	if query.Count <= 0 || strings.TrimSpace(query.Category) == "" {
		return []catalog.ToolRef{}, nil
	}

	return engine.rank(context, []string{query.Category}, query.Exclude, query.Count)
}

/*
Featured returns up to min(query.Count, 3) summaries from related categories,
padded with same-category candidates when fewer than three related ones exist.
*/
func (engine *Engine) Featured(context context.Context, query Query) ([]catalog.ToolRef, error) {
	limit := min(query.Count, FeaturedMax)
	if limit <= 0 || strings.TrimSpace(query.Category) == "" {
		return []catalog.ToolRef{}, nil
	}

	related, err := engine.relatedCategories(context, query.Category)
	if err != nil {
		return nil, err
	}

	picked := []catalog.ToolRef{}
	if len(related) > 0 {
		ranked, err := engine.rank(context, related, query.Exclude, limit)
		if err != nil {
			return nil, err
		}
		picked = ranked
	}
	if len(picked) >= limit {
		return picked, nil
	}

	exclude := append([]int64{}, query.Exclude...)
	for _, ref := range picked {
		exclude = append(exclude, ref.ID)
	}
	padding, err := engine.rank(context, []string{query.Category}, exclude, limit-len(picked))
	if err != nil {
		return nil, err
	}
	return append(picked, padding...), nil
}

/*
Relationships fills the three lists of one record. Other tools skip the ids
already chosen as alternatives.
*/
func (engine *Engine) Relationships(context context.Context, category string, excludeID int64) (Set, error) {
	exclude := []int64{excludeID}

	alternatives, err := engine.Recommend(context, Query{Category: category, Count: AlternativesCount, Exclude: exclude})
	if err != nil {
		return Set{}, err
	}

	featured, err := engine.Featured(context, Query{Category: category, Count: FeaturedMax, Exclude: exclude})
	if err != nil {
		return Set{}, err
	}

	otherExclude := append([]int64{}, exclude...)
	for _, ref := range alternatives {
		otherExclude = append(otherExclude, ref.ID)
	}
	others, err := engine.Recommend(context, Query{Category: category, Count: OthersCount, Exclude: otherExclude})
	if err != nil {
		return Set{}, err
	}

	return Set{Alternatives: alternatives, Featured: featured, Others: others}, nil
}

// relatedCategories lists existing categories related to, but distinct from, category.
func (engine *Engine) relatedCategories(context context.Context, category string) ([]string, error) {
	terms, err := engine.store.ListTerms(context, catalog.NamespaceCategory, 0)
	if err != nil {
		return nil, err
	}

	related := make([]string, 0)
	for _, term := range terms {
		if strings.EqualFold(term.Name, category) {
			continue
		}
		if engine.policy.Related(category, term.Name) {
			related = append(related, term.Name)
		}
	}
	return related, nil
}

// rank scores every candidate in the given categories and returns the best
// keep of them. The store is read one page at a time, so memory stays bounded
// by the page size while older records still compete with newer ones.
func (engine *Engine) rank(context context.Context, categories []string, exclude []int64, keep int) ([]catalog.ToolRef, error) {
	best := make([]catalog.ToolRef, 0, max(keep, 0))
	if keep <= 0 {
		return best, nil
	}

	subject := int64(0)
	if len(exclude) > 0 {
		subject = exclude[0]
	}

	skip := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	scanned := 0
	for offset := 0; ; offset += engine.pageSize {
		records, err := engine.store.ListByCategories(context, categories, subject, engine.pageSize, offset)
		if err != nil {
			return nil, err
		}
		scanned += len(records)

		candidates := make([]*catalog.Record, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, record := range records {
			if skip[record.ID] {
				continue
			}
			candidates = append(candidates, record)
			ids = append(ids, record.ID)
		}

		if len(candidates) > 0 {
			metas, err := engine.store.LoadMetaMany(context, ids)
			if err != nil {
				return nil, err
			}
			for _, record := range candidates {
				best = append(best, Summarize(record, metas[record.ID]))
			}

			// Earlier pages come first, so equal scores keep store order
			sort.SliceStable(best, func(i, j int) bool {
				return Score(best[i].AverageRating, best[i].PopularityScore) >
					Score(best[j].AverageRating, best[j].PopularityScore)
			})
			best = head(best, keep)
		}

		if len(records) < engine.pageSize {
			break
		}
	}

	engine.logger.DebugContext(context, "recommend_ranked",
		slog.Any("categories", categories),
		slog.Int("candidates", scanned),
	)
	return best, nil
}

// Summarize builds the summary of a record from its stored metadata.
func Summarize(record *catalog.Record, meta map[string]string) catalog.ToolRef {
	ref := catalog.ToolRef{
		ID:          record.ID,
		Name:        record.Title,
		URL:         record.ProductURL,
		Description: record.Excerpt,
	}

	shape := catalog.ResolveShape(meta)
	switch shape.Kind {
	case catalog.ShapeGrouped:
		blocks := shape.Blocks
		ref.Name = firstNonEmpty(blocks.Basic.ProductName, ref.Name)
		ref.URL = firstNonEmpty(blocks.Basic.ProductURL, ref.URL)
		ref.Description = firstNonEmpty(blocks.Basic.ShortIntroduction, ref.Description)
		ref.Category = blocks.Basic.Category
		ref.LogoImgURL = blocks.Media.LogoImgURL
		ref.OverviewImgURL = blocks.Media.OverviewImgURL
		ref.GeneralPriceTag = blocks.Ratings.GeneralPriceTag
		ref.AverageRating = blocks.Ratings.AverageRating
		ref.PopularityScore = blocks.Ratings.PopularityScore
	case catalog.ShapeLegacy:
		legacy := shape.Legacy
		ref.Name = firstNonEmpty(legacy.ProductName, ref.Name)
		ref.URL = firstNonEmpty(legacy.ProductURL, ref.URL)
		ref.Description = firstNonEmpty(legacy.ShortIntroduction, ref.Description)
		ref.LogoImgURL = legacy.LogoImgURL
		ref.GeneralPriceTag = legacy.GeneralPriceTag
		ref.AverageRating = legacy.AverageRating
		ref.PopularityScore = legacy.PopularityScore
	}

	ref.Key = ref.StableKey()
	return ref
}

func head(refs []catalog.ToolRef, count int) []catalog.ToolRef {
	if count < len(refs) {
		return refs[:count]
	}
	return refs
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
