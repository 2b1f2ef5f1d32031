// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package recommend_test

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/core/catalog/catalogtest"
	"github.com/taibuivan/aihub/internal/core/recommend"
)

type seed struct {
	name       string
	category   string
	rating     float64
	popularity float64
}

// fixture stores each seed as a published record linked to its category.
func fixture(t *testing.T, seeds ...seed) (*catalogtest.Store, map[string]int64) {
	t.Helper()
	ctx := context.Background()
	store := catalogtest.New()
	ids := make(map[string]int64, len(seeds))
	terms := make(map[string]int64)

	for _, s := range seeds {
		record := &catalog.Record{Title: s.name, Status: catalog.StatusPublish}
		require.NoError(t, store.CreateRecord(ctx, record))
		ids[s.name] = record.ID

		encoded, err := catalog.EncodeBlocks(catalog.Blocks{
			Basic:   catalog.BasicInfo{ProductName: s.name, Category: s.category},
			Ratings: catalog.RatingsData{AverageRating: s.rating, PopularityScore: s.popularity},
		})
		require.NoError(t, err)
		for key, value := range encoded {
			require.NoError(t, store.SetMeta(ctx, record.ID, key, value))
		}

		termID, ok := terms[s.category]
		if !ok {
			term, err := store.CreateTerm(ctx, catalog.NamespaceCategory, s.category, s.category)
			require.NoError(t, err)
			termID = term.ID
			terms[s.category] = termID
		}
		require.NoError(t, store.SetRecordTerms(ctx, record.ID, catalog.NamespaceCategory, []int64{termID}))
	}
	return store, ids
}

func newEngine(store *catalogtest.Store) *recommend.Engine {
	return recommend.NewEngine(store, recommend.DefaultPolicy(), 60, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func names(refs []catalog.ToolRef) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.Name)
	}
	return out
}

/*
TestScore verifies the weights and the popularity cap.
*/
func TestScore(t *testing.T) {
	assert.InDelta(t, 0.7*4+0.3*1, recommend.Score(4, 100000), 1e-9)
	assert.InDelta(t, 0.7*5+0.3*5, recommend.Score(5, 10_000_000), 1e-9)
	assert.Greater(t, recommend.Score(4.5, 5000), recommend.Score(4.0, 5000))
}

/*
TestRecommend_ExcludesSubjectAndRanks checks self-exclusion, ordering and count.
*/
func TestRecommend_ExcludesSubjectAndRanks(t *testing.T) {
	store, ids := fixture(t,
		seed{"Subject", "Chat", 5, 900000},
		seed{"Low", "Chat", 2, 0},
		seed{"High", "Chat", 4.8, 0},
		seed{"Mid", "Chat", 3.5, 0},
		seed{"Popular", "Chat", 3.5, 500000},
		seed{"Elsewhere", "Video", 5, 0},
	)

	refs, err := newEngine(store).Recommend(context.Background(), recommend.Query{
		Category: "Chat",
		Count:    3,
		Exclude:  []int64{ids["Subject"]},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Popular", "High", "Mid"}, names(refs))
	for _, ref := range refs {
		assert.NotEqual(t, ids["Subject"], ref.ID)
		assert.Equal(t, "tool-"+itoa(ref.ID), ref.Key)
	}
}

/*
TestRecommend_ZeroCandidates returns an empty list rather than an error.
*/
func TestRecommend_ZeroCandidates(t *testing.T) {
	store, ids := fixture(t, seed{"Only", "Niche", 4, 10})
	engine := newEngine(store)

	refs, err := engine.Recommend(context.Background(), recommend.Query{Category: "Niche", Count: 5, Exclude: []int64{ids["Only"]}})
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)

	refs, err = engine.Recommend(context.Background(), recommend.Query{Category: "", Count: 5})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

/*
TestRecommend_ScansEveryPage ranks an older record ahead of many newer ones
even when the store is read in small pages.
*/
func TestRecommend_ScansEveryPage(t *testing.T) {
	seeds := []seed{{"Veteran", "Chat", 4.9, 2_000_000}}
	for i := 0; i < 11; i++ {
		seeds = append(seeds, seed{"Newcomer " + strconv.Itoa(i), "Chat", 1, 1})
	}
	seeds = append(seeds, seed{"Subject", "Chat", 5, 9_000_000})
	store, ids := fixture(t, seeds...)

	engine := recommend.NewEngine(store, recommend.DefaultPolicy(), 4, slog.New(slog.NewTextHandler(io.Discard, nil)))
	refs, err := engine.Recommend(context.Background(), recommend.Query{
		Category: "Chat",
		Count:    2,
		Exclude:  []int64{ids["Subject"]},
	})
	require.NoError(t, err)

	// Equal scores keep newest first
	assert.Equal(t, []string{"Veteran", "Newcomer 10"}, names(refs))
}

/*
TestFeatured_RelatedFirstThenPadding prefers related categories and pads from the same one.
*/
func TestFeatured_RelatedFirstThenPadding(t *testing.T) {
	store, ids := fixture(t,
		seed{"Subject", "Music Generation", 4, 0},
		seed{"Voice", "Audio Editing", 3, 0},
		seed{"Peer A", "Music Generation", 4.5, 0},
		seed{"Peer B", "Music Generation", 4.0, 0},
		seed{"Painter", "Image Design", 5, 0},
	)

	refs, err := newEngine(store).Featured(context.Background(), recommend.Query{
		Category: "Music Generation",
		Count:    10,
		Exclude:  []int64{ids["Subject"]},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Voice", "Peer A", "Peer B"}, names(refs))
}

/*
TestRelationships fills the three lists without overlap between alternatives and others.
*/
func TestRelationships(t *testing.T) {
	seeds := []seed{{"Subject", "Writing", 4, 0}}
	for i, name := range []string{"W1", "W2", "W3", "W4", "W5", "W6"} {
		seeds = append(seeds, seed{name, "Writing", float64(5 - i/2), 0})
	}
	store, ids := fixture(t, seeds...)

	set, err := newEngine(store).Relationships(context.Background(), "Writing", ids["Subject"])
	require.NoError(t, err)

	assert.Len(t, set.Alternatives, recommend.AlternativesCount)
	assert.Len(t, set.Others, 3)
	assert.Len(t, set.Featured, recommend.FeaturedMax)

	chosen := map[int64]bool{}
	for _, ref := range set.Alternatives {
		chosen[ref.ID] = true
	}
	for _, ref := range set.Others {
		assert.False(t, chosen[ref.ID], "other tool %s repeats an alternative", ref.Name)
		assert.NotEqual(t, ids["Subject"], ref.ID)
	}
}

/*
TestPolicy_Related covers keyword grouping and YAML overrides.
*/
func TestPolicy_Related(t *testing.T) {
	policy := recommend.DefaultPolicy()
	assert.True(t, policy.Related("Music Generation", "Audio Editing"))
	assert.False(t, policy.Related("Music Generation", "Image Design"))
	assert.False(t, policy.Related("", "Audio"))

	custom, err := recommend.ParsePolicy([]byte("groups:\n  - [Legal, Law]\n"))
	require.NoError(t, err)
	assert.True(t, custom.Related("legal drafting", "Law Firms"))

	_, err = recommend.ParsePolicy([]byte("groups: []\n"))
	assert.Error(t, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
