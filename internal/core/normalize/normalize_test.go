// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package normalize_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/core/catalog/catalogtest"
	"github.com/taibuivan/aihub/internal/core/normalize"
	"github.com/taibuivan/aihub/internal/core/recommend"
	"github.com/taibuivan/aihub/internal/platform/dberr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fullFlat sets every block field so enrichment has nothing to fill.
func fullFlat() normalize.Flat {
	return normalize.Flat{
		ProductName: "Writer Pro", ProductURL: "https://writer.example", ShortIntroduction: "Writes.",
		ProductStory: "A long story.", AuthorCompany: "Writer Labs", PrimaryTask: "Copywriting",
		Category: "AI Writing Assistant", OriginalCategoryName: "Writing", InitialReleaseDate: "2022",
		GeneralPriceTag: "Freemium",

		LogoImgURL: "https://writer.example/logo.png", OverviewImgURL: "https://writer.example/o.png",
		DemoVideoURL: "https://video.example/demo",

		AverageRating: 4.6, PopularityScore: 120000, UserRatingsCount: 321, IsVerifiedTool: true, NumberOfToolsByAuthor: 2,

		Message: "m", CopyURLText: "c", SaveButtonText: "s", VoteBestAIToolText: "v", HowWouldYouRateText: "h",
		HelpOtherPeopleText: "hp", YourRatingText: "y", PostReviewButtonText: "p", FeatureRequestsIntro: "f",
		RequestFeatureButtonText: "r", ViewMoreProsText: "vp", ViewMoreConsText: "vc", AlternativesCountText: "a",
		ViewMoreAlternativesText: "va", IfYouLikedText: "i",
		FAQ: []catalog.FAQEntry{{Question: "Q", Answer: "A"}},

		Inputs: catalog.TextList{"Text"}, Outputs: catalog.TextList{"Text", "Markdown"},
		Features: catalog.TextList{"Drafts"}, ProsList: catalog.TextList{"Fast"}, ConsList: catalog.TextList{"Paid"},
		RelatedTasks:     catalog.TextList{"Blogging"},
		AlternativeTools: []catalog.ToolRef{{Key: "alt-1", Name: "Alt"}},
		FeaturedMatches:  []catalog.ToolRef{{Key: "feat-1", Name: "Feat", ID: 4}},
		OtherTools:       []catalog.ToolRef{{Key: "other-1", Name: "Other"}},

		PricingDetails: catalog.PricingDetails{PricingModel: "Subscription", Currency: "USD", BillingFrequency: "monthly", PaidOptionsFrom: 12},
		Releases:       []catalog.Release{{ReleaseDate: "2023-01-01", ReleaseNotes: "v1", ReleaseAuthor: "team"}},
		JobImpacts:     []catalog.JobImpact{{JobType: "Copywriter", ImpactDescription: "faster", TasksAffected: "drafts", AISkillsRequired: "prompting"}},
		Alternatives:   []catalog.Alternative{{Name: "Rival", URL: "https://rival.example", RelationshipType: "competitor"}},
	}
}

func storedSource(t *testing.T, flat normalize.Flat) normalize.Source {
	t.Helper()
	encoded, err := catalog.EncodeBlocks(normalize.ToInternal(flat))
	require.NoError(t, err)

	return normalize.Source{
		Record: &catalog.Record{ID: 42, Title: flat.ProductName, Slug: "writer-pro", Excerpt: "Writes.", Status: catalog.StatusPublish},
		Meta:   encoded,
		Terms: []catalog.Term{
			{Namespace: catalog.NamespaceCategory, Name: "AI Writing Assistant"},
			{Namespace: catalog.NamespaceTag, Name: "Freemium"},
		},
		BaseURL: "https://aihub.example",
	}
}

/*
TestRoundTrip_PreservesSuppliedFields checks Assemble(ToInternal(X)) after enrichment.
*/
func TestRoundTrip_PreservesSuppliedFields(t *testing.T) {
	input := fullFlat()

	got, ok := normalize.Assemble(storedSource(t, input))
	require.True(t, ok)
	normalize.NewEnricher(nil, discardLogger()).Enrich(context.Background(), &got)

	identity := cmpopts.IgnoreFields(normalize.Flat{},
		"ID", "Title", "Slug", "Content", "Excerpt", "URL", "DateCreated", "DateModified", "Categories", "Tags")
	if diff := cmp.Diff(input, got, identity); diff != "" {
		t.Errorf("round trip changed supplied fields (-want +got):\n%s", diff)
	}

	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "https://aihub.example/tools/writer-pro", got.URL)
	assert.Equal(t, []string{"AI Writing Assistant"}, got.Categories)
	assert.Equal(t, []string{"Freemium"}, got.Tags)
}

/*
TestEnrich_MinimalRecord covers the documented example: only name and category supplied.
*/
func TestEnrich_MinimalRecord(t *testing.T) {
	got, ok := normalize.Assemble(storedSource(t, normalize.Flat{ProductName: "Acme", Category: "AI Writing Assistant"}))
	require.True(t, ok)
	normalize.NewEnricher(nil, discardLogger()).Enrich(context.Background(), &got)

	assert.Equal(t, "Text Generation", got.PrimaryTask)
	assert.Equal(t, "Acme Team", got.AuthorCompany)
	assert.Len(t, got.FAQ, 5)
	assert.Equal(t, "What is Acme?", got.FAQ[0].Question)
	assert.Len(t, got.Features, 5)
	assert.NotEmpty(t, got.ProsList)
	assert.NotEmpty(t, got.ConsList)
	assert.Equal(t, "Try Acme", got.Message)
	assert.Equal(t, "Vote for Acme", got.VoteBestAIToolText)
	assert.Equal(t, "If you liked Acme, you might also like:", got.IfYouLikedText)
	assert.Equal(t, "See 0 alternatives", got.AlternativesCountText)
	assert.Equal(t, "Unknown", got.GeneralPriceTag)

	// Lists are never null on the wire
	assert.NotNil(t, got.Inputs)
	assert.NotNil(t, got.Releases)
	assert.NotNil(t, got.AlternativeTools)
}

/*
TestGuesses checks the lookup tables.
*/
func TestGuesses(t *testing.T) {
	assert.Equal(t, "OpenAI", normalize.GuessCompany("ChatGPT Plus"))
	assert.Equal(t, "Stability AI", normalize.GuessCompany("stable diffusion XL"))
	assert.Equal(t, "Nova Writer Team", normalize.GuessCompany("nova writer"))

	assert.Equal(t, "Code Generation", normalize.GuessPrimaryTask("AI Code Assistant"))
	assert.Equal(t, "AI Processing", normalize.GuessPrimaryTask("Something Else"))

	assert.Contains(t, normalize.DefaultFeatures("AI Image Generator"), "Text-to-image generation")
	assert.Contains(t, normalize.DefaultFeatures("Other"), "Easy integration")
}

/*
TestAssemble_Legacy falls back to the flat keys of older records.
*/
func TestAssemble_Legacy(t *testing.T) {
	source := normalize.Source{
		Record: &catalog.Record{ID: 5, Title: "Old Tool", Excerpt: "Old excerpt"},
		Meta: map[string]string{
			catalog.LegacyProductURL:    "https://old.example",
			catalog.LegacyAverageRating: "3.9",
		},
		Terms: []catalog.Term{{Namespace: catalog.NamespaceCategory, Name: "Legacy Category"}},
	}

	got, ok := normalize.Assemble(source)
	require.True(t, ok)

	assert.Equal(t, "Old Tool", got.ProductName)
	assert.Equal(t, "https://old.example", got.ProductURL)
	assert.Equal(t, "Old excerpt", got.ShortIntroduction)
	assert.Equal(t, 3.9, got.AverageRating)
	assert.Equal(t, "Legacy Category", got.Category)
	assert.Equal(t, "Unknown", got.GeneralPriceTag)
	assert.Equal(t, "/tools/5", got.URL)
}

/*
TestAssemble_Empty reports records without any data.
*/
func TestAssemble_Empty(t *testing.T) {
	_, ok := normalize.Assemble(normalize.Source{Record: &catalog.Record{ID: 1}, Meta: map[string]string{}})
	assert.False(t, ok)
}

type stubRecommender struct {
	set   recommend.Set
	err   error
	calls int
}

func (stub *stubRecommender) Relationships(_ context.Context, _ string, _ int64) (recommend.Set, error) {
	stub.calls++
	return stub.set, stub.err
}

/*
TestEnrich_Relationships fills only the empty lists and tolerates failures.
*/
func TestEnrich_Relationships(t *testing.T) {
	stub := &stubRecommender{set: recommend.Set{
		Alternatives: []catalog.ToolRef{{Key: "tool-2", ID: 2, Name: "Two"}, {Key: "tool-3", ID: 3, Name: "Three"}},
		Featured:     []catalog.ToolRef{{Key: "tool-4", ID: 4, Name: "Four"}},
		Others:       []catalog.ToolRef{{Key: "tool-5", ID: 5, Name: "Five"}},
	}}
	enricher := normalize.NewEnricher(stub, discardLogger())

	supplied := []catalog.ToolRef{{Key: "mine", Name: "Mine"}}
	flat := normalize.Flat{ID: 1, ProductName: "One", Category: "Chat", OtherTools: supplied}
	enricher.Enrich(context.Background(), &flat)

	assert.Equal(t, 1, stub.calls)
	assert.Len(t, flat.AlternativeTools, 2)
	assert.Len(t, flat.FeaturedMatches, 1)
	assert.Equal(t, supplied, flat.OtherTools)
	assert.Equal(t, "See 2 alternatives", flat.AlternativesCountText)

	failing := normalize.NewEnricher(&stubRecommender{err: errors.New("boom")}, discardLogger())
	broken := normalize.Flat{ID: 1, ProductName: "One", Category: "Chat"}
	failing.Enrich(context.Background(), &broken)
	assert.Empty(t, broken.AlternativeTools)
	assert.Equal(t, "Try One", broken.Message)
}

/*
TestService_External loads published records only.
*/
func TestService_External(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.New()
	service := normalize.NewService(store, normalize.NewEnricher(nil, discardLogger()), "")

	published := &catalog.Record{Title: "Live", Status: catalog.StatusPublish}
	require.NoError(t, store.CreateRecord(ctx, published))
	require.NoError(t, store.SetMeta(ctx, published.ID, catalog.MetaBasicInfo, `{"product_name":"Live"}`))

	draft := &catalog.Record{Title: "Hidden", Status: catalog.StatusDraft}
	require.NoError(t, store.CreateRecord(ctx, draft))
	require.NoError(t, store.SetMeta(ctx, draft.ID, catalog.MetaBasicInfo, `{"product_name":"Hidden"}`))

	bare := &catalog.Record{Title: "Bare", Status: catalog.StatusPublish}
	require.NoError(t, store.CreateRecord(ctx, bare))

	flat, err := service.External(ctx, published.ID)
	require.NoError(t, err)
	assert.Equal(t, "Live", flat.ProductName)

	for _, id := range []int64{draft.ID, bare.ID, 999} {
		_, err := service.External(ctx, id)
		assert.True(t, dberr.IsNotFound(err), "id %d", id)
	}

	many, err := service.ExternalMany(ctx, []*catalog.Record{published, bare})
	require.NoError(t, err)
	require.Len(t, many, 1)
	assert.Equal(t, published.ID, many[0].ID)
}
