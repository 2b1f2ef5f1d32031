// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/core/recommend"
)

// # Lookup Tables

// knownCompanies maps product-name substrings to their makers, checked in order.
var knownCompanies = []struct{ product, company string }{
	{"ChatGPT", "OpenAI"},
	{"Claude", "Anthropic"},
	{"Gemini", "Google"},
	{"Copilot", "Microsoft"},
	{"Midjourney", "Midjourney Inc."},
	{"DALL-E", "OpenAI"},
	{"Stable Diffusion", "Stability AI"},
}

var primaryTasks = map[string]string{
	"AI Writing Assistant": "Text Generation",
	"AI Image Generator":   "Image Creation",
	"AI Code Assistant":    "Code Generation",
	"AI Search Engine":     "Search & Discovery",
	"AI Chatbot":           "Conversation",
	"AI Video Generator":   "Video Creation",
	"AI Audio Generator":   "Audio Creation",
}

const defaultPrimaryTask = "AI Processing"

var categoryFeatures = map[string][]string{
	"AI Writing Assistant": {
		"Natural language processing",
		"Grammar and style checking",
		"Content generation",
		"Multiple language support",
		"Real-time suggestions",
	},
	"AI Image Generator": {
		"Text-to-image generation",
		"Style customization",
		"High-resolution output",
		"Batch processing",
		"Multiple art styles",
	},
	"AI Search Engine": {
		"Visual search capabilities",
		"Advanced filtering",
		"Real-time results",
		"Multi-format support",
		"Intelligent recommendations",
	},
}

var defaultFeatures = []string{
	"AI-powered processing",
	"User-friendly interface",
	"Fast performance",
	"Reliable results",
	"Easy integration",
}

var defaultPros = []string{
	"User-friendly interface",
	"Fast results",
	"Works in the browser without setup",
}

var defaultCons = []string{
	"Advanced features may require a paid plan",
	"Output quality can vary between runs",
	"Requires an internet connection",
}

// GuessCompany returns the maker of a well-known product, else "{Name} Team".
func GuessCompany(productName string) string {
	lowered := strings.ToLower(productName)
	for _, known := range knownCompanies {
		if strings.Contains(lowered, strings.ToLower(known.product)) {
			return known.company
		}
	}
	// Casers carry state and are not shared between goroutines
	return cases.Title(language.English).String(strings.TrimSpace(productName)) + " Team"
}

// GuessPrimaryTask maps a category label to its primary task.
func GuessPrimaryTask(category string) string {
	if task, ok := primaryTasks[category]; ok {
		return task
	}
	return defaultPrimaryTask
}

// DefaultFeatures returns the feature bullets for a category.
func DefaultFeatures(category string) []string {
	if features, ok := categoryFeatures[category]; ok {
		return append([]string(nil), features...)
	}
	return append([]string(nil), defaultFeatures...)
}

// DefaultFAQ returns the five templated questions.
func DefaultFAQ(name, category string) []catalog.FAQEntry {
	return []catalog.FAQEntry{
		{
			Question: fmt.Sprintf("What is %s?", name),
			Answer:   fmt.Sprintf("%s is an %s tool that helps users with AI-powered tasks.", name, category),
		},
		{
			Question: fmt.Sprintf("How do I use %s?", name),
			Answer:   fmt.Sprintf("Simply visit the website, create an account if needed, and start using the %s features.", category),
		},
		{
			Question: fmt.Sprintf("Is %s free?", name),
			Answer:   fmt.Sprintf("%s may offer both free and premium plans. Check their pricing page for details.", name),
		},
		{
			Question: "What are the main features?",
			Answer:   fmt.Sprintf("%s offers advanced %s capabilities with user-friendly interface and reliable performance.", name, category),
		},
		{
			Question: fmt.Sprintf("Who should use %s?", name),
			Answer:   fmt.Sprintf("%s is suitable for professionals, students, and anyone who needs %s assistance.", name, category),
		},
	}
}

// # Enricher

// Recommender supplies the relationship lists.
type Recommender interface {
	Relationships(context context.Context, category string, excludeID int64) (recommend.Set, error)
}

// Enricher backfills fields consumers expect but the record never supplied.
// Only empty fields are touched.
type Enricher struct {
	recommender Recommender
	logger      *slog.Logger
}

// NewEnricher constructs an [Enricher]. A nil recommender leaves the relationship lists alone.
func NewEnricher(recommender Recommender, logger *slog.Logger) *Enricher {
	return &Enricher{recommender: recommender, logger: logger}
}

// Enrich fills the empty fields of flat in place.
func (enricher *Enricher) Enrich(context context.Context, flat *Flat) {
	FillDefaults(flat)

	if enricher.recommender != nil && flat.Category != "" &&
		(len(flat.AlternativeTools) == 0 || len(flat.FeaturedMatches) == 0 || len(flat.OtherTools) == 0) {

		set, err := enricher.recommender.Relationships(context, flat.Category, flat.ID)
		if err != nil {
			enricher.logger.WarnContext(context, "enrich_recommendations_failed",
				slog.Int64("tool_id", flat.ID),
				slog.String("error", err.Error()),
			)
		} else {
			if len(flat.AlternativeTools) == 0 {
				flat.AlternativeTools = set.Alternatives
			}
			if len(flat.FeaturedMatches) == 0 {
				flat.FeaturedMatches = set.Featured
			}
			if len(flat.OtherTools) == 0 {
				flat.OtherTools = set.Others
			}
		}
	}

	if flat.AlternativesCountText == "" {
		flat.AlternativesCountText = fmt.Sprintf("See %d alternatives", len(flat.AlternativeTools))
	}
}

// FillDefaults applies the deterministic part of enrichment.
func FillDefaults(flat *Flat) {
	name := flat.ProductName
	if name == "" {
		name = flat.Title
	}

	setIfEmpty(&flat.AuthorCompany, func() string { return GuessCompany(name) })
	setIfEmpty(&flat.PrimaryTask, func() string { return GuessPrimaryTask(flat.Category) })

	if len(flat.Features) == 0 {
		flat.Features = DefaultFeatures(flat.Category)
	}
	if len(flat.FAQ) == 0 {
		flat.FAQ = DefaultFAQ(name, flat.Category)
	}
	if len(flat.ProsList) == 0 {
		flat.ProsList = append(catalog.TextList(nil), defaultPros...)
	}
	if len(flat.ConsList) == 0 {
		flat.ConsList = append(catalog.TextList(nil), defaultCons...)
	}

	labels := []struct {
		field *string
		value string
	}{
		{&flat.Message, "Try " + name},
		{&flat.CopyURLText, "Copy URL"},
		{&flat.SaveButtonText, "Save"},
		{&flat.VoteBestAIToolText, "Vote for " + name},
		{&flat.HowWouldYouRateText, "How would you rate this tool?"},
		{&flat.HelpOtherPeopleText, "Help others by rating this tool."},
		{&flat.YourRatingText, "Your rating"},
		{&flat.PostReviewButtonText, "Post Review"},
		{&flat.FeatureRequestsIntro, "Have a feature request?"},
		{&flat.RequestFeatureButtonText, "Request Feature"},
		{&flat.ViewMoreProsText, "View more pros"},
		{&flat.ViewMoreConsText, "View more cons"},
		{&flat.ViewMoreAlternativesText, "View more alternatives"},
		{&flat.IfYouLikedText, fmt.Sprintf("If you liked %s, you might also like:", name)},
	}
	for _, label := range labels {
		if strings.TrimSpace(*label.field) == "" {
			*label.field = label.value
		}
	}
}

func setIfEmpty(field *string, value func() string) {
	if strings.TrimSpace(*field) == "" {
		*field = value()
	}
}
