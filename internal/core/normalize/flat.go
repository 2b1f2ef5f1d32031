// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package normalize converts between the public flat tool representation and
the six grouped blocks the catalog stores.

# Directions

  - [ToInternal] partitions a flat record into blocks verbatim.
  - [Assemble] rebuilds the flat record from storage. Records that predate the
    grouped blocks are read from their legacy keys.
  - [Enricher] backfills missing fields at read time. Nothing it computes is
    persisted.

Explicitly supplied fields survive a ToInternal/Assemble round trip unchanged.
*/
package normalize

import (
	"strconv"
	"time"

	"github.com/taibuivan/aihub/internal/core/catalog"
	"github.com/taibuivan/aihub/internal/platform/constants"
)

// Flat is the public shape of a tool, used both as import input and as API output.
type Flat struct {

	// Identity, filled on output
	ID           int64  `json:"id,omitempty"`
	Title        string `json:"title,omitempty"`
	Slug         string `json:"slug,omitempty"`
	Content      string `json:"content,omitempty"`
	Excerpt      string `json:"excerpt,omitempty"`
	URL          string `json:"url,omitempty"`
	DateCreated  string `json:"date_created,omitempty"`
	DateModified string `json:"date_modified,omitempty"`

	// Basic
	ProductName          string `json:"product_name"`
	ProductURL           string `json:"product_url"`
	ShortIntroduction    string `json:"short_introduction"`
	ProductStory         string `json:"product_story"`
	AuthorCompany        string `json:"author_company"`
	PrimaryTask          string `json:"primary_task"`
	Category             string `json:"category"`
	OriginalCategoryName string `json:"original_category_name"`
	InitialReleaseDate   string `json:"initial_release_date"`
	GeneralPriceTag      string `json:"general_price_tag"`

	// Media
	LogoImgURL     string `json:"logo_img_url"`
	OverviewImgURL string `json:"overview_img_url"`
	DemoVideoURL   string `json:"demo_video_url"`

	// Ratings
	AverageRating         float64 `json:"average_rating"`
	PopularityScore       float64 `json:"popularity_score"`
	UserRatingsCount      int     `json:"user_ratings_count"`
	IsVerifiedTool        bool    `json:"is_verified_tool"`
	NumberOfToolsByAuthor int     `json:"number_of_tools_by_author"`

	// UI text
	Message                  string             `json:"message"`
	CopyURLText              string             `json:"copy_url_text"`
	SaveButtonText           string             `json:"save_button_text"`
	VoteBestAIToolText       string             `json:"vote_best_ai_tool_text"`
	HowWouldYouRateText      string             `json:"how_would_you_rate_text"`
	HelpOtherPeopleText      string             `json:"help_other_people_text"`
	YourRatingText           string             `json:"your_rating_text"`
	PostReviewButtonText     string             `json:"post_review_button_text"`
	FeatureRequestsIntro     string             `json:"feature_requests_intro"`
	RequestFeatureButtonText string             `json:"request_feature_button_text"`
	ViewMoreProsText         string             `json:"view_more_pros_text"`
	ViewMoreConsText         string             `json:"view_more_cons_text"`
	AlternativesCountText    string             `json:"alternatives_count_text"`
	ViewMoreAlternativesText string             `json:"view_more_alternatives_text"`
	IfYouLikedText           string             `json:"if_you_liked_text"`
	FAQ                      []catalog.FAQEntry `json:"faq"`

	// Features
	Inputs           catalog.TextList  `json:"inputs"`
	Outputs          catalog.TextList  `json:"outputs"`
	Features         catalog.TextList  `json:"features"`
	ProsList         catalog.TextList  `json:"pros_list"`
	ConsList         catalog.TextList  `json:"cons_list"`
	RelatedTasks     catalog.TextList  `json:"related_tasks"`
	AlternativeTools []catalog.ToolRef `json:"alternative_tools"`
	FeaturedMatches  []catalog.ToolRef `json:"featured_matches"`
	OtherTools       []catalog.ToolRef `json:"other_tools"`

	// Complex
	PricingDetails catalog.PricingDetails `json:"pricing_details"`
	Releases       []catalog.Release      `json:"releases"`
	JobImpacts     []catalog.JobImpact    `json:"job_impacts"`
	Alternatives   []catalog.Alternative  `json:"alternatives"`

	// Classification. On input, Tags are extra tags to attach.
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

// # Flat -> Blocks

// ToInternal partitions a flat record into the six blocks. Absent lists become empty lists.
func ToInternal(flat Flat) catalog.Blocks {
	blocks := catalog.Blocks{
		Basic: catalog.BasicInfo{
			ProductName:          flat.ProductName,
			ProductURL:           flat.ProductURL,
			ShortIntroduction:    flat.ShortIntroduction,
			ProductStory:         flat.ProductStory,
			AuthorCompany:        flat.AuthorCompany,
			PrimaryTask:          flat.PrimaryTask,
			Category:             flat.Category,
			OriginalCategoryName: flat.OriginalCategoryName,
			InitialReleaseDate:   flat.InitialReleaseDate,
		},
		Media: catalog.MediaData{
			LogoImgURL:     flat.LogoImgURL,
			OverviewImgURL: flat.OverviewImgURL,
			DemoVideoURL:   flat.DemoVideoURL,
		},
		Ratings: catalog.RatingsData{
			AverageRating:         flat.AverageRating,
			PopularityScore:       flat.PopularityScore,
			UserRatingsCount:      flat.UserRatingsCount,
			IsVerifiedTool:        flat.IsVerifiedTool,
			NumberOfToolsByAuthor: flat.NumberOfToolsByAuthor,
			GeneralPriceTag:       flat.GeneralPriceTag,
		},
		UIText: catalog.UITextData{
			Message:                  flat.Message,
			CopyURLText:              flat.CopyURLText,
			SaveButtonText:           flat.SaveButtonText,
			VoteBestAIToolText:       flat.VoteBestAIToolText,
			HowWouldYouRateText:      flat.HowWouldYouRateText,
			HelpOtherPeopleText:      flat.HelpOtherPeopleText,
			YourRatingText:           flat.YourRatingText,
			PostReviewButtonText:     flat.PostReviewButtonText,
			FeatureRequestsIntro:     flat.FeatureRequestsIntro,
			RequestFeatureButtonText: flat.RequestFeatureButtonText,
			ViewMoreProsText:         flat.ViewMoreProsText,
			ViewMoreConsText:         flat.ViewMoreConsText,
			AlternativesCountText:    flat.AlternativesCountText,
			ViewMoreAlternativesText: flat.ViewMoreAlternativesText,
			IfYouLikedText:           flat.IfYouLikedText,
			FAQ:                      flat.FAQ,
		},
		Features: catalog.FeaturesData{
			Inputs:           flat.Inputs,
			Outputs:          flat.Outputs,
			Features:         flat.Features,
			ProsList:         flat.ProsList,
			ConsList:         flat.ConsList,
			RelatedTasks:     flat.RelatedTasks,
			AlternativeTools: catalog.WithKeys(flat.AlternativeTools),
			FeaturedMatches:  catalog.WithKeys(flat.FeaturedMatches),
			OtherTools:       catalog.WithKeys(flat.OtherTools),
		},
		Complex: catalog.ComplexData{
			PricingDetails: flat.PricingDetails,
			Releases:       flat.Releases,
			JobImpacts:     flat.JobImpacts,
			Alternatives:   flat.Alternatives,
		},
	}

	fillEmptyLists(&blocks)
	return blocks
}

func fillEmptyLists(blocks *catalog.Blocks) {
	features := &blocks.Features
	for _, list := range []*catalog.TextList{
		&features.Inputs, &features.Outputs, &features.Features,
		&features.ProsList, &features.ConsList, &features.RelatedTasks,
	} {
		if *list == nil {
			*list = catalog.TextList{}
		}
	}
	for _, refs := range []*[]catalog.ToolRef{&features.AlternativeTools, &features.FeaturedMatches, &features.OtherTools} {
		if *refs == nil {
			*refs = []catalog.ToolRef{}
		}
	}

	if blocks.UIText.FAQ == nil {
		blocks.UIText.FAQ = []catalog.FAQEntry{}
	}
	if blocks.Complex.Releases == nil {
		blocks.Complex.Releases = []catalog.Release{}
	}
	if blocks.Complex.JobImpacts == nil {
		blocks.Complex.JobImpacts = []catalog.JobImpact{}
	}
	if blocks.Complex.Alternatives == nil {
		blocks.Complex.Alternatives = []catalog.Alternative{}
	}
}

// # Storage -> Flat

// Source is everything [Assemble] reads for one record.
type Source struct {
	Record *catalog.Record
	Meta   map[string]string
	Terms  []catalog.Term

	// BaseURL prefixes the public page path of the record.
	BaseURL string
}

/*
Assemble rebuilds the flat record.

Returns:
  - Flat: The assembled record, without enrichment
  - bool: False when neither the blocks nor the legacy keys carry data
*/
func Assemble(source Source) (Flat, bool) {
	shape := catalog.ResolveShape(source.Meta)
	if shape.Kind == catalog.ShapeEmpty {
		return Flat{}, false
	}

	var flat Flat
	if shape.Kind == catalog.ShapeGrouped {
		flat = fromBlocks(shape.Blocks)
	} else {
		flat = fromLegacy(shape.Legacy)
	}

	record := source.Record
	flat.ID = record.ID
	flat.Title = record.Title
	flat.Slug = record.Slug
	flat.Content = record.Body
	flat.Excerpt = record.Excerpt
	flat.URL = source.BaseURL + "/tools/" + pageSegment(record)
	flat.DateCreated = record.CreatedAt.UTC().Format(time.RFC3339)
	flat.DateModified = record.UpdatedAt.UTC().Format(time.RFC3339)

	flat.Categories, flat.Tags = []string{}, []string{}
	for _, term := range source.Terms {
		switch term.Namespace {
		case catalog.NamespaceCategory:
			flat.Categories = append(flat.Categories, term.Name)
		case catalog.NamespaceTag:
			flat.Tags = append(flat.Tags, term.Name)
		}
	}

	// Record-level fallbacks for fields the blocks left empty
	if flat.ProductName == "" {
		flat.ProductName = record.Title
	}
	if flat.ProductURL == "" {
		flat.ProductURL = record.ProductURL
	}
	if flat.ShortIntroduction == "" {
		flat.ShortIntroduction = record.Excerpt
	}
	if flat.ProductStory == "" && shape.Kind == catalog.ShapeGrouped {
		flat.ProductStory = record.Body
	}
	if flat.Category == "" && len(flat.Categories) > 0 {
		flat.Category = flat.Categories[0]
	}
	if flat.GeneralPriceTag == "" {
		flat.GeneralPriceTag = constants.DefaultPriceTag
	}

	return flat, true
}

func pageSegment(record *catalog.Record) string {
	if record.Slug != "" {
		return record.Slug
	}
	return strconv.FormatInt(record.ID, 10)
}

func fromBlocks(blocks catalog.Blocks) Flat {
	fillEmptyLists(&blocks)

	basic, media, ratings, ui, features, nested := blocks.Basic, blocks.Media, blocks.Ratings, blocks.UIText, blocks.Features, blocks.Complex
	return Flat{
		ProductName:          basic.ProductName,
		ProductURL:           basic.ProductURL,
		ShortIntroduction:    basic.ShortIntroduction,
		ProductStory:         basic.ProductStory,
		AuthorCompany:        basic.AuthorCompany,
		PrimaryTask:          basic.PrimaryTask,
		Category:             basic.Category,
		OriginalCategoryName: basic.OriginalCategoryName,
		InitialReleaseDate:   basic.InitialReleaseDate,
		GeneralPriceTag:      ratings.GeneralPriceTag,

		LogoImgURL:     media.LogoImgURL,
		OverviewImgURL: media.OverviewImgURL,
		DemoVideoURL:   media.DemoVideoURL,

		AverageRating:         ratings.AverageRating,
		PopularityScore:       ratings.PopularityScore,
		UserRatingsCount:      ratings.UserRatingsCount,
		IsVerifiedTool:        ratings.IsVerifiedTool,
		NumberOfToolsByAuthor: ratings.NumberOfToolsByAuthor,

		Message:                  ui.Message,
		CopyURLText:              ui.CopyURLText,
		SaveButtonText:           ui.SaveButtonText,
		VoteBestAIToolText:       ui.VoteBestAIToolText,
		HowWouldYouRateText:      ui.HowWouldYouRateText,
		HelpOtherPeopleText:      ui.HelpOtherPeopleText,
		YourRatingText:           ui.YourRatingText,
		PostReviewButtonText:     ui.PostReviewButtonText,
		FeatureRequestsIntro:     ui.FeatureRequestsIntro,
		RequestFeatureButtonText: ui.RequestFeatureButtonText,
		ViewMoreProsText:         ui.ViewMoreProsText,
		ViewMoreConsText:         ui.ViewMoreConsText,
		AlternativesCountText:    ui.AlternativesCountText,
		ViewMoreAlternativesText: ui.ViewMoreAlternativesText,
		IfYouLikedText:           ui.IfYouLikedText,
		FAQ:                      ui.FAQ,

		Inputs:           features.Inputs,
		Outputs:          features.Outputs,
		Features:         features.Features,
		ProsList:         features.ProsList,
		ConsList:         features.ConsList,
		RelatedTasks:     features.RelatedTasks,
		AlternativeTools: catalog.WithKeys(features.AlternativeTools),
		FeaturedMatches:  catalog.WithKeys(features.FeaturedMatches),
		OtherTools:       catalog.WithKeys(features.OtherTools),

		PricingDetails: nested.PricingDetails,
		Releases:       nested.Releases,
		JobImpacts:     nested.JobImpacts,
		Alternatives:   nested.Alternatives,
	}
}

func fromLegacy(legacy catalog.Legacy) Flat {
	flat := fromBlocks(catalog.Blocks{})
	flat.ProductName = legacy.ProductName
	flat.ProductURL = legacy.ProductURL
	flat.ShortIntroduction = legacy.ShortIntroduction
	flat.AuthorCompany = legacy.AuthorCompany
	flat.LogoImgURL = legacy.LogoImgURL
	flat.AverageRating = legacy.AverageRating
	flat.PopularityScore = legacy.PopularityScore
	flat.GeneralPriceTag = legacy.GeneralPriceTag
	return flat
}
