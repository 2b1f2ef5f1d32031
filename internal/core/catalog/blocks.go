// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"bytes"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/taibuivan/aihub/pkg/slug"
)

// # Metadata Keys

// Keys of the six grouped blocks.
const (
	MetaBasicInfo    = "basic_info"
	MetaMediaData    = "media_data"
	MetaRatingsData  = "ratings_data"
	MetaUITextData   = "ui_text_data"
	MetaFeaturesData = "features_data"
	MetaComplexData  = "complex_data"
)

// BlockKeys lists the grouped block keys in storage order.
var BlockKeys = []string{
	MetaBasicInfo,
	MetaMediaData,
	MetaRatingsData,
	MetaUITextData,
	MetaFeaturesData,
	MetaComplexData,
}

// # Grouped Blocks

// BasicInfo is the identity group.
type BasicInfo struct {
	ProductName          string `json:"product_name"`
	ProductURL           string `json:"product_url"`
	ShortIntroduction    string `json:"short_introduction"`
	ProductStory         string `json:"product_story"`
	AuthorCompany        string `json:"author_company"`
	PrimaryTask          string `json:"primary_task"`
	Category             string `json:"category"`
	OriginalCategoryName string `json:"original_category_name"`
	InitialReleaseDate   string `json:"initial_release_date"`
}

// MediaData holds media links and the ids of assets downloaded for them.
type MediaData struct {
	LogoImgURL      string `json:"logo_img_url"`
	OverviewImgURL  string `json:"overview_img_url"`
	DemoVideoURL    string `json:"demo_video_url"`
	LogoAssetID     int64  `json:"logo_asset_id,omitempty"`
	OverviewAssetID int64  `json:"overview_asset_id,omitempty"`
}

// RatingsData carries scores. The price tag is kept here as well.
type RatingsData struct {
	AverageRating         float64 `json:"average_rating"`
	PopularityScore       float64 `json:"popularity_score"`
	UserRatingsCount      int     `json:"user_ratings_count"`
	IsVerifiedTool        bool    `json:"is_verified_tool"`
	NumberOfToolsByAuthor int     `json:"number_of_tools_by_author"`
	GeneralPriceTag       string  `json:"general_price_tag"`
}

// FAQEntry is one question/answer pair.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// UITextData holds the page labels and the FAQ.
type UITextData struct {
	Message                  string     `json:"message"`
	CopyURLText              string     `json:"copy_url_text"`
	SaveButtonText           string     `json:"save_button_text"`
	VoteBestAIToolText       string     `json:"vote_best_ai_tool_text"`
	HowWouldYouRateText      string     `json:"how_would_you_rate_text"`
	HelpOtherPeopleText      string     `json:"help_other_people_text"`
	YourRatingText           string     `json:"your_rating_text"`
	PostReviewButtonText     string     `json:"post_review_button_text"`
	FeatureRequestsIntro     string     `json:"feature_requests_intro"`
	RequestFeatureButtonText string     `json:"request_feature_button_text"`
	ViewMoreProsText         string     `json:"view_more_pros_text"`
	ViewMoreConsText         string     `json:"view_more_cons_text"`
	AlternativesCountText    string     `json:"alternatives_count_text"`
	ViewMoreAlternativesText string     `json:"view_more_alternatives_text"`
	IfYouLikedText           string     `json:"if_you_liked_text"`
	FAQ                      []FAQEntry `json:"faq"`
}

// FeaturesData holds the ordered lists of a record.
type FeaturesData struct {
	Inputs           TextList  `json:"inputs"`
	Outputs          TextList  `json:"outputs"`
	Features         TextList  `json:"features"`
	ProsList         TextList  `json:"pros_list"`
	ConsList         TextList  `json:"cons_list"`
	RelatedTasks     TextList  `json:"related_tasks"`
	AlternativeTools []ToolRef `json:"alternative_tools"`
	FeaturedMatches  []ToolRef `json:"featured_matches"`
	OtherTools       []ToolRef `json:"other_tools"`
}

// PricingDetails is the pricing breakdown.
type PricingDetails struct {
	PricingModel     string  `json:"pricing_model,omitempty"`
	Currency         string  `json:"currency,omitempty"`
	BillingFrequency string  `json:"billing_frequency,omitempty"`
	PaidOptionsFrom  float64 `json:"paid_options_from,omitempty"`
}

// Release is one entry of the release history.
type Release struct {
	ReleaseDate   string `json:"release_date"`
	ReleaseNotes  string `json:"release_notes"`
	ReleaseAuthor string `json:"release_author"`
}

// JobImpact describes how a job type is affected by the tool.
type JobImpact struct {
	JobType           string `json:"job_type"`
	ImpactDescription string `json:"impact_description"`
	TasksAffected     string `json:"tasks_affected"`
	AISkillsRequired  string `json:"ai_skills_required"`
}

// Alternative is a named relationship to another product.
type Alternative struct {
	Name             string `json:"name"`
	URL              string `json:"url"`
	RelationshipType string `json:"relationship_type"`
}

// ComplexData holds the nested structures.
type ComplexData struct {
	PricingDetails PricingDetails `json:"pricing_details"`
	Releases       []Release      `json:"releases"`
	JobImpacts     []JobImpact    `json:"job_impacts"`
	Alternatives   []Alternative  `json:"alternatives"`
}

// Blocks is the full grouped representation of a record.
type Blocks struct {
	Basic    BasicInfo
	Media    MediaData
	Ratings  RatingsData
	UIText   UITextData
	Features FeaturesData
	Complex  ComplexData
}

// # List Items

// textItemKeys are the object keys older importers used to wrap list strings.
var textItemKeys = []string{"value", "name", "text", "input_type", "output_type", "feature", "pro_item", "con_item", "task_item"}

// TextList is an ordered list of strings. It also decodes the wrapped object
// form ([{"pro_item": "Fast"}]) that older importers produced.
type TextList []string

// UnmarshalJSON accepts strings, or objects carrying one string value.
func (list *TextList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*list = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(TextList, 0, len(raw))
	for _, item := range raw {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			out = append(out, text)
			continue
		}

		var object map[string]any
		if err := json.Unmarshal(item, &object); err != nil {
			return err
		}
		if text, ok := wrappedText(object); ok {
			out = append(out, text)
		}
	}

	*list = out
	return nil
}

// wrappedText picks the string carried by a wrapped list item.
func wrappedText(object map[string]any) (string, bool) {
	for _, key := range textItemKeys {
		if text, ok := object[key].(string); ok {
			return text, true
		}
	}

	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if text, ok := object[key].(string); ok {
			return text, true
		}
	}
	return "", false
}

// ToolRef points at another catalog entry. Key is stable per item so
// clients can diff lists.
type ToolRef struct {
	Key             string  `json:"key"`
	ID              int64   `json:"id,omitempty"`
	Name            string  `json:"name"`
	URL             string  `json:"url,omitempty"`
	Description     string  `json:"description,omitempty"`
	Category        string  `json:"category,omitempty"`
	LogoImgURL      string  `json:"logo_img_url,omitempty"`
	OverviewImgURL  string  `json:"overview_img_url,omitempty"`
	GeneralPriceTag string  `json:"general_price_tag,omitempty"`
	AverageRating   float64 `json:"average_rating,omitempty"`
	PopularityScore float64 `json:"popularity_score,omitempty"`
}

// UnmarshalJSON accepts a bare product name as well as the object form.
func (ref *ToolRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*ref = ToolRef{Name: name}
		return nil
	}

	type plain ToolRef
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*ref = ToolRef(decoded)
	return nil
}

// StableKey returns Key, deriving one from the id or name when absent.
func (ref ToolRef) StableKey() string {
	switch {
	case ref.Key != "":
		return ref.Key
	case ref.ID > 0:
		return "tool-" + strconv.FormatInt(ref.ID, 10)
	default:
		return slug.From(ref.Name)
	}
}

// WithKeys returns refs with every item carrying a stable key.
func WithKeys(refs []ToolRef) []ToolRef {
	if refs == nil {
		return nil
	}
	out := make([]ToolRef, len(refs))
	for i, ref := range refs {
		ref.Key = ref.StableKey()
		out[i] = ref
	}
	return out
}
