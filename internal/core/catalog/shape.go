// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/taibuivan/aihub/pkg/convert"
)

// # Legacy Keys

// Flat keys written by the first generation of importers.
const (
	LegacyProductName       = "product_name"
	LegacyProductURL        = "product_url"
	LegacyShortIntroduction = "short_introduction"
	LegacyAuthorCompany     = "author_company"
	LegacyLogoImgURL        = "logo_img_url"
	LegacyAverageRating     = "average_rating"
	LegacyPopularityScore   = "popularity_score"
	LegacyGeneralPriceTag   = "general_price_tag"
)

// LegacyKeys lists every flat key the legacy reader understands.
var LegacyKeys = []string{
	LegacyProductName,
	LegacyProductURL,
	LegacyShortIntroduction,
	LegacyAuthorCompany,
	LegacyLogoImgURL,
	LegacyAverageRating,
	LegacyPopularityScore,
	LegacyGeneralPriceTag,
}

// Legacy is the flat attribute set of older records.
type Legacy struct {
	ProductName       string
	ProductURL        string
	ShortIntroduction string
	AuthorCompany     string
	LogoImgURL        string
	AverageRating     float64
	PopularityScore   float64
	GeneralPriceTag   string
}

// # Storage Shape

// ShapeKind tells which representation a record is stored in.
type ShapeKind uint8

const (
	// ShapeEmpty means neither representation carries data.
	ShapeEmpty ShapeKind = iota
	ShapeGrouped
	ShapeLegacy
)

func (kind ShapeKind) String() string {
	switch kind {
	case ShapeGrouped:
		return "grouped"
	case ShapeLegacy:
		return "legacy"
	default:
		return "empty"
	}
}

// Shape is the resolved storage representation of one record. Only the
// member matching Kind is meaningful.
type Shape struct {
	Kind   ShapeKind
	Blocks Blocks
	Legacy Legacy

	// Malformed names blocks whose JSON could not be decoded. They are
	// treated as empty.
	Malformed []string
}

// ResolveShape reads the metadata of a record. The grouped blocks win as
// soon as one of them holds a non-empty object; otherwise the legacy keys
// are consulted.
func ResolveShape(meta map[string]string) Shape {
	shape := Shape{}
	present := false

	for _, key := range BlockKeys {
		raw := strings.TrimSpace(meta[key])
		if raw == "" {
			continue
		}

		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			shape.Malformed = append(shape.Malformed, key)
			continue
		}
		if len(probe) == 0 {
			continue
		}

		var err error
		switch key {
		case MetaBasicInfo:
			shape.Blocks.Basic, err = decodeBlock[BasicInfo](raw)
		case MetaMediaData:
			shape.Blocks.Media, err = decodeBlock[MediaData](raw)
		case MetaRatingsData:
			shape.Blocks.Ratings, err = decodeBlock[RatingsData](raw)
		case MetaUITextData:
			shape.Blocks.UIText, err = decodeBlock[UITextData](raw)
		case MetaFeaturesData:
			shape.Blocks.Features, err = decodeBlock[FeaturesData](raw)
		case MetaComplexData:
			shape.Blocks.Complex, err = decodeBlock[ComplexData](raw)
		}
		if err != nil {
			shape.Malformed = append(shape.Malformed, key)
			continue
		}
		present = true
	}

	if present {
		shape.Kind = ShapeGrouped
		return shape
	}

	// Nothing grouped: fall back to the flat keys
	if legacy, ok := readLegacy(meta); ok {
		shape.Kind = ShapeLegacy
		shape.Legacy = legacy
	}

	return shape
}

// decodeBlock decodes one block, returning the zero block on failure.
func decodeBlock[T any](raw string) (T, error) {
	var block T
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		var zero T
		return zero, err
	}
	return block, nil
}

// readLegacy extracts the legacy flat fields. ok is false when none is set.
func readLegacy(meta map[string]string) (Legacy, bool) {
	found := false
	for _, key := range LegacyKeys {
		if strings.TrimSpace(meta[key]) != "" {
			found = true
			break
		}
	}
	if !found {
		return Legacy{}, false
	}

	return Legacy{
		ProductName:       meta[LegacyProductName],
		ProductURL:        meta[LegacyProductURL],
		ShortIntroduction: meta[LegacyShortIntroduction],
		AuthorCompany:     meta[LegacyAuthorCompany],
		LogoImgURL:        meta[LegacyLogoImgURL],
		AverageRating:     convert.ToFloat64(meta[LegacyAverageRating]),
		PopularityScore:   convert.ToFloat64(meta[LegacyPopularityScore]),
		GeneralPriceTag:   meta[LegacyGeneralPriceTag],
	}, true
}

// EncodeBlocks serialises the six blocks into metadata values keyed by block name.
func EncodeBlocks(blocks Blocks) (map[string]string, error) {
	values := map[string]any{
		MetaBasicInfo:    blocks.Basic,
		MetaMediaData:    blocks.Media,
		MetaRatingsData:  blocks.Ratings,
		MetaUITextData:   blocks.UIText,
		MetaFeaturesData: blocks.Features,
		MetaComplexData:  blocks.Complex,
	}

	encoded := make(map[string]string, len(values))
	for key, value := range values {
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("catalog: encode %s: %w", key, err)
		}
		encoded[key] = string(payload)
	}

	return encoded, nil
}

// DecodeRatings reads only the ratings block, for listings that sort by it.
func DecodeRatings(meta map[string]string) RatingsData {
	shape := ResolveShape(meta)
	switch shape.Kind {
	case ShapeGrouped:
		return shape.Blocks.Ratings
	case ShapeLegacy:
		return RatingsData{
			AverageRating:   shape.Legacy.AverageRating,
			PopularityScore: shape.Legacy.PopularityScore,
			GeneralPriceTag: shape.Legacy.GeneralPriceTag,
		}
	default:
		return RatingsData{}
	}
}
