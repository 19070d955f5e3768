// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/review-trust/pkg/types"
)

var (
	modernStarRe = regexp.MustCompile(`a-star-(\d)`)
	legacyStarRe = regexp.MustCompile(`a-star-(?:medium-)?(\d)`)

	// imageMarkerRe counts image hooks in raw markup and embedded media tags,
	// including the backslash-escaped form inside inline JSON strings.
	imageMarkerRe = regexp.MustCompile(`class=\\?["']review-image\\?["']|"mediaType"\s*:\s*"image"`)
)

const (
	modernCardSelector = ".review-card-container"
	legacyCardSelector = `.my-profile-review-card, .a-section.review, div[id^="customer_review"]`
)

// ModernStrategy reads the current review-card markup.
type ModernStrategy struct{}

func (ModernStrategy) Name() types.Strategy { return types.StrategyModernMarkup }

func (ModernStrategy) TryExtract(doc *Document) []types.ReviewRecord {
	if doc.DOM == nil {
		return nil
	}

	var records []types.ReviewRecord
	doc.DOM.Find(modernCardSelector).Each(func(_ int, card *goquery.Selection) {
		helpful := 0
		if el := card.Find(".review-reaction-count").First(); el.Length() > 0 {
			helpful, _ = leadingInt(el.Text())
		}
		records = append(records, types.ReviewRecord{
			StarRating:   starFromClass(card.Find("i.a-icon-star").First(), modernStarRe),
			TextLength:   textLength(card.Find(".review-description").First()),
			HasImage:     card.Find("img.review-image").Length() > 0,
			HelpfulVotes: helpful,
		})
	})
	return records
}

// LegacyStrategy reads the older profile and product-page review markup.
// Cards that are also modern review cards are skipped.
type LegacyStrategy struct {
	Rules *Rules
}

func (LegacyStrategy) Name() types.Strategy { return types.StrategyLegacyMarkup }

func (s LegacyStrategy) TryExtract(doc *Document) []types.ReviewRecord {
	if doc.DOM == nil {
		return nil
	}

	var records []types.ReviewRecord
	doc.DOM.Find(legacyCardSelector).Not(modernCardSelector).Each(func(_ int, card *goquery.Selection) {
		helpful := 0
		if el := card.Find(`[data-hook="helpful-vote-statement"]`).First(); el.Length() > 0 && s.Rules != nil {
			helpful = s.Rules.HelpfulFromText(el.Text())
		}
		vine := false
		if s.Rules != nil {
			vine = s.Rules.IsVine(card.Text())
		}
		records = append(records, types.ReviewRecord{
			StarRating:   starFromClass(card.Find(`[class*="a-star-"]`).First(), legacyStarRe),
			TextLength:   textLength(card.Find(".review-description, .review-text-content").First()),
			HasImage:     card.Find(".review-image-tile, img.review-image").Length() > 0,
			HelpfulVotes: helpful,
			IsVine:       vine,
		})
	})
	return records
}

// CountImages scans the raw page; legacy cards often lazy-load their media
// outside the card element.
func (LegacyStrategy) CountImages(doc *Document) int {
	return len(imageMarkerRe.FindAllStringIndex(doc.Raw, -1))
}

func starFromClass(sel *goquery.Selection, re *regexp.Regexp) int {
	if sel.Length() == 0 {
		return types.DefaultStarRating
	}
	class, _ := sel.Attr("class")
	m := re.FindStringSubmatch(class)
	if m == nil {
		return types.DefaultStarRating
	}
	n, err := strconv.Atoi(m[1])
	return normalizeStar(n, err == nil)
}

func textLength(sel *goquery.Selection) int {
	if sel.Length() == 0 {
		return 0
	}
	return utf8.RuneCountInString(strings.TrimSpace(sel.Text()))
}
