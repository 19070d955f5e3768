// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/review-trust/pkg/types"
)

const (
	stateSelector  = `script[type="a-state"]`
	stateAttr      = "data-a-state"
	stateProfileID = "page-state-profile"
	timelinePath   = "reviewsTimeline.shopItemModels"
	reviewItemType = "Review"
	vineBadge      = "Vine"
)

// StateStrategy reads the JSON state blocks the profile page embeds in
// script tags.
type StateStrategy struct {
	Rules *Rules
}

func (StateStrategy) Name() types.Strategy { return types.StrategyStateData }

// TryExtract walks every profile state block. A block that is not valid
// JSON is skipped; the rest are still read.
func (s StateStrategy) TryExtract(doc *Document) []types.ReviewRecord {
	if doc.DOM == nil {
		return nil
	}

	var records []types.ReviewRecord
	doc.DOM.Find(stateSelector).Each(func(_ int, sel *goquery.Selection) {
		attr, _ := sel.Attr(stateAttr)
		if !strings.Contains(attr, stateProfileID) {
			return
		}
		payload := sel.Text()
		if !gjson.Valid(payload) {
			return
		}
		gjson.Get(payload, timelinePath).ForEach(func(_, item gjson.Result) bool {
			rm := item.Get("reviewModel")
			if item.Get("itemContentType").String() != reviewItemType || !rm.IsObject() {
				return true
			}
			records = append(records, s.record(rm))
			return true
		})
	})
	return records
}

func (s StateStrategy) record(rm gjson.Result) types.ReviewRecord {
	visuals := rm.Get("visualElements")
	return types.ReviewRecord{
		StarRating:   stateRating(rm.Get("rating")),
		TextLength:   utf8.RuneCountInString(rm.Get("description").String()),
		HasImage:     visuals.IsArray() && len(visuals.Array()) > 0,
		HelpfulVotes: s.helpful(rm),
		IsVine:       hasVineBadge(rm.Get("badges")),
	}
}

// helpful prefers a positive numeric hearts field, then the localized
// helpful-vote phrase.
func (s StateStrategy) helpful(rm gjson.Result) int {
	if h := rm.Get("hearts"); h.Type == gjson.Number && h.Int() > 0 {
		return int(h.Int())
	}
	if t := rm.Get("helpfulVoteText"); t.Exists() && s.Rules != nil {
		return s.Rules.HelpfulFromText(t.String())
	}
	return 0
}

func stateRating(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		return normalizeStar(int(v.Float()), true)
	case gjson.String:
		return normalizeStar(leadingInt(v.String()))
	default:
		return types.DefaultStarRating
	}
}

func hasVineBadge(badges gjson.Result) bool {
	if badges.IsArray() {
		for _, b := range badges.Array() {
			if b.String() == vineBadge {
				return true
			}
		}
		return false
	}
	return badges.Type == gjson.String && strings.Contains(badges.String(), vineBadge)
}
