// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a fetched profile page into normalized review
// records. An ordered chain of strategies is tried, richest source first,
// and the first non-empty result wins. When every strategy comes back
// empty the page is classified as hidden, private or unrecognized.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/review-trust/pkg/types"
)

// Document is a fetched page parsed once and shared by every strategy.
type Document struct {
	Raw string

	// DOM is nil when the page could not be parsed as HTML.
	DOM *goquery.Document
}

// NewDocument parses raw. A parse failure leaves DOM nil; marker checks on
// Raw still work.
func NewDocument(raw string) *Document {
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		dom = nil
	}
	return &Document{Raw: raw, DOM: dom}
}

// Strategy recovers records from one known page shape. An empty result
// means the shape was not found.
type Strategy interface {
	Name() types.Strategy
	TryExtract(doc *Document) []types.ReviewRecord
}

// ImageCounter is implemented by strategies whose per-record image
// detection is unreliable. Its count replaces the per-record tally.
type ImageCounter interface {
	CountImages(doc *Document) int
}

// Rules holds the compiled marker configuration strategies consult.
type Rules struct {
	helpful []*regexp.Regexp
	vine    []string
	hidden  []string
	private []string
}

// CompileRules validates and compiles cfg.
func CompileRules(cfg types.MarkerConfig) (*Rules, error) {
	r := &Rules{
		vine:    cfg.VineMarkers,
		hidden:  cfg.HiddenMarkers,
		private: cfg.PrivateMarkers,
	}
	for _, p := range cfg.HelpfulPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling helpful pattern %q: %w", p, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("helpful pattern %q has no capture group", p)
		}
		r.helpful = append(r.helpful, re)
	}
	return r, nil
}

// HelpfulFromText returns the vote count from a localized phrase, or 0.
func (r *Rules) HelpfulFromText(s string) int {
	for _, re := range r.helpful {
		if m := re.FindStringSubmatch(s); m != nil {
			if n, ok := leadingInt(m[1]); ok {
				return n
			}
		}
	}
	return 0
}

// IsVine reports whether s carries a promotional-program marker.
func (r *Rules) IsVine(s string) bool {
	return containsAny(s, r.vine)
}

// Extractor runs the strategy chain.
type Extractor struct {
	rules      *Rules
	strategies []Strategy
}

// New returns an Extractor with the default chain: embedded state, modern
// markup, legacy markup.
func New(cfg types.MarkerConfig) (*Extractor, error) {
	rules, err := CompileRules(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStrategies(rules, StateStrategy{Rules: rules}, ModernStrategy{}, LegacyStrategy{Rules: rules}), nil
}

// NewWithStrategies returns an Extractor trying strategies in order.
func NewWithStrategies(rules *Rules, strategies ...Strategy) *Extractor {
	return &Extractor{rules: rules, strategies: strategies}
}

// Extract runs the chain over raw.
func (e *Extractor) Extract(raw string) types.ExtractionResult {
	doc := NewDocument(raw)

	for _, s := range e.strategies {
		records := s.TryExtract(doc)
		if len(records) == 0 {
			continue
		}
		images := 0
		if ic, ok := s.(ImageCounter); ok {
			images = ic.CountImages(doc)
		} else {
			for _, r := range records {
				if r.HasImage {
					images++
				}
			}
		}
		return types.ExtractionResult{Records: records, Strategy: s.Name(), ImageCount: images}
	}

	return types.ExtractionResult{Strategy: types.StrategyUnknown, Failure: e.classify(raw)}
}

func (e *Extractor) classify(raw string) types.ExtractFailure {
	switch {
	case containsAny(raw, e.rules.hidden):
		return types.ExtractHidden
	case containsAny(raw, e.rules.private):
		return types.ExtractPrivate
	default:
		return types.ExtractNoData
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// leadingInt parses the digits at the start of s after trimming, ignoring
// thousands separators. "12 people" yields 12.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, c := range s {
		if c == ',' && b.Len() > 0 {
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		b.WriteRune(c)
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeStar maps anything outside 1-5 to the default rating.
func normalizeStar(n int, ok bool) int {
	if !ok || n < 1 || n > 5 {
		return types.DefaultStarRating
	}
	return n
}
