// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the review-trust pipeline:
// extracted review records, analysis statistics, score results, the
// discriminated analysis outcome, and configuration.
package types

// ReviewRecord is one review recovered from a reviewer's profile.
type ReviewRecord struct {
	// StarRating is the 1-5 rating; 3 when the source did not expose one.
	StarRating int `json:"star_rating" yaml:"star_rating"`

	// TextLength is the number of characters in the review body.
	TextLength int `json:"text_length" yaml:"text_length"`

	// HasImage reports whether this review is known to carry submitted media.
	HasImage bool `json:"has_image" yaml:"has_image"`

	// HelpfulVotes counts the "found this helpful" signals.
	HelpfulVotes int `json:"helpful_votes" yaml:"helpful_votes"`

	// IsVine marks items received free of charge through a promotional review program.
	IsVine bool `json:"is_vine" yaml:"is_vine"`
}

// DefaultStarRating is used when a rating cannot be recovered.
const DefaultStarRating = 3

// Strategy names the extraction strategy that produced a record set.
type Strategy string

const (
	StrategyUnknown      Strategy = "UNKNOWN"
	StrategyStateData    Strategy = "STATE_DATA"
	StrategyModernMarkup Strategy = "MODERN_MARKUP"
	StrategyLegacyMarkup Strategy = "LEGACY_MARKUP"
)

// ExtractFailure classifies why no records were recovered from a page.
type ExtractFailure string

const (
	ExtractHidden  ExtractFailure = "HIDDEN"
	ExtractPrivate ExtractFailure = "PRIVATE"
	ExtractNoData  ExtractFailure = "NO_DATA"
)

// ExtractionResult is either a non-empty record set with its strategy and
// image count, or a Failure classification.
type ExtractionResult struct {
	Records    []ReviewRecord `json:"records,omitempty" yaml:"records,omitempty"`
	Strategy   Strategy       `json:"strategy" yaml:"strategy"`
	ImageCount int            `json:"image_count" yaml:"image_count"`
	Failure    ExtractFailure `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// OK reports whether extraction recovered at least one record.
func (r ExtractionResult) OK() bool {
	return r.Failure == "" && len(r.Records) > 0
}
