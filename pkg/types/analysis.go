// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Flags are the boolean quality signals derived from a record set.
type Flags struct {
	AllFive bool `json:"all_five" yaml:"all_five"`
	Diverse bool `json:"diverse" yaml:"diverse"`
	Thin    bool `json:"thin" yaml:"thin"`
	Swarm   bool `json:"swarm" yaml:"swarm"`
	Gap     bool `json:"gap" yaml:"gap"`
}

// AnalysisStats aggregates a reviewer's record set.
type AnalysisStats struct {
	Count int `json:"count" yaml:"count"`

	// StarDistribution maps each rating 1-5 to its occurrence count.
	StarDistribution map[int]int `json:"star_distribution" yaml:"star_distribution"`

	MeanRating  float64 `json:"mean_rating" yaml:"mean_rating"`
	MeanLength  float64 `json:"mean_length" yaml:"mean_length"`
	ImageRatio  float64 `json:"image_ratio" yaml:"image_ratio"`
	MeanHelpful float64 `json:"mean_helpful" yaml:"mean_helpful"`
	Flags       Flags   `json:"flags" yaml:"flags"`
}

// Reason identifies a signal that contributed to a score.
type Reason string

const (
	ReasonNoData  Reason = "NoData"
	ReasonFew     Reason = "Few"
	ReasonAllFive Reason = "All5"
	ReasonThin    Reason = "Thin"
	ReasonSwarm   Reason = "Swarm"
	ReasonGap     Reason = "Gap"
	ReasonDiverse Reason = "Div"
	ReasonDeep    Reason = "Deep"
	ReasonImage   Reason = "Img"
	ReasonGold    Reason = "Gold"
	ReasonHelpful Reason = "Helpful"
)

// ScoreResult is the trust score with its explanation.
type ScoreResult struct {
	// Value is the clamped 0-100 score.
	Value int `json:"value" yaml:"value"`

	// Uncertain is true when fewer than five records were analyzed.
	Uncertain bool `json:"uncertain" yaml:"uncertain"`

	// Reasons lists contributing signals in evaluation order, without duplicates.
	Reasons []Reason `json:"reasons" yaml:"reasons"`
}

// HasReason reports whether r is among the score's reasons.
func (s ScoreResult) HasReason(r Reason) bool {
	for _, x := range s.Reasons {
		if x == r {
			return true
		}
	}
	return false
}

// SourceMeta records where and how a record set was obtained.
type SourceMeta struct {
	Strategy   Strategy `json:"strategy" yaml:"strategy"`
	URL        string   `json:"url" yaml:"url"`
	ImageCount int      `json:"image_count" yaml:"image_count"`
}

// Analysis is the success payload of an analysis run.
type Analysis struct {
	Stats  AnalysisStats `json:"stats" yaml:"stats"`
	Score  ScoreResult   `json:"score" yaml:"score"`
	Source SourceMeta    `json:"source" yaml:"source"`
}

// ErrorKind is the failure taxonomy surfaced to callers.
type ErrorKind string

const (
	ErrorNetwork             ErrorKind = "NETWORK"
	ErrorAbuseDefense        ErrorKind = "ABUSE_DEFENSE"
	ErrorContentHidden       ErrorKind = "CONTENT_HIDDEN"
	ErrorContentPrivate      ErrorKind = "CONTENT_PRIVATE"
	ErrorContentUnrecognized ErrorKind = "CONTENT_UNRECOGNIZED"
	ErrorScoringInternal     ErrorKind = "SCORING_INTERNAL"
	ErrorSystem              ErrorKind = "SYSTEM"
)

// Failure is the failure payload of an analysis run.
type Failure struct {
	Kind ErrorKind `json:"kind" yaml:"kind"`

	// Reason is the low-level cause, e.g. "HTTP_503", "NO_DATA" or an error message.
	Reason string `json:"reason" yaml:"reason"`

	// Diagnostic is a short excerpt of the fetched content, when there was any.
	Diagnostic string `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
}

// Retryable reports whether a caller should offer a retry. Abuse-defense
// failures stay locked until the breaker lock expires or the process restarts.
func (f Failure) Retryable() bool {
	return f.Kind != ErrorAbuseDefense
}

// Outcome is the discriminated result of analyzing one reviewer: exactly
// one of Analysis or Failure is set.
type Outcome struct {
	Analysis *Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Failure  *Failure  `json:"failure,omitempty" yaml:"failure,omitempty"`

	// Cached is set when the outcome was served from the result cache.
	Cached bool `json:"cached,omitempty" yaml:"cached,omitempty"`
}

// OK reports whether the outcome carries an analysis.
func (o Outcome) OK() bool {
	return o.Analysis != nil
}

// PurchaseContext describes the review being evaluated on the consumer side.
type PurchaseContext struct {
	// Verified marks a review backed by a purchase on the platform.
	Verified bool `json:"verified" yaml:"verified"`

	// Vine marks a review of an item received through the promotional program.
	Vine bool `json:"vine" yaml:"vine"`
}
