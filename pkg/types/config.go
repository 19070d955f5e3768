// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceConfig locates the upstream profile pages.
type SourceConfig struct {
	// BaseURL is the scheme and host of the upstream site.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// PrimaryPath is a fmt template taking the reviewer identifier.
	PrimaryPath string `json:"primary_path" yaml:"primary_path" mapstructure:"primary_path"`

	// SecondaryPath is fetched once when the primary page yields no data.
	SecondaryPath string `json:"secondary_path" yaml:"secondary_path" mapstructure:"secondary_path"`
}

// NetworkConfig holds the acquisition queue cadence and circuit breaker settings.
type NetworkConfig struct {
	// MinInterval is the minimum gap between the end of one upstream request
	// and the start of the next.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval" mapstructure:"min_interval"`

	// Jitter is the upper bound of the random delay added to MinInterval.
	Jitter time.Duration `json:"jitter" yaml:"jitter" mapstructure:"jitter"`

	// Timeout applies to each request independently of queue depth.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// LockDuration is how long a tripped breaker keeps later runs locked out.
	LockDuration time.Duration `json:"lock_duration" yaml:"lock_duration" mapstructure:"lock_duration"`

	// UserAgent is sent with every request unless a secret overrides it.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RobotMarkers are substrings that identify a bot-challenge page.
	RobotMarkers []string `json:"robot_markers" yaml:"robot_markers" mapstructure:"robot_markers"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Prefix     string        `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	TTLSuccess time.Duration `json:"ttl_success" yaml:"ttl_success" mapstructure:"ttl_success"`
	TTLFail    time.Duration `json:"ttl_fail" yaml:"ttl_fail" mapstructure:"ttl_fail"`
}

// BonusConfig holds the positive score adjustments.
type BonusConfig struct {
	Diversity  int `json:"diversity" yaml:"diversity" mapstructure:"diversity"`
	Detail     int `json:"detail" yaml:"detail" mapstructure:"detail"`
	Image      int `json:"image" yaml:"image" mapstructure:"image"`
	HelpfulMax int `json:"helpful_max" yaml:"helpful_max" mapstructure:"helpful_max"`
	GoldMax    int `json:"gold_max" yaml:"gold_max" mapstructure:"gold_max"`
}

// PenaltyConfig holds the negative score adjustments (stored as negative numbers).
type PenaltyConfig struct {
	AllFive int `json:"all_five" yaml:"all_five" mapstructure:"all_five"`
	Thin    int `json:"thin" yaml:"thin" mapstructure:"thin"`
	Swarm   int `json:"swarm" yaml:"swarm" mapstructure:"swarm"`
	Gap     int `json:"gap" yaml:"gap" mapstructure:"gap"`
}

// ContextPenaltyConfig holds adjustments the consuming layer applies for
// the review under evaluation. The scoring engine never reads these.
type ContextPenaltyConfig struct {
	Unverified int `json:"unverified" yaml:"unverified" mapstructure:"unverified"`
	Vine       int `json:"vine" yaml:"vine" mapstructure:"vine"`
}

// GradeConfig holds the descending grade thresholds. Anything below C is D.
type GradeConfig struct {
	S int `json:"s" yaml:"s" mapstructure:"s"`
	A int `json:"a" yaml:"a" mapstructure:"a"`
	B int `json:"b" yaml:"b" mapstructure:"b"`
	C int `json:"c" yaml:"c" mapstructure:"c"`
}

// ThresholdConfig holds the cut-offs the quality flags and bonus labels are
// evaluated against. Lengths are in characters.
type ThresholdConfig struct {
	// Few is the record count below which a score is uncertain.
	Few int `json:"few" yaml:"few" mapstructure:"few"`

	ShortLength      int     `json:"short_length" yaml:"short_length" mapstructure:"short_length"`
	ThinShortCount   int     `json:"thin_short_count" yaml:"thin_short_count" mapstructure:"thin_short_count"`
	ThinMeanLength   float64 `json:"thin_mean_length" yaml:"thin_mean_length" mapstructure:"thin_mean_length"`
	SwarmMaxLength   int     `json:"swarm_max_length" yaml:"swarm_max_length" mapstructure:"swarm_max_length"`
	SwarmMinHelpful  int     `json:"swarm_min_helpful" yaml:"swarm_min_helpful" mapstructure:"swarm_min_helpful"`
	SwarmMinCount    int     `json:"swarm_min_count" yaml:"swarm_min_count" mapstructure:"swarm_min_count"`
	DiverseMinCount  int     `json:"diverse_min_count" yaml:"diverse_min_count" mapstructure:"diverse_min_count"`
	GapMinCamoLength float64 `json:"gap_min_camo_length" yaml:"gap_min_camo_length" mapstructure:"gap_min_camo_length"`
	GapRatio         float64 `json:"gap_ratio" yaml:"gap_ratio" mapstructure:"gap_ratio"`
	DeepMeanLength   float64 `json:"deep_mean_length" yaml:"deep_mean_length" mapstructure:"deep_mean_length"`
	ImageMinRatio    float64 `json:"image_min_ratio" yaml:"image_min_ratio" mapstructure:"image_min_ratio"`
	GoldMinLength    int     `json:"gold_min_length" yaml:"gold_min_length" mapstructure:"gold_min_length"`
	GoldMinHelpful   int     `json:"gold_min_helpful" yaml:"gold_min_helpful" mapstructure:"gold_min_helpful"`
	GoldLabelMin     int     `json:"gold_label_min" yaml:"gold_label_min" mapstructure:"gold_label_min"`
	HelpfulLabelMean float64 `json:"helpful_label_mean" yaml:"helpful_label_mean" mapstructure:"helpful_label_mean"`
}

// ScoringConfig holds every magnitude the scoring engine and grade lookup use.
type ScoringConfig struct {
	Base       int                  `json:"base" yaml:"base" mapstructure:"base"`
	Bonus      BonusConfig          `json:"bonus" yaml:"bonus" mapstructure:"bonus"`
	Penalty    PenaltyConfig        `json:"penalty" yaml:"penalty" mapstructure:"penalty"`
	Context    ContextPenaltyConfig `json:"context" yaml:"context" mapstructure:"context"`
	Grades     GradeConfig          `json:"grades" yaml:"grades" mapstructure:"grades"`
	Thresholds ThresholdConfig      `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds"`
}

// MarkerConfig holds the localized phrases the extractor looks for.
type MarkerConfig struct {
	// HelpfulPatterns are regular expressions whose first group is the vote count.
	HelpfulPatterns []string `json:"helpful_patterns" yaml:"helpful_patterns" mapstructure:"helpful_patterns"`

	// VineMarkers identify promotional-program reviews in legacy markup.
	VineMarkers []string `json:"vine_markers" yaml:"vine_markers" mapstructure:"vine_markers"`

	// HiddenMarkers identify a profile whose reviews are hidden.
	HiddenMarkers []string `json:"hidden_markers" yaml:"hidden_markers" mapstructure:"hidden_markers"`

	// PrivateMarkers identify a private profile or one without public activity.
	PrivateMarkers []string `json:"private_markers" yaml:"private_markers" mapstructure:"private_markers"`
}

// KVConfig selects the durable key-value backend.
type KVConfig struct {
	// Driver is one of "sqlite", "postgres" or "memory".
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// DSN is the Postgres connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`

	// Table holds the key-value rows.
	Table string `json:"table" yaml:"table" mapstructure:"table"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for the pipeline.
type Config struct {
	Source  SourceConfig  `json:"source" yaml:"source" mapstructure:"source"`
	Network NetworkConfig `json:"network" yaml:"network" mapstructure:"network"`
	Cache   CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Scoring ScoringConfig `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Markers MarkerConfig  `json:"markers" yaml:"markers" mapstructure:"markers"`
	KV      KVConfig      `json:"kv" yaml:"kv" mapstructure:"kv"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`

	// Workers bounds how many identifiers are analyzed concurrently. All of
	// them still share the single acquisition queue.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// DefaultScoringConfig returns the tuned scoring magnitudes.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Base: 50,
		Bonus: BonusConfig{
			Diversity:  7,
			Detail:     10,
			Image:      8,
			HelpfulMax: 10,
			GoldMax:    15,
		},
		Penalty: PenaltyConfig{
			AllFive: -25,
			Thin:    -15,
			Swarm:   -20,
			Gap:     -30,
		},
		Context: ContextPenaltyConfig{
			Unverified: -10,
			Vine:       -7,
		},
		Grades: GradeConfig{S: 90, A: 75, B: 50, C: 30},
		Thresholds: ThresholdConfig{
			Few:              5,
			ShortLength:      20,
			ThinShortCount:   2,
			ThinMeanLength:   40,
			SwarmMaxLength:   40,
			SwarmMinHelpful:  3,
			SwarmMinCount:    2,
			DiverseMinCount:  2,
			GapMinCamoLength: 120,
			GapRatio:         0.35,
			DeepMeanLength:   150,
			ImageMinRatio:    0.1,
			GoldMinLength:    150,
			GoldMinHelpful:   3,
			GoldLabelMin:     3,
			HelpfulLabelMean: 3,
		},
	}
}

// DefaultMarkerConfig returns the phrases of the Japanese storefront plus
// their English equivalents.
func DefaultMarkerConfig() MarkerConfig {
	return MarkerConfig{
		HelpfulPatterns: []string{
			`(\d+)人`,
			`([\d,]+) (?:people|person) found this helpful`,
		},
		VineMarkers:    []string{"Vine先取り", "Vine Customer Review"},
		HiddenMarkers:  []string{"レビューは非表示になっています。", "reviews are hidden"},
		PrivateMarkers: []string{"公開されているアクティビティはありません", "private-profile", "No public activity"},
	}
}

// DefaultConfig returns a fully populated configuration.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			BaseURL:       "https://www.amazon.co.jp",
			PrimaryPath:   "/gp/profile/%s",
			SecondaryPath: "/gp/profile/%s/reviews",
		},
		Network: NetworkConfig{
			MinInterval:  2500 * time.Millisecond,
			Jitter:       1500 * time.Millisecond,
			Timeout:      15 * time.Second,
			LockDuration: 15 * time.Minute,
			UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) review-trust/0.1",
			RobotMarkers: []string{"Amazon CAPTCHA", "Robot Check"},
		},
		Cache: CacheConfig{
			Prefix:     "tr4:",
			TTLSuccess: 7 * 24 * time.Hour,
			TTLFail:    24 * time.Hour,
		},
		Scoring: DefaultScoringConfig(),
		Markers: DefaultMarkerConfig(),
		KV: KVConfig{
			Driver: "sqlite",
			Path:   "data/review-trust.db",
			Table:  "kv",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Workers: 4,
	}
}
