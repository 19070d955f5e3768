// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report turns analysis outcomes into what a reader sees: the
// context-adjusted score, its grade letter, and the labelled reasons.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-trust/internal/score"
	"github.com/pdiddy/review-trust/internal/trust"
	"github.com/pdiddy/review-trust/pkg/types"
)

// Output formats accepted by Render.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Tag is the reader-facing label for a reason identifier.
type Tag struct {
	Label       string
	Description string
	Negative    bool
}

var tags = map[types.Reason]Tag{
	types.ReasonDiverse: {"Natural spread", "Ratings are spread naturally with no extreme skew.", false},
	types.ReasonDeep:    {"Detailed", "Tends to write comparatively long, detailed reviews.", false},
	types.ReasonImage:   {"Photos", "Has posted product photos, which suggests hands-on use.", false},
	types.ReasonGold:    {"High quality", "Detailed reviews that others consistently rate as useful.", false},
	types.ReasonHelpful: {"Helpful", "Collects many helpful votes from other shoppers.", false},
	types.ReasonAllFive: {"All 5 stars", "Every posted review is five stars; strong bias is likely.", true},
	types.ReasonThin:    {"Thin", "Reviews are short overall and carry little information.", true},
	types.ReasonSwarm:   {"Vote swarm", "Short reviews with an unnatural number of helpful votes.", true},
	types.ReasonFew:     {"Few reviews", "Too few reviews to judge with confidence.", true},
	types.ReasonGap:     {"Effort gap", "Five-star reviews are far thinner than the reviewer's other reviews.", true},
	types.ReasonNoData:  {"No data", "No reviews could be read for this reviewer.", true},
}

// Describe returns the tag for r. Unknown reasons get their identifier as
// the label and no description.
func Describe(r types.Reason) Tag {
	if t, ok := tags[r]; ok {
		return t
	}
	return Tag{Label: string(r)}
}

// Row is one rendered reviewer.
type Row struct {
	ID        string         `json:"id" yaml:"id"`
	Score     int            `json:"score" yaml:"score"`
	RawScore  int            `json:"raw_score" yaml:"raw_score"`
	Grade     string         `json:"grade" yaml:"grade"`
	Uncertain bool           `json:"uncertain" yaml:"uncertain"`
	Reasons   []types.Reason `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	Reviews   int            `json:"reviews" yaml:"reviews"`
	Cached    bool           `json:"cached" yaml:"cached"`

	Error     types.ErrorKind `json:"error,omitempty" yaml:"error,omitempty"`
	Detail    string          `json:"detail,omitempty" yaml:"detail,omitempty"`
	Retryable bool            `json:"retryable,omitempty" yaml:"retryable,omitempty"`
}

// Build applies the purchase context and grading to each result.
func Build(results []trust.Result, pc types.PurchaseContext, cfg types.ScoringConfig) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		row := Row{ID: r.ID, Cached: r.Outcome.Cached}
		switch {
		case r.Outcome.Analysis != nil:
			a := r.Outcome.Analysis
			row.RawScore = a.Score.Value
			row.Score = score.AdjustForContext(a.Score.Value, pc, cfg.Context)
			row.Grade = score.Grade(row.Score, cfg.Grades)
			row.Uncertain = a.Score.Uncertain
			row.Reasons = a.Score.Reasons
			row.Reviews = a.Stats.Count
		case r.Outcome.Failure != nil:
			row.Error = r.Outcome.Failure.Kind
			row.Detail = r.Outcome.Failure.Reason
			row.Retryable = r.Outcome.Failure.Retryable()
		}
		rows = append(rows, row)
	}
	return rows
}

// Render writes rows to w in the given format.
func Render(w io.Writer, rows []Row, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return renderTable(w, rows)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

var (
	green  = color.New(color.FgHiGreen).SprintFunc()
	cyan   = color.New(color.FgHiCyan).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
)

// GradeColor colors a grade letter.
func GradeColor(g string) string {
	switch g {
	case score.GradeS, score.GradeA:
		return green(g)
	case score.GradeB:
		return cyan(g)
	case score.GradeC:
		return yellow(g)
	default:
		return red(g)
	}
}

func tagList(reasons []types.Reason) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		t := Describe(r)
		if t.Negative {
			parts = append(parts, red(t.Label))
		} else {
			parts = append(parts, green(t.Label))
		}
	}
	return strings.Join(parts, ", ")
}

func renderTable(w io.Writer, rows []Row) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header([]string{"Reviewer", "Grade", "Score", "Reviews", "Tags"})

	for _, r := range rows {
		var line []string
		if r.Error != "" {
			line = []string{r.ID, red("-"), "-", "-", red(fmt.Sprintf("%s (%s)", r.Error, r.Detail))}
		} else {
			s := strconv.Itoa(r.Score)
			if r.Uncertain {
				s += "?"
			}
			if r.Cached {
				s += " *"
			}
			line = []string{r.ID, GradeColor(r.Grade), s, strconv.Itoa(r.Reviews), tagList(r.Reasons)}
		}
		if err := table.Append(line); err != nil {
			return fmt.Errorf("appending row %s: %w", r.ID, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}
