// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score turns a reviewer's record set into aggregate statistics,
// quality flags and a 0-100 trust score with the reasons behind it.
// Everything here is pure: no I/O and no shared state.
package score

import (
	"math"

	"github.com/pdiddy/review-trust/pkg/types"
)

// accumulator holds the single-pass sums.
type accumulator struct {
	dist            map[int]int
	sumStars        int
	sumLength       int
	shortCount      int
	imageCount      int
	sumHelpful      int
	suspicious      int
	flagshipCount   int
	flagshipLength  int
	camoCount       int
	camoLength      int
	goldCount       int
	goldHelpfulSum  int
	perRecordImages bool
}

func accumulate(records []types.ReviewRecord, th types.ThresholdConfig) accumulator {
	a := accumulator{dist: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	for _, r := range records {
		star := r.StarRating
		if star < 1 || star > 5 {
			star = types.DefaultStarRating
		}
		length := max(r.TextLength, 0)
		helpful := max(r.HelpfulVotes, 0)

		a.dist[star]++
		a.sumStars += star
		a.sumLength += length
		a.sumHelpful += helpful
		if length < th.ShortLength {
			a.shortCount++
		}
		if r.HasImage {
			a.imageCount++
			a.perRecordImages = true
		}
		if !r.HasImage && length < th.SwarmMaxLength && helpful >= th.SwarmMinHelpful {
			a.suspicious++
		}

		switch {
		case star == 5:
			a.flagshipCount++
			a.flagshipLength += length
		case star >= 2 && star <= 4:
			a.camoCount++
			a.camoLength += length
			if length >= th.GoldMinLength {
				if helpful >= th.GoldMinHelpful {
					a.goldCount++
				}
				if helpful >= 1 {
					a.goldHelpfulSum += helpful
				}
			}
		}
	}
	return a
}

// Analyze computes statistics and the score for records. imageCount is the
// page-level image tally used when no record carries its own image flag.
func Analyze(records []types.ReviewRecord, imageCount int, cfg types.ScoringConfig) (types.AnalysisStats, types.ScoreResult) {
	if len(records) == 0 {
		return types.AnalysisStats{StarDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}},
			types.ScoreResult{Value: 0, Uncertain: true, Reasons: []types.Reason{types.ReasonNoData}}
	}

	th := cfg.Thresholds
	a := accumulate(records, th)
	n := float64(len(records))

	stats := types.AnalysisStats{
		Count:            len(records),
		StarDistribution: a.dist,
		MeanRating:       float64(a.sumStars) / n,
		MeanLength:       float64(a.sumLength) / n,
		MeanHelpful:      float64(a.sumHelpful) / n,
	}

	switch {
	case a.perRecordImages:
		stats.ImageRatio = float64(a.imageCount) / n
	case imageCount > 0:
		stats.ImageRatio = math.Min(1, float64(imageCount)/n)
	}

	stats.Flags = types.Flags{
		AllFive: a.dist[5] == len(records),
		Diverse: a.dist[2]+a.dist[3]+a.dist[4] >= th.DiverseMinCount,
		Thin:    (stats.MeanLength > 0 && stats.MeanLength < th.ThinMeanLength) || a.shortCount >= th.ThinShortCount,
		Swarm:   a.suspicious >= th.SwarmMinCount,
		Gap:     hasGap(a, th),
	}

	return stats, scoreFrom(stats, a, cfg)
}

// hasGap reports a flagship group written far thinner than the camouflage
// group. Both groups must be present.
func hasGap(a accumulator, th types.ThresholdConfig) bool {
	if a.flagshipCount == 0 || a.camoCount == 0 {
		return false
	}
	camoMean := float64(a.camoLength) / float64(a.camoCount)
	flagshipMean := float64(a.flagshipLength) / float64(a.flagshipCount)
	return camoMean >= th.GapMinCamoLength && flagshipMean < camoMean*th.GapRatio
}

type reasons []types.Reason

func (r *reasons) add(x types.Reason) {
	for _, y := range *r {
		if y == x {
			return
		}
	}
	*r = append(*r, x)
}

func (r reasons) has(x types.Reason) bool {
	for _, y := range r {
		if y == x {
			return true
		}
	}
	return false
}

func scoreFrom(stats types.AnalysisStats, a accumulator, cfg types.ScoringConfig) types.ScoreResult {
	f := stats.Flags
	total := float64(cfg.Base)
	th := cfg.Thresholds
	why := reasons{}

	if stats.Count < th.Few {
		why.add(types.ReasonFew)
	}

	adjustments := []struct {
		on     bool
		amount int
		reason types.Reason
	}{
		{f.AllFive, cfg.Penalty.AllFive, types.ReasonAllFive},
		{f.Thin, cfg.Penalty.Thin, types.ReasonThin},
		{f.Swarm, cfg.Penalty.Swarm, types.ReasonSwarm},
		{f.Gap, cfg.Penalty.Gap, types.ReasonGap},
		{f.Diverse, cfg.Bonus.Diversity, types.ReasonDiverse},
		{stats.MeanLength >= th.DeepMeanLength, cfg.Bonus.Detail, types.ReasonDeep},
		{stats.ImageRatio >= th.ImageMinRatio, cfg.Bonus.Image, types.ReasonImage},
	}
	for _, p := range adjustments {
		if p.on {
			total += float64(p.amount)
			why.add(p.reason)
		}
	}

	// A swarm voids every helpfulness-based bonus.
	if !f.Swarm {
		if (a.goldCount > 0 || a.goldHelpfulSum > 0) && !f.Gap {
			raw := float64(a.goldCount)*1.5 + math.Log2(float64(a.goldHelpfulSum)+1)*2.0
			gold := min(cfg.Bonus.GoldMax, int(math.Round(raw)))
			total += float64(gold)
			if gold >= th.GoldLabelMin {
				why.add(types.ReasonGold)
			}
		}

		if stats.MeanHelpful > 0 {
			h := min(cfg.Bonus.HelpfulMax, int(math.Round(math.Log2(stats.MeanHelpful+1)*2.5)))
			total += float64(h)
			if stats.MeanHelpful >= th.HelpfulLabelMean && !why.has(types.ReasonGold) {
				why.add(types.ReasonHelpful)
			}
		}
	}

	total = math.Max(0, math.Min(100, total))
	return types.ScoreResult{
		Value:     int(math.Round(total)),
		Uncertain: stats.Count < th.Few,
		Reasons:   []types.Reason(why),
	}
}
