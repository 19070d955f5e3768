// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-trust/pkg/types"
)

// --- test helpers ---

func rec(star, length int) types.ReviewRecord {
	return types.ReviewRecord{StarRating: star, TextLength: length}
}

func repeat(r types.ReviewRecord, n int) []types.ReviewRecord {
	out := make([]types.ReviewRecord, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func cfg() types.ScoringConfig { return types.DefaultScoringConfig() }

// --- scenarios ---

func TestAnalyze_AllFiveStarDetailed(t *testing.T) {
	stats, sc := Analyze(repeat(rec(5, 200), 6), 0, cfg())

	assert.Equal(t, 6, stats.Count)
	assert.True(t, stats.Flags.AllFive)
	assert.False(t, stats.Flags.Diverse)
	assert.False(t, stats.Flags.Thin)
	assert.Equal(t, 200.0, stats.MeanLength)
	assert.Equal(t, 5.0, stats.MeanRating)

	// 50 - 25 + 10
	assert.Equal(t, 35, sc.Value)
	assert.False(t, sc.Uncertain)
	assert.Equal(t, []types.Reason{types.ReasonAllFive, types.ReasonDeep}, sc.Reasons)
}

func TestAnalyze_FewRecordsUncertain(t *testing.T) {
	_, sc := Analyze([]types.ReviewRecord{rec(4, 80), rec(3, 90), rec(2, 70)}, 0, cfg())

	assert.True(t, sc.Uncertain)
	require.NotEmpty(t, sc.Reasons)
	assert.Equal(t, types.ReasonFew, sc.Reasons[0])
	// Few carries no numeric effect: 50 + 7 (Div).
	assert.Equal(t, 57, sc.Value)
}

func TestAnalyze_GapSuppressesGold(t *testing.T) {
	records := []types.ReviewRecord{
		{StarRating: 3, TextLength: 300, HelpfulVotes: 5},
		{StarRating: 4, TextLength: 300, HelpfulVotes: 5},
		rec(5, 50),
	}
	stats, sc := Analyze(records, 0, cfg())

	assert.True(t, stats.Flags.Gap)
	assert.NotContains(t, sc.Reasons, types.ReasonGold)
	// 50 - 30 + 7 + 10 + helpful round(log2(10/3+1)*2.5)=5
	assert.Equal(t, 42, sc.Value)
	assert.Equal(t, []types.Reason{types.ReasonFew, types.ReasonGap, types.ReasonDiverse, types.ReasonDeep, types.ReasonHelpful}, sc.Reasons)
}

func TestAnalyze_GapScenario(t *testing.T) {
	stats, sc := Analyze([]types.ReviewRecord{rec(3, 300), rec(3, 300), rec(5, 50)}, 0, cfg())

	assert.True(t, stats.Flags.Gap)
	assert.Equal(t, 37, sc.Value)
	assert.Equal(t, []types.Reason{types.ReasonFew, types.ReasonGap, types.ReasonDiverse, types.ReasonDeep}, sc.Reasons)
}

func TestAnalyze_Empty(t *testing.T) {
	stats, sc := Analyze(nil, 7, cfg())

	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0, sc.Value)
	assert.True(t, sc.Uncertain)
	assert.Equal(t, []types.Reason{types.ReasonNoData}, sc.Reasons)
}

// --- flags ---

func TestAnalyze_Flags(t *testing.T) {
	tests := []struct {
		name    string
		records []types.ReviewRecord
		want    types.Flags
	}{
		{
			name:    "single middle rating is not diverse",
			records: []types.ReviewRecord{rec(3, 100), rec(5, 100), rec(1, 100)},
			want:    types.Flags{},
		},
		{
			name:    "two middle ratings are diverse",
			records: []types.ReviewRecord{rec(2, 100), rec(4, 100), rec(1, 100)},
			want:    types.Flags{Diverse: true},
		},
		{
			name:    "thin by mean length",
			records: []types.ReviewRecord{rec(1, 30), rec(1, 35)},
			want:    types.Flags{Thin: true},
		},
		{
			name:    "thin by two very short reviews",
			records: []types.ReviewRecord{rec(1, 10), rec(1, 5), rec(1, 500)},
			want:    types.Flags{Thin: true},
		},
		{
			name:    "one short review is not thin",
			records: []types.ReviewRecord{rec(1, 10), rec(1, 500)},
			want:    types.Flags{},
		},
		{
			name:    "zero mean length needs two short reviews",
			records: []types.ReviewRecord{rec(1, 0)},
			want:    types.Flags{},
		},
		{
			name: "one suspicious review is not a swarm",
			records: []types.ReviewRecord{
				{StarRating: 1, TextLength: 60, HelpfulVotes: 3},
				{StarRating: 1, TextLength: 39, HelpfulVotes: 3},
				{StarRating: 1, TextLength: 45, HelpfulVotes: 9},
			},
			want: types.Flags{},
		},
		{
			name: "swarm needs two suspicious reviews without images",
			records: []types.ReviewRecord{
				{StarRating: 1, TextLength: 100, HelpfulVotes: 3},
				{StarRating: 1, TextLength: 39, HelpfulVotes: 3},
				{StarRating: 1, TextLength: 45, HelpfulVotes: 4},
				{StarRating: 1, TextLength: 25, HelpfulVotes: 4, HasImage: true},
				{StarRating: 1, TextLength: 30, HelpfulVotes: 4},
			},
			want: types.Flags{Swarm: true},
		},
		{
			name:    "gap needs camouflage group",
			records: []types.ReviewRecord{rec(5, 10), rec(5, 10), rec(1, 900)},
			want:    types.Flags{Thin: true},
		},
		{
			name:    "gap needs substantive camouflage",
			records: []types.ReviewRecord{rec(3, 119), rec(5, 20)},
			want:    types.Flags{},
		},
		{
			name:    "gap ratio boundary is exclusive",
			records: []types.ReviewRecord{rec(3, 200), rec(5, 70)},
			want:    types.Flags{},
		},
		{
			name:    "gap",
			records: []types.ReviewRecord{rec(3, 200), rec(5, 69)},
			want:    types.Flags{Gap: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, _ := Analyze(tt.records, 0, cfg())
			assert.Equal(t, tt.want, stats.Flags)
		})
	}
}

// --- bonuses ---

func TestAnalyze_ImageRatio(t *testing.T) {
	withImage := types.ReviewRecord{StarRating: 1, TextLength: 100, HasImage: true}

	stats, sc := Analyze(append(repeat(rec(1, 100), 9), withImage), 0, cfg())
	assert.InDelta(t, 0.1, stats.ImageRatio, 1e-9)
	assert.Contains(t, sc.Reasons, types.ReasonImage)

	// Page-level count is used only when no record has its own image flag.
	stats, _ = Analyze(repeat(rec(1, 100), 4), 2, cfg())
	assert.Equal(t, 0.5, stats.ImageRatio)

	stats, _ = Analyze(repeat(rec(1, 100), 4), 40, cfg())
	assert.Equal(t, 1.0, stats.ImageRatio)

	stats, _ = Analyze(append(repeat(rec(1, 100), 3), withImage), 40, cfg())
	assert.Equal(t, 0.25, stats.ImageRatio)
}

func TestAnalyze_GoldAndHelpfulLabels(t *testing.T) {
	// Two qualifying camouflage reviews with 8 votes each:
	// gold = round(2*1.5 + log2(17)*2) = round(11.17) = 11
	// helpful mean = 16/5 = 3.2 -> round(log2(4.2)*2.5) = round(5.18) = 5
	records := []types.ReviewRecord{
		{StarRating: 3, TextLength: 200, HelpfulVotes: 8},
		{StarRating: 4, TextLength: 200, HelpfulVotes: 8},
		rec(1, 200), rec(1, 200), rec(1, 200),
	}
	_, sc := Analyze(records, 0, cfg())

	assert.Contains(t, sc.Reasons, types.ReasonGold)
	assert.NotContains(t, sc.Reasons, types.ReasonHelpful, "label is exclusive with Gold")
	// 50 + 7 + 10 + 11 + 5
	assert.Equal(t, 83, sc.Value)
}

func TestAnalyze_SmallGoldBonusHasNoLabel(t *testing.T) {
	// One camouflage review with 1 vote: gold = round(log2(2)*2) = 2.
	records := []types.ReviewRecord{
		{StarRating: 3, TextLength: 150, HelpfulVotes: 1},
		rec(1, 150), rec(1, 150), rec(1, 150), rec(1, 150),
	}
	_, sc := Analyze(records, 0, cfg())

	assert.NotContains(t, sc.Reasons, types.ReasonGold)
	assert.NotContains(t, sc.Reasons, types.ReasonHelpful)
	// 50 + 10 (Deep) + 2 (gold) + round(log2(1.2)*2.5)=1
	assert.Equal(t, 63, sc.Value)
}

func TestAnalyze_SwarmVoidsHelpfulBonuses(t *testing.T) {
	records := []types.ReviewRecord{
		{StarRating: 3, TextLength: 10, HelpfulVotes: 50},
		{StarRating: 4, TextLength: 10, HelpfulVotes: 50},
		{StarRating: 3, TextLength: 400, HelpfulVotes: 50},
	}
	stats, sc := Analyze(records, 0, cfg())

	require.True(t, stats.Flags.Swarm)
	assert.NotContains(t, sc.Reasons, types.ReasonGold)
	assert.NotContains(t, sc.Reasons, types.ReasonHelpful)
	// 50 - 15 (two under 20 characters) - 20 + 7
	assert.Equal(t, []types.Reason{types.ReasonFew, types.ReasonThin, types.ReasonSwarm, types.ReasonDiverse}, sc.Reasons)
	assert.Equal(t, 22, sc.Value)
}

// --- properties ---

func randomRecords(r *rand.Rand) []types.ReviewRecord {
	n := r.IntN(30)
	out := make([]types.ReviewRecord, n)
	for i := range out {
		out[i] = types.ReviewRecord{
			StarRating:   1 + r.IntN(5),
			TextLength:   r.IntN(600),
			HasImage:     r.IntN(4) == 0,
			HelpfulVotes: r.IntN(20),
			IsVine:       r.IntN(10) == 0,
		}
	}
	return out
}

func TestAnalyze_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		records := randomRecords(r)
		images := r.IntN(10)

		stats, sc := Analyze(records, images, cfg())

		sum := 0
		for _, c := range stats.StarDistribution {
			sum += c
		}
		require.Equal(t, stats.Count, sum)
		require.Equal(t, len(records) > 0 && stats.StarDistribution[5] == len(records), stats.Flags.AllFive)
		require.Equal(t, len(records) < cfg().Thresholds.Few, sc.Uncertain)
		require.GreaterOrEqual(t, sc.Value, 0)
		require.LessOrEqual(t, sc.Value, 100)

		seen := map[types.Reason]bool{}
		for _, reason := range sc.Reasons {
			require.False(t, seen[reason], "duplicate reason %s", reason)
			seen[reason] = true
		}

		stats2, sc2 := Analyze(records, images, cfg())
		require.Equal(t, stats, stats2)
		require.Equal(t, sc, sc2)
	}
}

func TestAnalyze_Clamped(t *testing.T) {
	low := cfg()
	low.Penalty = types.PenaltyConfig{AllFive: -100, Thin: -100, Swarm: -100, Gap: -100}
	_, sc := Analyze(repeat(rec(5, 5), 6), 0, low)
	assert.Equal(t, 0, sc.Value)

	high := cfg()
	high.Base = 95
	high.Bonus.Detail = 50
	_, sc = Analyze(repeat(rec(2, 500), 6), 0, high)
	assert.Equal(t, 100, sc.Value)
}

func TestAnalyze_ThresholdOverrides(t *testing.T) {
	detailed := repeat(rec(5, 200), 6)
	gap := []types.ReviewRecord{rec(3, 300), rec(3, 300), rec(5, 50)}

	tests := []struct {
		name      string
		records   []types.ReviewRecord
		override  func(*types.ThresholdConfig)
		has       types.Reason
		lacks     types.Reason
		uncertain bool
	}{
		{
			name:     "raised detail bar drops deep",
			records:  detailed,
			override:  func(th *types.ThresholdConfig) { th.DeepMeanLength = 250 },
			has:       types.ReasonAllFive,
			lacks:     types.ReasonDeep,
		},
		{
			name:      "raised few bar marks six records uncertain",
			records:   detailed,
			override:  func(th *types.ThresholdConfig) { th.Few = 10 },
			has:       types.ReasonFew,
			uncertain: true,
		},
		{
			name:     "tighter gap ratio clears the gap",
			records:  gap,
			override:  func(th *types.ThresholdConfig) { th.GapRatio = 0.1 },
			has:       types.ReasonDiverse,
			lacks:     types.ReasonGap,
			uncertain: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, base := Analyze(tt.records, 0, cfg())

			c := cfg()
			tt.override(&c.Thresholds)
			_, sc := Analyze(tt.records, 0, c)

			assert.Contains(t, sc.Reasons, tt.has)
			if tt.lacks != "" {
				assert.Contains(t, base.Reasons, tt.lacks, "default thresholds")
				assert.NotContains(t, sc.Reasons, tt.lacks)
			}
			assert.Equal(t, tt.uncertain, sc.Uncertain)
			assert.NotEqual(t, base, sc)
		})
	}
}

func TestAnalyze_OutOfRangeRatingCountsAsDefault(t *testing.T) {
	stats, _ := Analyze([]types.ReviewRecord{rec(0, 10), rec(9, 10)}, 0, cfg())
	assert.Equal(t, 2, stats.StarDistribution[3])
}

// --- grade and context ---

func TestGrade(t *testing.T) {
	g := cfg().Grades
	tests := []struct {
		value int
		want  string
	}{
		{100, "S"}, {90, "S"}, {89, "A"}, {75, "A"}, {74, "B"},
		{50, "B"}, {49, "C"}, {30, "C"}, {29, "D"}, {0, "D"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.value, g), "value %d", tt.value)
	}
}

func TestAdjustForContext(t *testing.T) {
	c := cfg().Context
	tests := []struct {
		name  string
		value int
		pc    types.PurchaseContext
		want  int
	}{
		{name: "verified", value: 60, pc: types.PurchaseContext{Verified: true}, want: 60},
		{name: "verified vine", value: 60, pc: types.PurchaseContext{Verified: true, Vine: true}, want: 60},
		{name: "vine", value: 60, pc: types.PurchaseContext{Vine: true}, want: 53},
		{name: "unverified", value: 60, want: 50},
		{name: "clamped", value: 4, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustForContext(tt.value, tt.pc, c))
		})
	}
}
