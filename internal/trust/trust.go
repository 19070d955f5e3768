// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trust runs the per-reviewer pipeline: cache lookup, acquisition
// through the queue, extraction with one fallback path, scoring, and
// persisting the outcome.
package trust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/pdiddy/review-trust/internal/acquire"
	"github.com/pdiddy/review-trust/internal/cache"
	"github.com/pdiddy/review-trust/internal/httputil"
	"github.com/pdiddy/review-trust/internal/score"
	"github.com/pdiddy/review-trust/pkg/types"
)

// DiagnosticLength is the number of characters kept from a page that
// failed extraction.
const DiagnosticLength = 500

// Acquirer fetches a URL through the rate-limited queue.
type Acquirer interface {
	Enqueue(ctx context.Context, url string, priority bool) (string, error)
}

// ResultCache stores outcomes per reviewer.
type ResultCache interface {
	Get(ctx context.Context, id string) (*cache.Entry, error)
	Put(ctx context.Context, id string, outcome types.Outcome, kind cache.Kind) error
	Remove(ctx context.Context, id string) error
}

// Extractor turns a page into records.
type Extractor interface {
	Extract(raw string) types.ExtractionResult
}

// Deps groups the collaborators a Service needs.
type Deps struct {
	Queue     Acquirer
	Cache     ResultCache
	Extractor Extractor
	Source    types.SourceConfig
	Scoring   types.ScoringConfig
	Logger    *slog.Logger

	// Workers bounds AnalyzeAll concurrency. Zero means one.
	Workers int
}

// Service is safe for concurrent use.
type Service struct {
	queue     Acquirer
	cache     ResultCache
	extractor Extractor
	source    types.SourceConfig
	scoring   types.ScoringConfig
	log       *slog.Logger
	workers   int

	// analyze is replaced in tests to inject scoring faults.
	analyze func([]types.ReviewRecord, int, types.ScoringConfig) (types.AnalysisStats, types.ScoreResult)
}

// New returns a Service.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := d.Workers
	if workers < 1 {
		workers = 1
	}
	return &Service{
		queue:     d.Queue,
		cache:     d.Cache,
		extractor: d.Extractor,
		source:    d.Source,
		scoring:   d.Scoring,
		log:       logger.With("component", "trust"),
		workers:   workers,
		analyze:   score.Analyze,
	}
}

// Analyze returns the cached outcome for id or runs the pipeline.
func (s *Service) Analyze(ctx context.Context, id string) types.Outcome {
	log := s.log.With("run", ulid.Make().String(), "reviewer", id)

	entry, err := s.cache.Get(ctx, id)
	if err != nil {
		log.Warn("cache read failed, treating as miss", "error", err)
	}
	if entry != nil {
		log.Debug("cache hit", "kind", entry.Kind(), "expires", entry.Expires())
		return entry.Outcome()
	}
	return s.run(ctx, id, false, log)
}

// Refresh drops any cached outcome for id and runs the pipeline with
// priority in the queue.
func (s *Service) Refresh(ctx context.Context, id string) types.Outcome {
	log := s.log.With("run", ulid.Make().String(), "reviewer", id)

	if err := s.cache.Remove(ctx, id); err != nil {
		log.Warn("cache remove failed", "error", err)
	}
	return s.run(ctx, id, true, log)
}

// Result pairs an identifier with its outcome.
type Result struct {
	ID      string        `json:"id" yaml:"id"`
	Outcome types.Outcome `json:"outcome" yaml:"outcome"`
}

// AnalyzeAll analyzes ids concurrently and returns results in input order.
// All fetches still go through the single queue.
func (s *Service) AnalyzeAll(ctx context.Context, ids []string) []Result {
	results := make([]Result, len(ids))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, id := range ids {
		results[i].ID = id
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i].Outcome = systemFailure(ctx.Err())
				return
			}
			defer func() { <-sem }()
			results[i].Outcome = s.Analyze(ctx, id)
		}()
	}
	wg.Wait()
	return results
}

// run executes the uncached pipeline. A panic anywhere in it becomes an
// uncached failure.
func (s *Service) run(ctx context.Context, id string, priority bool, log *slog.Logger) (out types.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("analysis panicked", "panic", r)
			out = types.Outcome{Failure: &types.Failure{Kind: types.ErrorSystem, Reason: fmt.Sprint(r)}}
		}
	}()

	target := s.profileURL(s.source.PrimaryPath, id)
	raw, err := s.queue.Enqueue(ctx, target, priority)
	if err != nil {
		return s.acquisitionFailure(ctx, id, err, log)
	}
	res := s.extractor.Extract(raw)

	if res.Failure == types.ExtractNoData && s.source.SecondaryPath != "" {
		log.Info("no records on primary page, trying secondary", "url", target)
		target = s.profileURL(s.source.SecondaryPath, id)
		raw, err = s.queue.Enqueue(ctx, target, priority)
		if err != nil {
			return s.acquisitionFailure(ctx, id, err, log)
		}
		res = s.extractor.Extract(raw)
	}

	if !res.OK() {
		out = types.Outcome{Failure: &types.Failure{
			Kind:       extractionKind(res.Failure),
			Reason:     string(res.Failure),
			Diagnostic: Diagnostic(raw),
		}}
		log.Info("extraction failed", "reason", res.Failure, "url", target)
		s.store(ctx, id, out, cache.KindFailure, log)
		return out
	}

	stats, sc, err := s.safeAnalyze(res)
	if err != nil {
		log.Error("scoring failed", "error", err)
		return types.Outcome{Failure: &types.Failure{Kind: types.ErrorScoringInternal, Reason: err.Error()}}
	}

	out = types.Outcome{Analysis: &types.Analysis{
		Stats: stats,
		Score: sc,
		Source: types.SourceMeta{
			Strategy:   res.Strategy,
			URL:        target,
			ImageCount: res.ImageCount,
		},
	}}
	log.Info("analyzed", "strategy", res.Strategy, "records", stats.Count, "score", sc.Value, "reasons", sc.Reasons)
	s.store(ctx, id, out, cache.KindSuccess, log)
	return out
}

// ErrScoring wraps a fault inside the scoring engine.
var ErrScoring = errors.New("scoring failed")

func (s *Service) safeAnalyze(res types.ExtractionResult) (stats types.AnalysisStats, sc types.ScoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrScoring, r)
		}
	}()
	stats, sc = s.analyze(res.Records, res.ImageCount, s.scoring)
	return stats, sc, nil
}

// acquisitionFailure classifies a queue error. Network failures are cached
// with the failure TTL; abuse-defense and unexpected errors are not.
func (s *Service) acquisitionFailure(ctx context.Context, id string, err error, log *slog.Logger) types.Outcome {
	switch {
	case acquire.IsAbuseDefense(err):
		log.Warn("acquisition blocked by circuit breaker", "error", err)
		return types.Outcome{Failure: &types.Failure{Kind: types.ErrorAbuseDefense, Reason: acquire.Reason(err)}}
	case httputil.Code(err) != "":
		out := types.Outcome{Failure: &types.Failure{Kind: types.ErrorNetwork, Reason: httputil.Code(err)}}
		log.Warn("acquisition failed", "code", httputil.Code(err))
		s.store(ctx, id, out, cache.KindFailure, log)
		return out
	default:
		log.Error("acquisition error", "error", err)
		return systemFailure(err)
	}
}

func (s *Service) store(ctx context.Context, id string, out types.Outcome, kind cache.Kind, log *slog.Logger) {
	if err := s.cache.Put(context.WithoutCancel(ctx), id, out, kind); err != nil {
		log.Warn("cache write failed", "error", err)
	}
}

func (s *Service) profileURL(path, id string) string {
	return strings.TrimRight(s.source.BaseURL, "/") + fmt.Sprintf(path, url.PathEscape(id))
}

func systemFailure(err error) types.Outcome {
	return types.Outcome{Failure: &types.Failure{Kind: types.ErrorSystem, Reason: err.Error()}}
}

func extractionKind(f types.ExtractFailure) types.ErrorKind {
	switch f {
	case types.ExtractHidden:
		return types.ErrorContentHidden
	case types.ExtractPrivate:
		return types.ErrorContentPrivate
	default:
		return types.ErrorContentUnrecognized
	}
}

// Diagnostic returns up to DiagnosticLength characters of raw starting at
// the body tag, or at the start when there is none.
func Diagnostic(raw string) string {
	if i := strings.Index(raw, "<body"); i >= 0 {
		raw = raw[i:]
	}
	if utf8.RuneCountInString(raw) <= DiagnosticLength {
		return raw
	}
	n := 0
	for i := range raw {
		if n == DiagnosticLength {
			return raw[:i]
		}
		n++
	}
	return raw
}
