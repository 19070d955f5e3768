// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire serializes outbound fetches to the upstream host. A single
// worker goroutine keeps at least MinInterval between the end of one request
// and the start of the next, adds a random jitter on top, lets priority
// requests jump the line, and stops all traffic through a CircuitBreaker
// when a bot-challenge page comes back.
package acquire

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/review-trust/internal/httputil"
	"github.com/pdiddy/review-trust/pkg/types"
)

type result struct {
	body string
	err  error
}

type job struct {
	ctx    context.Context
	url    string
	result chan result
}

func (j *job) finish(body string, err error) {
	j.result <- result{body: body, err: err}
}

// Queue is the single chokepoint for upstream traffic.
type Queue struct {
	fetcher httputil.Fetcher
	breaker *CircuitBreaker
	cfg     types.NetworkConfig
	limiter *rate.Limiter
	log     *slog.Logger

	mu      sync.Mutex
	pending []*job
	closed  bool

	wake chan struct{}
	stop context.CancelFunc
	ctx  context.Context
	done chan struct{}

	// Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
	rand  func() float64
}

// NewQueue starts the worker. Call Close to stop it.
func NewQueue(fetcher httputil.Fetcher, breaker *CircuitBreaker, cfg types.NetworkConfig, logger *slog.Logger) *Queue {
	q := newQueue(fetcher, breaker, cfg, logger)
	q.start()
	return q
}

func newQueue(fetcher httputil.Fetcher, breaker *CircuitBreaker, cfg types.NetworkConfig, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	// One token, refilled at MinInterval and taken when a request finishes.
	// Starting empty makes the first request wait too.
	limiter := rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	limiter.Reserve()
	return &Queue{
		fetcher: fetcher,
		breaker: breaker,
		cfg:     cfg,
		limiter: limiter,
		log:     logger.With("component", "acquire"),
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		stop:    cancel,
		done:    make(chan struct{}),
		sleep:   sleepCtx,
		rand:    rand.Float64,
	}
}

func (q *Queue) start() {
	go q.run()
}

// Breaker returns the breaker guarding this queue.
func (q *Queue) Breaker() *CircuitBreaker { return q.breaker }

// Enqueue schedules a GET of url and blocks until it completes or ctx is
// done. Priority requests go to the head of the line. If ctx ends while the
// request is still queued, the worker skips it; a request already in flight
// runs to completion under its own timeout.
func (q *Queue) Enqueue(ctx context.Context, url string, priority bool) (string, error) {
	if err := q.breaker.Check(ctx); err != nil {
		return "", err
	}

	j := &job{ctx: ctx, url: url, result: make(chan result, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}
	if priority {
		q.pending = append([]*job{j}, q.pending...)
	} else {
		q.pending = append(q.pending, j)
	}
	depth := len(q.pending)
	q.mu.Unlock()

	q.log.Debug("queued", "url", url, "priority", priority, "depth", depth)
	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case r := <-j.result:
		return r.body, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Len returns the number of requests waiting to be dequeued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops the worker and fails everything still queued with
// ErrQueueClosed. An in-flight request finishes first.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.stop()
	<-q.done

	for _, j := range q.drain() {
		j.finish("", ErrQueueClosed)
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		if !q.waitForWork() {
			return
		}
		if err := q.pace(); err != nil {
			return
		}
		if err := q.sleep(q.ctx, q.jitter()); err != nil {
			return
		}
		j := q.next()
		if j == nil {
			continue
		}
		q.process(j)
	}
}

func (q *Queue) waitForWork() bool {
	for {
		if q.Len() > 0 {
			return true
		}
		select {
		case <-q.wake:
		case <-q.ctx.Done():
			return false
		}
	}
}

// pace blocks until the limiter has refilled its token, which is MinInterval
// after the previous request finished.
func (q *Queue) pace() error {
	limit := q.limiter.Limit()
	if limit == rate.Inf || limit <= 0 {
		return nil
	}
	missing := 1 - q.limiter.Tokens()
	if missing <= 0 {
		return nil
	}
	return q.sleep(q.ctx, time.Duration(missing/float64(limit)*float64(time.Second)))
}

// jitter is drawn uniformly from [0, Jitter].
func (q *Queue) jitter() time.Duration {
	return time.Duration(q.rand() * float64(q.cfg.Jitter))
}

// next pops the head of the line, dropping requests whose caller gave up.
func (q *Queue) next() *job {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) > 0 {
		j := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		if j.ctx.Err() != nil {
			q.log.Debug("skipping abandoned request", "url", j.url)
			continue
		}
		return j
	}
	return nil
}

func (q *Queue) drain() []*job {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := q.pending
	q.pending = nil
	return jobs
}

func (q *Queue) process(j *job) {
	if q.breaker.IsOpen() {
		j.finish("", ErrCircuitOpenAbort)
		return
	}

	ctx := context.WithoutCancel(j.ctx)
	if q.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	body, err := q.fetcher.Fetch(ctx, j.url)
	q.limiter.Reserve()
	if err != nil {
		q.log.Warn("fetch failed", "url", j.url, "code", httputil.Code(err), "elapsed", time.Since(start))
		j.finish("", err)
		return
	}

	if marker := q.robotMarker(body); marker != "" {
		q.trip(j, marker)
		return
	}

	q.log.Debug("fetched", "url", j.url, "bytes", len(body), "elapsed", time.Since(start))
	j.finish(body, nil)
}

func (q *Queue) trip(j *job, marker string) {
	if err := q.breaker.Trip(context.WithoutCancel(j.ctx)); err != nil {
		q.log.Error("persisting circuit lock", "error", err)
	}
	aborted := q.drain()
	q.log.Error("bot challenge detected, circuit open",
		"url", j.url, "marker", marker, "aborted", len(aborted), "lock", q.cfg.LockDuration)
	for _, p := range aborted {
		p.finish("", ErrCircuitOpenAbort)
	}
	j.finish("", ErrRobotDetected)
}

func (q *Queue) robotMarker(body string) string {
	for _, m := range q.cfg.RobotMarkers {
		if m != "" && strings.Contains(body, m) {
			return m
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
