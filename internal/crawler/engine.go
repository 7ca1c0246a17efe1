// Package crawler drives the crawl: it owns the frontier, bounds the
// number of concurrent fetches and admits each discovered address once.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"crawly/internal/frontier"
	"crawly/internal/metrics"
	"crawly/internal/parser"
	"crawly/internal/storage"
)

// ErrInvalidSeed is returned by Run for a seed that is not an absolute
// http(s) URL.
var ErrInvalidSeed = errors.New("invalid seed URL")

// Engine is the crawl scheduler. The concurrency bound and counters may be
// read and changed while Run is in progress.
type Engine struct {
	fetcher   Fetcher
	extract   Extractor
	robots    RobotsPolicy
	sink      Sink
	counters  *metrics.Counters
	archive   archiver
	logger    *slog.Logger
	timeout   time.Duration
	tick      time.Duration
	maxActive atomic.Int64
}

// New returns an Engine. It panics when opts.Fetcher is nil.
func New(opts Options) *Engine {
	if opts.Fetcher == nil {
		panic("crawler: nil Fetcher")
	}
	e := &Engine{
		fetcher:  opts.Fetcher,
		extract:  opts.Extractor,
		robots:   opts.Robots,
		sink:     opts.Sink,
		counters: opts.Counters,
		logger:   opts.Logger,
		timeout:  opts.FetchTimeout,
		tick:     opts.Tick,
	}
	if e.extract == nil {
		e.extract = parser.Links
	}
	if e.robots == nil {
		e.robots = allowAll{}
	}
	if e.sink == nil {
		e.sink = nopSink{}
	}
	if e.counters == nil {
		e.counters = metrics.New(nil)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.timeout <= 0 {
		e.timeout = DefaultFetchTimeout
	}
	if e.tick <= 0 {
		e.tick = DefaultTick
	}
	store := opts.Archive
	if _, ok := store.(storage.Nop); ok {
		store = nil
	}
	words := opts.SummaryWords
	if words <= 0 {
		words = DefaultSummaryWords
	}
	e.archive = archiver{
		store:  store,
		words:  words,
		logger: e.logger,
		warn:   &rate.Sometimes{First: 3, Interval: 30 * time.Second},
	}

	concurrency := opts.MaxConcurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	e.SetConcurrency(concurrency)
	return e
}

// MaxConcurrency is the current bound on in-flight fetches.
func (e *Engine) MaxConcurrency() int {
	return int(e.maxActive.Load())
}

// SetConcurrency changes the bound. It takes effect at the next dispatch;
// running fetches are never cancelled. Negative values are clamped to 0.
func (e *Engine) SetConcurrency(n int) {
	if n < 0 {
		n = 0
	}
	e.maxActive.Store(int64(n))
	e.counters.SetMaxConcurrency(n)
}

// Stats returns the live counters.
func (e *Engine) Stats() metrics.Snapshot {
	return e.counters.Snapshot()
}

// Run crawls from seed until the frontier is empty and no fetch is in
// flight, and returns the number of distinct addresses admitted. Fetch
// failures never stop the crawl. When ctx is cancelled Run stops
// dispatching, waits for the running fetches and returns ctx.Err().
// Run must not be called concurrently on one Engine.
func (e *Engine) Run(ctx context.Context, seed string) (int, error) {
	start, err := normalizeSeed(seed)
	if err != nil {
		return 0, err
	}

	visited := frontier.NewVisited()
	stack := frontier.NewStack()

	visited.TryAdmit(start)
	e.counters.IncFound()
	e.sink.Found(start)
	stack.Push(start)

	e.logger.Info("crawl started", "seed", start, "concurrency", e.MaxConcurrency())

	results := make(chan []string)
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	inFlight := 0
	done := ctx.Done()
	var runErr error

	for stack.Len() > 0 || inFlight > 0 {
		if runErr == nil {
			for inFlight < e.MaxConcurrency() && stack.Len() > 0 {
				addr, _ := stack.Pop()
				inFlight++
				e.sink.Crawling(addr)
				go func() {
					results <- e.discover(ctx, visited, addr)
				}()
			}
		} else if inFlight == 0 {
			break
		}
		e.publish(stack.Len(), inFlight)

		select {
		case found := <-results:
			inFlight--
			for _, u := range found {
				stack.Push(u)
			}
			// collect whatever else already finished
			for drained := false; !drained; {
				select {
				case found := <-results:
					inFlight--
					for _, u := range found {
						stack.Push(u)
					}
				default:
					drained = true
				}
			}
		case <-ticker.C:
		case <-done:
			runErr = ctx.Err()
			done = nil
		}
	}
	e.publish(stack.Len(), inFlight)

	total := visited.Size()
	e.logger.Info("crawl finished",
		"visited", total,
		"queued_total", stack.TotalQueued(),
		"errored", e.counters.Snapshot().Errored)
	return total, runErr
}

func (e *Engine) publish(queued, inFlight int) {
	e.counters.SetQueued(queued)
	e.counters.SetInFlight(inFlight)
	e.counters.SetRobotDomains(e.robots.Len())
}

func normalizeSeed(seed string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
