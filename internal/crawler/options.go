package crawler

import (
	"context"
	"iter"
	"log/slog"
	"net/url"
	"time"

	"crawly/internal/fetch"
	"crawly/internal/metrics"
	"crawly/internal/storage"
)

// Fetcher retrieves one page. Any error is a fetch failure.
type Fetcher interface {
	Fetch(ctx context.Context, addr string) (*fetch.Page, error)
}

// Extractor yields the absolute addresses linked from content.
type Extractor func(content []byte, base *url.URL) iter.Seq[string]

// RobotsPolicy answers whether an address is excluded by its host's
// robots rules.
type RobotsPolicy interface {
	Restricted(ctx context.Context, u *url.URL) (bool, string)
	Len() int
}

// Sink receives crawl events.
type Sink interface {
	Crawling(addr string)
	Found(addr string)
	Disallowed(host, prefix string)
	Error(addr string, err error)
}

const (
	DefaultConcurrency  = 20
	DefaultFetchTimeout = 4 * time.Second
	DefaultTick         = 100 * time.Millisecond
	DefaultSummaryWords = 500
)

// Options wires an Engine. Only Fetcher is required.
type Options struct {
	Fetcher   Fetcher
	Extractor Extractor       // parser.Links when nil
	Robots    RobotsPolicy    // nothing is restricted when nil
	Sink      Sink            // events are dropped when nil
	Archive   storage.Archive // pages are not archived when nil
	Counters  *metrics.Counters

	MaxConcurrency int
	FetchTimeout   time.Duration
	// Tick bounds how long the scheduler waits for a completion before
	// re-checking the concurrency bound.
	Tick         time.Duration
	SummaryWords int
	Logger       *slog.Logger
}

type allowAll struct{}

func (allowAll) Restricted(context.Context, *url.URL) (bool, string) { return false, "" }
func (allowAll) Len() int                                            { return 0 }

type nopSink struct{}

func (nopSink) Crawling(string)           {}
func (nopSink) Found(string)              {}
func (nopSink) Disallowed(string, string) {}
func (nopSink) Error(string, error)       {}
