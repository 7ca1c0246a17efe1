// Package display renders the live crawl status and reads the operator's
// keyboard controls.
package display

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/time/rate"

	"crawly/internal/metrics"
)

const (
	DefaultInterval    = 500 * time.Millisecond
	DefaultSampleWidth = 40
	// DefaultHeadlessEvery spaces out status lines when the screen is not
	// redrawn in place.
	DefaultHeadlessEvery = 5 * time.Second
)

// Source supplies live counters.
type Source interface {
	Stats() metrics.Snapshot
}

// Renderer periodically writes the status line. Interactive renderers
// redraw a header and the status in place; headless ones append a line.
type Renderer struct {
	Out         io.Writer
	Source      Source
	Seed        string
	LogFile     string
	Interactive bool
	Interval    time.Duration
	// HeadlessEvery throttles headless output; samples are still taken
	// every Interval.
	HeadlessEvery time.Duration
	SampleWidth   int

	rate        *RollingAverage
	lastCrawled int64
	lastSample  time.Time
	headless    *rate.Sometimes
}

var header = color.New(color.FgGreen, color.Bold)

// FormatStatus renders one status line.
func FormatStatus(s metrics.Snapshot, rps float64) string {
	return fmt.Sprintf("Crawled:%s/%s  Queued:%-8s  Errored:%6s  Request Rate:%6.2f r/s RobotDomains:%-6d Concurrency:%5d/%-5d",
		humanize.Comma(s.Crawled),
		humanize.Comma(s.Found),
		humanize.Comma(s.Queued),
		humanize.Comma(s.Errored),
		rps,
		s.RobotDomains,
		s.InFlight,
		s.MaxConcurrency,
	)
}

// Run refreshes until ctx is done, then writes a last status line.
func (r *Renderer) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		r.Interval = DefaultInterval
	}
	if r.HeadlessEvery <= 0 {
		r.HeadlessEvery = DefaultHeadlessEvery
	}
	if r.SampleWidth <= 0 {
		r.SampleWidth = DefaultSampleWidth
	}
	r.rate = NewRollingAverage(r.SampleWidth)
	r.headless = &rate.Sometimes{First: 1, Interval: r.HeadlessEvery}
	r.lastSample = time.Now()
	r.lastCrawled = r.Source.Stats().Crawled

	if r.Interactive {
		fmt.Fprint(r.Out, "\x1b[2J")
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.draw(true)
			return nil
		case now := <-ticker.C:
			r.sample(now)
			r.draw(false)
		}
	}
}

func (r *Renderer) sample(now time.Time) {
	crawled := r.Source.Stats().Crawled
	elapsed := now.Sub(r.lastSample).Seconds()
	if elapsed > 0 {
		r.rate.AddSample(float64(crawled-r.lastCrawled) / elapsed)
	}
	r.lastCrawled = crawled
	r.lastSample = now
}

func (r *Renderer) draw(final bool) {
	line := FormatStatus(r.Source.Stats(), r.rate.Average())

	if !r.Interactive {
		if final {
			fmt.Fprintln(r.Out, line)
			return
		}
		r.headless.Do(func() {
			fmt.Fprintln(r.Out, line)
		})
		return
	}

	// raw terminal mode: explicit carriage returns, clear to end of line
	fmt.Fprint(r.Out, "\x1b[H")
	fmt.Fprint(r.Out, header.Sprintf("Crawling from root:%s Logfile:%s", r.Seed, r.LogFile))
	fmt.Fprint(r.Out, "\x1b[K\r\n")
	fmt.Fprint(r.Out, line)
	fmt.Fprint(r.Out, "\x1b[K\r\n")
	if final {
		fmt.Fprint(r.Out, "\r\n")
	}
}
