package display

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawly/internal/metrics"
)

func TestRollingAverage(t *testing.T) {
	t.Parallel()

	t.Run("averages populated samples only", func(t *testing.T) {
		t.Parallel()

		r := NewRollingAverage(8)
		assert.Zero(t, r.Average())
		for _, v := range []float64{1, 2, 3} {
			r.AddSample(v)
		}
		assert.InDelta(t, 2.0, r.Average(), 1e-9)
	})

	t.Run("keeps the most recent samples after wrapping", func(t *testing.T) {
		t.Parallel()

		r := NewRollingAverage(2)
		for _, v := range []float64{1, 2, 3} {
			r.AddSample(v)
		}
		assert.InDelta(t, 2.5, r.Average(), 1e-9)

		r.AddSample(10)
		assert.InDelta(t, 6.5, r.Average(), 1e-9)
	})

	t.Run("width is at least one", func(t *testing.T) {
		t.Parallel()

		r := NewRollingAverage(0)
		r.AddSample(4)
		r.AddSample(6)
		assert.InDelta(t, 6.0, r.Average(), 1e-9)
	})
}

func TestFormatStatus(t *testing.T) {
	t.Parallel()

	line := FormatStatus(metrics.Snapshot{
		Crawled:        12345,
		Found:          67890,
		Queued:         42,
		Errored:        7,
		RobotDomains:   3,
		InFlight:       5,
		MaxConcurrency: 20,
	}, 12.5)

	assert.True(t, strings.HasPrefix(line, "Crawled:12,345/67,890  Queued:42      "), line)
	assert.Contains(t, line, "Errored:     7")
	assert.Contains(t, line, "Request Rate: 12.50 r/s")
	assert.Contains(t, line, "RobotDomains:3 ")
	assert.Contains(t, line, "Concurrency:    5/20")
}

type fakeSource struct {
	crawled atomic.Int64
}

func (f *fakeSource) Stats() metrics.Snapshot {
	return metrics.Snapshot{Crawled: f.crawled.Load(), MaxConcurrency: 20}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRenderer(t *testing.T) {
	t.Parallel()

	t.Run("interactive redraws header and status", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{}
		out := &syncBuffer{}
		r := &Renderer{
			Out:         out,
			Source:      src,
			Seed:        "https://a.com/",
			LogFile:     "crawl.log",
			Interactive: true,
			Interval:    5 * time.Millisecond,
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx) }()

		src.crawled.Store(10)
		time.Sleep(30 * time.Millisecond)
		cancel()
		require.NoError(t, <-done)

		got := out.String()
		assert.True(t, strings.HasPrefix(got, "\x1b[2J"))
		assert.Contains(t, got, "\x1b[H")
		assert.Contains(t, got, "Crawling from root:https://a.com/ Logfile:crawl.log")
		assert.Contains(t, got, "Crawled:10/0")
	})

	t.Run("headless output is throttled", func(t *testing.T) {
		t.Parallel()

		out := &syncBuffer{}
		r := &Renderer{
			Out:           out,
			Source:        &fakeSource{},
			Interval:      2 * time.Millisecond,
			HeadlessEvery: time.Hour,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		require.NoError(t, r.Run(ctx))

		got := out.String()
		assert.NotContains(t, got, "\x1b[")
		// first tick plus the final line
		assert.Equal(t, 2, strings.Count(got, "\n"))
	})
}

type fakeControls struct {
	n int
}

func (f *fakeControls) MaxConcurrency() int  { return f.n }
func (f *fakeControls) SetConcurrency(n int) { f.n = n }

func TestInput(t *testing.T) {
	t.Parallel()

	t.Run("arrow keys adjust bound and step", func(t *testing.T) {
		t.Parallel()

		ctl := &fakeControls{n: 20}
		quit := false
		in := &Input{
			In:       strings.NewReader("\x1b[A\x1b[C\x1b[A\x1b[B\x1b[D\x1b[D\x1b[D\x1b[Bq+"),
			Controls: ctl,
			Quit:     func() { quit = true },
		}
		require.NoError(t, in.Run(context.Background()))

		// up 10 -> 30, step 20, up -> 50, down -> 30, step 0, down 0 -> 30
		assert.Equal(t, 30, ctl.n)
		assert.Equal(t, 0, in.Step)
		assert.True(t, quit)
	})

	t.Run("plain keys and floor at zero", func(t *testing.T) {
		t.Parallel()

		ctl := &fakeControls{n: 15}
		in := &Input{In: strings.NewReader("--+"), Controls: ctl}
		require.NoError(t, in.Run(context.Background()))
		assert.Equal(t, 10, ctl.n)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		t.Parallel()

		pr, pw := io.Pipe()
		defer pw.Close()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- (&Input{In: pr, Controls: &fakeControls{}}).Run(ctx)
		}()
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("input listener did not stop")
		}
	})
}

func TestDecode(t *testing.T) {
	t.Parallel()

	in := &Input{}
	var keys []Key
	for _, c := range []byte("x\x1bOA\x1b\x1b[B[]Q") {
		if k := in.decode(c); k != KeyNone {
			keys = append(keys, k)
		}
	}
	assert.Equal(t, []Key{KeyUp, KeyDown, KeyLeft, KeyRight, KeyQuit}, keys)
}
