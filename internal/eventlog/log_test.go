package eventlog

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestLog(t *testing.T) {
	t.Parallel()

	t.Run("writes one line per event", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := New(&buf, 4)
		l.now = fixedClock

		l.Crawling("https://a.com/")
		l.Found("https://a.com/x")
		l.Disallowed("a.com", "/feed/")
		l.Error("https://a.com/y", errors.New("boom"))
		require.NoError(t, l.Close())

		assert.Equal(t, strings.Join([]string{
			"2024-03-01T12:00:00Z crawling https://a.com/",
			"2024-03-01T12:00:00Z found https://a.com/x",
			"2024-03-01T12:00:00Z disallowed a.com /feed/",
			"2024-03-01T12:00:00Z error https://a.com/y boom",
			"",
		}, "\n"), buf.String())
	})

	t.Run("concurrent producers lose nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := New(&buf, 8)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					l.Found("https://a.com/")
				}
			}()
		}
		wg.Wait()
		require.NoError(t, l.Close())

		assert.Equal(t, 1000, strings.Count(buf.String(), "\n"))
	})

	t.Run("events after close are dropped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		l := New(&buf, 0)
		require.NoError(t, l.Close())
		require.NoError(t, l.Close())
		l.Found("https://a.com/")
		assert.Empty(t, buf.String())
	})

	t.Run("open appends to file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "crawl.log")
		require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o600))

		l, err := Open(path)
		require.NoError(t, err)
		l.Found("https://a.com/")
		require.NoError(t, l.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "existing", lines[0])
		assert.True(t, strings.HasSuffix(lines[1], "found https://a.com/"))
	})

	t.Run("open fails on a missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing", "crawl.log"))
		assert.Error(t, err)
	})
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) Crawling(addr string)           { r.add("crawling " + addr) }
func (r *recorder) Found(addr string)              { r.add("found " + addr) }
func (r *recorder) Disallowed(host, prefix string) { r.add("disallowed " + host + " " + prefix) }
func (r *recorder) Error(addr string, err error)   { r.add("error " + addr + " " + err.Error()) }

func TestMulti(t *testing.T) {
	t.Parallel()

	a, b := &recorder{}, &recorder{}
	m := Multi{a, b, Nop{}}
	m.Crawling("u1")
	m.Found("u2")
	m.Disallowed("h", "/p")
	m.Error("u3", errors.New("e"))

	want := []string{"crawling u1", "found u2", "disallowed h /p", "error u3 e"}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}

func TestSlog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := Slog{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	s.Found("https://a.com/")
	s.Error("https://a.com/x", errors.New("timeout"))

	out := buf.String()
	assert.Contains(t, out, "msg=found url=https://a.com/")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "error=timeout")
}
