package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawly/internal/config"
	"crawly/internal/crawler"
	"crawly/internal/storage"
)

func testSite(t *testing.T) *httptest.Server {
	t.Helper()

	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, "<html><head><title>t</title></head><body>%s</body></html>", body)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/{$}", page(`<a href="/a">a</a><a href="/b">b</a><a href="/private/x">x</a>`))
	mux.HandleFunc("/a", page(`<a href="/b">b</a><a href="/">home</a>`))
	mux.HandleFunc("/b", page(`<p>leaf</p>`))
	mux.HandleFunc("/private/x", page(`<p>secret</p>`))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	srv := testSite(t)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "crawl.log")
	dbPath := filepath.Join(dir, "pages.db")

	stdout, _, err := execute(t, srv.URL+"/",
		"--headless",
		"--log-file", logPath,
		"--concurrency", "4",
		"--archive", "sqlite",
		"--archive-dsn", dbPath,
	)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Crawled:")
	assert.True(t, strings.HasSuffix(stdout, "Crawled 3 pages\n"), stdout)

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), " found "+srv.URL+"/a\n")
	assert.Contains(t, string(logged), " disallowed ")
	assert.NotContains(t, string(logged), "crawling "+srv.URL+"/private")

	db, err := storage.NewSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	n, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRunCrawlErrors(t *testing.T) {
	t.Parallel()

	t.Run("negative concurrency", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, "https://example.com/", "--headless",
			"--log-file", filepath.Join(t.TempDir(), "crawl.log"),
			"--concurrency", "-1")
		assert.ErrorIs(t, err, config.ErrInvalidConcurrency)
	})

	t.Run("unknown robots mode", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, "https://example.com/", "--headless",
			"--log-file", filepath.Join(t.TempDir(), "crawl.log"),
			"--robots-mode", "strict")
		assert.ErrorIs(t, err, config.ErrInvalidRobotsMode)
	})

	t.Run("invalid seed", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, "ftp://example.com/", "--headless",
			"--log-file", filepath.Join(t.TempDir(), "crawl.log"))
		assert.ErrorIs(t, err, crawler.ErrInvalidSeed)
	})

	t.Run("missing config file", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, config.ErrConfigNotFound)
	})
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "crawly.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed: https://from-file.example/
concurrency: 8
user_agent: file-agent
`), 0o600))

	cmd := NewRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path,
		"--concurrency", "0",
		"--headless",
		"-v",
	}))

	cfg, err := loadConfig(cmd, []string{"https://from-args.example/"})
	require.NoError(t, err)

	assert.Equal(t, "https://from-args.example/", cfg.Seed)
	assert.Equal(t, 0, cfg.Concurrency)
	assert.False(t, cfg.Interactive)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "crawl.log", cfg.LogFile)
}
