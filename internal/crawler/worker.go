package crawler

import (
	"context"
	"log/slog"
	"net/url"

	"golang.org/x/time/rate"

	"crawly/internal/fetch"
	"crawly/internal/frontier"
	"crawly/internal/parser"
	"crawly/internal/storage"
)

// discover fetches addr and returns the linked addresses this call
// admitted. A failed fetch yields nothing.
func (e *Engine) discover(ctx context.Context, visited *frontier.Visited, addr string) []string {
	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	page, err := e.fetcher.Fetch(fetchCtx, addr)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		e.counters.IncErrored()
		e.sink.Error(addr, err)
		return nil
	}
	e.counters.AddCrawled(len(page.Body))

	base, err := url.Parse(addr)
	if err != nil {
		return nil
	}
	e.archive.save(ctx, base, page)

	var found []string
	for link := range e.extract(page.Body, base) {
		if visited.Has(link) {
			continue
		}
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if restricted, prefix := e.robots.Restricted(ctx, u); restricted {
			e.counters.IncDisallowed()
			e.sink.Disallowed(u.Host, prefix)
			continue
		}
		if !visited.TryAdmit(link) {
			continue
		}
		e.counters.IncFound()
		e.sink.Found(link)
		found = append(found, link)
	}
	return found
}

// archiver summarises fetched pages into the optional archive.
type archiver struct {
	store  storage.Archive
	words  int
	logger *slog.Logger
	warn   *rate.Sometimes
}

func (a archiver) save(ctx context.Context, u *url.URL, page *fetch.Page) {
	if a.store == nil {
		return
	}

	rec := storage.Record{
		URL:         page.URL,
		Host:        u.Host,
		StatusCode:  page.StatusCode,
		ContentType: page.ContentType,
		Bytes:       len(page.Body),
		FetchedAt:   page.FetchedAt,
	}
	if s, err := parser.Summarize(page.Body, a.words); err == nil {
		rec.Title = s.Title
		rec.Content = s.Text
		rec.Words = s.Words
	}

	if err := a.store.Save(ctx, rec); err != nil {
		a.warn.Do(func() {
			a.logger.Warn("archive write failed", "url", page.URL, "error", err)
		})
	}
}
