package eventlog

import (
	"context"
	"log/slog"
)

// Sink receives crawl events.
type Sink interface {
	Crawling(addr string)
	Found(addr string)
	Disallowed(host, prefix string)
	Error(addr string, err error)
}

// Multi fans every event out to each sink in order.
type Multi []Sink

func (m Multi) Crawling(addr string) {
	for _, s := range m {
		s.Crawling(addr)
	}
}

func (m Multi) Found(addr string) {
	for _, s := range m {
		s.Found(addr)
	}
}

func (m Multi) Disallowed(host, prefix string) {
	for _, s := range m {
		s.Disallowed(host, prefix)
	}
}

func (m Multi) Error(addr string, err error) {
	for _, s := range m {
		s.Error(addr, err)
	}
}

// Slog logs events at debug level, errors at warn level.
type Slog struct {
	Logger *slog.Logger
}

func (s Slog) Crawling(addr string) {
	s.Logger.Debug("crawling", "url", addr)
}

func (s Slog) Found(addr string) {
	s.Logger.Debug("found", "url", addr)
}

func (s Slog) Disallowed(host, prefix string) {
	s.Logger.Debug("disallowed", "host", host, "prefix", prefix)
}

func (s Slog) Error(addr string, err error) {
	s.Logger.LogAttrs(context.Background(), slog.LevelWarn, "fetch failed",
		slog.String("url", addr), slog.Any("error", err))
}

// Nop discards every event.
type Nop struct{}

func (Nop) Crawling(string)           {}
func (Nop) Found(string)              {}
func (Nop) Disallowed(string, string) {}
func (Nop) Error(string, error)       {}
