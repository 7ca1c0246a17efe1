// Package eventlog records crawl events.
package eventlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultBuffer is the number of pending lines a Log holds before
// producers block.
const DefaultBuffer = 10000

// Log is an append-only, line-oriented event log. Producers hand lines to a
// bounded buffer drained by a single writer goroutine.
type Log struct {
	lines chan string
	done  chan struct{}
	w     *bufio.Writer
	c     io.Closer
	now   func() time.Time

	mu     sync.RWMutex
	closed bool
	err    error
}

// Open appends to the file at path, creating it if needed.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	l := New(f, DefaultBuffer)
	l.c = f
	return l, nil
}

// New writes events to w. buffer <= 0 uses DefaultBuffer.
func New(w io.Writer, buffer int) *Log {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	l := &Log{
		lines: make(chan string, buffer),
		done:  make(chan struct{}),
		w:     bufio.NewWriter(w),
		now:   time.Now,
	}
	go l.consume()
	return l
}

func (l *Log) consume() {
	defer close(l.done)
	for line := range l.lines {
		if _, err := l.w.WriteString(line); err != nil && l.err == nil {
			l.err = err
		}
		// flush when the producers go quiet
		if len(l.lines) == 0 {
			if err := l.w.Flush(); err != nil && l.err == nil {
				l.err = err
			}
		}
	}
}

func (l *Log) emit(kind string, fields ...string) {
	line := l.now().UTC().Format(time.RFC3339) + " " + kind
	for _, f := range fields {
		line += " " + f
	}
	line += "\n"

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	l.lines <- line
}

func (l *Log) Crawling(addr string) { l.emit("crawling", addr) }

func (l *Log) Found(addr string) { l.emit("found", addr) }

func (l *Log) Disallowed(host, prefix string) { l.emit("disallowed", host, prefix) }

func (l *Log) Error(addr string, err error) { l.emit("error", addr, fmt.Sprint(err)) }

// Close drains pending lines, flushes and closes the underlying file when
// the Log owns it. Events emitted after Close are dropped.
func (l *Log) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.lines)
	l.mu.Unlock()

	<-l.done
	err := l.err
	if ferr := l.w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	if l.c != nil {
		if cerr := l.c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
