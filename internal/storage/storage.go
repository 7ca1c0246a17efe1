// Package storage archives fetched pages.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown archive backend")

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Record is the archived summary of one fetched page.
type Record struct {
	URL         string    `bson:"url"`
	Host        string    `bson:"host"`
	StatusCode  int       `bson:"status_code"`
	ContentType string    `bson:"content_type"`
	Title       string    `bson:"title"`
	Content     string    `bson:"content"`
	Words       int       `bson:"word_count"`
	Bytes       int       `bson:"bytes"`
	FetchedAt   time.Time `bson:"fetched_at"`
}

// Archive persists page records. Implementations must be safe for
// concurrent use.
type Archive interface {
	Save(ctx context.Context, rec Record) error
	Close(ctx context.Context) error
}

// Open returns the archive for backend. dsn is the MongoDB URI or the
// SQLite file path.
func Open(ctx context.Context, backend, dsn string) (Archive, error) {
	switch backend {
	case "", BackendNone:
		return Nop{}, nil
	case BackendMongo:
		return NewMongo(ctx, dsn)
	case BackendSQLite:
		return NewSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Nop drops every record.
type Nop struct{}

func (Nop) Save(context.Context, Record) error { return nil }
func (Nop) Close(context.Context) error        { return nil }
