package store

import (
	"context"
	"errors"
	"time"

	"secfeed/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means the candidate matched an already-stored record. It
	// is a successful no-op, not a failure.
	ErrDuplicate = errors.New("duplicate record")
)

// KeySet holds the (url, lowercased title) pairs already stored for a
// target, loaded once per persistence batch.
type KeySet struct {
	URLs   map[string]struct{}
	Titles map[string]struct{}
}

// HasURL reports whether url exact-matches a stored record.
func (k KeySet) HasURL(url string) bool {
	_, ok := k.URLs[url]
	return ok
}

// HasTitle reports whether the lowercased title matches a stored record.
func (k KeySet) HasTitle(lowerTitle string) bool {
	_, ok := k.Titles[lowerTitle]
	return ok
}

// Repository is the persistence collaborator the pipeline writes through.
// It is append-only: the pipeline never deletes records.
type Repository interface {
	// UpsertArticle stores an accepted article for a target. A candidate
	// matching an existing URL or title returns ErrDuplicate.
	UpsertArticle(ctx context.Context, targetID string, a model.Article) (*model.Record, error)
	// ExistingKeys loads the dedup key set for a target.
	ExistingKeys(ctx context.Context, targetID string) (KeySet, error)
	// ListRecent returns up to limit records for a target published after
	// since, newest first.
	ListRecent(ctx context.Context, targetID string, limit int, since time.Time) ([]model.Record, error)
	// EnqueueCrawl queues a target for a deferred crawl.
	EnqueueCrawl(ctx context.Context, targetID string) error
	// DequeueCrawl blocks until a crawl job is available.
	DequeueCrawl(ctx context.Context) (string, error)
}
