package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"secfeed/internal/model"
)

// nearDupWindow is the time span within which a title match counts as the
// same article even when the URL differs.
const nearDupWindow = 24 * time.Hour

// Persister writes a batch of validated articles through a Repository,
// suppressing duplicates. A write failure for one candidate never aborts
// the batch.
type Persister struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewPersister builds a Persister over the given repository.
func NewPersister(repo Repository, logger *zap.Logger) *Persister {
	return &Persister{repo: repo, logger: logger, now: time.Now}
}

// Persist stores the batch for a target and returns how many new records
// were written.
func (p *Persister) Persist(ctx context.Context, targetID string, articles []model.Article) int {
	existing, err := p.repo.ExistingKeys(ctx, targetID)
	if err != nil {
		p.logger.Error("loading existing keys failed, treating store as empty",
			zap.String("target", targetID), zap.Error(err))
		existing = KeySet{URLs: map[string]struct{}{}, Titles: map[string]struct{}{}}
	}

	seenURLs := make(map[string]struct{})
	seenTitles := make(map[string]time.Time)

	stored := 0
	for _, a := range articles {
		if ctx.Err() != nil {
			break
		}

		lowerTitle := strings.ToLower(a.Title)
		fetched := a.FetchedAt
		if fetched.IsZero() {
			fetched = p.now()
		}

		// Cross-run dedup against the store.
		if existing.HasURL(a.URL) || existing.HasTitle(lowerTitle) {
			p.logger.Debug("skipping stored duplicate",
				zap.String("title", a.Title), zap.String("url", a.URL))
			continue
		}

		// Within-batch collapse: same URL, or same title whose fetch times
		// fall inside the near-duplicate window.
		if _, dup := seenURLs[a.URL]; dup {
			p.logger.Debug("skipping batch duplicate url", zap.String("url", a.URL))
			continue
		}
		if prev, dup := seenTitles[lowerTitle]; dup && absDiff(fetched, prev) <= nearDupWindow {
			p.logger.Debug("skipping batch near-duplicate title", zap.String("title", a.Title))
			continue
		}
		seenURLs[a.URL] = struct{}{}
		seenTitles[lowerTitle] = fetched

		rec, err := p.repo.UpsertArticle(ctx, targetID, a)
		if errors.Is(err, ErrDuplicate) {
			p.logger.Debug("upsert detected duplicate", zap.String("url", a.URL))
			continue
		}
		if err != nil {
			p.logger.Error("storing article failed, continuing batch",
				zap.String("title", a.Title), zap.Error(err))
			continue
		}

		stored++
		p.logger.Info("stored article",
			zap.String("id", rec.ID.String()),
			zap.String("title", rec.Title),
			zap.String("content_type", string(rec.ContentType)))
	}

	return stored
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
