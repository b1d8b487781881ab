// Package store persists article records in the hybrid Redis/Badger layout:
// Redis holds metadata, dedup key sets and the crawl queue; Badger holds the
// full article bodies.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"

	"secfeed/internal/model"
)

const crawlQueueKey = "queue:crawl"

func recordKey(id string) string       { return "record:" + id }
func indexKey(targetID string) string  { return "target:" + targetID + ":records" }
func urlsKey(targetID string) string   { return "target:" + targetID + ":urls" }
func titlesKey(targetID string) string { return "target:" + targetID + ":titles" }

// HybridStore combines Redis (metadata, dedup index, queue) and Badger
// (article bodies).
type HybridStore struct {
	rdb *redis.Client
	db  *badger.DB

	// recencyWindow controls the informational Recent flag on stored
	// records.
	recencyWindow time.Duration
	now           func() time.Time
}

// NewHybridStore connects both databases. Pass badgerPath="" to run without
// body storage (queue-only client mode).
func NewHybridStore(redisAddr, badgerPath string, recencyWindow time.Duration) (*HybridStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	var db *badger.DB
	if badgerPath != "" {
		opts := badger.DefaultOptions(badgerPath)
		opts.Logger = nil
		var err error
		db, err = badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
	}

	return &HybridStore{rdb: rdb, db: db, recencyWindow: recencyWindow, now: time.Now}, nil
}

// Close releases both connections.
func (s *HybridStore) Close() {
	if s.rdb != nil {
		s.rdb.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// UpsertArticle stores an article unless its URL or lowercased title already
// exists for the target. The SADD results make the insert-or-detect decision
// atomic under concurrent writers.
func (s *HybridStore) UpsertArticle(ctx context.Context, targetID string, a model.Article) (*model.Record, error) {
	lowerTitle := strings.ToLower(a.Title)

	added, err := s.rdb.SAdd(ctx, urlsKey(targetID), a.URL).Result()
	if err != nil {
		return nil, fmt.Errorf("index url: %w", err)
	}
	if added == 0 {
		return nil, ErrDuplicate
	}

	added, err = s.rdb.SAdd(ctx, titlesKey(targetID), lowerTitle).Result()
	if err != nil {
		return nil, fmt.Errorf("index title: %w", err)
	}
	if added == 0 {
		// Lost the title race; withdraw the URL claim so the winning record
		// stays the only one.
		s.rdb.SRem(ctx, urlsKey(targetID), a.URL)
		return nil, ErrDuplicate
	}

	now := s.now()
	rec := model.NewRecord(targetID, a, now)
	rec.Recent = a.PublishedAt.After(now.Add(-s.recencyWindow))

	// A failed write must stay retryable: release both dedup claims before
	// returning any error past this point.
	withdraw := func() {
		s.rdb.SRem(ctx, urlsKey(targetID), a.URL)
		s.rdb.SRem(ctx, titlesKey(targetID), lowerTitle)
	}

	meta := rec
	meta.Content = ""
	data, err := json.Marshal(meta)
	if err != nil {
		withdraw()
		return nil, err
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, recordKey(rec.ID.String()), data, 0)
	pipe.LPush(ctx, indexKey(targetID), rec.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		withdraw()
		return nil, fmt.Errorf("store metadata: %w", err)
	}

	if rec.Content != "" {
		if s.db == nil {
			err = fmt.Errorf("badger is not initialized")
		} else {
			err = s.db.Update(func(txn *badger.Txn) error {
				return txn.Set([]byte(rec.ID.String()), []byte(rec.Content))
			})
		}
		if err != nil {
			withdraw()
			s.rdb.Del(ctx, recordKey(rec.ID.String()))
			s.rdb.LRem(ctx, indexKey(targetID), 1, rec.ID.String())
			return nil, fmt.Errorf("store content: %w", err)
		}
	}

	return &rec, nil
}

// ExistingKeys loads every stored (url, title) pair for a target.
func (s *HybridStore) ExistingKeys(ctx context.Context, targetID string) (KeySet, error) {
	urls, err := s.rdb.SMembers(ctx, urlsKey(targetID)).Result()
	if err != nil {
		return KeySet{}, err
	}
	titles, err := s.rdb.SMembers(ctx, titlesKey(targetID)).Result()
	if err != nil {
		return KeySet{}, err
	}

	ks := KeySet{
		URLs:   make(map[string]struct{}, len(urls)),
		Titles: make(map[string]struct{}, len(titles)),
	}
	for _, u := range urls {
		ks.URLs[u] = struct{}{}
	}
	for _, t := range titles {
		ks.Titles[t] = struct{}{}
	}
	return ks, nil
}

// ListRecent returns up to limit records published after since, newest
// first, with bodies loaded from Badger when available.
func (s *HybridStore) ListRecent(ctx context.Context, targetID string, limit int, since time.Time) ([]model.Record, error) {
	ids, err := s.rdb.LRange(ctx, indexKey(targetID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	var records []model.Record
	for _, id := range ids {
		val, err := s.rdb.Get(ctx, recordKey(id)).Bytes()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return nil, err
		}

		var rec model.Record
		if err := json.Unmarshal(val, &rec); err != nil {
			continue
		}
		if rec.PublishedAt.Before(since) {
			continue
		}

		if s.db != nil {
			err = s.db.View(func(txn *badger.Txn) error {
				item, err := txn.Get([]byte(rec.ID.String()))
				if err != nil {
					return err
				}
				return item.Value(func(val []byte) error {
					rec.Content = string(val)
					return nil
				})
			})
			if err != nil && err != badger.ErrKeyNotFound {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// EnqueueCrawl pushes a target ID onto the crawl queue.
func (s *HybridStore) EnqueueCrawl(ctx context.Context, targetID string) error {
	return s.rdb.LPush(ctx, crawlQueueKey, targetID).Err()
}

// DequeueCrawl blocks until a crawl job arrives.
func (s *HybridStore) DequeueCrawl(ctx context.Context) (string, error) {
	result, err := s.rdb.BRPop(ctx, 0, crawlQueueKey).Result()
	if err != nil {
		return "", err
	}
	return result[1], nil
}
