package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secfeed/internal/extract"
	"secfeed/internal/model"
	"secfeed/internal/store"
	"secfeed/internal/target"
)

type stubStage struct {
	name     string
	articles []model.Article
}

func (s *stubStage) Name() string { return s.name }
func (s *stubStage) Extract(context.Context, target.Target, extract.Request) ([]model.Article, error) {
	return s.articles, nil
}

// memRepo is an in-memory store.Repository that remembers keys across runs,
// so idempotence can be exercised without Redis.
type memRepo struct {
	keys store.KeySet
}

func newMemRepo() *memRepo {
	return &memRepo{keys: store.KeySet{
		URLs:   map[string]struct{}{},
		Titles: map[string]struct{}{},
	}}
}

func (m *memRepo) UpsertArticle(_ context.Context, _ string, a model.Article) (*model.Record, error) {
	if m.keys.HasURL(a.URL) || m.keys.HasTitle(strings.ToLower(a.Title)) {
		return nil, store.ErrDuplicate
	}
	m.keys.URLs[a.URL] = struct{}{}
	m.keys.Titles[strings.ToLower(a.Title)] = struct{}{}
	rec := model.NewRecord("demo", a, time.Now())
	return &rec, nil
}

func (m *memRepo) ExistingKeys(context.Context, string) (store.KeySet, error) {
	return m.keys, nil
}

func (m *memRepo) ListRecent(context.Context, string, int, time.Time) ([]model.Record, error) {
	return nil, nil
}
func (m *memRepo) EnqueueCrawl(context.Context, string) error { return nil }
func (m *memRepo) DequeueCrawl(context.Context) (string, error) {
	return "", store.ErrNotFound
}

func newService(stages ...extract.Strategy) (*Service, *memRepo) {
	repo := newMemRepo()
	registry := target.NewRegistry(target.Target{ID: "demo", Name: "Demo Source", BaseURL: "https://example.com"})
	return New(
		registry,
		extract.NewCascade(zap.NewNop(), stages...),
		store.NewPersister(repo, zap.NewNop()),
		zap.NewNop(),
	), repo
}

func validArticle(title, url string) model.Article {
	return model.Article{
		Title:       title,
		Content:     strings.Repeat("extracted body text ", 15),
		URL:         url,
		PublishedAt: time.Now(),
		ContentType: model.TypeSecurityNews,
	}
}

func TestRun_UnknownTarget(t *testing.T) {
	svc, _ := newService(&stubStage{name: "dry"})

	result, err := svc.Run(context.Background(), Request{TargetID: "no-such-target"})
	require.ErrorIs(t, err, target.ErrNotFound)
	assert.False(t, result.Success)
}

func TestRun_StoresExtractedArticles(t *testing.T) {
	stage := &stubStage{name: "stub", articles: []model.Article{
		validArticle("Breach disclosed by vendor", "https://example.com/blog/breach"),
		validArticle("Second advisory published", "https://example.com/blog/advisory"),
	}}
	svc, _ := newService(stage)

	result, err := svc.Run(context.Background(), Request{TargetID: "demo"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.ItemsStored)
	assert.Equal(t, "stub", result.ExtractionMethod)
	assert.Contains(t, result.Message, "Successfully stored 2 new items")
}

func TestRun_SecondRunStoresNothing(t *testing.T) {
	stage := &stubStage{name: "stub", articles: []model.Article{
		validArticle("Breach disclosed by vendor", "https://example.com/blog/breach"),
	}}
	svc, _ := newService(stage)

	first, err := svc.Run(context.Background(), Request{TargetID: "demo"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ItemsStored)

	second, err := svc.Run(context.Background(), Request{TargetID: "demo"})
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.ItemsStored)
	assert.Contains(t, second.Message, "already stored")
}

func TestRun_DryCascadeIsZeroItemSuccess(t *testing.T) {
	svc, repo := newService(&stubStage{name: "dry"})

	result, err := svc.Run(context.Background(), Request{TargetID: "demo"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ItemsStored)
	assert.Contains(t, result.Message, "No content extracted")
	assert.Empty(t, repo.keys.URLs)
}

func TestRun_FiltersArticlesBelowFloor(t *testing.T) {
	thin := model.Article{
		Title:       "Thin result from a stage",
		Content:     "not enough body",
		URL:         "https://example.com/thin",
		PublishedAt: time.Now(),
	}
	stage := &stubStage{name: "stub", articles: []model.Article{thin}}
	svc, repo := newService(stage)

	result, err := svc.Run(context.Background(), Request{TargetID: "demo"})
	require.NoError(t, err)

	assert.Equal(t, 0, result.ItemsStored)
	assert.Empty(t, repo.keys.URLs, "below-floor articles never reach the store")
}
