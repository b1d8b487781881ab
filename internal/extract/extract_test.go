package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"secfeed/internal/model"
	"secfeed/internal/target"
)

type stubStrategy struct {
	name     string
	articles []model.Article
	err      error
	calls    int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(context.Context, target.Target, Request) ([]model.Article, error) {
	s.calls++
	return s.articles, s.err
}

// floorArticle passes the shared acceptance floor.
func floorArticle(title string) model.Article {
	return model.Article{
		Title:   title,
		Content: strings.Repeat("substantial body text ", 12),
		URL:     "https://example.com/" + strings.ToLower(title),
	}
}

func TestCascade_FirstProductiveStageWins(t *testing.T) {
	dry := &stubStrategy{name: "dry"}
	productive := &stubStrategy{name: "productive", articles: []model.Article{floorArticle("hit item")}}
	never := &stubStrategy{name: "never"}

	c := NewCascade(zap.NewNop(), dry, productive, never)
	articles, stage := c.Run(context.Background(), target.Target{ID: "demo"}, Request{})

	assert.Len(t, articles, 1)
	assert.Equal(t, "productive", stage)
	assert.Equal(t, 1, dry.calls)
	assert.Equal(t, 1, productive.calls)
	assert.Equal(t, 0, never.calls, "later stages are not tried after a hit")
}

func TestCascade_ErrorFallsThrough(t *testing.T) {
	failing := &stubStrategy{name: "failing", err: errors.New("upstream down")}
	fallback := &stubStrategy{name: "fallback", articles: []model.Article{floorArticle("hit item")}}

	c := NewCascade(zap.NewNop(), failing, fallback)
	articles, stage := c.Run(context.Background(), target.Target{ID: "demo"}, Request{})

	assert.Len(t, articles, 1)
	assert.Equal(t, "fallback", stage)
}

func TestCascade_BelowFloorOutputFallsThrough(t *testing.T) {
	// A stage can return items that all fail the acceptance floor; it must
	// not win over a later stage with storable output.
	thin := &stubStrategy{name: "thin", articles: []model.Article{{
		Title:   "Thin summary from a stage",
		Content: "eighty characters of teaser text is not enough to clear the acceptance floor",
		URL:     "https://example.com/thin",
	}}}
	solid := &stubStrategy{name: "solid", articles: []model.Article{floorArticle("solid")}}

	c := NewCascade(zap.NewNop(), thin, solid)
	articles, stage := c.Run(context.Background(), target.Target{ID: "demo"}, Request{})

	assert.Equal(t, 1, thin.calls)
	assert.Equal(t, "solid", stage)
	if assert.Len(t, articles, 1) {
		assert.Equal(t, "solid", articles[0].Title)
	}
}

func TestCascade_MixedStageOutputKeepsOnlyValid(t *testing.T) {
	mixed := &stubStrategy{name: "mixed", articles: []model.Article{
		{Title: "Too thin to store", Content: "short", URL: "https://example.com/a"},
		floorArticle("keeper"),
	}}

	c := NewCascade(zap.NewNop(), mixed)
	articles, stage := c.Run(context.Background(), target.Target{ID: "demo"}, Request{})

	assert.Equal(t, "mixed", stage)
	if assert.Len(t, articles, 1) {
		assert.Equal(t, "keeper", articles[0].Title)
	}
}

func TestCascade_AllDry(t *testing.T) {
	c := NewCascade(zap.NewNop(), &stubStrategy{name: "a"}, &stubStrategy{name: "b"})
	articles, stage := c.Run(context.Background(), target.Target{ID: "demo"}, Request{})

	assert.Empty(t, articles)
	assert.Empty(t, stage)
}

func TestCascade_CancelledContext(t *testing.T) {
	s := &stubStrategy{name: "a", articles: []model.Article{floorArticle("hit item")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCascade(zap.NewNop(), s)
	articles, _ := c.Run(ctx, target.Target{ID: "demo"}, Request{})

	assert.Empty(t, articles)
	assert.Equal(t, 0, s.calls)
}
