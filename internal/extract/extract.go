// Package extract implements the extraction cascade: an ordered list of
// strategies tried until one yields validated articles.
package extract

import (
	"context"

	"go.uber.org/zap"

	"secfeed/internal/model"
	"secfeed/internal/target"
	"secfeed/internal/validate"
)

// Request narrows one cascade invocation. DirectURL bypasses discovery and
// extracts a single page; Prompt overrides the AI instruction.
type Request struct {
	DirectURL string
	Prompt    string
}

// Strategy is one stage of the cascade. A stage that finds nothing returns
// an empty slice; errors are logged by the cascade and never abort the run.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, tgt target.Target, req Request) ([]model.Article, error)
}

// Cascade iterates strategies in order and stops at the first stage whose
// output survives validation.
type Cascade struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewCascade builds a cascade over the given strategy ordering.
func NewCascade(logger *zap.Logger, strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies, logger: logger}
}

// Run executes the cascade. Each stage's output passes through the shared
// acceptance floor before it can win; a stage whose articles all fall below
// the floor counts as dry and the next stage is tried. It returns the
// surviving articles and the producing stage's name; an empty result with an
// empty name means every stage came up dry.
func (c *Cascade) Run(ctx context.Context, tgt target.Target, req Request) ([]model.Article, string) {
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			return nil, ""
		}
		articles, err := s.Extract(ctx, tgt, req)
		if err != nil {
			c.logger.Warn("extraction stage failed, falling through",
				zap.String("stage", s.Name()),
				zap.String("target", tgt.ID),
				zap.Error(err))
			continue
		}

		valid := articles[:0]
		for _, a := range articles {
			if validate.MeetsFloor(a) {
				valid = append(valid, a)
			}
		}
		if len(valid) == 0 {
			if len(articles) > 0 {
				c.logger.Warn("extraction stage output rejected by validation, falling through",
					zap.String("stage", s.Name()),
					zap.String("target", tgt.ID),
					zap.Int("rejected", len(articles)))
			}
			continue
		}

		c.logger.Info("extraction stage succeeded",
			zap.String("stage", s.Name()),
			zap.String("target", tgt.ID),
			zap.Int("articles", len(valid)))
		return valid, s.Name()
	}
	return nil, ""
}
