// Package pipeline wires discovery, extraction, validation and persistence
// into the single run-extraction operation exposed to callers.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"secfeed/internal/extract"
	"secfeed/internal/store"
	"secfeed/internal/target"
)

// Request triggers one extraction run.
type Request struct {
	TargetID  string `json:"target_id"`
	DirectURL string `json:"direct_url,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
}

// Result is the response envelope. Every failure mode except an unknown
// target degrades to a zero-item success with an explanatory message.
type Result struct {
	Success          bool   `json:"success"`
	ItemsStored      int    `json:"items_stored"`
	Message          string `json:"message"`
	ExtractionMethod string `json:"extraction_method,omitempty"`
}

// Service runs the extraction pipeline for one target at a time. Instances
// are safe for concurrent use: per-run state lives on the stack and the
// store handles its own write races.
type Service struct {
	registry  *target.Registry
	cascade   *extract.Cascade
	persister *store.Persister
	logger    *zap.Logger
}

// New builds a Service.
func New(registry *target.Registry, cascade *extract.Cascade, persister *store.Persister, logger *zap.Logger) *Service {
	return &Service{
		registry:  registry,
		cascade:   cascade,
		persister: persister,
		logger:    logger,
	}
}

// Run executes one extraction invocation. The only returned error is an
// unresolvable target ID.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	tgt, err := s.registry.Lookup(req.TargetID)
	if err != nil {
		return Result{Success: false, Message: err.Error()}, err
	}

	logger := s.logger.With(zap.String("target", tgt.ID))
	logger.Info("extraction run starting",
		zap.String("direct_url", req.DirectURL))

	// The cascade filters every stage's output through the acceptance floor,
	// so what comes back is already storable.
	articles, method := s.cascade.Run(ctx, tgt, extract.Request{
		DirectURL: req.DirectURL,
		Prompt:    req.Prompt,
	})

	if len(articles) == 0 {
		logger.Info("extraction run produced no articles")
		return Result{
			Success:          true,
			ItemsStored:      0,
			Message:          fmt.Sprintf("No content extracted from %s. The site may be unreachable, empty, or using anti-scraping measures.", tgt.Name),
			ExtractionMethod: method,
		}, nil
	}

	stored := s.persister.Persist(ctx, tgt.ID, articles)

	msg := fmt.Sprintf("Successfully stored %d new items from %s", stored, tgt.Name)
	if stored == 0 {
		msg = fmt.Sprintf("No new content found - %d extracted items were already stored for %s", len(articles), tgt.Name)
	}

	logger.Info("extraction run complete",
		zap.Int("extracted", len(articles)),
		zap.Int("stored", stored),
		zap.String("method", method))

	return Result{
		Success:          true,
		ItemsStored:      stored,
		Message:          msg,
		ExtractionMethod: method,
	}, nil
}
