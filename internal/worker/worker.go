// Package worker consumes the crawl queue and runs the extraction pipeline
// for each queued target.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"secfeed/internal/pipeline"
)

// Runner is the extraction capability the worker drives; satisfied by
// pipeline.Service and mockable in tests.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Queue is the job source; satisfied by the hybrid store.
type Queue interface {
	DequeueCrawl(ctx context.Context) (string, error)
}

type Worker struct {
	queue  Queue
	runner Runner
	logger *zap.Logger
}

// New builds a Worker.
func New(queue Queue, runner Runner, logger *zap.Logger) *Worker {
	return &Worker{queue: queue, runner: runner, logger: logger}
}

// Start runs the consume loop until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("worker started, waiting for crawl jobs")

	for {
		targetID, err := w.queue.DequeueCrawl(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker shutting down")
				return
			}
			w.logger.Error("queue error", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		w.process(ctx, targetID)
	}
}

func (w *Worker) process(ctx context.Context, targetID string) {
	logger := w.logger.With(zap.String("target", targetID))
	logger.Info("crawl job started")

	result, err := w.runner.Run(ctx, pipeline.Request{TargetID: targetID})
	if err != nil {
		logger.Error("crawl job failed", zap.Error(err))
		return
	}

	logger.Info("crawl job complete",
		zap.Int("items_stored", result.ItemsStored),
		zap.String("method", result.ExtractionMethod),
		zap.String("message", result.Message))
}
