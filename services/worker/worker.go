package worker

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"sjsage522/gpuwatcher/internal/scraper"
	"sjsage522/gpuwatcher/logger"
	"sjsage522/gpuwatcher/services/metrics"
)

// Runner processes one search target and returns the number of offers
// dispatched.
type Runner interface {
	Run(ctx context.Context, target scraper.SearchTarget) (int, error)
}

// Worker schedules monitoring runs. Targets are processed in configured
// order with an inter-target delay as etiquette toward the site; an
// unrecoverable failure on one target advances to the next.
type Worker struct {
	runner      Runner
	targets     []scraper.SearchTarget
	interval    time.Duration
	targetDelay time.Duration
	maxWorkers  int
	log         *logger.Logger
}

// NewWorker creates a worker. maxWorkers > 1 pipelines targets across a
// bounded pool; the fetcher's shared rate limiter still caps the total
// outbound request rate.
func NewWorker(runner Runner, targets []scraper.SearchTarget, interval, targetDelay time.Duration, maxWorkers int) *Worker {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Worker{
		runner:      runner,
		targets:     targets,
		interval:    interval,
		targetDelay: targetDelay,
		maxWorkers:  maxWorkers,
		log:         logger.ForComponent("worker"),
	}
}

// Start runs monitoring rounds until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	for {
		start := time.Now()
		w.runOnce(ctx)
		elapsed := time.Since(start)
		metrics.RunDuration.Observe(elapsed.Seconds())
		w.log.Info().Dur("elapsed", elapsed).Msg("Monitoring round finished")

		if err := sleepCtx(ctx, w.interval); err != nil {
			return err
		}
	}
}

// RunOnce processes every target a single time
func (w *Worker) RunOnce(ctx context.Context) {
	w.runOnce(ctx)
}

func (w *Worker) runOnce(ctx context.Context) {
	if w.maxWorkers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(w.maxWorkers)
		for _, target := range w.targets {
			g.Go(func() error {
				w.processTarget(gctx, target)
				return nil
			})
		}
		g.Wait()
		return
	}

	for i, target := range w.targets {
		if i > 0 {
			if err := sleepCtx(ctx, w.targetDelay); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		w.processTarget(ctx, target)
	}
}

func (w *Worker) processTarget(ctx context.Context, target scraper.SearchTarget) {
	dispatched, err := w.runner.Run(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Never aborts the round; the next target proceeds
		w.log.Error().Err(err).Str("sku", target.SKU).Msg("Target run failed")
		return
	}
	if dispatched > 0 {
		w.log.Info().Str("sku", target.SKU).Int("dispatched", dispatched).Msg("Offers dispatched")
	}
}

// sleepCtx waits for d or until the context is cancelled
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
