// Package pipeline runs batch geocoding: requests are read from a source in
// batches, resolved through the locator, and published to a sink. Offsets are
// committed only after the results are published.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/observability"
)

// BatchExtractor reads up to batchSize messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.BatchMessage, error)
}

// Transformer resolves one request message into a result.
type Transformer interface {
	Transform(ctx context.Context, msg domain.BatchMessage) (domain.GeocodeResult, error)
}

// BatchLoader publishes results to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.GeocodeResult) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-resolve-publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the source has been read successfully and
// the last read did not fail.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("batch pipeline is not connected to its source")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-resolve-publish cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.ready.Store(false)
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}
	p.ready.Store(true)

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	*backoff = initialBackoff

	loaded, ok := p.transformAndLoad(ctx, batch, backoff)
	if !ok {
		return false
	}
	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}
	return true
}

// transformAndLoad resolves each message, publishes the results, and commits
// offsets. Undecodable messages are committed and skipped. Returns the number
// of published results and false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, batch []domain.BatchMessage, backoff *time.Duration) (int, bool) {
	results := make([]domain.GeocodeResult, 0, len(batch))
	resolved := make([]domain.BatchMessage, 0, len(batch))

	for _, msg := range batch {
		res, err := p.transformer.Transform(ctx, msg)
		if ctx.Err() != nil {
			// Uncommitted messages are redelivered after restart.
			return 0, false
		}
		if err != nil {
			p.logger.Warn("undecodable request, skipping message",
				"error", err,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			p.metrics.DecodeErrors.Inc()
			p.commitOffset(ctx, msg)
			continue
		}
		results = append(results, res)
		resolved = append(resolved, msg)
	}

	if len(results) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, results); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(results))
		return 0, p.backoffOrStop(ctx, backoff)
	}

	p.metrics.MessagesProduced.Add(float64(len(results)))

	for _, msg := range resolved {
		p.commitOffset(ctx, msg)
	}

	return len(results), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, msg domain.BatchMessage) {
	if msg.Commit == nil {
		return
	}
	if err := msg.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
