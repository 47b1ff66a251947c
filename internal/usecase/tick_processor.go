package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CascadeWatch/internal/domain/models"
	drepo "CascadeWatch/internal/domain/repository"
	"CascadeWatch/pkg/logger"
)

// TickProcessor applies ticks to the registry and fans out the results.
// Only in-memory detector updates happen inline; downstream failures are
// logged and counted but never fail the tick, so a redelivered tick is not
// applied twice.
type TickProcessor struct {
	registry *Registry
	pub      drepo.StatusPublisher
	queue    drepo.TransitionQueue
	sink     drepo.StatusSink
	metrics  drepo.Metrics
	log      *logger.Logger

	publishTimeout time.Duration
}

func NewTickProcessor(
	registry *Registry,
	pub drepo.StatusPublisher,
	queue drepo.TransitionQueue,
	sink drepo.StatusSink,
	metrics drepo.Metrics,
	log *logger.Logger,
) *TickProcessor {
	return &TickProcessor{
		registry:       registry,
		pub:            pub,
		queue:          queue,
		sink:           sink,
		metrics:        metrics,
		log:            log,
		publishTimeout: 2 * time.Second,
	}
}

// Process ingests one tick. It returns ErrSymbolNotWatched for ticks of
// symbols outside the watch list.
func (p *TickProcessor) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}

	start := time.Now()
	status, tr, err := p.registry.Ingest(*t)
	if err != nil {
		if errors.Is(err, ErrSymbolNotWatched) {
			p.metrics.RecordError("not_watched")
		}
		return fmt.Errorf("ingest %s: %w", t.Symbol, err)
	}
	p.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	p.metrics.RecordTick(status.Symbol)
	p.metrics.RecordStatus(status)
	if at := t.ProducedAt(); !at.IsZero() {
		p.metrics.RecordLatency("ingest_e2e", time.Since(at).Seconds())
	}

	if p.sink != nil {
		p.sink.OnStatus(status)
	}
	if tr != nil {
		p.onTransition(ctx, tr)
	}
	return nil
}

func (p *TickProcessor) onTransition(ctx context.Context, tr *models.Transition) {
	p.metrics.RecordTransition(tr)

	fields := []logger.Field{
		logger.String("symbol", tr.Symbol),
		logger.String("from", string(tr.From)),
		logger.String("to", string(tr.To)),
		logger.Int("score", tr.Score),
		logger.Float64("lq", tr.Status.LQ),
		logger.Float64("ret", tr.Status.RET),
		logger.Float64("oi", tr.Status.OI),
		logger.Bool("auto_block", tr.Status.AutoBlock),
	}
	if tr.Escalation() {
		p.log.Warn("cascade light escalated", fields...)
	} else {
		p.log.Info("cascade light de-escalated", fields...)
	}

	if p.sink != nil {
		p.sink.OnTransition(tr)
	}

	if p.pub != nil {
		pctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
		if err := p.pub.PublishTransition(pctx, tr); err != nil {
			p.metrics.RecordError("publish_transition")
			p.log.Error("publish transition failed", logger.String("symbol", tr.Symbol), logger.Error(err))
		}
		cancel()
	}

	if p.queue != nil {
		if err := p.queue.EnqueueTransition(ctx, tr); err != nil {
			p.metrics.RecordError("enqueue_transition")
			p.log.Error("enqueue transition failed", logger.String("symbol", tr.Symbol), logger.Error(err))
		}
	}
}

// Close releases the publisher.
func (p *TickProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
}
