package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CascadeWatch/internal/domain/models"
	domrepo "CascadeWatch/internal/domain/repository"
	"CascadeWatch/internal/service/ratelimit"
)

var ErrInvalidTick = errors.New("invalid tick")

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, t *models.Tick) error
}

// TickPipeline sits between a tick transport (Kafka, websocket feed) and the
// processor. It validates and normalizes ticks and watches per-symbol rates.
// Every valid tick reaches the processor.
type TickPipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	rate      *ratelimit.Limiter
	transform func(*models.Tick) *models.Tick
}

type PipelineOption func(*TickPipeline)

// WithMaxTicksPerSecond sets the per-symbol rate above which ticks are counted
// as "pipeline_rate_exceeded". Those ticks are still processed.
func WithMaxTicksPerSecond(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.rate = ratelimit.New(float64(n), n)
		}
	}
}

// WithTransform sets a hook applied after validation.
func WithTransform(fn func(*models.Tick) *models.Tick) PipelineOption {
	return func(p *TickPipeline) { p.transform = fn }
}

func NewTickPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{proc: proc, metrics: metrics}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TickPipeline) Process(ctx context.Context, t *models.Tick) error {
	start := time.Now()
	if err := validateTick(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))

	if p.transform != nil {
		t = p.transform(t)
		if err := validateTick(t); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}

	if !p.rate.Allow(t.Symbol) {
		p.metrics.RecordError("pipeline_rate_exceeded")
	}

	if err := p.proc.Process(ctx, t); err != nil {
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// Forget releases per-symbol rate state, called when a symbol is unwatched.
func (p *TickPipeline) Forget(symbol string) {
	p.rate.Forget(symbol)
}

func validateTick(t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("%w: nil", ErrInvalidTick)
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("%w: symbol empty", ErrInvalidTick)
	}
	return nil
}
