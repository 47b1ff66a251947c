package usecase

import (
	"context"
	"errors"

	"CascadeWatch/internal/domain/models"
	drepo "CascadeWatch/internal/domain/repository"
	mid "CascadeWatch/internal/middleware"
	"CascadeWatch/pkg/logger"
)

// TickCollector reads ticks from a websocket feed and feeds the pipeline.
// It is the alternative to the Kafka consumer when source is "websocket".
type TickCollector struct {
	stream   drepo.TickStream
	pipe     mid.Proc
	registry *Registry
	metrics  drepo.Metrics
	log      *logger.Logger
}

func NewTickCollector(stream drepo.TickStream, pipe mid.Proc, registry *Registry, metrics drepo.Metrics, log *logger.Logger) *TickCollector {
	return &TickCollector{stream: stream, pipe: pipe, registry: registry, metrics: metrics, log: log}
}

func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx, c.registry.Symbols()); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

// Subscribe asks the feed for an additional symbol after it is watched.
func (c *TickCollector) Subscribe(ctx context.Context, symbol string) error {
	return c.stream.Subscribe(ctx, []string{symbol})
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				return
			}
			if err != nil {
				c.metrics.RecordError("stream")
				c.log.Warn("tick feed disconnected, reconnecting", logger.Error(err))
			}
		case t, ok := <-tickCh:
			if !ok {
				return
			}
			if t == nil {
				continue
			}
			if err := c.pipe.Process(ctx, t); err != nil && !errors.Is(err, ErrSymbolNotWatched) {
				c.log.Debug("tick rejected", logger.String("symbol", t.Symbol), logger.Error(err))
			}
		}
	}
}

func (c *TickCollector) Shutdown(ctx context.Context) error {
	return c.stream.Close()
}
