package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"CascadeWatch/internal/domain/models"
	domrepo "CascadeWatch/internal/domain/repository"
	mid "CascadeWatch/internal/middleware"
	pkgkafka "CascadeWatch/pkg/kafka"
	"CascadeWatch/pkg/logger"
)

// KafkaTicksHandler consumes normalized ticks from Kafka and feeds the pipeline.
type KafkaTicksHandler struct {
	topic   string
	pipe    mid.Proc
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewKafkaTicksHandler(topic string, pipe mid.Proc, metrics domrepo.Metrics, log *logger.Logger) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, pipe: pipe, metrics: metrics, log: log}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// Handle returns an error only for undecodable payloads, which the consumer
// retries and then dead-letters. Ticks that decode but cannot be applied are
// dropped so they are never replayed into a detector.
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var t models.Tick
	if err := json.Unmarshal(b, &t); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode tick: %w", err)
	}

	err := h.pipe.Process(ctx, &t)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSymbolNotWatched):
		h.log.Debug("tick dropped", logger.String("symbol", t.Symbol), logger.Error(err))
	default:
		h.log.Warn("tick rejected", logger.String("symbol", t.Symbol), logger.Error(err))
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
