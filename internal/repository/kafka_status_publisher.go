package repository

import (
	"context"

	"CascadeWatch/internal/domain/models"
	domrepo "CascadeWatch/internal/domain/repository"
	pkgkafka "CascadeWatch/pkg/kafka"
)

var _ domrepo.StatusPublisher = (*KafkaStatusPublisher)(nil)

// KafkaStatusPublisher writes transitions keyed by symbol so consumers see
// each symbol's transitions in order.
type KafkaStatusPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaStatusPublisher(producer *pkgkafka.Producer, topic string) *KafkaStatusPublisher {
	return &KafkaStatusPublisher{producer: producer, topic: topic}
}

func (p *KafkaStatusPublisher) PublishTransition(ctx context.Context, t *models.Transition) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), t)
}

func (p *KafkaStatusPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
