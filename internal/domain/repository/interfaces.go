package repository

import (
	"context"
	"time"

	"CascadeWatch/internal/domain/models"
)

// TickStream is an alternate tick source to Kafka: a websocket feed of
// already-normalized ticks.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, symbols []string) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// StatusPublisher emits light transitions to downstream consumers.
type StatusPublisher interface {
	PublishTransition(ctx context.Context, t *models.Transition) error
	Close() error
}

// TransitionQueue hands transitions off for asynchronous persistence.
type TransitionQueue interface {
	EnqueueTransition(ctx context.Context, t *models.Transition) error
}

// TransitionStore is the durable history of light transitions.
type TransitionStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, ts []*models.Transition) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Transition, error)
	Health(ctx context.Context) error
	Close() error
}

// StatusStore keeps the latest snapshot per symbol and the operator auto flags
// outside the process.
type StatusStore interface {
	SaveStatuses(ctx context.Context, statuses []models.CascadeStatus) error
	LoadStatus(ctx context.Context, symbol string) (*models.CascadeStatus, error)
	SaveAutoFlags(ctx context.Context, flags AutoFlags) error
	LoadAutoFlags(ctx context.Context) (*AutoFlags, error)
}

// AutoFlags is the persisted operator control state.
type AutoFlags struct {
	Default   bool            `json:"default"`
	PerSymbol map[string]bool `json:"per_symbol"`
}

// StatusSink receives every status a tick produces, plus transitions. The
// websocket hub is the production sink.
type StatusSink interface {
	OnStatus(status models.CascadeStatus)
	OnTransition(t *models.Transition)
}

type Metrics interface {
	RecordTick(symbol string)
	RecordStatus(status models.CascadeStatus)
	RecordTransition(t *models.Transition)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
