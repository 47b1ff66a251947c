package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"CascadeWatch/internal/domain/models"
	domrepo "CascadeWatch/internal/domain/repository"
	applogger "CascadeWatch/pkg/logger"
	"CascadeWatch/pkg/queue"
)

// PersistTransitionType is the queue message type for transition writes.
const PersistTransitionType = "cascade.transition.persist"

var (
	_ domrepo.TransitionQueue = (*RedisTransitionQueue)(nil)
	_ queue.Job               = (*TransitionPersistJob)(nil)
)

// Enqueuer is the producer half of pkg/queue.RedisQueue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

type RedisTransitionQueue struct {
	q Enqueuer
}

func NewRedisTransitionQueue(q Enqueuer) *RedisTransitionQueue {
	return &RedisTransitionQueue{q: q}
}

func (r *RedisTransitionQueue) EnqueueTransition(ctx context.Context, t *models.Transition) error {
	if err := r.q.Enqueue(ctx, PersistTransitionType, t); err != nil {
		return fmt.Errorf("enqueue transition %s: %w", t.ID, err)
	}
	return nil
}

// TransitionPersistJob writes queued transitions to the store through a
// circuit breaker. While the breaker is open the job fails fast and the
// queue schedules a retry.
type TransitionPersistJob struct {
	store   domrepo.TransitionStore
	breaker *gobreaker.CircuitBreaker
	log     *applogger.Logger
}

type BreakerSettings struct {
	// OpenFor is how long the breaker stays open before probing again.
	OpenFor time.Duration
	// TripAfter consecutive failures opens the breaker.
	TripAfter uint32
}

func NewTransitionPersistJob(store domrepo.TransitionStore, bs BreakerSettings, log *applogger.Logger) *TransitionPersistJob {
	if bs.OpenFor <= 0 {
		bs.OpenFor = 30 * time.Second
	}
	if bs.TripAfter == 0 {
		bs.TripAfter = 5
	}

	j := &TransitionPersistJob{store: store, log: log}
	j.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "transition-store",
		MaxRequests: 1,
		Timeout:     bs.OpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= bs.TripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				applogger.String("breaker", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()))
		},
	})
	return j
}

func (j *TransitionPersistJob) Name() string { return "transition-persist" }

func (j *TransitionPersistJob) Type() string { return PersistTransitionType }

func (j *TransitionPersistJob) Handle(ctx context.Context, payload json.RawMessage) error {
	t, err := queue.Decode[models.Transition](payload)
	if err != nil {
		return err
	}
	_, err = j.breaker.Execute(func() (interface{}, error) {
		return nil, j.store.StoreBatch(ctx, []*models.Transition{t})
	})
	if err != nil {
		return fmt.Errorf("persist transition %s: %w", t.ID, err)
	}
	return nil
}

// State exposes the breaker state for health reporting.
func (j *TransitionPersistJob) State() gobreaker.State {
	return j.breaker.State()
}
