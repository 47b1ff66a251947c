package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"CascadeWatch/internal/domain/models"
	drepo "CascadeWatch/internal/domain/repository"
	"CascadeWatch/pkg/logger"
)

// Hub fans encoded messages out to dashboard subscribers.
type Hub interface {
	Broadcast(msg []byte)
}

var _ drepo.StatusSink = (*StatusBroadcaster)(nil)

// StatusBroadcaster is the dashboard consumer. Transitions are pushed as soon
// as they happen; statuses changed since the last flush are pushed as one
// snapshot per interval and saved to the status store.
type StatusBroadcaster struct {
	hub      Hub
	store    drepo.StatusStore
	metrics  drepo.Metrics
	log      *logger.Logger
	interval time.Duration

	mu      sync.Mutex
	pending map[string]models.CascadeStatus

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewStatusBroadcaster(hub Hub, store drepo.StatusStore, metrics drepo.Metrics, log *logger.Logger, interval time.Duration) *StatusBroadcaster {
	if interval <= 0 {
		interval = time.Second
	}
	return &StatusBroadcaster{
		hub:      hub,
		store:    store,
		metrics:  metrics,
		log:      log,
		interval: interval,
		pending:  make(map[string]models.CascadeStatus),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (b *StatusBroadcaster) OnStatus(s models.CascadeStatus) {
	b.mu.Lock()
	b.pending[s.Symbol] = s
	b.mu.Unlock()
}

func (b *StatusBroadcaster) OnTransition(t *models.Transition) {
	b.send(models.StreamMessage{Type: models.StreamTransition, At: t.At, Data: t})
}

func (b *StatusBroadcaster) send(msg models.StreamMessage) {
	if b.hub == nil {
		return
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		b.metrics.RecordError("broadcast_encode")
		return
	}
	b.hub.Broadcast(raw)
}

// Start runs the flush loop until ctx is done or Stop is called.
func (b *StatusBroadcaster) Start(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(b.doneCh)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				b.Flush(context.Background())
				return
			case <-b.stopCh:
				b.Flush(context.Background())
				return
			case <-ticker.C:
				b.Flush(ctx)
			}
		}
	}()
}

// Flush pushes and persists the statuses collected since the previous flush.
func (b *StatusBroadcaster) Flush(ctx context.Context) {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := make([]models.CascadeStatus, 0, len(b.pending))
	for _, s := range b.pending {
		batch = append(batch, s)
	}
	b.pending = make(map[string]models.CascadeStatus)
	b.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Symbol < batch[j].Symbol })
	b.send(models.StreamMessage{Type: models.StreamSnapshot, At: time.Now(), Data: batch})

	if b.store == nil {
		return
	}
	start := time.Now()
	sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := b.store.SaveStatuses(sctx, batch); err != nil {
		b.metrics.RecordError("status_store")
		b.log.Error("save statuses failed", logger.Int("count", len(batch)), logger.Error(err))
		return
	}
	b.metrics.RecordLatency("status_store", time.Since(start).Seconds())
}

// Stop ends the flush loop after a final flush.
func (b *StatusBroadcaster) Stop() {
	if !b.started.Load() {
		return
	}
	b.stopOnce.Do(func() { close(b.stopCh) })
	<-b.doneCh
}
