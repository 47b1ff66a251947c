package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CascadeWatch/internal/domain/models"
	domrepo "CascadeWatch/internal/domain/repository"
	"CascadeWatch/pkg/cache"
	applogger "CascadeWatch/pkg/logger"
)

func TestCacheStatusStore(t *testing.T) {
	mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(16))
	defer mc.Close()
	s := NewCacheStatusStore(mc, time.Minute)
	ctx := context.Background()

	t.Run("missing status", func(t *testing.T) {
		st, err := s.LoadStatus(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.Nil(t, st)
	})

	t.Run("save and load statuses", func(t *testing.T) {
		require.NoError(t, s.SaveStatuses(ctx, []models.CascadeStatus{
			{Symbol: "BTCUSDT", Score: 5, Light: models.LightRed, AutoBlock: true},
			{Symbol: "ETHUSDT", Score: 0, Light: models.LightGreen},
		}))
		st, err := s.LoadStatus(ctx, "BTCUSDT")
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, 5, st.Score)
		assert.Equal(t, models.LightRed, st.Light)
		assert.True(t, st.AutoBlock)
	})

	t.Run("auto flags", func(t *testing.T) {
		flags, err := s.LoadAutoFlags(ctx)
		require.NoError(t, err)
		assert.Nil(t, flags)

		require.NoError(t, s.SaveAutoFlags(ctx, domrepo.AutoFlags{
			Default:   true,
			PerSymbol: map[string]bool{"BTCUSDT": false},
		}))
		flags, err = s.LoadAutoFlags(ctx)
		require.NoError(t, err)
		require.NotNil(t, flags)
		assert.True(t, flags.Default)
		assert.Equal(t, map[string]bool{"BTCUSDT": false}, flags.PerSymbol)
	})
}

type fakeStore struct {
	mu     sync.Mutex
	err    error
	calls  int
	stored []*models.Transition
}

func (f *fakeStore) Init(context.Context) error { return nil }

func (f *fakeStore) StoreBatch(_ context.Context, ts []*models.Transition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, ts...)
	return nil
}

func (f *fakeStore) Query(context.Context, string, time.Time, time.Time, int) ([]*models.Transition, error) {
	return nil, nil
}

func (f *fakeStore) Health(context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }

func transitionPayload(t *testing.T) json.RawMessage {
	raw, err := json.Marshal(models.Transition{
		ID: "t-1", Symbol: "BTCUSDT", From: models.LightGreen, To: models.LightRed, Score: 5,
		At: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return raw
}

func TestTransitionPersistJobStores(t *testing.T) {
	store := &fakeStore{}
	job := NewTransitionPersistJob(store, BreakerSettings{}, applogger.NewNop())

	require.NoError(t, job.Handle(context.Background(), transitionPayload(t)))
	require.Len(t, store.stored, 1)
	assert.Equal(t, "t-1", store.stored[0].ID)
	assert.Equal(t, models.LightRed, store.stored[0].To)
	assert.Equal(t, PersistTransitionType, job.Type())
}

func TestTransitionPersistJobBadPayload(t *testing.T) {
	store := &fakeStore{}
	job := NewTransitionPersistJob(store, BreakerSettings{}, applogger.NewNop())

	assert.Error(t, job.Handle(context.Background(), json.RawMessage(`{`)))
	assert.Zero(t, store.calls)
}

func TestTransitionPersistJobBreakerOpens(t *testing.T) {
	store := &fakeStore{err: errors.New("clickhouse down")}
	job := NewTransitionPersistJob(store, BreakerSettings{TripAfter: 2, OpenFor: time.Hour}, applogger.NewNop())
	payload := transitionPayload(t)

	for i := 0; i < 2; i++ {
		assert.Error(t, job.Handle(context.Background(), payload))
	}
	assert.Equal(t, gobreaker.StateOpen, job.State())

	err := job.Handle(context.Background(), payload)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, store.calls)
}

type fakeEnqueuer struct {
	msgType string
	payload interface{}
	err     error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	f.msgType, f.payload = msgType, payload
	return f.err
}

func TestRedisTransitionQueue(t *testing.T) {
	q := &fakeEnqueuer{}
	tr := &models.Transition{ID: "x", Symbol: "SOLUSDT"}

	require.NoError(t, NewRedisTransitionQueue(q).EnqueueTransition(context.Background(), tr))
	assert.Equal(t, PersistTransitionType, q.msgType)
	assert.Same(t, tr, q.payload)

	q.err = errors.New("redis down")
	assert.ErrorContains(t, NewRedisTransitionQueue(q).EnqueueTransition(context.Background(), tr), "enqueue transition x")
}
