package usecase

import (
	"context"
	"sync"
	"time"

	"CascadeWatch/internal/domain/models"
	drepo "CascadeWatch/internal/domain/repository"
	"CascadeWatch/internal/services/cascade"
)

var t0 = time.Unix(1_700_000_000, 0)

func alternating(i int) float64 {
	if i%2 == 0 {
		return 0.001
	}
	return -0.001
}

// redScenario returns ticks that keep a fresh detector green for 39 ticks
// and turn it red on the 40th.
func redScenario(symbol string) []models.Tick {
	out := make([]models.Tick, 0, 40)
	for i := 0; i < 39; i++ {
		liq := 0.0
		if i >= 20 {
			liq = 1000
		}
		out = append(out, models.Tick{Symbol: symbol, LiqNotional: liq, Ret1s: alternating(i), OI: 100})
	}
	return append(out, models.Tick{Symbol: symbol, LiqNotional: 1000, Ret1s: alternating(39), OI: 95, SideMatch: true})
}

func newTestRegistry(opts ...RegistryOption) (*Registry, *cascade.ManualClock) {
	clock := cascade.NewManualClock(t0)
	return NewRegistry(append([]RegistryOption{WithRegistryClock(clock)}, opts...)...), clock
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	got    []*models.Transition
	closed bool
}

func (f *fakePublisher) PublishTransition(_ context.Context, t *models.Transition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, t)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fakeQueue struct {
	mu  sync.Mutex
	err error
	got []*models.Transition
}

func (f *fakeQueue) EnqueueTransition(_ context.Context, t *models.Transition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, t)
	return f.err
}

type fakeSink struct {
	mu          sync.Mutex
	statuses    []models.CascadeStatus
	transitions []*models.Transition
}

func (f *fakeSink) OnStatus(s models.CascadeStatus) {
	f.mu.Lock()
	f.statuses = append(f.statuses, s)
	f.mu.Unlock()
}

func (f *fakeSink) OnTransition(t *models.Transition) {
	f.mu.Lock()
	f.transitions = append(f.transitions, t)
	f.mu.Unlock()
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
	ticks  int
	trans  int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: map[string]int{}} }

func (f *fakeMetrics) RecordTick(string) {
	f.mu.Lock()
	f.ticks++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordStatus(models.CascadeStatus) {}

func (f *fakeMetrics) RecordTransition(*models.Transition) {
	f.mu.Lock()
	f.trans++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordError(kind string) {
	f.mu.Lock()
	f.errors[kind]++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordLatency(string, float64) {}

func (f *fakeMetrics) errorCount(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors[kind]
}

type memStatusStore struct {
	mu       sync.Mutex
	statuses map[string]models.CascadeStatus
	flags    *drepo.AutoFlags
	err      error
	saves    int
}

func newMemStatusStore() *memStatusStore {
	return &memStatusStore{statuses: map[string]models.CascadeStatus{}}
}

func (m *memStatusStore) SaveStatuses(_ context.Context, ss []models.CascadeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	for _, s := range ss {
		m.statuses[s.Symbol] = s
	}
	return nil
}

func (m *memStatusStore) LoadStatus(_ context.Context, symbol string) (*models.CascadeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[symbol]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memStatusStore) SaveAutoFlags(_ context.Context, flags drepo.AutoFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.flags = &flags
	return nil
}

func (m *memStatusStore) LoadAutoFlags(context.Context) (*drepo.AutoFlags, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags, m.err
}

type fakeTransitionStore struct {
	rows  []*models.Transition
	err   error
	limit int
}

func (f *fakeTransitionStore) Init(context.Context) error { return nil }

func (f *fakeTransitionStore) StoreBatch(context.Context, []*models.Transition) error { return nil }

func (f *fakeTransitionStore) Query(_ context.Context, _ string, _, _ time.Time, limit int) ([]*models.Transition, error) {
	f.limit = limit
	return f.rows, f.err
}

func (f *fakeTransitionStore) Health(context.Context) error { return nil }

func (f *fakeTransitionStore) Close() error { return nil }
