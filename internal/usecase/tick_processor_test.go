package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CascadeWatch/internal/domain/models"
	"CascadeWatch/pkg/logger"
)

func TestTickProcessorFansOutTransition(t *testing.T) {
	r, clock := newTestRegistry()
	r.Watch("BTCUSDT")
	pub, queue, sink, m := &fakePublisher{}, &fakeQueue{}, &fakeSink{}, newFakeMetrics()
	p := NewTickProcessor(r, pub, queue, sink, m, logger.NewNop())

	for _, tick := range redScenario("btcusdt") {
		clock.Advance(time.Second)
		tick := tick
		require.NoError(t, p.Process(context.Background(), &tick))
	}

	assert.Len(t, sink.statuses, 40)
	assert.Equal(t, 40, m.ticks)
	require.Len(t, sink.transitions, 1)
	require.Len(t, pub.got, 1)
	require.Len(t, queue.got, 1)
	assert.Same(t, sink.transitions[0], pub.got[0])
	assert.Same(t, pub.got[0], queue.got[0])
	assert.Equal(t, models.LightRed, pub.got[0].To)
	assert.Equal(t, 1, m.trans)
}

func TestTickProcessorDownstreamFailuresDoNotFailTick(t *testing.T) {
	r, clock := newTestRegistry()
	r.Watch("BTCUSDT")
	pub := &fakePublisher{err: errors.New("broker down")}
	queue := &fakeQueue{err: errors.New("redis down")}
	m := newFakeMetrics()
	p := NewTickProcessor(r, pub, queue, nil, m, logger.NewNop())

	for _, tick := range redScenario("BTCUSDT") {
		clock.Advance(time.Second)
		tick := tick
		require.NoError(t, p.Process(context.Background(), &tick))
	}

	assert.Equal(t, 1, m.errorCount("publish_transition"))
	assert.Equal(t, 1, m.errorCount("enqueue_transition"))
	st, ok := r.Status("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, models.LightRed, st.Light)
}

func TestTickProcessorRejects(t *testing.T) {
	r, _ := newTestRegistry()
	m := newFakeMetrics()
	p := NewTickProcessor(r, nil, nil, nil, m, logger.NewNop())

	assert.Error(t, p.Process(context.Background(), nil))

	err := p.Process(context.Background(), &models.Tick{Symbol: "ETHUSDT"})
	assert.ErrorIs(t, err, ErrSymbolNotWatched)
	assert.Equal(t, 1, m.errorCount("not_watched"))
	assert.Zero(t, m.ticks)
}

func TestTickProcessorClose(t *testing.T) {
	pub := &fakePublisher{}
	r, _ := newTestRegistry()
	NewTickProcessor(r, pub, nil, nil, newFakeMetrics(), logger.NewNop()).Close()
	assert.True(t, pub.closed)
}
