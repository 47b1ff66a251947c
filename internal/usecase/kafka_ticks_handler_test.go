package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mid "CascadeWatch/internal/middleware"
	"CascadeWatch/pkg/logger"
)

func TestKafkaTicksHandler(t *testing.T) {
	r, clock := newTestRegistry()
	r.Watch("BTCUSDT")
	m := newFakeMetrics()
	proc := NewTickProcessor(r, nil, nil, nil, m, logger.NewNop())
	h := NewKafkaTicksHandler("cascade.ticks", mid.NewTickPipeline(proc, m), m, logger.NewNop())
	ctx := context.Background()

	assert.Equal(t, "cascade.ticks", h.Topic())

	err := h.Handle(ctx, []byte(`{"symbol":`))
	require.Error(t, err)
	assert.Equal(t, 1, m.errorCount("consumer_unmarshal"))

	assert.NoError(t, h.Handle(ctx, []byte(`{"symbol":"ETHUSDT","liq_notional":5,"oi":10}`)))
	assert.NoError(t, h.Handle(ctx, []byte(`{"symbol":"","oi":10}`)))

	clock.Advance(time.Second)
	require.NoError(t, h.Handle(ctx, []byte(`{"symbol":"btcusdt","liq_notional":5,"ret_1s":0.001,"oi":10,"ret_side_matches_liq":true}`)))
	st, ok := r.Status("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, clock.Now(), st.UpdatedAt)
	assert.Equal(t, 1, m.ticks)
}
