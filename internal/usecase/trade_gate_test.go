package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CascadeWatch/internal/domain/models"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		status  models.CascadeStatus
		allowed bool
		reason  string
	}{
		{"auto disabled passes even when red", models.CascadeStatus{Light: models.LightRed, AutoBlock: false, AutoEnabled: false}, true, models.GateAutoDisabled},
		{"auto block", models.CascadeStatus{Light: models.LightOrange, AutoBlock: true, AutoEnabled: true, RQ: 5, RQThreshold: 3}, false, models.GateAutoBlock},
		{"quality below threshold", models.CascadeStatus{Light: models.LightGreen, AutoEnabled: true, RQ: 2, RQThreshold: 3}, false, models.GateQualityTooLow},
		{"quality at threshold", models.CascadeStatus{Light: models.LightYellow, AutoEnabled: true, RQ: 3, RQThreshold: 3}, true, models.GateOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.status)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
			require.NotNil(t, d.Status)
		})
	}
}

func TestTradeGateCheck(t *testing.T) {
	r, clock := newTestRegistry(WithDefaultAutoEnabled(true))
	gate := NewTradeGate(r)

	d := gate.Check("dogeusdt")
	assert.True(t, d.Allowed)
	assert.Equal(t, models.GateNotWatched, d.Reason)
	assert.Equal(t, "DOGEUSDT", d.Symbol)
	assert.Nil(t, d.Status)

	r.Watch("BTCUSDT")
	for _, tick := range redScenario("BTCUSDT") {
		clock.Advance(time.Second)
		_, _, err := r.Ingest(tick)
		require.NoError(t, err)
	}
	d = gate.Check("BTCUSDT")
	assert.False(t, d.Allowed)
	assert.Equal(t, models.GateAutoBlock, d.Reason)

	require.NoError(t, r.SetAutoEnabled("BTCUSDT", false))
	d = gate.Check("BTCUSDT")
	assert.True(t, d.Allowed)
	assert.Equal(t, models.GateAutoDisabled, d.Reason)
}
