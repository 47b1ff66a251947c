package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CascadeWatch/internal/domain/models"
)

func escalationTicks(symbol string) string {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		liq, oi, side := 0.0, 100.0, false
		if i >= 20 {
			liq = 1000
		}
		if i == 39 {
			oi, side = 95, true
		}
		ret := 0.001
		if i%2 == 1 {
			ret = -0.001
		}
		fmt.Fprintf(&b, `{"symbol":%q,"liq_notional":%g,"ret_1s":%g,"oi":%g,"ret_side_matches_liq":%t}`+"\n", symbol, liq, ret, oi, side)
	}
	return b.String()
}

func TestReplayTransitionsOnly(t *testing.T) {
	in := escalationTicks("btcusdt") + "\n" + `{"symbol":"ETHUSDT","liq_notional":1,"oi":5}` + "\n"
	var out bytes.Buffer

	sum, err := replay(strings.NewReader(in), &out, replayOptions{Symbol: "BTCUSDT", TransitionsOnly: true, AutoEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, replaySummary{Ticks: 40, Skipped: 1, Transitions: 1, Symbols: 1}, sum)

	var msg struct {
		Type string            `json:"type"`
		Data models.Transition `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &msg))
	assert.Equal(t, models.StreamTransition, msg.Type)
	assert.Equal(t, models.LightGreen, msg.Data.From)
	assert.Equal(t, models.LightRed, msg.Data.To)
	assert.True(t, msg.Data.Status.AutoBlock)
}

func TestReplayAllStatuses(t *testing.T) {
	in := `{"symbol":"SOLUSDT","liq_notional":5,"oi":10,"ts":1700000000000}` + "\n" +
		`{"symbol":"SOLUSDT","liq_notional":6,"oi":11}` + "\n"
	var out bytes.Buffer

	sum, err := replay(strings.NewReader(in), &out, replayOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Ticks)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var first, second models.CascadeStatus
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, int64(1700000000), first.UpdatedAt.Unix())
	assert.Equal(t, int64(1700000001), second.UpdatedAt.Unix())
}

func TestReplayBadLine(t *testing.T) {
	_, err := replay(strings.NewReader("{not json}\n"), &bytes.Buffer{}, replayOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestReplayClockFollowsTimestamps(t *testing.T) {
	const base = int64(1700000000000)
	var in strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&in, `{"symbol":"BTCUSDT","oi":100,"ts":%d}`+"\n", base)
	}
	fmt.Fprintf(&in, `{"symbol":"BTCUSDT","oi":100,"ts":%d}`+"\n", base-5000)
	fmt.Fprintf(&in, `{"symbol":"BTCUSDT","oi":100,"ts":%d}`+"\n", base+2000)
	fmt.Fprintf(&in, `{"symbol":"BTCUSDT","oi":100}`+"\n")

	var out bytes.Buffer
	sum, err := replay(strings.NewReader(in.String()), &out, replayOptions{})
	require.NoError(t, err)
	require.Equal(t, 13, sum.Ticks)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 13)
	at := make([]int64, len(lines))
	for i, l := range lines {
		var s models.CascadeStatus
		require.NoError(t, json.Unmarshal([]byte(l), &s))
		at[i] = s.UpdatedAt.UnixMilli()
	}

	tests := []struct {
		name string
		idx  int
		want int64
	}{
		{"first tick", 0, base},
		{"repeated timestamp does not drift", 9, base},
		{"older timestamp holds the clock", 10, base},
		{"later timestamp sets the clock", 11, base + 2000},
		{"missing timestamp advances one second", 12, base + 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, at[tt.idx])
		})
	}
}
