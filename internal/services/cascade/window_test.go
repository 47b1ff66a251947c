package cascade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	assert.Empty(t, w.Values())

	for i := 1; i <= 5; i++ {
		w.Push(float64(i))
		assert.LessOrEqual(t, w.Len(), 3)
	}
	assert.Equal(t, []float64{3, 4, 5}, w.Values())
	assert.Equal(t, 3, w.Cap())
}

func TestWindowValuesIsCopy(t *testing.T) {
	w := NewWindow(2)
	w.Push(1)
	vals := w.Values()
	vals[0] = 99
	assert.Equal(t, []float64{1}, w.Values())
}

func TestOIWindowLatestAndMax(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	w := NewOIWindow(4)

	_, ok := w.MaxExcludingLatest()
	assert.False(t, ok)

	for i, v := range []float64{100, 120, 110, 90, 80} {
		w.Push(v, base.Add(time.Duration(i)*time.Second))
	}
	// 100 has been evicted
	assert.Equal(t, 4, w.Len())
	latest, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, 80.0, latest.Value)

	peak, ok := w.MaxExcludingLatest()
	require.True(t, ok)
	assert.Equal(t, 120.0, peak)
}

func TestOIWindowNearest(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	w := NewOIWindow(10)

	_, ok := w.Nearest(base)
	assert.False(t, ok)

	w.Push(1, base)
	w.Push(2, base.Add(2*time.Second))
	w.Push(3, base.Add(10*time.Second))

	tests := []struct {
		name   string
		target time.Time
		want   float64
	}{
		{"before first", base.Add(-time.Hour), 1},
		{"after last", base.Add(time.Hour), 3},
		{"exact", base.Add(2 * time.Second), 2},
		{"closer to later", base.Add(7 * time.Second), 3},
		{"tie goes to older", base.Add(time.Second), 1},
		{"tie between 2s and 10s", base.Add(6 * time.Second), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := w.Nearest(tt.target)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestOIWindowNearestAfterWrap(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	w := NewOIWindow(3)
	for i := 0; i < 7; i++ {
		w.Push(float64(i), base.Add(time.Duration(i)*time.Second))
	}
	// holds samples 4, 5, 6
	got, ok := w.Nearest(base.Add(5 * time.Second))
	require.True(t, ok)
	assert.Equal(t, 5.0, got.Value)

	got, _ = w.Nearest(base)
	assert.Equal(t, 4.0, got.Value)
}

func TestOIWindowClampsBackwardsTimestamps(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	w := NewOIWindow(5)
	w.Push(1, base.Add(10*time.Second))
	w.Push(2, base)

	samples := w.Samples()
	require.Len(t, samples, 2)
	assert.Equal(t, samples[0].At, samples[1].At)
}
