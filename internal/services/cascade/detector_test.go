package cascade

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CascadeWatch/internal/domain/models"
)

func newTestDetector(opts ...Option) (*Detector, *ManualClock) {
	clock := NewManualClock(time.Unix(1_700_000_000, 0))
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewDetector("btcusdt", opts...), clock
}

func alternating(i int) float64 {
	if i%2 == 0 {
		return 0.001
	}
	return -0.001
}

func TestDetectorColdStart(t *testing.T) {
	d, _ := newTestDetector()
	s := d.CurrentStatus()

	assert.Equal(t, "BTCUSDT", s.Symbol)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, models.LightGreen, s.Light)
	assert.Equal(t, 0, s.RQ)
	assert.Equal(t, models.RQPoor, s.RQBucket)
	assert.Equal(t, models.RegimeLow, s.Regime)
	assert.Equal(t, 1, s.RQThreshold)
	assert.False(t, s.AutoBlock)
	assert.True(t, s.UpdatedAt.IsZero())
}

func TestDetectorSingleTickIsFinite(t *testing.T) {
	d, _ := newTestDetector()
	s := d.IngestTick(models.Tick{LiqNotional: 1000, Ret1s: 0.002, OI: 1e9, SideMatch: true})

	assert.Equal(t, 0.0, s.RET)
	assert.Equal(t, 1.0, s.LQ)
	for _, v := range []float64{s.LQ, s.RET, s.OI, s.DOI1m, s.DOI3m, s.MedianLiq} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestDetectorSanitizesInputs(t *testing.T) {
	d, _ := newTestDetector()
	d.IngestTick(models.Tick{LiqNotional: 10, Ret1s: 0.001, OI: 100})
	s := d.IngestTick(models.Tick{LiqNotional: math.NaN(), Ret1s: math.Inf(1), OI: math.NaN()})

	assert.False(t, math.IsNaN(s.LQ))
	assert.False(t, math.IsNaN(s.RET))
	assert.Equal(t, []float64{10, 0}, d.windows.Liq.Values())
	assert.Equal(t, []float64{0.001, 0}, d.windows.Ret.Values())
	assert.Equal(t, 1, d.windows.OI.Len())

	d.IngestTick(models.Tick{LiqNotional: -5, OI: -1})
	assert.Equal(t, []float64{10, 0, 0}, d.windows.Liq.Values())
	assert.Equal(t, 1, d.windows.OI.Len())
}

func TestDetectorWindowCapacities(t *testing.T) {
	d, clock := newTestDetector()
	for i := 0; i < 1000; i++ {
		clock.Advance(time.Second)
		s := d.IngestTick(models.Tick{
			LiqNotional: float64(i % 17),
			Ret1s:       alternating(i) * float64(i%5),
			OI:          1000 + float64(i%13),
			SideMatch:   i%3 == 0,
		})
		require.LessOrEqual(t, d.windows.Liq.Len(), LiqWindowCap)
		require.LessOrEqual(t, d.windows.Ret.Len(), RetWindowCap)
		require.LessOrEqual(t, d.windows.OI.Len(), OIWindowCap)
		require.GreaterOrEqual(t, s.Score, 0)
		require.LessOrEqual(t, s.Score, 6)
		require.GreaterOrEqual(t, s.RQ, 0)
	}
	assert.Equal(t, LiqWindowCap, d.windows.Liq.Len())
	assert.Equal(t, OIWindowCap, d.windows.OI.Len())
}

func TestDetectorCurrentStatusIsStable(t *testing.T) {
	d, clock := newTestDetector()
	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		d.IngestTick(models.Tick{LiqNotional: 5, Ret1s: alternating(i), OI: 100, SideMatch: true})
	}

	first := d.CurrentStatus()
	second := d.CurrentStatus()
	assert.Equal(t, first, second)

	first.Score = 99
	assert.NotEqual(t, 99, d.CurrentStatus().Score)
}

// Builds a window where exactly half the liquidation samples are zero so the
// median flips from 0 to positive on the final tick.
func TestDetectorEscalatesFromGreenToRedOnOneTick(t *testing.T) {
	d, clock := newTestDetector()

	for i := 0; i < 39; i++ {
		clock.Advance(time.Second)
		liq := 0.0
		if i >= 20 {
			liq = 1000
		}
		s := d.IngestTick(models.Tick{LiqNotional: liq, Ret1s: alternating(i), OI: 100})
		require.Equal(t, models.LightGreen, s.Light, "warmup tick %d score %d", i, s.Score)
	}

	clock.Advance(time.Second)
	s := d.IngestTick(models.Tick{LiqNotional: 1000, Ret1s: alternating(39), OI: 95, SideMatch: true})

	assert.GreaterOrEqual(t, s.LQ, 8.0)
	assert.GreaterOrEqual(t, s.RET, 35.0)
	assert.InDelta(t, 5.0, s.OI, 1e-9)
	assert.Equal(t, 6, s.Score)
	assert.Equal(t, models.LightRed, s.Light)
}

func TestDetectorAutoBlock(t *testing.T) {
	d, clock := newTestDetector(WithAutoEnabled(true))
	assert.True(t, d.AutoEnabled())

	for i := 0; i < 39; i++ {
		clock.Advance(time.Second)
		liq := 0.0
		if i >= 20 {
			liq = 1000
		}
		d.IngestTick(models.Tick{LiqNotional: liq, Ret1s: alternating(i), OI: 100})
	}
	clock.Advance(time.Second)
	s := d.IngestTick(models.Tick{LiqNotional: 1000, Ret1s: alternating(39), OI: 95, SideMatch: true})
	require.Equal(t, models.LightRed, s.Light)
	assert.True(t, s.AutoBlock)

	d.SetAutoEnabled(false)
	s = d.CurrentStatus()
	assert.False(t, s.AutoEnabled)
	assert.False(t, s.AutoBlock)
	assert.Equal(t, models.LightRed, s.Light)
	assert.Equal(t, 6, s.Score)

	d.SetAutoEnabled(true)
	assert.True(t, d.CurrentStatus().AutoBlock)
}

func TestDetectorOIBuildingSuppressesReversalQuality(t *testing.T) {
	d, clock := newTestDetector()
	for i := 0; i < 200; i++ {
		clock.Advance(time.Second)
		s := d.IngestTick(models.Tick{
			LiqNotional: 1000,
			Ret1s:       alternating(i),
			OI:          1000 + float64(i),
			SideMatch:   true,
		})
		if i == 0 {
			continue
		}
		require.Greater(t, s.DOI1m, 0.0)
		require.Greater(t, s.DOI3m, 0.0)
		assert.LessOrEqual(t, s.RQ, 1, "tick %d", i)
	}
}

func TestDetectorDOIUsesInjectedClock(t *testing.T) {
	d, clock := newTestDetector()
	d.IngestTick(models.Tick{OI: 100})
	clock.Advance(60 * time.Second)
	s := d.IngestTick(models.Tick{OI: 98})

	assert.InDelta(t, -2.0, s.DOI1m, 1e-9)
	assert.InDelta(t, -2.0, s.DOI3m, 1e-9)
	assert.Equal(t, clock.Now(), s.UpdatedAt)
}

func TestDetectorConcurrentReads(t *testing.T) {
	d, clock := newTestDetector(WithAutoEnabled(true))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := d.CurrentStatus()
				if s.AutoBlock != (s.AutoEnabled && s.Light.Blocking()) {
					t.Errorf("inconsistent snapshot: %+v", s)
					return
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		clock.Advance(time.Second)
		d.IngestTick(models.Tick{LiqNotional: float64(i % 50), Ret1s: alternating(i), OI: 500 - float64(i%40), SideMatch: true})
		if i%100 == 0 {
			d.SetAutoEnabled(i%200 == 0)
		}
	}
	close(stop)
	wg.Wait()
}
