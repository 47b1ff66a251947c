package cascade

import (
	"strings"
	"sync"
	"sync/atomic"

	"CascadeWatch/internal/domain/models"
	"CascadeWatch/internal/domain/service"
	"CascadeWatch/internal/services/features"
)

var _ service.CascadeDetector = (*Detector)(nil)

// Detector turns a symbol's tick stream into CascadeStatus snapshots.
//
// Ingestion is serialized by mu. The last status is published through an
// atomic pointer, so CurrentStatus never blocks and always returns a whole
// record from a single tick.
type Detector struct {
	symbol string
	clock  Clock

	mu        sync.Mutex
	windows   *WindowStore
	hyst      *Hysteresis
	lastScore int

	status      atomic.Pointer[models.CascadeStatus]
	autoEnabled atomic.Bool
}

type Option func(*Detector)

func WithClock(c Clock) Option {
	return func(d *Detector) {
		if c != nil {
			d.clock = c
		}
	}
}

func WithAutoEnabled(enabled bool) Option {
	return func(d *Detector) {
		d.autoEnabled.Store(enabled)
	}
}

func NewDetector(symbol string, opts ...Option) *Detector {
	d := &Detector{
		symbol:  strings.ToUpper(symbol),
		clock:   SystemClock{},
		windows: NewWindowStore(),
		hyst:    NewHysteresis(),
	}
	for _, opt := range opts {
		opt(d)
	}

	initial := coldStatus(d.symbol, d.autoEnabled.Load())
	d.status.Store(&initial)
	return d
}

func coldStatus(symbol string, autoEnabled bool) models.CascadeStatus {
	regime, threshold := RegimeFor(0)
	return models.CascadeStatus{
		Symbol:      symbol,
		Light:       models.LightGreen,
		AutoEnabled: autoEnabled,
		RQBucket:    BucketFor(0),
		Regime:      regime,
		RQThreshold: threshold,
	}
}

func (d *Detector) Symbol() string { return d.symbol }

// IngestTick applies one tick and returns the resulting status.
func (d *Detector) IngestTick(tick models.Tick) models.CascadeStatus {
	status, _ := d.Apply(tick)
	return status
}

// Apply is IngestTick that also returns the light in effect before the tick,
// read under the same lock.
func (d *Detector) Apply(tick models.Tick) (models.CascadeStatus, models.Light) {
	liq, ret, oi, oiOK := sanitize(tick)

	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.hyst.Level()
	now := d.clock.Now()
	d.windows.Liq.Push(liq)
	d.windows.Ret.Push(ret)
	if oiOK {
		d.windows.OI.Push(oi, now)
	}

	f := ComputeFeatures(d.windows, now)
	score := Score(f, tick.SideMatch)
	light := d.hyst.Step(score)
	d.lastScore = score

	rq := ReversalQuality(f)
	regime, threshold := RegimeFor(f.RET)
	auto := d.autoEnabled.Load()

	status := models.CascadeStatus{
		Symbol:      d.symbol,
		Score:       score,
		LQ:          f.LQ,
		RET:         f.RET,
		OI:          f.OI,
		Light:       light,
		AutoBlock:   auto && light.Blocking(),
		AutoEnabled: auto,
		MedianLiq:   f.MedianLiq,
		DOI1m:       f.DOI1m,
		DOI3m:       f.DOI3m,
		RQ:          rq,
		RQBucket:    BucketFor(rq),
		Regime:      regime,
		RQThreshold: threshold,
		UpdatedAt:   now,
	}
	d.status.Store(&status)

	return status, prev
}

// CurrentStatus returns the last computed status without touching detector state.
func (d *Detector) CurrentStatus() models.CascadeStatus {
	return *d.status.Load()
}

// SetAutoEnabled toggles auto gating. The score and light are unaffected; the
// published snapshot is refreshed so gates see the new autoBlock immediately.
func (d *Detector) SetAutoEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.autoEnabled.Store(enabled)

	next := *d.status.Load()
	next.AutoEnabled = enabled
	next.AutoBlock = enabled && next.Light.Blocking()
	d.status.Store(&next)
}

func (d *Detector) AutoEnabled() bool {
	return d.autoEnabled.Load()
}

// LastScore is the raw score of the most recent tick.
func (d *Detector) LastScore() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastScore
}

// sanitize keeps non-finite or impossible values out of the windows.
// Liquidation notional is clamped to >= 0, a non-finite return becomes 0, and
// an unusable open-interest reading is skipped for this tick.
func sanitize(t models.Tick) (liq, ret, oi float64, oiOK bool) {
	liq = t.LiqNotional
	if !features.IsFinite(liq) || liq < 0 {
		liq = 0
	}
	ret = t.Ret1s
	if !features.IsFinite(ret) {
		ret = 0
	}
	oi = t.OI
	oiOK = features.IsFinite(oi) && oi > 0
	return liq, ret, oi, oiOK
}
