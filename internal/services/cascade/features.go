package cascade

import (
	"time"

	"CascadeWatch/internal/services/features"
)

const (
	oiLookback1m = time.Minute
	oiLookback3m = 3 * time.Minute
)

// Features are the per-tick derived values. All are finite; every guarded
// division falls back to 0.
type Features struct {
	MedianLiq float64
	// LQ is total liquidation notional over the window relative to its median.
	LQ float64
	// RET is the sum of absolute returns relative to their population stddev.
	RET float64
	// OI is the percentage drop of the latest open interest from the window
	// peak (excluding the latest sample), floored at 0.
	OI    float64
	DOI1m float64
	DOI3m float64
}

// ComputeFeatures derives Features from the current window contents.
func ComputeFeatures(ws *WindowStore, now time.Time) Features {
	liq := ws.Liq.Values()
	ret := ws.Ret.Values()

	f := Features{MedianLiq: features.Median(liq)}
	f.LQ = features.SafeDiv(features.Sum(liq), f.MedianLiq)
	f.RET = features.SafeDiv(features.SumAbs(ret), features.StdDev(ret))
	f.OI = oiDrawdown(ws.OI)
	f.DOI1m = oiChange(ws.OI, now.Add(-oiLookback1m))
	f.DOI3m = oiChange(ws.OI, now.Add(-oiLookback3m))
	return f
}

func oiDrawdown(w *OIWindow) float64 {
	peak, ok := w.MaxExcludingLatest()
	if !ok {
		return 0
	}
	latest, _ := w.Latest()
	dd := features.SafeDiv(peak-latest.Value, peak) * 100
	if dd < 0 {
		return 0
	}
	return dd
}

func oiChange(w *OIWindow, target time.Time) float64 {
	latest, ok := w.Latest()
	if !ok {
		return 0
	}
	ref, _ := w.Nearest(target)
	return features.PctChange(ref.Value, latest.Value)
}
