package cascade

import (
	"sort"
	"time"
)

// Window capacities are sample counts, not durations: at one tick per second
// the liquidation and return windows span about a minute and the open-interest
// window about five minutes.
const (
	LiqWindowCap = 60
	RetWindowCap = 60
	OIWindowCap  = 300
)

// Window is a fixed-capacity ring of float samples. Pushing into a full
// window evicts the oldest sample.
type Window struct {
	buf  []float64
	next int
	n    int
}

func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]float64, capacity)}
}

func (w *Window) Push(v float64) {
	w.buf[w.next] = v
	w.next = (w.next + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
}

func (w *Window) Len() int { return w.n }

func (w *Window) Cap() int { return len(w.buf) }

// Values returns a chronological copy, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, w.n)
	start := w.start()
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(start+i)%len(w.buf)]
	}
	return out
}

func (w *Window) start() int {
	if w.n < len(w.buf) {
		return 0
	}
	return w.next
}

// OISample is one timestamped open-interest reading.
type OISample struct {
	Value float64
	At    time.Time
}

// OIWindow is a ring of open-interest samples kept in insertion order.
// Timestamps are non-decreasing; Push clamps an earlier timestamp to the
// latest one so lookups can binary search.
type OIWindow struct {
	buf  []OISample
	next int
	n    int
}

func NewOIWindow(capacity int) *OIWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &OIWindow{buf: make([]OISample, capacity)}
}

func (w *OIWindow) Push(value float64, at time.Time) {
	if last, ok := w.Latest(); ok && at.Before(last.At) {
		at = last.At
	}
	w.buf[w.next] = OISample{Value: value, At: at}
	w.next = (w.next + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
}

func (w *OIWindow) Len() int { return w.n }

func (w *OIWindow) Cap() int { return len(w.buf) }

// at returns the i-th sample in chronological order.
func (w *OIWindow) at(i int) OISample {
	start := 0
	if w.n == len(w.buf) {
		start = w.next
	}
	return w.buf[(start+i)%len(w.buf)]
}

func (w *OIWindow) Latest() (OISample, bool) {
	if w.n == 0 {
		return OISample{}, false
	}
	return w.at(w.n - 1), true
}

// MaxExcludingLatest is the largest value among all but the newest sample.
// ok is false with fewer than two samples.
func (w *OIWindow) MaxExcludingLatest() (float64, bool) {
	if w.n < 2 {
		return 0, false
	}
	peak := w.at(0).Value
	for i := 1; i < w.n-1; i++ {
		if v := w.at(i).Value; v > peak {
			peak = v
		}
	}
	return peak, true
}

// Nearest returns the sample whose timestamp is closest to target. On a tie
// the older sample wins.
func (w *OIWindow) Nearest(target time.Time) (OISample, bool) {
	if w.n == 0 {
		return OISample{}, false
	}
	// first index with At >= target
	i := sort.Search(w.n, func(i int) bool {
		return !w.at(i).At.Before(target)
	})
	switch {
	case i == 0:
		return w.at(0), true
	case i == w.n:
		return w.at(w.n - 1), true
	}
	before, after := w.at(i-1), w.at(i)
	if after.At.Sub(target) < target.Sub(before.At) {
		return after, true
	}
	return before, true
}

// Samples returns a chronological copy.
func (w *OIWindow) Samples() []OISample {
	out := make([]OISample, w.n)
	for i := range out {
		out[i] = w.at(i)
	}
	return out
}

// WindowStore groups the three per-symbol windows.
type WindowStore struct {
	Liq *Window
	Ret *Window
	OI  *OIWindow
}

func NewWindowStore() *WindowStore {
	return &WindowStore{
		Liq: NewWindow(LiqWindowCap),
		Ret: NewWindow(RetWindowCap),
		OI:  NewOIWindow(OIWindowCap),
	}
}
