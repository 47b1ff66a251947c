package usecase

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"CascadeWatch/internal/domain/models"
	"CascadeWatch/internal/services/cascade"
)

var ErrSymbolNotWatched = errors.New("symbol not watched")

// Registry owns one Detector per monitored symbol. A detector is created when
// its symbol is watched and discarded when it is unwatched.
type Registry struct {
	mu          sync.RWMutex
	detectors   map[string]*cascade.Detector
	autoDefault bool
	autoWatch   bool
	clock       cascade.Clock
}

type RegistryOption func(*Registry)

// WithAutoWatch makes Ingest start watching unknown symbols on their first tick.
func WithAutoWatch(enabled bool) RegistryOption {
	return func(r *Registry) { r.autoWatch = enabled }
}

// WithDefaultAutoEnabled sets the auto gating flag given to newly watched symbols.
func WithDefaultAutoEnabled(enabled bool) RegistryOption {
	return func(r *Registry) { r.autoDefault = enabled }
}

func WithRegistryClock(c cascade.Clock) RegistryOption {
	return func(r *Registry) { r.clock = c }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		detectors: make(map[string]*cascade.Detector),
		clock:     cascade.SystemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Watch starts monitoring symbol. It reports false if the symbol was already watched.
func (r *Registry) Watch(symbol string) bool {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.detectors[symbol]; ok {
		return false
	}
	r.detectors[symbol] = r.newDetectorLocked(symbol)
	return true
}

func (r *Registry) newDetectorLocked(symbol string) *cascade.Detector {
	return cascade.NewDetector(symbol,
		cascade.WithClock(r.clock),
		cascade.WithAutoEnabled(r.autoDefault),
	)
}

// Unwatch stops monitoring symbol and drops its detector state.
func (r *Registry) Unwatch(symbol string) bool {
	symbol = NormalizeSymbol(symbol)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.detectors[symbol]; !ok {
		return false
	}
	delete(r.detectors, symbol)
	return true
}

func (r *Registry) Get(symbol string) (*cascade.Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[NormalizeSymbol(symbol)]
	return d, ok
}

// Symbols returns the watched symbols in sorted order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.detectors))
	for s := range r.detectors {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Ingest routes tick to its symbol's detector. It returns a Transition when
// the light changed on this tick.
func (r *Registry) Ingest(tick models.Tick) (models.CascadeStatus, *models.Transition, error) {
	symbol := NormalizeSymbol(tick.Symbol)
	d, ok := r.Get(symbol)
	if !ok {
		if !r.autoWatch {
			return models.CascadeStatus{}, nil, ErrSymbolNotWatched
		}
		r.Watch(symbol)
		if d, ok = r.Get(symbol); !ok {
			return models.CascadeStatus{}, nil, ErrSymbolNotWatched
		}
	}

	status, prev := d.Apply(tick)
	if status.Light == prev {
		return status, nil, nil
	}

	return status, &models.Transition{
		ID:     uuid.NewString(),
		Symbol: status.Symbol,
		From:   prev,
		To:     status.Light,
		Score:  status.Score,
		At:     status.UpdatedAt,
		Status: status,
	}, nil
}

func (r *Registry) Status(symbol string) (models.CascadeStatus, bool) {
	d, ok := r.Get(symbol)
	if !ok {
		return models.CascadeStatus{}, false
	}
	return d.CurrentStatus(), true
}

// Statuses returns the current status of every watched symbol, sorted by symbol.
func (r *Registry) Statuses() []models.CascadeStatus {
	r.mu.RLock()
	out := make([]models.CascadeStatus, 0, len(r.detectors))
	for _, d := range r.detectors {
		out = append(out, d.CurrentStatus())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (r *Registry) SetAutoEnabled(symbol string, enabled bool) error {
	d, ok := r.Get(symbol)
	if !ok {
		return ErrSymbolNotWatched
	}
	d.SetAutoEnabled(enabled)
	return nil
}

// SetAutoEnabledAll applies enabled to every watched symbol and to symbols watched later.
func (r *Registry) SetAutoEnabledAll(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoDefault = enabled
	for _, d := range r.detectors {
		d.SetAutoEnabled(enabled)
	}
}

func (r *Registry) AutoEnabledDefault() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.autoDefault
}

// AutoFlags returns the per-symbol auto gating flags.
func (r *Registry) AutoFlags() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(r.detectors))
	for s, d := range r.detectors {
		out[s] = d.AutoEnabled()
	}
	return out
}
