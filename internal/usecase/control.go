package usecase

import (
	"context"
	"fmt"

	drepo "CascadeWatch/internal/domain/repository"
	"CascadeWatch/pkg/logger"
)

// ControlUseCase is the operator surface: auto gating flags and the watch
// list. Every change is persisted so a restart keeps the operator's choice.
type ControlUseCase struct {
	registry *Registry
	store    drepo.StatusStore
	log      *logger.Logger

	onWatch   []func(ctx context.Context, symbol string)
	onUnwatch []func(symbol string)
}

func NewControlUseCase(registry *Registry, store drepo.StatusStore, log *logger.Logger) *ControlUseCase {
	return &ControlUseCase{registry: registry, store: store, log: log}
}

// OnWatch registers a hook run after a symbol starts being watched.
func (uc *ControlUseCase) OnWatch(fn func(ctx context.Context, symbol string)) {
	uc.onWatch = append(uc.onWatch, fn)
}

// OnUnwatch registers a hook run after a symbol is dropped.
func (uc *ControlUseCase) OnUnwatch(fn func(symbol string)) {
	uc.onUnwatch = append(uc.onUnwatch, fn)
}

// Set changes the flag for one symbol, or globally when symbol is empty.
func (uc *ControlUseCase) Set(ctx context.Context, symbol string, enabled bool) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		uc.registry.SetAutoEnabledAll(enabled)
	} else if err := uc.registry.SetAutoEnabled(symbol, enabled); err != nil {
		return err
	}

	uc.log.Info("auto gating changed",
		logger.String("symbol", symbol),
		logger.Bool("enabled", enabled),
	)
	return uc.persist(ctx)
}

// Flags returns the global default and per-symbol flags.
func (uc *ControlUseCase) Flags() drepo.AutoFlags {
	return drepo.AutoFlags{
		Default:   uc.registry.AutoEnabledDefault(),
		PerSymbol: uc.registry.AutoFlags(),
	}
}

func (uc *ControlUseCase) persist(ctx context.Context) error {
	if uc.store == nil {
		return nil
	}
	if err := uc.store.SaveAutoFlags(ctx, uc.Flags()); err != nil {
		return fmt.Errorf("persist auto flags: %w", err)
	}
	return nil
}

// Restore applies persisted flags to the registry. Flags for symbols that are
// not watched are ignored. A missing record leaves the configured defaults.
func (uc *ControlUseCase) Restore(ctx context.Context) error {
	if uc.store == nil {
		return nil
	}
	flags, err := uc.store.LoadAutoFlags(ctx)
	if err != nil {
		return fmt.Errorf("load auto flags: %w", err)
	}
	if flags == nil {
		return nil
	}

	uc.registry.SetAutoEnabledAll(flags.Default)
	for symbol, enabled := range flags.PerSymbol {
		_ = uc.registry.SetAutoEnabled(symbol, enabled)
	}
	uc.log.Info("auto gating restored",
		logger.Bool("default", flags.Default),
		logger.Int("symbols", len(flags.PerSymbol)),
	)
	return nil
}

// Watch adds symbol to monitoring and persists the resulting flags.
func (uc *ControlUseCase) Watch(ctx context.Context, symbol string) (bool, error) {
	symbol = NormalizeSymbol(symbol)
	if !uc.registry.Watch(symbol) {
		return false, nil
	}
	for _, fn := range uc.onWatch {
		fn(ctx, symbol)
	}
	uc.log.Info("symbol watched", logger.String("symbol", symbol))
	return true, uc.persist(ctx)
}

// Unwatch removes symbol from monitoring.
func (uc *ControlUseCase) Unwatch(ctx context.Context, symbol string) (bool, error) {
	symbol = NormalizeSymbol(symbol)
	if !uc.registry.Unwatch(symbol) {
		return false, nil
	}
	for _, fn := range uc.onUnwatch {
		fn(symbol)
	}
	uc.log.Info("symbol unwatched", logger.String("symbol", symbol))
	return true, uc.persist(ctx)
}
