package usecase

import (
	"CascadeWatch/internal/domain/models"
	"CascadeWatch/internal/domain/service"
)

var _ service.Gate = (*TradeGate)(nil)

// TradeGate decides whether the execution engine may open an entry for a symbol.
type TradeGate struct {
	registry *Registry
}

func NewTradeGate(registry *Registry) *TradeGate {
	return &TradeGate{registry: registry}
}

// Check applies the gating rule to the symbol's current status. Symbols that
// are not watched are allowed: the detector has no opinion on them.
func (g *TradeGate) Check(symbol string) models.GateDecision {
	symbol = NormalizeSymbol(symbol)
	status, ok := g.registry.Status(symbol)
	if !ok {
		return models.GateDecision{Symbol: symbol, Allowed: true, Reason: models.GateNotWatched}
	}
	return Decide(status)
}

// Decide is the pure gating rule over one status.
func Decide(s models.CascadeStatus) models.GateDecision {
	d := models.GateDecision{Symbol: s.Symbol, Status: &s}
	switch {
	case !s.AutoEnabled:
		d.Allowed, d.Reason = true, models.GateAutoDisabled
	case s.AutoBlock:
		d.Reason = models.GateAutoBlock
	case s.RQ < s.RQThreshold:
		d.Reason = models.GateQualityTooLow
	default:
		d.Allowed, d.Reason = true, models.GateOK
	}
	return d
}
