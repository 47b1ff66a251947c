package service

import "CascadeWatch/internal/domain/models"

// CascadeDetector is the per-symbol detector contract.
type CascadeDetector interface {
	IngestTick(tick models.Tick) models.CascadeStatus
	CurrentStatus() models.CascadeStatus
	SetAutoEnabled(enabled bool)
	AutoEnabled() bool
}

// Gate answers entry-permission questions for the execution engine.
type Gate interface {
	Check(symbol string) models.GateDecision
}
