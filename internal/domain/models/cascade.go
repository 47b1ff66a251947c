package models

import "time"

// Light is the alert level of a symbol's cascade detector.
type Light string

const (
	LightGreen  Light = "green"
	LightYellow Light = "yellow"
	LightOrange Light = "orange"
	LightRed    Light = "red"
)

// Severity orders lights from green (0) to red (3). Unknown values rank as green.
func (l Light) Severity() int {
	switch l {
	case LightYellow:
		return 1
	case LightOrange:
		return 2
	case LightRed:
		return 3
	default:
		return 0
	}
}

// Blocking reports whether the light forbids automated entries when auto gating is on.
func (l Light) Blocking() bool {
	return l == LightOrange || l == LightRed
}

type RQBucket string

const (
	RQPoor      RQBucket = "poor"
	RQOk        RQBucket = "ok"
	RQGood      RQBucket = "good"
	RQExcellent RQBucket = "excellent"
)

type VolRegime string

const (
	RegimeLow    VolRegime = "low"
	RegimeMedium VolRegime = "medium"
	RegimeHigh   VolRegime = "high"
)

// CascadeStatus is the immutable per-tick output of a detector. The JSON field
// names are consumed as-is by the dashboard and the execution engine.
type CascadeStatus struct {
	Symbol      string    `json:"symbol"`
	Score       int       `json:"score"`
	LQ          float64   `json:"LQ"`
	RET         float64   `json:"RET"`
	OI          float64   `json:"OI"`
	Light       Light     `json:"light"`
	AutoBlock   bool      `json:"autoBlock"`
	AutoEnabled bool      `json:"autoEnabled"`
	MedianLiq   float64   `json:"medianLiq"`
	DOI1m       float64   `json:"dOI_1m"`
	DOI3m       float64   `json:"dOI_3m"`
	RQ          int       `json:"reversal_quality"`
	RQBucket    RQBucket  `json:"rq_bucket"`
	Regime      VolRegime `json:"volatility_regime"`
	RQThreshold int       `json:"rq_threshold_adjusted"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Transition records a change of light for one symbol.
type Transition struct {
	ID     string        `json:"id"`
	Symbol string        `json:"symbol"`
	From   Light         `json:"from"`
	To     Light         `json:"to"`
	Score  int           `json:"score"`
	At     time.Time     `json:"at"`
	Status CascadeStatus `json:"status"`
}

// Escalation is true when the new light is more severe than the previous one.
func (t Transition) Escalation() bool {
	return t.To.Severity() > t.From.Severity()
}

// Gate reasons.
const (
	GateOK            = "ok"
	GateAutoDisabled  = "auto_disabled"
	GateAutoBlock     = "auto_block"
	GateQualityTooLow = "quality_below_threshold"
	GateNotWatched    = "not_watched"
)

// GateDecision is the answer to "may the execution engine open an entry now".
type GateDecision struct {
	Symbol  string         `json:"symbol"`
	Allowed bool           `json:"allowed"`
	Reason  string         `json:"reason"`
	Status  *CascadeStatus `json:"status,omitempty"`
}

// Stream message types pushed to dashboard subscribers.
const (
	StreamSnapshot   = "snapshot"
	StreamTransition = "transition"
)

type StreamMessage struct {
	Type string      `json:"type"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}
