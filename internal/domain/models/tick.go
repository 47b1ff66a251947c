package models

import "time"

// Tick is the per-symbol input record produced by the market-data collaborator.
// Ret1s is signed. SideMatch tells whether the return direction agrees with
// the dominant liquidation side.
type Tick struct {
	Symbol      string  `json:"symbol"`
	LiqNotional float64 `json:"liq_notional"`
	Ret1s       float64 `json:"ret_1s"`
	OI          float64 `json:"oi"`
	SideMatch   bool    `json:"ret_side_matches_liq"`
	// TS is the producer timestamp in unix milliseconds. The service uses it for
	// latency metrics; replay uses it to drive the detector clock.
	TS int64 `json:"ts,omitempty"`
}

func (t Tick) ProducedAt() time.Time {
	if t.TS <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.TS)
}
