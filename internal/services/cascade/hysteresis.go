package cascade

import "CascadeWatch/internal/domain/models"

// CoolingTicks is the number of consecutive qualifying ticks required before
// the light may step down.
const CoolingTicks = 6

// Score combines the three features into an integer in [0, 6]. The RET
// component only counts when the return direction matches the liquidation side.
func Score(f Features, sideMatch bool) int {
	score := 0

	switch {
	case f.LQ >= 8:
		score += 2
	case f.LQ >= 4:
		score++
	}

	if sideMatch {
		switch {
		case f.RET >= 35:
			score += 2
		case f.RET >= 25:
			score++
		}
	}

	switch {
	case f.OI >= 4:
		score += 2
	case f.OI >= 2:
		score++
	}

	return score
}

// LightForScore maps a score to the raw (pre-hysteresis) light.
func LightForScore(score int) models.Light {
	switch {
	case score >= 6:
		return models.LightRed
	case score >= 4:
		return models.LightOrange
	case score >= 2:
		return models.LightYellow
	default:
		return models.LightGreen
	}
}

// lowerBand is the score at or below which a tick counts toward leaving l.
func lowerBand(l models.Light) int {
	switch l {
	case models.LightRed:
		return 4
	case models.LightOrange:
		return 2
	default:
		return 0
	}
}

// Hysteresis holds the stored light and the cooling counter. Escalation is
// immediate; de-escalation needs CoolingTicks consecutive ticks whose score
// is at or below the current light's lower band.
type Hysteresis struct {
	level   models.Light
	cooling int
}

func NewHysteresis() *Hysteresis {
	return &Hysteresis{level: models.LightGreen}
}

func (h *Hysteresis) Level() models.Light { return h.level }

func (h *Hysteresis) Cooling() int { return h.cooling }

// Step applies one tick's score and returns the resulting light.
func (h *Hysteresis) Step(score int) models.Light {
	target := LightForScore(score)

	switch {
	case target.Severity() > h.level.Severity():
		h.level = target
		h.cooling = 0
	case target != h.level:
		if score <= lowerBand(h.level) {
			h.cooling++
			if h.cooling >= CoolingTicks {
				h.level = target
				h.cooling = 0
			}
		} else {
			h.cooling = 0
		}
	default:
		h.cooling = 0
	}

	return h.level
}
