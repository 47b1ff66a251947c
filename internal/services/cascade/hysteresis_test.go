package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"CascadeWatch/internal/domain/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		f     Features
		side  bool
		score int
	}{
		{"quiet", Features{}, true, 0},
		{"max", Features{LQ: 10, RET: 40, OI: 5}, true, 6},
		{"ret ignored without side match", Features{LQ: 10, RET: 40, OI: 5}, false, 4},
		{"lower bands", Features{LQ: 4, RET: 25, OI: 2}, true, 3},
		{"just below bands", Features{LQ: 3.99, RET: 24.99, OI: 1.99}, true, 0},
		{"upper edges", Features{LQ: 8, RET: 35, OI: 4}, true, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.score, Score(tt.f, tt.side))
		})
	}
}

func TestLightForScore(t *testing.T) {
	want := []models.Light{
		models.LightGreen, models.LightGreen,
		models.LightYellow, models.LightYellow,
		models.LightOrange, models.LightOrange,
		models.LightRed,
	}
	for score, light := range want {
		assert.Equal(t, light, LightForScore(score), "score %d", score)
	}
}

func TestHysteresisEscalatesImmediately(t *testing.T) {
	h := NewHysteresis()
	assert.Equal(t, models.LightRed, h.Step(Score(Features{LQ: 10, RET: 40, OI: 5}, true)))

	h = NewHysteresis()
	assert.Equal(t, models.LightYellow, h.Step(2))
	assert.Equal(t, models.LightOrange, h.Step(5))
}

func TestHysteresisDeEscalationDebounce(t *testing.T) {
	h := NewHysteresis()
	h.Step(6)

	for i := 1; i <= CoolingTicks-1; i++ {
		assert.Equal(t, models.LightRed, h.Step(4), "tick %d", i)
		assert.Equal(t, i, h.Cooling())
	}
	assert.Equal(t, models.LightOrange, h.Step(4))
	assert.Equal(t, 0, h.Cooling())
}

func TestHysteresisDeEscalatesToSixthTickLevel(t *testing.T) {
	h := NewHysteresis()
	h.Step(6)
	for i := 0; i < CoolingTicks-1; i++ {
		h.Step(3)
	}
	assert.Equal(t, models.LightRed, h.Level())
	assert.Equal(t, models.LightGreen, h.Step(0))
}

func TestHysteresisCounterResets(t *testing.T) {
	h := NewHysteresis()
	h.Step(6)
	h.Step(4)
	h.Step(4)
	assert.Equal(t, 2, h.Cooling())

	// orange target but score above red's lower band
	assert.Equal(t, models.LightRed, h.Step(5))
	assert.Equal(t, 0, h.Cooling())

	// same level resets as well
	h.Step(4)
	assert.Equal(t, models.LightRed, h.Step(6))
	assert.Equal(t, 0, h.Cooling())
}

func TestHysteresisYellowNeedsZeroScore(t *testing.T) {
	h := NewHysteresis()
	h.Step(2)
	for i := 0; i < 10; i++ {
		assert.Equal(t, models.LightYellow, h.Step(1))
	}
	for i := 0; i < CoolingTicks-1; i++ {
		h.Step(0)
	}
	assert.Equal(t, models.LightYellow, h.Level())
	assert.Equal(t, models.LightGreen, h.Step(0))
}
