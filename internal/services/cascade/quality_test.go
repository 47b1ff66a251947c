package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"CascadeWatch/internal/domain/models"
)

func TestReversalQuality(t *testing.T) {
	tests := []struct {
		name string
		f    Features
		want int
	}{
		{"nothing", Features{}, 0},
		{"full flush", Features{LQ: 9, RET: 30, DOI1m: -1.2, DOI3m: -2}, 5},
		{"moderate", Features{LQ: 6, DOI1m: -0.5}, 2},
		{"3m only strong", Features{DOI1m: 0.1, DOI3m: -1.5}, 2},
		{"3m only weak", Features{DOI3m: -1.0}, 1},
		{"oi building penalised", Features{LQ: 9, RET: 30, DOI1m: 0.5, DOI3m: 0.5}, 1},
		{"floored at zero", Features{DOI1m: 1, DOI3m: 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReversalQuality(tt.f))
		})
	}
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, models.RQPoor, BucketFor(0))
	assert.Equal(t, models.RQPoor, BucketFor(1))
	assert.Equal(t, models.RQOk, BucketFor(2))
	assert.Equal(t, models.RQGood, BucketFor(3))
	assert.Equal(t, models.RQExcellent, BucketFor(4))
	assert.Equal(t, models.RQExcellent, BucketFor(5))
}

func TestRegimeFor(t *testing.T) {
	tests := []struct {
		ret       float64
		regime    models.VolRegime
		threshold int
	}{
		{0, models.RegimeLow, 1},
		{24.9, models.RegimeLow, 1},
		{25, models.RegimeMedium, 2},
		{34.9, models.RegimeMedium, 2},
		{35, models.RegimeHigh, 3},
	}
	for _, tt := range tests {
		regime, threshold := RegimeFor(tt.ret)
		assert.Equal(t, tt.regime, regime, "ret %v", tt.ret)
		assert.Equal(t, tt.threshold, threshold, "ret %v", tt.ret)
	}
}
