package cascade

import "CascadeWatch/internal/domain/models"

// ReversalQuality scores how favourable conditions are for a counter-trend
// entry after a flush. Never negative.
func ReversalQuality(f Features) int {
	rq := 0

	switch {
	case f.LQ >= 8:
		rq += 2
	case f.LQ >= 6:
		rq++
	}

	if f.RET >= 25 {
		rq++
	}

	switch {
	case f.DOI1m <= -1.0 || f.DOI3m <= -1.5:
		rq += 2
	case f.DOI1m <= -0.5 || f.DOI3m <= -1.0:
		rq++
	}

	// positioning still building on both horizons
	if f.DOI1m > 0 && f.DOI3m > 0 {
		rq -= 2
	}

	if rq < 0 {
		return 0
	}
	return rq
}

func BucketFor(rq int) models.RQBucket {
	switch {
	case rq >= 4:
		return models.RQExcellent
	case rq == 3:
		return models.RQGood
	case rq == 2:
		return models.RQOk
	default:
		return models.RQPoor
	}
}

// RegimeFor classifies volatility from RET and returns the reversal-quality
// threshold adjusted for that regime.
func RegimeFor(ret float64) (models.VolRegime, int) {
	switch {
	case ret >= 35:
		return models.RegimeHigh, 3
	case ret >= 25:
		return models.RegimeMedium, 2
	default:
		return models.RegimeLow, 1
	}
}
