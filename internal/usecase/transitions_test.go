package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CascadeWatch/internal/domain/models"
)

func TestGetTransitions(t *testing.T) {
	from := t0.Add(-time.Hour)
	rows := []*models.Transition{{Symbol: "BTCUSDT", To: models.LightRed}, {Symbol: "BTCUSDT", To: models.LightGreen}}

	tests := []struct {
		name      string
		params    GetTransitionsParams
		store     *fakeTransitionStore
		wantErr   error
		wantLimit int
		wantCount int
	}{
		{"default limit", GetTransitionsParams{Symbol: "btcusdt", From: from, To: t0}, &fakeTransitionStore{rows: rows}, nil, 500, 2},
		{"clamped limit", GetTransitionsParams{Symbol: "BTCUSDT", From: from, To: t0, Limit: 100000}, &fakeTransitionStore{rows: rows}, nil, 5000, 2},
		{"store overreturns", GetTransitionsParams{Symbol: "BTCUSDT", From: from, To: t0, Limit: 1}, &fakeTransitionStore{rows: rows}, nil, 1, 1},
		{"missing symbol", GetTransitionsParams{From: from, To: t0}, &fakeTransitionStore{}, ErrInvalidQuery, 0, 0},
		{"inverted range", GetTransitionsParams{Symbol: "BTCUSDT", From: t0, To: from}, &fakeTransitionStore{}, ErrInvalidQuery, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewTransitionsUseCase(tt.store)
			res, err := uc.GetTransitions(context.Background(), tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "BTCUSDT", res.Symbol)
			assert.Equal(t, tt.wantLimit, tt.store.limit)
			assert.Equal(t, tt.wantCount, res.Count)
			assert.Len(t, res.Transitions, tt.wantCount)
		})
	}
}

func TestGetTransitionsUnavailable(t *testing.T) {
	uc := NewTransitionsUseCase(nil)
	_, err := uc.GetTransitions(context.Background(), GetTransitionsParams{Symbol: "BTCUSDT"})
	assert.ErrorIs(t, err, ErrHistoryUnavailable)

	uc = NewTransitionsUseCase(&fakeTransitionStore{err: errors.New("clickhouse down")})
	_, err = uc.GetTransitions(context.Background(), GetTransitionsParams{Symbol: "BTCUSDT"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidQuery)
}
