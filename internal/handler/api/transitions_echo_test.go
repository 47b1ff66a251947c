package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CascadeWatch/internal/domain/models"
	drepo "CascadeWatch/internal/domain/repository"
	svccache "CascadeWatch/internal/service/cache"
	"CascadeWatch/internal/usecase"
	xlogger "CascadeWatch/pkg/logger"
)

type queryCall struct {
	symbol   string
	from, to time.Time
	limit    int
}

type stubTransitionStore struct {
	rows  []*models.Transition
	err   error
	calls []queryCall
}

var _ drepo.TransitionStore = (*stubTransitionStore)(nil)

func (s *stubTransitionStore) Init(context.Context) error { return nil }

func (s *stubTransitionStore) StoreBatch(context.Context, []*models.Transition) error { return nil }

func (s *stubTransitionStore) Query(_ context.Context, symbol string, from, to time.Time, limit int) ([]*models.Transition, error) {
	s.calls = append(s.calls, queryCall{symbol, from, to, limit})
	return s.rows, s.err
}

func (s *stubTransitionStore) Health(context.Context) error { return nil }

func (s *stubTransitionStore) Close() error { return nil }

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTransitionsServer(store drepo.TransitionStore, cache svccache.BytesCache) *echo.Echo {
	h := NewTransitionsEchoHandler(xlogger.NewNop(), usecase.NewTransitionsUseCase(store), cache, time.Minute, nil)
	h.now = func() time.Time { return fixedNow }
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func TestTransitionsDefaults(t *testing.T) {
	store := &stubTransitionStore{rows: []*models.Transition{{Symbol: "BTCUSDT", From: models.LightGreen, To: models.LightRed}}}
	e := newTransitionsServer(store, nil)

	code, env := do(t, e, http.MethodGet, "/api/cascade/transitions?symbol=btcusdt", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, store.calls, 1)
	call := store.calls[0]
	assert.Equal(t, "BTCUSDT", call.symbol)
	assert.Equal(t, 500, call.limit)
	assert.True(t, call.to.Equal(fixedNow))
	assert.True(t, call.from.Equal(fixedNow.Add(-24*time.Hour)))

	var res usecase.GetTransitionsResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, models.LightRed, res.Transitions[0].To)
}

func TestTransitionsExplicitRange(t *testing.T) {
	store := &stubTransitionStore{}
	e := newTransitionsServer(store, nil)

	code, _ := do(t, e, http.MethodGet, "/api/cascade/transitions?symbol=ETHUSDT&from=1709200000&to=2024-03-01T00:00:00Z&limit=20000", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, store.calls, 1)
	assert.Equal(t, time.Unix(1709200000, 0).Unix(), store.calls[0].from.Unix())
	assert.Equal(t, 5000, store.calls[0].limit)
}

func TestTransitionsErrors(t *testing.T) {
	tests := []struct {
		name   string
		store  drepo.TransitionStore
		target string
		code   int
	}{
		{"missing symbol", &stubTransitionStore{}, "/api/cascade/transitions", http.StatusBadRequest},
		{"negative limit", &stubTransitionStore{}, "/api/cascade/transitions?symbol=BTCUSDT&limit=-1", http.StatusBadRequest},
		{"bad from", &stubTransitionStore{}, "/api/cascade/transitions?symbol=BTCUSDT&from=yesterday", http.StatusBadRequest},
		{"inverted range", &stubTransitionStore{}, "/api/cascade/transitions?symbol=BTCUSDT&from=1709300000&to=1709200000", http.StatusBadRequest},
		{"not configured", nil, "/api/cascade/transitions?symbol=BTCUSDT", http.StatusServiceUnavailable},
		{"store down", &stubTransitionStore{err: errors.New("clickhouse down")}, "/api/cascade/transitions?symbol=BTCUSDT", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTransitionsServer(tt.store, nil)
			code, env := do(t, e, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.code, env.Status)
		})
	}
}

func TestTransitionsCached(t *testing.T) {
	store := &stubTransitionStore{rows: []*models.Transition{{Symbol: "BTCUSDT"}}}
	e := newTransitionsServer(store, svccache.NewTTLCache(16))

	for i := 0; i < 3; i++ {
		code, _ := do(t, e, http.MethodGet, "/api/cascade/transitions?symbol=BTCUSDT&limit=10", "")
		require.Equal(t, http.StatusOK, code)
	}
	assert.Len(t, store.calls, 1)

	code, _ := do(t, e, http.MethodGet, "/api/cascade/transitions?symbol=BTCUSDT&limit=11", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, store.calls, 2)
}
