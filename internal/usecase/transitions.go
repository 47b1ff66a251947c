package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CascadeWatch/internal/domain/models"
	domrepo "CascadeWatch/internal/domain/repository"
	xutil "CascadeWatch/pkg/util"
)

const (
	defaultTransitionsLimit = 500
	maxTransitionsLimit     = 5000
)

// TransitionsUseCase reads light transition history.
type TransitionsUseCase struct {
	store domrepo.TransitionStore
}

func NewTransitionsUseCase(store domrepo.TransitionStore) *TransitionsUseCase {
	return &TransitionsUseCase{store: store}
}

type GetTransitionsParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetTransitionsResult struct {
	Symbol      string               `json:"symbol"`
	From        time.Time            `json:"from"`
	To          time.Time            `json:"to"`
	Count       int                  `json:"count"`
	Transitions []*models.Transition `json:"transitions"`
}

var (
	ErrHistoryUnavailable = errors.New("transition history is not configured")
	ErrInvalidQuery       = errors.New("invalid query")
)

func (uc *TransitionsUseCase) GetTransitions(ctx context.Context, p GetTransitionsParams) (*GetTransitionsResult, error) {
	if uc.store == nil {
		return nil, ErrHistoryUnavailable
	}
	p.Symbol = NormalizeSymbol(p.Symbol)
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidQuery)
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidQuery)
	}
	p.Limit = xutil.Clamp(p.Limit, defaultTransitionsLimit, 1, maxTransitionsLimit)

	rows, err := uc.store.Query(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	if len(rows) > p.Limit {
		rows = rows[:p.Limit]
	}

	return &GetTransitionsResult{
		Symbol:      p.Symbol,
		From:        p.From,
		To:          p.To,
		Count:       len(rows),
		Transitions: rows,
	}, nil
}
