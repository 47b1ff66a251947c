package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CascadeWatch/internal/domain/models"
	domrepo "CascadeWatch/internal/domain/repository"
	"CascadeWatch/pkg/cache"
)

const (
	statusNamespace = "status"
	autoFlagsKey    = "auto_flags"
)

var _ domrepo.StatusStore = (*CacheStatusStore)(nil)

// CacheStatusStore persists status snapshots (with a TTL) and the operator
// auto flags (without one) in any pkg/cache backend.
type CacheStatusStore struct {
	c   cache.Service
	ttl time.Duration
}

func NewCacheStatusStore(c cache.Service, snapshotTTL time.Duration) *CacheStatusStore {
	return &CacheStatusStore{c: c, ttl: snapshotTTL}
}

func (s *CacheStatusStore) SaveStatuses(ctx context.Context, statuses []models.CascadeStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(statuses))
	for _, st := range statuses {
		values[cache.Key(statusNamespace, st.Symbol)] = st
	}
	if err := s.c.MSet(ctx, values, s.ttl); err != nil {
		return fmt.Errorf("save statuses: %w", err)
	}
	return nil
}

// LoadStatus returns nil, nil when no snapshot is stored.
func (s *CacheStatusStore) LoadStatus(ctx context.Context, symbol string) (*models.CascadeStatus, error) {
	var st models.CascadeStatus
	if err := s.c.Get(ctx, cache.Key(statusNamespace, symbol), &st); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load status %s: %w", symbol, err)
	}
	return &st, nil
}

func (s *CacheStatusStore) SaveAutoFlags(ctx context.Context, flags domrepo.AutoFlags) error {
	if err := s.c.Set(ctx, autoFlagsKey, flags, 0); err != nil {
		return fmt.Errorf("save auto flags: %w", err)
	}
	return nil
}

// LoadAutoFlags returns nil, nil when nothing was saved yet.
func (s *CacheStatusStore) LoadAutoFlags(ctx context.Context) (*domrepo.AutoFlags, error) {
	var flags domrepo.AutoFlags
	if err := s.c.Get(ctx, autoFlagsKey, &flags); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load auto flags: %w", err)
	}
	return &flags, nil
}
