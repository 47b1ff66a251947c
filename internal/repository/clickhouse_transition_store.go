package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CascadeWatch/internal/domain/models"
	domrepo "CascadeWatch/internal/domain/repository"
	pkgch "CascadeWatch/pkg/clickhouse"
	applogger "CascadeWatch/pkg/logger"
)

const DefaultTransitionsTable = "cascade_transitions"

var _ domrepo.TransitionStore = (*ClickHouseTransitionStore)(nil)

// ClickHouseTransitionStore keeps the light transition history. The full
// status at the time of the transition is stored as a JSON string column.
type ClickHouseTransitionStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHouseTransitionStore(ch *pkgch.Client, table string, l *applogger.Logger) *ClickHouseTransitionStore {
	if table == "" {
		table = DefaultTransitionsTable
	}
	return &ClickHouseTransitionStore{db: ch.DB(), table: table, l: l}
}

func (s *ClickHouseTransitionStore) Init(ctx context.Context) error {
	ddl := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id          String,
            symbol      LowCardinality(String),
            from_light  LowCardinality(String),
            to_light    LowCardinality(String),
            score       UInt8,
            at          DateTime64(3, 'UTC'),
            status      String
        )
        ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(at)
        ORDER BY (symbol, at, id)
    `, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

func (s *ClickHouseTransitionStore) StoreBatch(ctx context.Context, ts []*models.Transition) error {
	if len(ts) == 0 {
		return nil
	}

	const chunkSize = 1000
	for start := 0; start < len(ts); start += chunkSize {
		end := start + chunkSize
		if end > len(ts) {
			end = len(ts)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, t := range ts[start:end] {
			if t == nil || t.Symbol == "" {
				continue
			}
			status, err := json.Marshal(t.Status)
			if err != nil {
				return fmt.Errorf("marshal status %s: %w", t.ID, err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, t.ID, t.Symbol, string(t.From), string(t.To), uint8(t.Score), t.At.UTC(), string(status))
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (id, symbol, from_light, to_light, score, at, status) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse insert transitions",
					applogger.String("table", s.table),
					applogger.Int("rows", len(values)),
					applogger.Error(err))
			}
			return fmt.Errorf("insert transitions: %w", err)
		}
	}
	return nil
}

// Query returns transitions newest first. An empty symbol matches all symbols;
// zero times leave that side of the range open.
func (s *ClickHouseTransitionStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Transition, error) {
	start := time.Now()

	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, symbol)
	}
	if !from.IsZero() {
		where = append(where, "at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		where = append(where, "at <= ?")
		args = append(args, to.UTC())
	}

	q := "SELECT id, symbol, from_light, to_light, score, at, status FROM " + s.table
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Transition, 0, limit)
	for rows.Next() {
		var (
			t        models.Transition
			from, to string
			score    uint8
			status   string
		)
		if err := rows.Scan(&t.ID, &t.Symbol, &from, &to, &score, &t.At, &status); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.From, t.To, t.Score = models.Light(from), models.Light(to), int(score)
		if status != "" {
			if err := json.Unmarshal([]byte(status), &t.Status); err != nil {
				return nil, fmt.Errorf("decode status %s: %w", t.ID, err)
			}
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse query transitions",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return out, nil
}

func (s *ClickHouseTransitionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseTransitionStore) Close() error {
	return nil
}
