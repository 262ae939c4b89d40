package steplog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kilianp07/plantsim/core/model"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists steps to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS plant_steps (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT,
        step INTEGER,
        ts INTEGER,
        indoor_c REAL,
        import_kwh REAL,
        objective_eur REAL,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS plant_steps_run ON plant_steps (run_id, step);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the step to the database.
func (s *SQLiteStore) Append(ctx context.Context, ev model.StepEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plant_steps (run_id, step, ts, indoor_c, import_kwh, objective_eur, record) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Index, ev.Timestamp.Unix(), ev.Diagnostics.IndoorC, ev.Diagnostics.ImportKWh, ev.Cost.ObjectiveEUR, string(b))
	return err
}

// Query returns steps matching q in insertion order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]model.StepEvent, error) {
	var args []any
	query := `SELECT record FROM plant_steps WHERE step >= ?`
	args = append(args, q.From)
	if q.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	query += ` ORDER BY id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.StepEvent
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var ev model.StepEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("unmarshal step: %w", err)
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
