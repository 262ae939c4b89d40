// Package steplog persists per-step simulation records for later inspection.
package steplog

import (
	"context"
	"fmt"

	"github.com/kilianp07/plantsim/core/model"
)

// Query selects stored steps. Zero fields do not filter.
type Query struct {
	RunID string
	// From is the first step index returned.
	From int
	// Limit caps the number of returned steps.
	Limit int
}

func (q Query) match(ev model.StepEvent) bool {
	if q.RunID != "" && ev.RunID != q.RunID {
		return false
	}
	return ev.Index >= q.From
}

// Store persists step events and supports querying them back in append
// order.
type Store interface {
	Append(ctx context.Context, ev model.StepEvent) error
	Query(ctx context.Context, q Query) ([]model.StepEvent, error)
	Close() error
}

// Config selects and configures a store backend.
type Config struct {
	// Backend is one of "", "jsonl" or "sqlite". Empty disables storage.
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// MaxSizeMB enables rotation of the jsonl backend when positive.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// Open returns the store described by cfg, or nil when storage is disabled.
func Open(cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			s, err = NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		} else {
			s, err = NewJSONLStore(cfg.Path)
		}
	case "sqlite":
		s, err = NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return s, nil
}
