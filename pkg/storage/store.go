// Package storage archives solver runs so later invocations can list,
// inspect and reuse them.
package storage

import (
	"context"
	"encoding/json"
	"time"
)

// FrontRecord is one non-dominated route with its objective values.
type FrontRecord struct {
	Route      []int     `json:"route"`
	Objectives []float64 `json:"objectives"`
}

// HistoryRecord is the archived snapshot of one generation.
type HistoryRecord struct {
	Generation  int           `json:"generation"`
	Evaluations int64         `json:"evaluations"`
	Front       []FrontRecord `json:"front"`
}

// RunRecord is the archived outcome of one solver run. Fingerprint
// identifies the problem instance, so runs over the same instance can be
// found again regardless of their configuration.
type RunRecord struct {
	SchemaVersion int             `json:"schema_version"`
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	Problem       string          `json:"problem"`
	Fingerprint   string          `json:"fingerprint"`
	Config        json.RawMessage `json:"config,omitempty"`
	Front         []FrontRecord   `json:"front"`
	Evaluations   int64           `json:"evaluations"`
	Elapsed       time.Duration   `json:"elapsed"`
}

// Store defines the persistence operations for archived runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]RunRecord, error)
	LatestRunByFingerprint(ctx context.Context, fingerprint string) (RunRecord, bool, error)
	SaveHistory(ctx context.Context, runID string, history []HistoryRecord) error
	GetHistory(ctx context.Context, runID string) ([]HistoryRecord, bool, error)
}
