// Package store defines the install journal: one run per install attempt and
// one outcome per command the run touched.
package store

import (
	"context"
	"errors"
)

var ErrRunNotFound = errors.New("run not found")

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	BeginRun(ctx context.Context, input RunInput) (int64, error)
	RecordOutcome(ctx context.Context, runID int64, outcome Outcome) error
	FinishRun(ctx context.Context, runID int64, status RunStatus) error

	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetRun(ctx context.Context, runID int64) (*Run, error)
	GetOutcomes(ctx context.Context, runID int64) ([]Outcome, error)
	SearchOutcomes(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Journal is the write side of Store used while an install runs.
type Journal interface {
	BeginRun(ctx context.Context, input RunInput) (int64, error)
	RecordOutcome(ctx context.Context, runID int64, outcome Outcome) error
	FinishRun(ctx context.Context, runID int64, status RunStatus) error
}

const DefaultListLimit = 20
