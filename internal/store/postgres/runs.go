package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

func (c *Client) BeginRun(ctx context.Context, input store.RunInput) (int64, error) {
	components := input.Components
	if components == nil {
		components = []string{}
	}

	var id int64
	err := c.pool.QueryRow(ctx, `
INSERT INTO runs (document, game_dir, mod_dir, components, command_count, group_count, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`, input.Document, input.GameDir, input.ModDir, components, input.Commands, input.Groups, string(store.RunRunning)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

func (c *Client) RecordOutcome(ctx context.Context, runID int64, outcome store.Outcome) error {
	recordedAt := outcome.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := c.pool.Exec(ctx, `
INSERT INTO outcomes (run_id, command_id, kind, group_index, critical, status, target, backup, message, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, runID, outcome.CommandID, outcome.Kind, outcome.Group, outcome.Critical, string(outcome.Status),
		outcome.Target, outcome.Backup, outcome.Message, recordedAt)
	if err != nil {
		return fmt.Errorf("inserting outcome for command %d: %w", outcome.CommandID, err)
	}
	return nil
}

func (c *Client) FinishRun(ctx context.Context, runID int64, status store.RunStatus) error {
	tag, err := c.pool.Exec(ctx, `UPDATE runs SET status = $1, finished_at = now() WHERE id = $2`, string(status), runID)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finishing run %d: %w", runID, store.ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, document, game_dir, mod_dir, components, command_count, group_count, status, started_at, finished_at`

func (c *Client) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	rows, err := c.pool.Query(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]store.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func (c *Client) GetRun(ctx context.Context, runID int64) (*store.Run, error) {
	row := c.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, runID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, store.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (c *Client) GetOutcomes(ctx context.Context, runID int64) ([]store.Outcome, error) {
	rows, err := c.pool.Query(ctx, `
SELECT command_id, kind, group_index, critical, status, target, backup, message, recorded_at
FROM outcomes
WHERE run_id = $1
ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, fmt.Errorf("getting outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := make([]store.Outcome, 0)
	for rows.Next() {
		var outcome store.Outcome
		var status string
		if err := rows.Scan(&outcome.CommandID, &outcome.Kind, &outcome.Group, &outcome.Critical, &status,
			&outcome.Target, &outcome.Backup, &outcome.Message, &outcome.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		outcome.Status = store.OutcomeStatus(status)
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcomes: %w", err)
	}
	return outcomes, nil
}

func scanRun(row pgx.Row) (*store.Run, error) {
	var run store.Run
	var status string
	err := row.Scan(&run.ID, &run.Document, &run.GameDir, &run.ModDir, &run.Components,
		&run.Commands, &run.Groups, &status, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = store.RunStatus(status)
	return &run, nil
}
