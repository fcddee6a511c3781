package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

const timeLayout = time.RFC3339Nano

func (c *Client) BeginRun(ctx context.Context, input store.RunInput) (int64, error) {
	components := input.Components
	if components == nil {
		components = []string{}
	}
	componentsJSON, err := json.Marshal(components)
	if err != nil {
		return 0, fmt.Errorf("marshaling components: %w", err)
	}

	result, err := c.db.ExecContext(ctx, `
	INSERT INTO runs (document, game_dir, mod_dir, components, command_count, group_count, status, started_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, input.Document, input.GameDir, input.ModDir, string(componentsJSON), input.Commands, input.Groups,
		string(store.RunRunning), c.now().UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

func (c *Client) RecordOutcome(ctx context.Context, runID int64, outcome store.Outcome) error {
	recordedAt := outcome.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = c.now()
	}
	critical := 0
	if outcome.Critical {
		critical = 1
	}

	_, err := c.db.ExecContext(ctx, `
	INSERT INTO outcomes (run_id, command_id, kind, group_index, critical, status, target, backup, message, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, outcome.CommandID, outcome.Kind, outcome.Group, critical, string(outcome.Status),
		outcome.Target, outcome.Backup, outcome.Message, recordedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting outcome for command %d: %w", outcome.CommandID, err)
	}
	return nil
}

func (c *Client) FinishRun(ctx context.Context, runID int64, status store.RunStatus) error {
	result, err := c.db.ExecContext(ctx, `
	UPDATE runs SET status = ?, finished_at = ? WHERE id = ?
	`, string(status), c.now().UTC().Format(timeLayout), runID)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", runID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", runID, err)
	}
	if affected == 0 {
		return fmt.Errorf("finishing run %d: %w", runID, store.ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, document, game_dir, mod_dir, components, command_count, group_count, status, started_at, finished_at`

func (c *Client) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	rows, err := c.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
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
	row := c.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, store.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (c *Client) GetOutcomes(ctx context.Context, runID int64) ([]store.Outcome, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT command_id, kind, group_index, critical, status, target, backup, message, recorded_at
	FROM outcomes
	WHERE run_id = ?
	ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("getting outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := make([]store.Outcome, 0)
	for rows.Next() {
		var outcome store.Outcome
		var critical int
		var status, recordedAt string
		if err := rows.Scan(&outcome.CommandID, &outcome.Kind, &outcome.Group, &critical, &status,
			&outcome.Target, &outcome.Backup, &outcome.Message, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		outcome.Critical = critical != 0
		outcome.Status = store.OutcomeStatus(status)
		if outcome.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcomes: %w", err)
	}
	return outcomes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*store.Run, error) {
	var run store.Run
	var components, status, startedAt string
	var finishedAt sql.NullString
	err := row.Scan(&run.ID, &run.Document, &run.GameDir, &run.ModDir, &components,
		&run.Commands, &run.Groups, &status, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if components != "" {
		if err := json.Unmarshal([]byte(components), &run.Components); err != nil {
			return nil, fmt.Errorf("unmarshaling components: %w", err)
		}
	}
	run.Status = store.RunStatus(status)
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if finishedAt.Valid {
		finished, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	return &run, nil
}
