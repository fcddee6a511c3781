package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		document    TEXT NOT NULL,
		game_dir    TEXT NOT NULL,
		mod_dir     TEXT NOT NULL,
		components  TEXT DEFAULT '[]',
		command_count INTEGER NOT NULL DEFAULT 0,
		group_count   INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		command_id  INTEGER NOT NULL,
		kind        TEXT NOT NULL,
		group_index INTEGER NOT NULL,
		critical    INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL,
		target      TEXT DEFAULT '',
		backup      TEXT DEFAULT '',
		message     TEXT DEFAULT '',
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs (started_at);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes (run_id, command_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes (status);

	CREATE VIRTUAL TABLE IF NOT EXISTS outcomes_fts USING fts5(
		target,
		message,
		content=outcomes,
		content_rowid=id
	);

	CREATE TRIGGER IF NOT EXISTS outcomes_ai AFTER INSERT ON outcomes BEGIN
		INSERT INTO outcomes_fts(rowid, target, message)
		VALUES (new.id, new.target, new.message);
	END;

	CREATE TRIGGER IF NOT EXISTS outcomes_ad AFTER DELETE ON outcomes BEGIN
		INSERT INTO outcomes_fts(outcomes_fts, rowid, target, message)
		VALUES ('delete', old.id, old.target, old.message);
	END;
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

// splitStatements cuts ddl at lines ending in ";". Trigger bodies are kept
// whole up to their closing END;.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(stripped), "CREATE TRIGGER") {
			inTrigger = true
		}
		current.WriteString(line)
		current.WriteString("\n")

		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && !strings.EqualFold(stripped, "END;") {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
