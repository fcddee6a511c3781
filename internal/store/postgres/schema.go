package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// One Exec runs every statement in an implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
    id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    document      TEXT NOT NULL,
    game_dir      TEXT NOT NULL,
    mod_dir       TEXT NOT NULL,
    components    TEXT[] DEFAULT '{}',
    command_count INTEGER NOT NULL DEFAULT 0,
    group_count   INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    finished_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS outcomes (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    run_id      BIGINT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    command_id  INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    group_index INTEGER NOT NULL,
    critical    BOOLEAN NOT NULL DEFAULT FALSE,
    status      TEXT NOT NULL,
    target      TEXT DEFAULT '',
    backup      TEXT DEFAULT '',
    message     TEXT DEFAULT '',
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    search_vector TSVECTOR GENERATED ALWAYS AS (
        to_tsvector('simple', coalesce(target, '') || ' ' || coalesce(message, ''))
    ) STORED
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs (started_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes (run_id, command_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes (status);
CREATE INDEX IF NOT EXISTS idx_outcomes_search ON outcomes USING GIN (search_vector);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
