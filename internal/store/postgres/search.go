package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

func (c *Client) SearchOutcomes(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	sql := `
SELECT run_id, command_id, kind, status, target,
    ts_rank(search_vector, websearch_to_tsquery('simple', $1)) AS score,
    CASE WHEN message <> '' THEN
        ts_headline('simple', message, websearch_to_tsquery('simple', $1),
            'MaxFragments=1, MaxWords=20, MinWords=5, StartSel=**, StopSel=**')
    ELSE '' END AS snippet
FROM outcomes
WHERE search_vector @@ websearch_to_tsquery('simple', $1)
ORDER BY score DESC, run_id DESC, command_id ASC
LIMIT $2
`

	rows, err := c.pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching outcomes: %w", err)
	}
	defer rows.Close()

	results := make([]store.SearchResult, 0)
	for rows.Next() {
		var r store.SearchResult
		var status string
		var score float32
		if err := rows.Scan(&r.RunID, &r.CommandID, &r.Kind, &status, &r.Target, &score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Status = store.OutcomeStatus(status)
		r.Score = float64(score)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}
