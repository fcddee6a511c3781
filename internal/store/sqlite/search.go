package sqlite

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

	ftsQuery := convertWebsearchToFTS5(query)

	sqlQuery := `
	SELECT o.run_id, o.command_id, o.kind, o.status, o.target,
		   bm25(outcomes_fts, 4.0, 1.0) AS score,
		   snippet(outcomes_fts, 1, '**', '**', '...', 20) AS snippet
	FROM outcomes_fts
	JOIN outcomes o ON outcomes_fts.rowid = o.id
	WHERE outcomes_fts MATCH ?
	ORDER BY score ASC, o.run_id DESC, o.command_id ASC
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, sqlQuery, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching outcomes: %w", err)
	}
	defer rows.Close()

	results := make([]store.SearchResult, 0)
	for rows.Next() {
		var r store.SearchResult
		var status string
		if err := rows.Scan(&r.RunID, &r.CommandID, &r.Kind, &status, &r.Target, &r.Score, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		r.Status = store.OutcomeStatus(status)
		// bm25 ranks better matches lower; flip it so callers sort descending.
		r.Score = -r.Score
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	return results, nil
}

func convertWebsearchToFTS5(query string) string {
	var result strings.Builder
	var inQuote bool
	var current strings.Builder

	flushToken := func() {
		token := current.String()
		current.Reset()
		if token == "" {
			return
		}

		upper := strings.ToUpper(token)
		switch upper {
		case "AND", "OR", "NOT":
			if result.Len() > 0 {
				result.WriteString(" ")
			}
			result.WriteString(upper)
			return
		}

		if result.Len() > 0 {
			lastWord := lastWord(result.String())
			if lastWord != "AND" && lastWord != "OR" && lastWord != "NOT" && lastWord != "" {
				result.WriteString(" AND ")
			} else {
				result.WriteString(" ")
			}
		}

		if strings.HasPrefix(token, "-") && len(token) > 1 {
			result.WriteString("NOT ")
			token = token[1:]
		}
		result.WriteString(quoteTerm(token))
	}

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '"':
			if inQuote {
				inQuote = false
				token := current.String()
				current.Reset()
				if token != "" {
					if result.Len() > 0 {
						result.WriteString(" AND ")
					}
					result.WriteString(`"`)
					result.WriteString(token)
					result.WriteString(`"`)
				}
			} else {
				flushToken()
				inQuote = true
			}
		case inQuote:
			current.WriteByte(ch)
		case ch == ' ' || ch == '\t':
			flushToken()
		default:
			current.WriteByte(ch)
		}
	}

	flushToken()

	return result.String()
}

// quoteTerm wraps terms holding FTS5 syntax characters, such as the dots and
// slashes of file paths, in double quotes. A trailing * stays a prefix query.
func quoteTerm(token string) string {
	prefix := strings.HasSuffix(token, "*")
	bare := strings.TrimSuffix(token, "*")
	if bare == "" || !strings.ContainsAny(bare, "./\\-_:|()^+") {
		return token
	}
	quoted := `"` + strings.ReplaceAll(bare, `"`, `""`) + `"`
	if prefix {
		quoted += "*"
	}
	return quoted
}

func lastWord(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
