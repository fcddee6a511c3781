package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// parseDSN turns sqlite://path[?query] (or sqlite:path) into the file name the
// driver expects. Relative paths are kept relative to the working directory.
func parseDSN(dsn string) (string, error) {
	var rest string
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		rest = strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "sqlite:"):
		rest = strings.TrimPrefix(dsn, "sqlite:")
	default:
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}

	if rest == ":memory:" {
		return ":memory:", nil
	}
	if rest == "" {
		return "", fmt.Errorf("sqlite DSN has no path")
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	path = unescaped

	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}
