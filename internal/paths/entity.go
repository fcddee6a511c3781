// Package paths holds the addressing primitives shared by install commands:
// entity paths naming files on disk and content paths naming payloads inside
// an archive.
package paths

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
)

// EntityPath names a file relative to the game or mod directory. Two paths
// are equal when they differ only in letter case or separator style, which is
// how the game itself resolves them.
type EntityPath struct {
	raw string
	key string
}

func NewEntityPath(raw string) EntityPath {
	return EntityPath{raw: raw, key: normalize(raw)}
}

func (p EntityPath) String() string { return p.raw }

// Key is the normalized form used for equality and map keys.
func (p EntityPath) Key() string { return p.key }

func (p EntityPath) IsEmpty() bool { return strings.TrimSpace(p.raw) == "" }

func (p EntityPath) Equal(other EntityPath) bool { return p.key == other.key }

// Join resolves the path below root using the host separator.
func (p EntityPath) Join(root string) string {
	slashed := strings.ReplaceAll(p.raw, `\`, "/")
	return filepath.Join(root, filepath.FromSlash(slashed))
}

func normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	slashed := strings.ReplaceAll(trimmed, `\`, "/")
	cleaned := path.Clean(slashed)
	cleaned = strings.TrimPrefix(cleaned, "./")
	if cleaned == "." {
		return ""
	}
	// cases.Caser is stateful, so each call gets its own.
	return cases.Fold().String(cleaned)
}

// Escapes reports whether the path is absolute or climbs above the directory
// it is joined to.
func (p EntityPath) Escapes() bool {
	slashed := strings.ReplaceAll(strings.TrimSpace(p.raw), `\`, "/")
	if path.IsAbs(slashed) || filepath.IsAbs(p.raw) || filepath.VolumeName(p.raw) != "" {
		return true
	}
	return p.key == ".." || strings.HasPrefix(p.key, "../")
}
