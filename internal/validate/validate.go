// Package validate lints install commands before anything touches the game
// directory. Findings are advisory: planning and installing never depend on
// them, but an error-level issue on a critical command predicts an aborted
// install.
package validate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeEmptySource        = "empty_source_path"
	codeEmptyTarget        = "empty_target_path"
	codeEmptyContent       = "empty_content_path"
	codeMissingSource      = "missing_source_file"
	codeEmptyDictionary    = "empty_dictionary"
	codeTileSizeInvalid    = "tile_size_invalid"
	codeTilePartialAddress = "tile_partial_address"
	codeNegativePosition   = "negative_position"
	codePathEscapesRoot    = "path_escapes_root"
)

type Issue struct {
	Severity  Severity
	Code      string
	Message   string
	CommandID int
	Kind      command.Kind
	Path      string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	return count
}

// Options locate the directories source files are checked against. An empty
// directory skips the existence check for sources it would hold.
type Options struct {
	ModDir  string
	GameDir string
}

func Run(cmds []command.Command, opts Options) *Report {
	issues := make([]Issue, 0)
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		issues = append(issues, checkPaths(cmd, opts)...)
		issues = append(issues, checkKind(cmd)...)
	}
	return &Report{Issues: issues}
}

func checkPaths(cmd command.Command, opts Options) []Issue {
	var issues []Issue

	if sourced, ok := cmd.(command.Sourced); ok {
		source := sourced.Source()
		switch {
		case source.IsEmpty():
			issues = append(issues, newIssue(cmd, codeEmptySource, "source path is empty", ""))
		case source.Escapes():
			issues = append(issues, newIssue(cmd, codePathEscapesRoot, "source path leaves its directory", source.String()))
		default:
			if root := sourceRoot(cmd, opts); root != "" && !exists(source.Join(root)) {
				issues = append(issues, newIssue(cmd, codeMissingSource, fmt.Sprintf("source file not found in %s", root), source.String()))
			}
		}
	}

	if targeted, ok := cmd.(command.Targeted); ok {
		target := targeted.Target()
		switch {
		case target.IsEmpty():
			issues = append(issues, newIssue(cmd, codeEmptyTarget, "target path is empty", ""))
		case target.Escapes():
			issues = append(issues, newIssue(cmd, codePathEscapesRoot, "target path leaves the game directory", target.String()))
		}
	}

	if content, ok := cmd.(command.ContentTargeted); ok && content.TargetContent().IsEmpty() {
		issues = append(issues, newIssue(cmd, codeEmptyContent, "target content path is empty", content.Target().String()))
	}

	return issues
}

// sourceRoot is the directory a command reads its source from. RemoveFile is
// not checked: removing a file that is already gone is harmless.
func sourceRoot(cmd command.Command, opts Options) string {
	switch cmd.Kind() {
	case command.KindRemoveFile:
		return ""
	case command.KindCopyGameFile:
		return opts.GameDir
	default:
		return opts.ModDir
	}
}

func checkKind(cmd command.Command) []Issue {
	switch c := cmd.(type) {
	case *command.AlterDictionary:
		if len(c.AlteredEntries) == 0 {
			return []Issue{newIssue(cmd, codeEmptyDictionary, "dictionary alteration has no entries", c.TargetPath.String())}
		}
	case *command.ReplaceImageTile:
		var issues []Issue
		if c.TileSize <= 0 {
			issues = append(issues, newIssue(cmd, codeTileSizeInvalid, fmt.Sprintf("tile size must be positive, got %d", c.TileSize), c.SourcePath.String()))
		}
		if (c.Column == nil) != (c.Row == nil) {
			issues = append(issues, newIssue(cmd, codeTilePartialAddress, "tile sets only one of column and row", c.SourcePath.String()))
		}
		if (c.Column != nil && *c.Column < 0) || (c.Row != nil && *c.Row < 0) {
			issues = append(issues, newIssue(cmd, codeNegativePosition, "tile column and row must not be negative", c.SourcePath.String()))
		}
		return issues
	case *command.ReplaceImagePart:
		if c.XPosition < 0 || c.YPosition < 0 {
			return []Issue{newIssue(cmd, codeNegativePosition, fmt.Sprintf("part position %d,%d is negative", c.XPosition, c.YPosition), c.SourcePath.String())}
		}
	}
	return nil
}

func newIssue(cmd command.Command, code, message, path string) Issue {
	severity := SeverityWarn
	if cmd.IsCritical() {
		severity = SeverityError
	}
	return Issue{
		Severity:  severity,
		Code:      code,
		Message:   message,
		CommandID: cmd.ID(),
		Kind:      cmd.Kind(),
		Path:      path,
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
