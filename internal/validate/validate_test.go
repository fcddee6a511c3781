package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/paths"
)

func intPtr(v int) *int { return &v }

func codes(report *Report) map[string]Severity {
	found := make(map[string]Severity)
	for _, issue := range report.Issues {
		found[issue.Code] = issue.Severity
	}
	return found
}

func TestRunCleanCommands(t *testing.T) {
	modDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(modDir, "flag.dds"), []byte("dds"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cmds := []command.Command{
		&command.ReplaceImageTile{
			Meta:              command.NewMeta(2, true),
			SourcePath:        paths.NewEntityPath("flag.dds"),
			TargetPath:        paths.NewEntityPath("Data/ZZ_Win.dat"),
			TargetContentPath: paths.ParseContentPath("flag.tgv"),
			Column:            intPtr(0),
			Row:               intPtr(1),
			TileSize:          256,
		},
		&command.RemoveFile{Meta: command.NewMeta(1, true), SourcePath: paths.NewEntityPath("Data/gone.dat")},
		&command.AlterDictionary{
			Meta:              command.NewMeta(2, true),
			TargetPath:        paths.NewEntityPath("Data/ZZ_Win.dat"),
			TargetContentPath: paths.ParseContentPath("unites.dic"),
			AlteredEntries:    []command.DictionaryEntry{{Key: "abc", Value: "Tank"}},
		},
	}
	command.AssignIDs(cmds)

	report := Run(cmds, Options{ModDir: modDir, GameDir: t.TempDir()})
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestRunFindsIssues(t *testing.T) {
	tests := []struct {
		name string
		cmd  command.Command
		code string
	}{
		{
			name: "empty source",
			cmd:  &command.CopyModFile{Meta: command.NewMeta(3, true), TargetPath: paths.NewEntityPath("Data/a.txt")},
			code: codeEmptySource,
		},
		{
			name: "empty target",
			cmd:  &command.CopyModFile{Meta: command.NewMeta(3, true), SourcePath: paths.NewEntityPath("a.txt")},
			code: codeEmptyTarget,
		},
		{
			name: "escaping target",
			cmd: &command.CopyModFile{
				Meta:       command.NewMeta(3, true),
				SourcePath: paths.NewEntityPath("a.txt"),
				TargetPath: paths.NewEntityPath("../../evil.dll"),
			},
			code: codePathEscapesRoot,
		},
		{
			name: "empty content path",
			cmd: &command.ReplaceContent{
				Meta:       command.NewMeta(2, true),
				SourcePath: paths.NewEntityPath("a.ndf"),
				TargetPath: paths.NewEntityPath("Data/NDF_Win.dat"),
			},
			code: codeEmptyContent,
		},
		{
			name: "missing source file",
			cmd: &command.ReplaceImage{
				Meta:              command.NewMeta(2, true),
				SourcePath:        paths.NewEntityPath("absent.dds"),
				TargetPath:        paths.NewEntityPath("Data/ZZ_Win.dat"),
				TargetContentPath: paths.ParseContentPath("flag.tgv"),
			},
			code: codeMissingSource,
		},
		{
			name: "empty dictionary",
			cmd: &command.AlterDictionary{
				Meta:              command.NewMeta(2, true),
				TargetPath:        paths.NewEntityPath("Data/ZZ_Win.dat"),
				TargetContentPath: paths.ParseContentPath("unites.dic"),
			},
			code: codeEmptyDictionary,
		},
		{
			name: "tile size",
			cmd: &command.ReplaceImageTile{
				Meta:              command.NewMeta(2, true),
				TargetPath:        paths.NewEntityPath("Data/ZZ_Win.dat"),
				TargetContentPath: paths.ParseContentPath("flag.tgv"),
				TileSize:          0,
			},
			code: codeTileSizeInvalid,
		},
		{
			name: "partial tile address",
			cmd: &command.ReplaceImageTile{
				Meta:              command.NewMeta(2, true),
				TargetPath:        paths.NewEntityPath("Data/ZZ_Win.dat"),
				TargetContentPath: paths.ParseContentPath("flag.tgv"),
				Column:            intPtr(2),
				TileSize:          256,
			},
			code: codeTilePartialAddress,
		},
		{
			name: "negative part position",
			cmd: &command.ReplaceImagePart{
				Meta:              command.NewMeta(2, true),
				TargetPath:        paths.NewEntityPath("Data/ZZ_Win.dat"),
				TargetContentPath: paths.ParseContentPath("flag.tgv"),
				XPosition:         -4,
			},
			code: codeNegativePosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Run([]command.Command{tt.cmd}, Options{ModDir: t.TempDir()})
			severity, ok := codes(report)[tt.code]
			if !ok {
				t.Fatalf("expected %s, got %+v", tt.code, report.Issues)
			}
			if severity != SeverityError {
				t.Fatalf("expected error severity for critical command, got %s", severity)
			}
		})
	}
}

func TestRunSeverityFollowsCriticality(t *testing.T) {
	cmds := []command.Command{
		&command.CopyModFile{Meta: command.NewMeta(3, false), TargetPath: paths.NewEntityPath("a.txt")},
		&command.CopyModFile{Meta: command.NewMeta(3, true), TargetPath: paths.NewEntityPath("b.txt")},
	}
	command.AssignIDs(cmds)

	report := Run(cmds, Options{})
	if len(report.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(report.Issues))
	}
	if report.Issues[0].Severity != SeverityWarn || report.Issues[0].CommandID != 0 {
		t.Fatalf("expected warning for command 0, got %+v", report.Issues[0])
	}
	if report.Issues[1].Severity != SeverityError || report.Issues[1].CommandID != 1 {
		t.Fatalf("expected error for command 1, got %+v", report.Issues[1])
	}
	if report.Errors() != 1 {
		t.Fatalf("expected 1 error, got %d", report.Errors())
	}
}

func TestRunSkipsExistenceWithoutDirectories(t *testing.T) {
	cmds := []command.Command{
		&command.CopyGameFile{
			Meta:       command.NewMeta(4, true),
			SourcePath: paths.NewEntityPath("Data/a.dat"),
			TargetPath: paths.NewEntityPath("Data/b.dat"),
		},
	}
	report := Run(cmds, Options{})
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}

	report = Run(cmds, Options{GameDir: t.TempDir()})
	if _, ok := codes(report)[codeMissingSource]; !ok {
		t.Fatalf("expected missing source against game dir, got %+v", report.Issues)
	}
}
