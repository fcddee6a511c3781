package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/edata"
	"github.com/dmc31a42/WargameModInstaller/internal/paths"
	"github.com/dmc31a42/WargameModInstaller/internal/plan"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
	"github.com/dmc31a42/WargameModInstaller/internal/texture"
)

type mockJournal struct {
	inputs   []store.RunInput
	outcomes []store.Outcome
	finished []store.RunStatus
	beginErr error
}

func (m *mockJournal) BeginRun(ctx context.Context, input store.RunInput) (int64, error) {
	if m.beginErr != nil {
		return 0, m.beginErr
	}
	m.inputs = append(m.inputs, input)
	return int64(len(m.inputs)), nil
}

func (m *mockJournal) RecordOutcome(ctx context.Context, runID int64, outcome store.Outcome) error {
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

func (m *mockJournal) FinishRun(ctx context.Context, runID int64, status store.RunStatus) error {
	m.finished = append(m.finished, status)
	return nil
}

type fixture struct {
	gameDir string
	modDir  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{gameDir: filepath.Join(root, "game"), modDir: filepath.Join(root, "mod")}
	for _, dir := range []string{f.gameDir, f.modDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("creating %s: %v", dir, err)
		}
	}
	return f
}

func (f fixture) write(t *testing.T, root, name string, data []byte) {
	t.Helper()
	file := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatalf("creating directory: %v", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func (f fixture) executor(journal store.Journal) *Executor {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := &Executor{GameDir: f.gameDir, ModDir: f.modDir, BackupDir: "backup", now: func() time.Time { return clock }}
	if journal != nil {
		e.Journal = journal
	}
	return e
}

func archiveBytes(t *testing.T) []byte {
	t.Helper()
	header := &edata.Header{
		Magic:      edata.Magic,
		Version:    2,
		DictOffset: edata.DefaultDictOffset,
		DictLength: 100,
		FileOffset: 2048,
		FileLength: 64,
		Padding:    edata.DefaultPadding,
	}
	data, err := header.MarshalBinary()
	if err != nil {
		t.Fatalf("encoding header: %v", err)
	}
	archive := make([]byte, 4096)
	copy(archive, data)
	return archive
}

func ddsBytes(t *testing.T, width, height uint32) []byte {
	t.Helper()
	img := &texture.Image{
		Width:     width,
		Height:    height,
		MipCount:  1,
		Format:    texture.FormatR8G8B8A8,
		MipLevels: [][]byte{make([]byte, width*height*4)},
	}
	data, err := texture.EncodeDDS(img)
	if err != nil {
		t.Fatalf("encoding dds: %v", err)
	}
	return data
}

func meta(critical bool) command.Meta {
	return command.NewMeta(0, critical)
}

func prepare(cmds ...command.Command) []plan.Group {
	command.AssignIDs(cmds)
	return plan.Build(cmds)
}

func TestRunCopiesAndBacksUp(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.modDir, "Flags/new.txt", []byte("new"))
	f.write(t, f.gameDir, "Data/flag.txt", []byte("old"))

	journal := &mockJournal{}
	e := f.executor(journal)
	e.Document = "install.xml"

	groups := prepare(&command.CopyModFile{
		Meta:       command.NewMeta(3, true),
		SourcePath: paths.NewEntityPath(`Flags\new.txt`),
		TargetPath: paths.NewEntityPath(`Data\flag.txt`),
	})
	result, err := e.Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(f.gameDir, "Data", "flag.txt"))
	if err != nil || string(got) != "new" {
		t.Fatalf("expected target to hold new content, got %q (%v)", got, err)
	}
	if len(result.Outcomes) != 1 || result.Outcomes[0].Status != store.OutcomeApplied {
		t.Fatalf("expected one applied outcome, got %+v", result.Outcomes)
	}

	backup := result.Outcomes[0].Backup
	if backup == "" {
		t.Fatalf("expected a backup path")
	}
	old, err := os.ReadFile(backup)
	if err != nil || string(old) != "old" {
		t.Fatalf("expected backup to hold old content, got %q (%v)", old, err)
	}
	if rel, err := filepath.Rel(f.gameDir, backup); err != nil || !strings.HasPrefix(rel, "backup") {
		t.Fatalf("expected backup under game dir, got %s", backup)
	}

	if len(journal.inputs) != 1 || journal.inputs[0].Commands != 1 || journal.inputs[0].Document != "install.xml" {
		t.Fatalf("unexpected run input %+v", journal.inputs)
	}
	if len(journal.outcomes) != 1 {
		t.Fatalf("expected 1 journalled outcome, got %d", len(journal.outcomes))
	}
	if len(journal.finished) != 1 || journal.finished[0] != store.RunSucceeded {
		t.Fatalf("expected succeeded run, got %v", journal.finished)
	}
}

func TestRunCopyGameFileAndRemove(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.gameDir, "Data/a.txt", []byte("a"))
	f.write(t, f.gameDir, "Data/old.txt", []byte("stale"))

	groups := prepare(
		&command.CopyGameFile{Meta: command.NewMeta(4, true), SourcePath: paths.NewEntityPath("Data/a.txt"), TargetPath: paths.NewEntityPath("Data/b.txt")},
		&command.RemoveFile{Meta: command.NewMeta(1, true), SourcePath: paths.NewEntityPath("Data/old.txt")},
		&command.RemoveFile{Meta: command.NewMeta(1, true), SourcePath: paths.NewEntityPath("Data/missing.txt")},
	)
	result, err := f.executor(nil).Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(f.gameDir, "Data", "old.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected old.txt removed, got %v", err)
	}
	if got, _ := os.ReadFile(filepath.Join(f.gameDir, "Data", "b.txt")); string(got) != "a" {
		t.Fatalf("expected b.txt copied from a.txt, got %q", got)
	}
	// Removes run first at priority 1.
	if result.Outcomes[0].Kind != "RemoveFile" || result.Outcomes[2].Kind != "CopyGameFile" {
		t.Fatalf("unexpected outcome order %+v", result.Outcomes)
	}
	if result.Outcomes[0].Backup == "" {
		t.Fatalf("expected removed file backed up")
	}
	if result.Outcomes[1].Message != "file already absent" || result.Outcomes[1].Status != store.OutcomeApplied {
		t.Fatalf("expected missing removal to be a no-op, got %+v", result.Outcomes[1])
	}
}

func TestRunFailurePolicy(t *testing.T) {
	t.Run("non-critical failure is skipped", func(t *testing.T) {
		f := newFixture(t)
		f.write(t, f.modDir, "ok.txt", []byte("ok"))

		journal := &mockJournal{}
		groups := prepare(
			&command.CopyModFile{Meta: meta(false), SourcePath: paths.NewEntityPath("missing.txt"), TargetPath: paths.NewEntityPath("a.txt")},
			&command.CopyModFile{Meta: meta(false), SourcePath: paths.NewEntityPath("ok.txt"), TargetPath: paths.NewEntityPath("b.txt")},
		)
		result, err := f.executor(journal).Run(context.Background(), groups)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Count(store.OutcomeSkipped) != 1 || result.Count(store.OutcomeApplied) != 1 {
			t.Fatalf("expected 1 skipped and 1 applied, got %+v", result.Outcomes)
		}
		if journal.finished[0] != store.RunSucceeded {
			t.Fatalf("expected succeeded, got %s", journal.finished[0])
		}
	})

	t.Run("critical failure aborts", func(t *testing.T) {
		f := newFixture(t)
		f.write(t, f.modDir, "ok.txt", []byte("ok"))

		journal := &mockJournal{}
		groups := prepare(
			&command.CopyModFile{Meta: meta(true), SourcePath: paths.NewEntityPath("missing.txt"), TargetPath: paths.NewEntityPath("a.txt")},
			&command.CopyModFile{Meta: meta(true), SourcePath: paths.NewEntityPath("ok.txt"), TargetPath: paths.NewEntityPath("b.txt")},
		)
		result, err := f.executor(journal).Run(context.Background(), groups)

		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("expected CommandError, got %v", err)
		}
		if cmdErr.Command.ID() != 0 || !errors.Is(err, ErrMissingSource) {
			t.Fatalf("expected command 0 missing source, got %v", err)
		}
		if len(result.Outcomes) != 1 || result.Outcomes[0].Status != store.OutcomeFailed {
			t.Fatalf("expected one failed outcome, got %+v", result.Outcomes)
		}
		if _, err := os.Stat(filepath.Join(f.gameDir, "b.txt")); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected b.txt not written after abort")
		}
		if journal.finished[0] != store.RunFailed {
			t.Fatalf("expected failed, got %s", journal.finished[0])
		}
	})
}

func TestRunRefusesEscapingPaths(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.modDir, "ok.txt", []byte("ok"))

	groups := prepare(&command.CopyModFile{
		Meta:       meta(true),
		SourcePath: paths.NewEntityPath("ok.txt"),
		TargetPath: paths.NewEntityPath(`..\outside.txt`),
	})
	_, err := f.executor(nil).Run(context.Background(), groups)
	if !errors.Is(err, ErrPathEscapes) {
		t.Fatalf("expected ErrPathEscapes, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(f.gameDir), "outside.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected nothing written outside the game dir")
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.modDir, "ok.txt", []byte("ok"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	journal := &mockJournal{}
	groups := prepare(&command.CopyModFile{Meta: meta(true), SourcePath: paths.NewEntityPath("ok.txt"), TargetPath: paths.NewEntityPath("a.txt")})
	result, err := f.executor(journal).Run(ctx, groups)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.Outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %+v", result.Outcomes)
	}
	if journal.finished[0] != store.RunCancelled {
		t.Fatalf("expected cancelled, got %s", journal.finished[0])
	}
}

func TestRunArchiveGroup(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.gameDir, "Data/ZZ_Win.dat", archiveBytes(t))
	f.write(t, f.modDir, "img/flag.dds", ddsBytes(t, 4, 4))
	f.write(t, f.modDir, "img/big.dds", ddsBytes(t, 8, 8))
	f.write(t, f.modDir, "raw.bin", []byte{1, 2, 3})

	column, row := 1, 2
	target := paths.NewEntityPath(`Data\ZZ_Win.dat`)
	groups := prepare(
		&command.ReplaceImage{Meta: meta(false), SourcePath: paths.NewEntityPath("img/flag.dds"), TargetPath: target,
			TargetContentPath: paths.ParseContentPath("pc/texture/flag.tgv")},
		&command.ReplaceImageTile{Meta: meta(false), SourcePath: paths.NewEntityPath("img/flag.dds"), TargetPath: target,
			TargetContentPath: paths.ParseContentPath("pc/texture/map.tgv"), Column: &column, Row: &row, TileSize: 4},
		&command.ReplaceImageTile{Meta: meta(false), SourcePath: paths.NewEntityPath("img/big.dds"), TargetPath: target,
			TargetContentPath: paths.ParseContentPath("pc/texture/map.tgv"), TileSize: 4},
		&command.ReplaceImagePart{Meta: meta(false), SourcePath: paths.NewEntityPath("img/flag.dds"), TargetPath: target,
			TargetContentPath: paths.ParseContentPath("pc/texture/atlas.tgv"), XPosition: 16, YPosition: 8},
		&command.ReplaceContent{Meta: meta(false), SourcePath: paths.NewEntityPath("raw.bin"), TargetPath: target,
			TargetContentPath: paths.ParseContentPath("pc/ndf/unit.ndfbin")},
		&command.AlterDictionary{Meta: meta(false), TargetPath: target,
			TargetContentPath: paths.ParseContentPath("pc/localisation/us/unites.dic")},
		&command.AlterDictionary{Meta: meta(false), TargetPath: target,
			TargetContentPath: paths.ParseContentPath("pc/localisation/us/unites.dic"),
			AlteredEntries:    []command.DictionaryEntry{{Key: "abc", Value: "Tank"}}},
	)
	if len(groups) != 1 || groups[0].Kind() != plan.KindArchive {
		t.Fatalf("expected a single archive group, got %d groups", len(groups))
	}

	result, err := f.executor(nil).Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	expected := []store.OutcomeStatus{
		store.OutcomeVerified,
		store.OutcomeVerified,
		store.OutcomeSkipped,
		store.OutcomeVerified,
		store.OutcomeVerified,
		store.OutcomeSkipped,
		store.OutcomeVerified,
	}
	if len(result.Outcomes) != len(expected) {
		t.Fatalf("expected %d outcomes, got %d", len(expected), len(result.Outcomes))
	}
	for i, status := range expected {
		if result.Outcomes[i].Status != status {
			t.Fatalf("command %d: expected %s, got %s (%s)", i, status, result.Outcomes[i].Status, result.Outcomes[i].Message)
		}
	}
	if result.Outcomes[2].Message == "" || result.Outcomes[5].Message != ErrNoEntries.Error() {
		t.Fatalf("expected failure messages, got %q and %q", result.Outcomes[2].Message, result.Outcomes[5].Message)
	}
}

func TestRunRejectsMisaddressedTile(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.gameDir, "Data/ZZ_Win.dat", archiveBytes(t))
	f.write(t, f.modDir, "img/tile.dds", ddsBytes(t, 256, 256))

	column, row := -5, -7
	groups := prepare(&command.ReplaceImageTile{
		Meta:              meta(false),
		SourcePath:        paths.NewEntityPath("img/tile.dds"),
		TargetPath:        paths.NewEntityPath("Data/ZZ_Win.dat"),
		TargetContentPath: paths.ParseContentPath("pc/texture/map.tgv"),
		Column:            &column,
		Row:               &row,
		TileSize:          256,
	})
	result, err := f.executor(nil).Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	outcome := result.Outcomes[0]
	if outcome.Status != store.OutcomeSkipped {
		t.Fatalf("expected negative tile address skipped, got %s", outcome.Status)
	}
	if !strings.Contains(outcome.Message, ErrBadPlacement.Error()) {
		t.Fatalf("expected placement error, got %q", outcome.Message)
	}
}

func TestRunArchiveGroupBadHeader(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.gameDir, "Data/broken.dat", []byte("not an archive at all"))

	groups := prepare(
		&command.AlterDictionary{Meta: meta(false), TargetPath: paths.NewEntityPath("Data/broken.dat"),
			TargetContentPath: paths.ParseContentPath("a.dic"), AlteredEntries: []command.DictionaryEntry{{Key: "k", Value: "v"}}},
		&command.AlterDictionary{Meta: meta(true), TargetPath: paths.NewEntityPath("Data/broken.dat"),
			TargetContentPath: paths.ParseContentPath("b.dic"), AlteredEntries: []command.DictionaryEntry{{Key: "k", Value: "v"}}},
	)
	result, err := f.executor(nil).Run(context.Background(), groups)

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Command.ID() != 1 {
		t.Fatalf("expected critical command 1 to abort, got %v", err)
	}
	if result.Outcomes[0].Status != store.OutcomeSkipped {
		t.Fatalf("expected non-critical command skipped, got %s", result.Outcomes[0].Status)
	}
}

func TestRunKeepsFirstBackupOfTarget(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.gameDir, "Data/a.txt", []byte("original"))
	f.write(t, f.modDir, "first.txt", []byte("first mod"))
	f.write(t, f.modDir, "second.txt", []byte("second mod"))

	groups := prepare(
		&command.CopyModFile{Meta: command.NewMeta(3, true), SourcePath: paths.NewEntityPath("first.txt"), TargetPath: paths.NewEntityPath("Data/a.txt")},
		&command.CopyModFile{Meta: command.NewMeta(3, true), SourcePath: paths.NewEntityPath("second.txt"), TargetPath: paths.NewEntityPath(`Data\a.txt`)},
	)
	result, err := f.executor(&mockJournal{}).Run(context.Background(), groups)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got, _ := os.ReadFile(filepath.Join(f.gameDir, "Data", "a.txt")); string(got) != "second mod" {
		t.Fatalf("expected target to hold second mod, got %q", got)
	}
	for i, outcome := range result.Outcomes {
		backup, err := os.ReadFile(outcome.Backup)
		if err != nil {
			t.Fatalf("outcome %d: reading backup: %v", i, err)
		}
		if string(backup) != "original" {
			t.Fatalf("outcome %d: expected backup of original content, got %q", i, backup)
		}
	}
}

func TestRunsWithoutJournalUseSeparateBackups(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.modDir, "new.txt", []byte("new"))

	var backups []string
	for _, content := range []string{"first", "second"} {
		f.write(t, f.gameDir, "Data/a.txt", []byte(content))
		groups := prepare(&command.CopyModFile{Meta: command.NewMeta(3, true), SourcePath: paths.NewEntityPath("new.txt"), TargetPath: paths.NewEntityPath("Data/a.txt")})
		result, err := f.executor(nil).Run(context.Background(), groups)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		backups = append(backups, result.Outcomes[0].Backup)
	}

	if backups[0] == backups[1] {
		t.Fatalf("expected distinct backup paths, got %s twice", backups[0])
	}
	for i, want := range []string{"first", "second"} {
		if got, _ := os.ReadFile(backups[i]); string(got) != want {
			t.Fatalf("run %d: expected backup %q, got %q", i, want, got)
		}
	}
}

func TestBackupRootUsesRunID(t *testing.T) {
	e := &Executor{GameDir: "/games/wargame", BackupDir: "backup", now: func() time.Time {
		return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	}}
	got := e.backupRoot(7)
	want := filepath.Join("/games/wargame", "backup", "20240301-123000-run7")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestRunJournalUnavailable(t *testing.T) {
	f := newFixture(t)
	journal := &mockJournal{beginErr: errors.New("database is locked")}

	result, err := f.executor(journal).Run(context.Background(), nil)
	if err == nil || result != nil {
		t.Fatalf("expected journal error, got %v", err)
	}
}
