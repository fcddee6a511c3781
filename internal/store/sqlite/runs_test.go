package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://"+filepath.ToSlash(filepath.Join(t.TempDir(), "journal.db")))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return client
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	runID, err := client.BeginRun(ctx, store.RunInput{
		Document:   "install.xml",
		GameDir:    "/games/wargame",
		ModDir:     "/mods/flags",
		Components: []string{"flags"},
		Commands:   2,
		Groups:     1,
	})
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	outcomes := []store.Outcome{
		{CommandID: 0, Kind: "CopyModFile", Group: 0, Critical: true, Status: store.OutcomeApplied, Target: "Data/a.txt", Backup: "backup/1/Data/a.txt"},
		{CommandID: 1, Kind: "ReplaceImage", Group: 0, Status: store.OutcomeSkipped, Target: "Data/ZZ_Win.dat", Message: "source file not found"},
	}
	for _, outcome := range outcomes {
		if err := client.RecordOutcome(ctx, runID, outcome); err != nil {
			t.Fatalf("record outcome: %v", err)
		}
	}
	if err := client.FinishRun(ctx, runID, store.RunSucceeded); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	run, err := client.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Status != store.RunSucceeded {
		t.Fatalf("expected succeeded, got %s", run.Status)
	}
	if run.FinishedAt == nil || !run.FinishedAt.After(run.StartedAt) {
		t.Fatalf("expected finished after start, got %v / %v", run.StartedAt, run.FinishedAt)
	}
	if len(run.Components) != 1 || run.Components[0] != "flags" {
		t.Fatalf("expected components [flags], got %v", run.Components)
	}
	if run.Commands != 2 || run.Groups != 1 {
		t.Fatalf("expected 2 commands in 1 group, got %d in %d", run.Commands, run.Groups)
	}

	got, err := client.GetOutcomes(ctx, runID)
	if err != nil {
		t.Fatalf("get outcomes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(got))
	}
	if !got[0].Critical || got[0].Backup != "backup/1/Data/a.txt" {
		t.Fatalf("unexpected first outcome %+v", got[0])
	}
	if got[1].Status != store.OutcomeSkipped || got[1].Message != "source file not found" {
		t.Fatalf("unexpected second outcome %+v", got[1])
	}
	if got[1].RecordedAt.IsZero() {
		t.Fatalf("expected recorded_at to be set")
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	for i := 0; i < 3; i++ {
		if _, err := client.BeginRun(ctx, store.RunInput{Document: "install.xml", GameDir: ".", ModDir: "."}); err != nil {
			t.Fatalf("begin run: %v", err)
		}
	}

	runs, err := client.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID <= runs[1].ID {
		t.Fatalf("expected newest run first, got %d then %d", runs[0].ID, runs[1].ID)
	}
	if runs[0].Status != store.RunRunning || runs[0].FinishedAt != nil {
		t.Fatalf("expected unfinished running run, got %+v", runs[0])
	}
}

func TestMissingRun(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.GetRun(ctx, 42); !errors.Is(err, store.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := client.FinishRun(ctx, 42, store.RunFailed); !errors.Is(err, store.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSearchOutcomes(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	runID, err := client.BeginRun(ctx, store.RunInput{Document: "install.xml", GameDir: ".", ModDir: "."})
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	outcomes := []store.Outcome{
		{CommandID: 0, Kind: "ReplaceImage", Status: store.OutcomeVerified, Target: "Data/ZZ_Win.dat", Message: "texture verified"},
		{CommandID: 1, Kind: "CopyModFile", Status: store.OutcomeApplied, Target: "Data/readme.txt", Message: "copied"},
	}
	for _, outcome := range outcomes {
		if err := client.RecordOutcome(ctx, runID, outcome); err != nil {
			t.Fatalf("record outcome: %v", err)
		}
	}

	results, err := client.SearchOutcomes(ctx, "texture", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].CommandID != 0 {
		t.Fatalf("expected command 0, got %+v", results)
	}
	if results[0].RunID != runID || results[0].Status != store.OutcomeVerified {
		t.Fatalf("unexpected result %+v", results[0])
	}

	if _, err := client.SearchOutcomes(ctx, "  ", 10); err == nil {
		t.Fatalf("expected error for empty query")
	}
}
