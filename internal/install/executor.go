// Package install runs a grouped install plan against a game directory.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/plan"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

var (
	ErrPathEscapes   = errors.New("path escapes its root directory")
	ErrEmptyPath     = errors.New("empty path")
	ErrUnsupported   = errors.New("command not supported in this group")
	ErrNoEntries     = errors.New("dictionary has no entries")
	ErrTileMismatch  = errors.New("source image does not fit the tile")
	ErrBadPlacement  = errors.New("invalid image placement")
	ErrMissingSource = errors.New("source file not found")
)

var tracer = otel.Tracer("github.com/dmc31a42/WargameModInstaller/internal/install")

// CommandError is returned when a critical command fails and the run stops.
type CommandError struct {
	Command command.Command
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("critical command %d (%s) failed: %v", e.Command.ID(), e.Command.Kind(), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

type Executor struct {
	GameDir string
	ModDir  string
	// BackupDir holds copies of overwritten or removed files. A relative
	// directory is resolved against GameDir.
	BackupDir string
	// Document and Components only describe the run in the journal.
	Document   string
	Components []string
	Logger     *log.Logger
	Journal    store.Journal

	now func() time.Time
}

type Result struct {
	RunID    int64
	Outcomes []store.Outcome
}

func (r *Result) Count(status store.OutcomeStatus) int {
	count := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			count++
		}
	}
	return count
}

// Run executes groups in order and the commands of each group in ID order.
// A failing critical command stops the run with a *CommandError; a failing
// non-critical command is recorded as skipped. Cancellation is honored between
// commands.
func (e *Executor) Run(ctx context.Context, groups []plan.Group) (*Result, error) {
	logger := e.logger()
	result := &Result{}

	commands := 0
	for _, group := range groups {
		commands += len(group.Commands())
	}

	ctx, span := tracer.Start(ctx, "install.Run", trace.WithAttributes(
		attribute.String("wmi.document", e.Document),
		attribute.Int("wmi.groups", len(groups)),
		attribute.Int("wmi.commands", commands),
	))
	defer span.End()

	if e.Journal != nil {
		runID, err := e.Journal.BeginRun(ctx, store.RunInput{
			Document:   e.Document,
			GameDir:    e.GameDir,
			ModDir:     e.ModDir,
			Components: e.Components,
			Commands:   commands,
			Groups:     len(groups),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "journal unavailable")
			return nil, fmt.Errorf("starting journal run: %w", err)
		}
		result.RunID = runID
		span.SetAttributes(attribute.Int64("wmi.run_id", runID))
	}

	r := &run{
		executor:   e,
		ctx:        ctx,
		logger:     logger,
		result:     result,
		backupRoot: e.backupRoot(result.RunID),
	}

	status := store.RunSucceeded
	err := r.groups(groups)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = store.RunCancelled
	case err != nil:
		status = store.RunFailed
	}

	if e.Journal != nil {
		if finishErr := e.Journal.FinishRun(context.WithoutCancel(ctx), result.RunID, status); finishErr != nil {
			logger.Error("finishing journal run", "run", result.RunID, "err", finishErr)
			if err == nil {
				err = fmt.Errorf("finishing journal run: %w", finishErr)
			}
		}
	}

	span.SetAttributes(attribute.String("wmi.status", string(status)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(status))
	}

	logger.Info("install finished",
		"status", status,
		"applied", result.Count(store.OutcomeApplied),
		"verified", result.Count(store.OutcomeVerified),
		"skipped", result.Count(store.OutcomeSkipped))
	return result, err
}

func (e *Executor) logger() *log.Logger {
	if e.Logger == nil {
		return log.New(io.Discard)
	}
	return e.Logger
}

func (e *Executor) backupRoot(runID int64) string {
	dir := e.BackupDir
	if dir == "" {
		dir = "backup"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(e.GameDir, dir)
	}
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	label := now().UTC().Format("20060102-150405")
	if runID > 0 {
		label = fmt.Sprintf("%s-run%d", label, runID)
	}
	return filepath.Join(dir, label)
}

// run is the state of one Executor.Run call.
type run struct {
	executor   *Executor
	ctx        context.Context
	logger     *log.Logger
	result     *Result
	backupRoot string

	// backupReady is set once backupRoot exists on disk.
	backupReady bool

	// backups maps a target's key to its first backup in this run.
	backups map[string]string
}

func (r *run) groups(groups []plan.Group) error {
	for index, group := range groups {
		r.logger.Debug("running group", "index", index, "kind", group.Kind(), "priority", group.Priority())
		_, span := tracer.Start(r.ctx, "install.group", trace.WithAttributes(
			attribute.Int("wmi.group.index", index),
			attribute.String("wmi.group.kind", group.Kind().String()),
			attribute.Int("wmi.group.priority", group.Priority()),
		))

		var err error
		switch g := group.(type) {
		case plan.ArchiveTargeted:
			span.SetAttributes(attribute.String("wmi.group.target", g.Target().String()))
			err = r.archiveGroup(index, g)
		default:
			err = r.basicGroup(index, g)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "group failed")
		}
		span.End()
		if err != nil {
			return err
		}
	}
	return nil
}

// settle records the outcome of cmd and applies the failure policy to err.
func (r *run) settle(group int, cmd command.Command, outcome store.Outcome, err error) error {
	outcome.CommandID = cmd.ID()
	outcome.Kind = cmd.Kind().String()
	outcome.Group = group
	outcome.Critical = cmd.IsCritical()
	if err != nil {
		outcome.Message = err.Error()
		if cmd.IsCritical() {
			outcome.Status = store.OutcomeFailed
		} else {
			outcome.Status = store.OutcomeSkipped
		}
	}

	r.result.Outcomes = append(r.result.Outcomes, outcome)
	if journal := r.executor.Journal; journal != nil {
		if recordErr := journal.RecordOutcome(context.WithoutCancel(r.ctx), r.result.RunID, outcome); recordErr != nil {
			r.logger.Error("recording outcome", "command", cmd.ID(), "err", recordErr)
		}
	}

	if err == nil {
		r.logger.Info("command "+string(outcome.Status), "command", cmd.ID(), "kind", cmd.Kind(), "target", outcome.Target)
		return nil
	}
	if cmd.IsCritical() {
		r.logger.Error("critical command failed", "command", cmd.ID(), "kind", cmd.Kind(), "err", err)
		return &CommandError{Command: cmd, Err: err}
	}
	r.logger.Warn("command skipped", "command", cmd.ID(), "kind", cmd.Kind(), "err", err)
	return nil
}
