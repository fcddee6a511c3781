package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/install"
	"github.com/dmc31a42/WargameModInstaller/internal/plan"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
	"github.com/dmc31a42/WargameModInstaller/internal/telemetry"
)

func installCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "install [document]",
		Short: "Apply an install document to the game directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(documentArg(args), sel)
		},
	}
	sel.register(cmd)
	return cmd
}

func runInstall(document string, sel selection) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	settings, logger, err := loadSettings()
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, settings.Telemetry.Endpoint, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("flushing traces", "err", err)
		}
	}()

	cmds, components, err := readDocument(settings, logger, document, sel)
	if err != nil {
		return err
	}
	groups := plan.Build(cmds)

	db, err := openStore(ctx, settings)
	if err != nil {
		return err
	}

	executor := &install.Executor{
		GameDir:    settings.GameDir,
		ModDir:     settings.ModDir,
		BackupDir:  settings.BackupDir,
		Document:   absolute(document),
		Components: components,
		Logger:     logger,
	}
	if db != nil {
		defer db.Close(context.WithoutCancel(ctx))
		executor.Journal = db
	}

	result, runErr := executor.Run(ctx, groups)
	if result != nil {
		printResult(result)
	}
	return runErr
}

func printResult(result *install.Result) {
	fmt.Fprintln(os.Stdout, "Install complete.")
	if result.RunID > 0 {
		fmt.Fprintf(os.Stdout, "  Run:      %d\n", result.RunID)
	}
	fmt.Fprintf(os.Stdout, "  Applied:  %d\n", result.Count(store.OutcomeApplied))
	fmt.Fprintf(os.Stdout, "  Verified: %d\n", result.Count(store.OutcomeVerified))
	fmt.Fprintf(os.Stdout, "  Skipped:  %d\n", result.Count(store.OutcomeSkipped))

	var problems []store.Outcome
	for _, outcome := range result.Outcomes {
		if outcome.Status == store.OutcomeSkipped || outcome.Status == store.OutcomeFailed {
			problems = append(problems, outcome)
		}
	}
	if len(problems) > 0 {
		fmt.Fprintf(os.Stdout, "\nProblems (%d):\n", len(problems))
		for _, outcome := range problems {
			fmt.Fprintf(os.Stdout, "  - #%d %s %s: %s\n", outcome.CommandID, outcome.Kind, renderStatus(outcome.Status), outcome.Message)
		}
	}
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
