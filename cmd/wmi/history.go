package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded install runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "Maximum number of runs")
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historySearchCmd())
	return cmd
}

func runHistoryList(limit int) error {
	ctx := context.Background()

	settings, _, err := loadSettings()
	if err != nil {
		return err
	}
	db, err := requireStore(ctx, settings)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs recorded.")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(os.Stdout, "%4d  %s  %-9s  %d commands  %s\n",
			run.ID, run.StartedAt.Local().Format(time.DateTime), run.Status, run.Commands, run.Document)
	}
	return nil
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the outcome of every command in a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			return runHistoryShow(id)
		},
	}
}

func runHistoryShow(id int64) error {
	ctx := context.Background()

	settings, _, err := loadSettings()
	if err != nil {
		return err
	}
	db, err := requireStore(ctx, settings)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	outcomes, err := db.GetOutcomes(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Run %d: %s\n", run.ID, run.Status)
	fmt.Fprintf(os.Stdout, "  Document:   %s\n", run.Document)
	fmt.Fprintf(os.Stdout, "  Game dir:   %s\n", run.GameDir)
	fmt.Fprintf(os.Stdout, "  Mod dir:    %s\n", run.ModDir)
	if len(run.Components) > 0 {
		fmt.Fprintf(os.Stdout, "  Components: %v\n", run.Components)
	}
	fmt.Fprintf(os.Stdout, "  Started:    %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.FinishedAt != nil {
		fmt.Fprintf(os.Stdout, "  Finished:   %s\n", run.FinishedAt.Local().Format(time.DateTime))
	}

	fmt.Fprintf(os.Stdout, "\nOutcomes (%d):\n", len(outcomes))
	for _, outcome := range outcomes {
		line := fmt.Sprintf("  #%d [%d] %s %s %s", outcome.CommandID, outcome.Group, outcome.Kind, renderStatus(outcome.Status), outcome.Target)
		if outcome.Message != "" {
			line += ": " + outcome.Message
		}
		fmt.Fprintln(os.Stdout, line)
		if outcome.Backup != "" {
			fmt.Fprintf(os.Stdout, "      backup: %s\n", outcome.Backup)
		}
	}
	return nil
}

func historySearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search command outcomes by target and message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistorySearch(args[0], limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "Maximum number of results")
	return cmd
}

func runHistorySearch(query string, limit int) error {
	ctx := context.Background()

	settings, _, err := loadSettings()
	if err != nil {
		return err
	}
	db, err := requireStore(ctx, settings)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	results, err := db.SearchOutcomes(ctx, query, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No outcomes found.")
		return nil
	}

	for _, result := range results {
		fmt.Fprintf(os.Stdout, "run %d #%d %s %s %s\n", result.RunID, result.CommandID, result.Kind, renderStatus(result.Status), result.Target)
		if result.Snippet != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", result.Snippet)
		}
	}
	return nil
}
