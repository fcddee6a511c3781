package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/validate"
)

func validateCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "validate [document]",
		Short: "Check an install document's commands against the mod and game directories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(documentArg(args), sel)
		},
	}
	sel.register(cmd)
	return cmd
}

func runValidate(document string, sel selection) error {
	settings, logger, err := loadSettings()
	if err != nil {
		return err
	}

	cmds, _, err := readDocument(settings, logger, document, sel)
	if err != nil {
		return err
	}

	report := validate.Run(cmds, validate.Options{ModDir: settings.ModDir, GameDir: settings.GameDir})

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := fmt.Sprintf("#%d %s", issue.CommandID, issue.Kind)
		if issue.Path != "" {
			location = fmt.Sprintf("%s (%s)", location, issue.Path)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
