package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/plan"
)

func planCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "plan [document]",
		Short: "Show how an install document's commands will be grouped and ordered",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(documentArg(args), sel)
		},
	}
	sel.register(cmd)
	return cmd
}

func runPlan(document string, sel selection) error {
	settings, logger, err := loadSettings()
	if err != nil {
		return err
	}

	cmds, _, err := readDocument(settings, logger, document, sel)
	if err != nil {
		return err
	}
	groups := plan.Build(cmds)
	renderPlan(os.Stdout, groups)
	return nil
}
