package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/config"
	"github.com/dmc31a42/WargameModInstaller/internal/ingest"
)

const defaultDocument = "WargameModInstallerConfig.xml"

// selection is the set of flags shared by commands that read an install
// document.
type selection struct {
	profile    string
	components []string
}

func (s *selection) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.profile, "profile", "", "Component profile from the settings file")
	cmd.Flags().StringSliceVar(&s.components, "component", nil, "Component to install (repeatable)")
}

func documentArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultDocument
}

func readDocument(settings *config.Settings, logger *log.Logger, document string, sel selection) ([]command.Command, []string, error) {
	components, err := settings.Components(sel.profile, sel.components)
	if err != nil {
		return nil, nil, err
	}
	reader := ingest.NewReader(ingest.Options{
		DefaultCritical: settings.CriticalCommands,
		Components:      components,
		Logger:          logger,
	})
	cmds, err := reader.ReadFile(document)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("install document read", "document", document, "commands", len(cmds), "components", components)
	return cmds, components, nil
}
