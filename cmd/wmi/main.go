package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/config"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:          "wmi",
		Short:        "Install Wargame mods from an install document",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "wmi.yaml", "Settings file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides settings")

	root.AddCommand(planCmd())
	root.AddCommand(installCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadSettings() (*config.Settings, *log.Logger, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := settings.Level()
	if logLevel != "" {
		parsed, err := log.ParseLevel(logLevel)
		if err != nil {
			return nil, nil, err
		}
		level = parsed
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "wmi",
		Level:  level,
	})
	return settings, logger, nil
}
