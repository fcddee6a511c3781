package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/config"
)

func initCmd() *cobra.Command {
	var gameDir string
	var modDir string
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file for a game installation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(gameDir) == "" {
				return fmt.Errorf("--game-dir is required")
			}
			return runInit(gameDir, modDir, dsn)
		},
	}
	cmd.Flags().StringVar(&gameDir, "game-dir", "", "Game installation directory")
	cmd.Flags().StringVar(&modDir, "mod-dir", ".", "Directory holding the mod's files")
	cmd.Flags().StringVar(&dsn, "database", "sqlite://wmi.db", "Install journal DSN; empty disables the journal")
	return cmd
}

func runInit(gameDir, modDir, dsn string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if dsn != "" {
		if _, err := config.DatabaseScheme(dsn); err != nil {
			return err
		}
	}

	settings := config.Default()
	settings.GameDir = gameDir
	settings.ModDir = modDir
	settings.Database.DSN = dsn
	if err := config.Save(configPath, settings); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Wrote %s.\n", configPath)
	return nil
}
