package main

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/dmc31a42/WargameModInstaller/internal/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	settings, logger, err := loadSettings()
	if err != nil {
		return err
	}

	db, err := openStore(ctx, settings)
	if err != nil {
		return err
	}

	var history mcp.History
	if db != nil {
		defer db.Close(ctx)
		history = db
	} else {
		logger.Info("no install journal configured, history tools disabled")
	}

	server := mcp.NewServer(settings, history, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
