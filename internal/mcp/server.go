// Package mcp exposes planning, inspection and install history as MCP tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dmc31a42/WargameModInstaller/internal/config"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

// History is the read side of the install journal.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	GetRun(ctx context.Context, runID int64) (*store.Run, error)
	GetOutcomes(ctx context.Context, runID int64) ([]store.Outcome, error)
	SearchOutcomes(ctx context.Context, query string, limit int) ([]store.SearchResult, error)
}

type Server struct {
	settings *config.Settings
	history  History
	mcp      *sdk.Server
}

// NewServer registers every tool. history may be nil, in which case the
// journal tools report that no journal is configured.
func NewServer(settings *config.Settings, history History, version string) *Server {
	if settings == nil {
		settings = config.Default()
	}
	s := &Server{
		settings: settings,
		history:  history,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "wmi",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
