// Package mcpserver assembles the MCP server from the tool registry and runs
// it over one of the supported transports.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/weather-mcp-service/internal/config"
	"github.com/couchcryptid/weather-mcp-service/internal/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name is the implementation name reported during initialization.
const Name = "weather"

// Version is overridden at build time with -ldflags "-X ...mcpserver.Version=...".
var Version = "dev"

// New creates an MCP server with every registered tool installed.
func New(reg *tools.Registry) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil)
	reg.Install(server)
	return server
}

// SSEHandler serves every SSE session from the same server.
func SSEHandler(server *mcp.Server) http.Handler {
	return mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

// RunStdio serves a single session over stdin/stdout until the client
// disconnects or ctx is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server, logger *slog.Logger) error {
	logger.Info("mcp server running", "transport", config.TransportStdio)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio session: %w", err)
	}
	return nil
}
