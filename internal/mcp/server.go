// Package mcp exposes the API search index to MCP clients over stdio.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

// Searcher is satisfied by *executor.Executor.
type Searcher interface {
	Execute(ctx context.Context, raw string, limit int) (*executor.SearchResult, error)
}

// StatusSource is satisfied by *indexer.Engine.
type StatusSource interface {
	Status() indexer.Status
}

type Server struct {
	mcp      *server.MCPServer
	searcher Searcher
	status   StatusSource
	logger   *slog.Logger
}

func NewServer(cfg config.MCPConfig, searcher Searcher, status StatusSource) *Server {
	name, version := cfg.Name, cfg.Version
	if name == "" {
		name = "docsearch"
	}
	if version == "" {
		version = "1.0.0"
	}
	s := &Server{
		mcp:      server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		searcher: searcher,
		status:   status,
		logger:   slog.Default().With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Serve speaks MCP on stdin/stdout until the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchAPITool(), s.handleSearchAPI)
	s.mcp.AddTool(indexStatusTool(), s.handleIndexStatus)
}
