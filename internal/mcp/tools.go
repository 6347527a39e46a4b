package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

func (s *Server) handleSearchAPI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query parameter is required and cannot be empty"), nil
	}
	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > maxToolLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d", maxToolLimit)), nil
	}
	if kind, _ := args["kind"].(string); kind != "" {
		if _, ok := descriptor.ParseKindFilter(kind); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q", kind)), nil
		}
		query = kind + ":" + query
	}

	res, err := s.searcher.Execute(ctx, query, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrIndexNotLoaded) {
			return mcp.NewToolResultError("no index is loaded"), nil
		}
		s.logger.Error("search tool failed", "query", query, "error", err)
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	s.logger.Debug("search tool served", "query", query, "total", res.Total)
	return mcp.NewToolResultText(formatJSON(res)), nil
}

func (s *Server) handleIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatJSON(s.status.Status())), nil
}

func formatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// getIntDefault accepts JSON numbers, which decode as float64.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return defaultValue
}
