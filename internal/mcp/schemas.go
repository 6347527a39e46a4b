package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const maxToolLimit = 200

func searchAPITool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_api",
		Description: "Search the loaded crate documentation by item name, path or type signature such as \"fn(&str) -> usize\"",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Name, path (a::b::name) or signature query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     20,
					"minimum":     1,
					"maximum":     maxToolLimit,
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one item kind (fn, struct, trait, macro, const, ...)",
				},
			},
			Required: []string{"query"},
		},
	}
}

func indexStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_status",
		Description: "Report whether an index is loaded, its version and item counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
