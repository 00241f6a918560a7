package domcore

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domcore/kit"
)

// RegisterMCP registers the domcore tools on an MCP server.
func (a *Analyzer) RegisterMCP(srv *mcp.Server) {
	eps := a.endpoints()

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcore_analyze_html",
		Description: "Find repeating regions (comment lists, result rows, feed items) in an HTML document and return the core nodes they share.",
		InputSchema: inputSchema(map[string]any{
			"html": map[string]any{"type": "string", "description": "Complete HTML document or fragment"},
			"url":  map[string]any{"type": "string", "description": "Page URL, used as a label and to resolve links in previews"},
			"dot":  map[string]any{"type": "boolean", "description": "Include a Graphviz DOT export of the page"},
		}, []string{"html"}),
	}, eps.analyzeHTML, kit.DecodeJSON[AnalyzeHTMLRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcore_analyze_url",
		Description: "Fetch a page (rendering it in headless Chrome when needed) and find its repeating regions.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "http or https URL"},
			"dot": map[string]any{"type": "boolean", "description": "Include a Graphviz DOT export of the page"},
		}, []string{"url"}),
	}, eps.analyzeURL, kit.DecodeJSON[AnalyzeURLRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcore_list_runs",
		Description: "List recent analyses, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Maximum runs to return (default 50)"},
		}, nil),
	}, eps.listRuns, kit.DecodeJSON[ListRunsRequest]())

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "domcore_get_run",
		Description: "Get one stored analysis with its per-group diagnostics.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Run ID (run_...)"},
		}, []string{"id"}),
	}, eps.getRun, kit.DecodeJSON[RunRequest]())
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
