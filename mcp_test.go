package domcore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMCPImpl = &mcp.Implementation{Name: "domcore-test", Version: "0.1.0"}

func mcpSession(t *testing.T, a *Analyzer) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	a.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	session, err := mcp.NewClient(testMCPImpl, nil).Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, s *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	res, err := s.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text, res.IsError
}

func TestMCP_Tools(t *testing.T) {
	s := mcpSession(t, testAnalyzer(t, nil))

	tools, err := s.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"domcore_analyze_html", "domcore_analyze_url", "domcore_list_runs", "domcore_get_run",
	}, names)
}

func TestMCP_AnalyzeAndGetRun(t *testing.T) {
	s := mcpSession(t, testAnalyzer(t, nil))

	text, isErr := mcpCall(t, s, "domcore_analyze_html", map[string]any{"html": forum(), "dot": true})
	require.False(t, isErr, text)
	var res struct {
		RunID  string `json:"run_id"`
		Report struct {
			Flagged int `json:"flagged"`
		} `json:"report"`
		DOT string `json:"dot"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, 35, res.Report.Flagged)
	assert.Contains(t, res.DOT, "digraph DOMPaintedCores")

	text, isErr = mcpCall(t, s, "domcore_get_run", map[string]any{"id": res.RunID})
	require.False(t, isErr, text)
	assert.Contains(t, text, signature)

	text, isErr = mcpCall(t, s, "domcore_list_runs", map[string]any{"limit": 1})
	require.False(t, isErr, text)
	var list RunList
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, res.RunID, list.Runs[0].ID)
}

func TestMCP_Errors(t *testing.T) {
	s := mcpSession(t, testAnalyzer(t, nil))

	text, isErr := mcpCall(t, s, "domcore_get_run", map[string]any{"id": "run_unknown"})
	assert.True(t, isErr)
	assert.Contains(t, text, "not found")

	_, isErr = mcpCall(t, s, "domcore_analyze_url", map[string]any{"url": "not a url"})
	assert.True(t, isErr)
}
