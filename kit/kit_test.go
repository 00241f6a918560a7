package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+">")
				resp, err := next(ctx, req)
				order = append(order, "<"+name)
				return resp, err
			}
		}
	}
	base := func(context.Context, any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	resp, err := Chain(mw("a"), mw("b"))(base)(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, []string{"a>", "b>", "endpoint", "<b", "<a"}, order)
}

func TestWithRequestIDs(t *testing.T) {
	var seen string
	ep := WithRequestIDs(func() string { return "req-1" })(func(ctx context.Context, _ any) (any, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	})

	_, _ = ep(context.Background(), nil)
	assert.Equal(t, "req-1", seen)

	_, _ = ep(WithRequestID(context.Background(), "given"), nil)
	assert.Equal(t, "given", seen)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fail := errors.New("nope")

	ep := Logging(logger, "analyze")(func(context.Context, any) (any, error) { return nil, fail })
	_, err := ep(WithTransport(context.Background(), "mcp"), nil)
	assert.ErrorIs(t, err, fail)
	assert.Contains(t, buf.String(), "kit: endpoint failed")
	assert.Contains(t, buf.String(), "transport=mcp")
	assert.Contains(t, buf.String(), "endpoint=analyze")
}

func TestContext_Defaults(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "http", GetTransport(ctx))
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetRemoteAddr(ctx))
	assert.Equal(t, "10.0.0.1", GetRemoteAddr(WithRemoteAddr(ctx, "10.0.0.1")))
}

type echoReq struct {
	Word string `json:"word"`
}

func TestRegisterMCPTool(t *testing.T) {
	impl := &mcp.Implementation{Name: "kit-test", Version: "0.1.0"}
	srv := mcp.NewServer(impl, nil)
	tool := &mcp.Tool{
		Name: "echo",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"word": map[string]any{"type": "string"}},
		},
	}
	RegisterMCPTool(srv, tool, func(ctx context.Context, req any) (any, error) {
		r := req.(echoReq)
		if r.Word == "" {
			return nil, errors.New("empty word")
		}
		return map[string]string{"word": r.Word, "transport": GetTransport(ctx)}, nil
	}, DecodeJSON[echoReq]())

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()
	session, err := mcp.NewClient(impl, nil).Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"word": "hi"}})
	require.NoError(t, err)
	require.NoError(t, res.GetError())
	assert.JSONEq(t, `{"word":"hi","transport":"mcp"}`, res.Content[0].(*mcp.TextContent).Text)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
