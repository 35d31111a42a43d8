package session

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/axwatch/kit"
)

// RegisterMCP registers the snapshot tools on an MCP server.
func (s *Session) RegisterMCP(srv *mcp.Server) {
	s.registerChangeSnapshotTool(srv)
	s.registerBaselinesTool(srv)
	s.registerResetBaselineTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s *Session) registerChangeSnapshotTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "axwatch_change_snapshot",
		Description: "Capture the page's accessibility tree and report what changed " +
			"since the stored baseline. Creates the baseline on first call.",
		InputSchema: inputSchema(map[string]any{
			"baseline_key": map[string]any{"type": "string", "description": "Baseline to create/update (default: \"default\")"},
			"compare_to":   map[string]any{"type": "string", "description": "Stored baseline to diff against (default: baseline_key)"},
			"no_save":      map[string]any{"type": "boolean", "description": "Do not overwrite the stored baseline after diffing"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*SnapshotRequest)
		res, err := s.ChangeSnapshot(ctx, *r)
		if err != nil {
			return nil, err
		}
		return res.Report, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r SnapshotRequest
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{
			Request:   &r,
			EnrichCtx: func(ctx context.Context) context.Context { return kit.WithSessionID(ctx, s.id) },
		}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Session) registerBaselinesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "axwatch_baselines",
		Description: "List the named baselines stored in this session.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return s.Baselines(), nil
	}

	decode := func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

type resetReq struct {
	Key string `json:"key"`
}

func (s *Session) registerResetBaselineTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "axwatch_reset_baseline",
		Description: "Delete a stored baseline so the next comparison starts fresh.",
		InputSchema: inputSchema(map[string]any{
			"key": map[string]any{"type": "string", "description": "Baseline key (default: \"default\")"},
		}, nil),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*resetReq)
		s.ResetBaseline(r.Key)
		return map[string]string{"status": "reset", "key": r.Key}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r resetReq
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
