package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/axwatch/kit"
)

// RegisterMCP registers the navigation and extraction tools on an MCP server.
func (d *Driver) RegisterMCP(srv *mcp.Server) {
	d.registerNavigateTool(srv)
	d.registerExtractTool(srv)
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

type navigateReq struct {
	URL string `json:"url"`
}

func (d *Driver) registerNavigateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "axwatch_navigate",
		Description: "Navigate the working tab to a URL and wait for the page to load.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Absolute URL to load"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*navigateReq)
		if r.URL == "" {
			return nil, fmt.Errorf("browser: url is required")
		}
		if err := d.Navigate(ctx, r.URL); err != nil {
			return nil, err
		}
		return fmt.Sprintf("Loaded %s", r.URL), nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r navigateReq
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (d *Driver) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "axwatch_extract",
		Description: "Extract the current page as markdown.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		res, err := d.ExtractPage(ctx)
		if err != nil {
			return nil, err
		}
		return res.Markdown, nil
	}

	decode := func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
