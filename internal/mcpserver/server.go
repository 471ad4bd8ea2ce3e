// Package mcpserver exposes the registered file formats as MCP tools so an
// agent can inspect formats, derive arguments and materialize layers.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/proctest/api"
	"github.com/agentic-research/proctest/internal/compose"
	"github.com/agentic-research/proctest/internal/fileformat"
	"github.com/agentic-research/proctest/internal/layercache"
	"github.com/agentic-research/proctest/internal/manifest"
	"github.com/agentic-research/proctest/internal/sdf"
)

const (
	serverName    = "proctest"
	serverVersion = "0.1.0"
)

// Server hosts the MCP server.
type Server struct {
	mcpServer *server.MCPServer
	cache     *layercache.Cache
}

// DeriveResult is the output of the derive_arguments tool.
type DeriveResult struct {
	Identifier string            `json:"identifier"`
	Format     string            `json:"format"`
	Arguments  map[string]string `json:"arguments"`
}

// New creates a configured MCP server backed by cache.
func New(cache *layercache.Cache) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			serverName,
			serverVersion,
			server.WithToolCapabilities(false),
		),
		cache: cache,
	}
	s.mcpServer.AddTool(listFormatsTool(), s.handleListFormats)
	s.mcpServer.AddTool(deriveArgumentsTool(), s.handleDeriveArguments)
	s.mcpServer.AddTool(materializeTool(), s.handleMaterialize)
	return s
}

// Serve runs the MCP server on stdio.
func (s *Server) Serve() error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

func listFormatsTool() mcp.Tool {
	return mcp.NewTool("list_formats",
		mcp.WithDescription("Lists the registered file formats and the extensions they handle"),
	)
}

func deriveArgumentsTool() mcp.Tool {
	return mcp.NewTool("derive_arguments",
		mcp.WithDescription("Derives the file format arguments for an asset path from composition context, without materializing it"),
		mcp.WithString("asset_path",
			mcp.Required(),
			mcp.Description("Asset path; its extension selects the file format"),
		),
		mcp.WithObject("context",
			mcp.Description("Composition opinions in effect at the reference, e.g. {\"Usd_Proctest_SideLength\": 2}"),
		),
	)
}

func materializeTool() mcp.Tool {
	return mcp.NewTool("materialize",
		mcp.WithDescription("Materializes an asset and returns the layer as usda text"),
		mcp.WithString("asset_path",
			mcp.Required(),
			mcp.Description("Asset path; its extension selects the file format"),
		),
		mcp.WithObject("context",
			mcp.Description("Composition opinions in effect at the reference"),
		),
		mcp.WithObject("arguments",
			mcp.Description("Explicit file format arguments; when set, context is ignored"),
		),
	)
}

func (s *Server) handleListFormats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(fileformat.Identities())
}

func (s *Server) handleDeriveArguments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assetPath, err := request.RequireString("asset_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opinions, err := objectArg(request, "context")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	identifier, f, err := s.cache.Resolve(assetPath, compose.NewStackContext(compose.OpinionsFrom(opinions)))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("derive arguments failed", err), nil
	}
	_, args := sdf.SplitIdentifier(identifier)
	return jsonResult(DeriveResult{
		Identifier: identifier,
		Format:     f.Identity().ID,
		Arguments:  args,
	})
}

func (s *Server) handleMaterialize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assetPath, err := request.RequireString("asset_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opinions, err := objectArg(request, "context")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawArgs, err := objectArg(request, "arguments")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	a := api.Asset{Name: assetPath, Path: assetPath}
	if opinions != nil {
		a.Context = []map[string]any{opinions}
	}
	if len(rawArgs) > 0 {
		a.Arguments = make(map[string]string, len(rawArgs))
		for k, v := range rawArgs {
			a.Arguments[k] = fmt.Sprint(v)
		}
	}

	text, err := manifest.Render(s.cache, a)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("materialize failed", err), nil
	}
	return mcp.NewToolResultText(text), nil
}

// objectArg returns an optional object argument. JSON numbers arrive as
// float64 and are coerced later against declared field types.
func objectArg(request mcp.CallToolRequest, name string) (map[string]any, error) {
	raw, ok := request.GetArguments()[name]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", name)
	}
	return obj, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
