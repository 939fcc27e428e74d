// Package mcp exposes the documentation service over the Model Context
// Protocol on stdio.
package mcp

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rsdoclab/rsdoc/internal/config"
	"github.com/rsdoclab/rsdoc/internal/docerr"
	"github.com/rsdoclab/rsdoc/internal/index"
	"github.com/rsdoclab/rsdoc/internal/render"
	"github.com/rsdoclab/rsdoc/internal/search"
	"github.com/rsdoclab/rsdoc/internal/service"
	"github.com/rsdoclab/rsdoc/internal/session"
	"github.com/rsdoclab/rsdoc/internal/workspace"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	svc       *service.Service
	// One stdio connection serves one caller, so the server owns a
	// single session for its lifetime.
	sess *session.Session

	defaultLimit int
}

func NewServer(cfg *config.Config) *Server {
	svc := service.New(cfg)
	s := &Server{svc: svc, sess: svc.Sessions.Create(), defaultLimit: cfg.Search.DefaultLimit}

	mcpServer := server.NewMCPServer(
		"rsdoc",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("set_working_directory",
			mcp.WithDescription("Set the working directory for this session. Resolves the enclosing cargo workspace; if the path is inside a member crate, queries default to that crate."),
			mcp.WithString("path",
				mcp.Description("Absolute path of the directory to work in"),
				mcp.Required(),
			),
		),
		s.handleSetWorkingDirectory,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_crates",
			mcp.WithDescription("List workspace member crates with their dependencies. Scope to a crate to see what it depends on (optionally transitively) and which members depend on it."),
			mcp.WithString("scope",
				mcp.Description("Crate to compute dependency markers for (defaults to the session scope)"),
			),
			mcp.WithBoolean("transitive",
				mcp.Description("Extend dependency markers past direct edges"),
			),
			mcp.WithBoolean("used_by",
				mcp.Description("Include which workspace members depend on each crate"),
			),
			mcp.WithString("kind",
				mcp.Description("Restrict to one crate kind: lib, bin or proc-macro"),
			),
		),
		s.handleListCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_item",
			mcp.WithDescription("Look up a documentation item by path (e.g. \"tokio::sync::Mutex\") or numeric id. Module paths return a listing of their children; leaf items return full detail. Builds the crate's docs on first access and after source changes."),
			mcp.WithString("path",
				mcp.Description("Item path or id; \"crate\" as the first segment means the scoped crate"),
				mcp.Required(),
			),
			mcp.WithString("crate",
				mcp.Description("Crate to look in (defaults to the session scope)"),
			),
			mcp.WithBoolean("include_impls",
				mcp.Description("Expand trait and inherent impl blocks"),
			),
		),
		s.handleGetItem,
	)

	mcpServer.AddTool(
		mcp.NewTool("search",
			mcp.WithDescription("Search indexed documentation by name, path or doc text. Only crates already built via get_item participate; search itself never triggers a build."),
			mcp.WithString("query",
				mcp.Description("Search text"),
				mcp.Required(),
			),
			mcp.WithString("crate",
				mcp.Description("Crate to search in (defaults to the session scope)"),
			),
			mcp.WithString("kind",
				mcp.Description("Restrict to one item kind, e.g. struct, trait, function"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results"),
			),
		),
		s.handleSearch,
	)
}

// toolError formats a service error for the caller, keeping the
// machine-readable kind and the remediation hint visible.
func toolError(err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("[%s] %s", docerr.Code(err), docerr.Message(err))
	if hint := docerr.Hint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return mcp.NewToolResultError(msg)
}

func (s *Server) handleSetWorkingDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, _ := req.GetArguments()["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	root, scope, err := s.svc.SetWorkingDirectory(ctx, s.sess, path)
	if err != nil {
		return toolError(err), nil
	}

	if scope != "" {
		return mcp.NewToolResultText(fmt.Sprintf("Workspace root: %s\nScoped to crate: %s", root, scope)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Workspace root: %s\nScope: whole workspace", root)), nil
}

func (s *Server) handleListCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	opts := workspace.ListOptions{}
	opts.Scope, _ = args["scope"].(string)
	opts.Transitive, _ = args["transitive"].(bool)
	opts.UsedBy, _ = args["used_by"].(bool)
	if kind, ok := args["kind"].(string); ok {
		opts.Kind = workspace.CrateKind(kind)
	}

	result, err := s.svc.ListCrates(ctx, s.sess, opts)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(render.CrateList(result, opts.Scope)), nil
}

func (s *Server) handleGetItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	crate, _ := args["crate"].(string)
	includeImpls, _ := args["include_impls"].(bool)

	result, err := s.svc.GetItem(ctx, s.sess, crate, path, index.DetailFlags{IncludeImpls: includeImpls})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(render.Lookup(crate, path, result)), nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	sq := service.SearchQuery{Query: search.Query{Text: query}}
	sq.Crate, _ = args["crate"].(string)
	kind, _ := args["kind"].(string)
	sq.Kind = search.NormalizeKind(kind)
	if limit, ok := args["limit"].(float64); ok {
		sq.Limit = int(limit)
	}
	if sq.Limit <= 0 {
		sq.Limit = s.defaultLimit
	}
	if sq.Limit <= 0 {
		sq.Limit = 20
	}
	if sq.Kind != "" && !search.Kinds[sq.Kind] {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q", sq.Kind)), nil
	}

	// Make sure the scoped crate participates before the read-only
	// query runs.
	if sq.Crate != "" {
		if err := s.svc.EnsureIndexed(ctx, s.sess, sq.Crate); err != nil {
			return toolError(err), nil
		}
	}

	results, err := s.svc.Search(ctx, s.sess, sq)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(render.SearchResults(query, results.Collect())), nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
