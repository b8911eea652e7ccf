// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes the reference compiler as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/refc"
)

const serverInstructions = `refc MCP server - merges definitions/, responses/ and parameters/ fragment files into a base OpenAPI (Swagger 2.0) document and bundles the result into one JSON document.

Use merge to preview the merged base document (the $ref entries that would be injected) without bundling. Use compile to run the whole pipeline; pass output to write the bundled JSON to a file instead of returning it inline.

Configuration via environment variables set in your MCP client config:
- REFC_MCP_INDENT (default: 4) - indent of compiled documents
- REFC_MCP_MAX_REF_DEPTH (default: 100) - maximum reference nesting
- REFC_MCP_MAX_REF_DIRS (default: 32) - maximum reference directories per call`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	return newServer().Run(ctx, &mcp.StdioTransport{})
}

func newServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "refc", Version: refc.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge",
		Description: "Inject $ref entries for every fragment file found under definitions/, responses/ and parameters/ of the base document's directory and the given reference directories. Returns the merged base document and the list of fragments, including duplicate names. YAML base documents keep everything above the '### ref-compiler: BEGIN' marker. Use output to write the merged document to a file. Its $ref paths stay relative to the base document's directory, so write it into that directory, or use it only for inspection.",
	}, handleMerge)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compile",
		Description: "Merge fragment references into the base document and bundle every external $ref into a single JSON document. Returns the bundled document inline, or writes it to output when given. Fails on circular references, references outside the base and reference directories, and duplicate fragment names in YAML documents.",
	}, handleCompile)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
