package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/refc/compiler"
	"github.com/erraggy/refc/internal/pathutil"
)

type compileInput struct {
	InputFile string   `json:"input_file"         jsonschema:"Path to the base .yaml or .json document"`
	RefDirs   []string `json:"ref_dirs,omitempty" jsonschema:"Additional reference directories, each optionally holding definitions/ responses/ and parameters/"`
	Output    string   `json:"output,omitempty"   jsonschema:"File path to write the bundled JSON document. Parent directories are created. If omitted the result is returned inline."`
	Indent    int      `json:"indent,omitempty"   jsonschema:"Spaces of indentation in the bundled JSON (1-8). Defaults to REFC_MCP_INDENT or 4."`
}

type compileOutput struct {
	FragmentCount  int            `json:"fragment_count"`
	DuplicateCount int            `json:"duplicate_count"`
	Duplicates     []fragmentInfo `json:"duplicates,omitempty"`
	WrittenTo      string         `json:"written_to,omitempty"`
	Document       string         `json:"document,omitempty"`
	Summary        string         `json:"summary"`
}

func handleCompile(ctx context.Context, _ *mcp.CallToolRequest, input compileInput) (*mcp.CallToolResult, compileOutput, error) {
	indent := input.Indent
	if indent == 0 {
		indent = cfg.Indent
	}

	var outPath string
	if input.Output != "" {
		cleanPath, pathErr := pathutil.SanitizeOutputPath(input.Output)
		if pathErr != nil {
			return errResult(fmt.Errorf("invalid output path: %w", pathErr)), compileOutput{}, nil
		}
		outPath = cleanPath
	}

	c, err := newCompiler(input.InputFile, input.RefDirs, outPath, compiler.WithIndent(indent))
	if err != nil {
		return errResult(err), compileOutput{}, nil
	}

	var result *compiler.Result
	if outPath != "" {
		result, err = c.Run(ctx)
	} else {
		result, err = c.Compile(ctx)
	}
	if err != nil {
		return errResult(err), compileOutput{}, nil
	}

	output := compileOutput{
		FragmentCount:  len(result.Fragments),
		DuplicateCount: len(result.Duplicates),
		Duplicates:     toFragmentInfos(result.Duplicates),
		WrittenTo:      result.OutputPath,
	}
	if outPath == "" {
		output.Document = string(result.Document)
	}
	output.Summary = buildCompileSummary(output)

	return nil, output, nil
}

func buildCompileSummary(output compileOutput) string {
	summary := "Compiled " + formatCount(output.FragmentCount, "fragment")
	if output.WrittenTo != "" {
		summary += " into " + output.WrittenTo
	}
	summary += "."
	if output.DuplicateCount > 0 {
		summary += " " + formatCount(output.DuplicateCount, "duplicate name") + " overridden."
	}
	return summary
}
