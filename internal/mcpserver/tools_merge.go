package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/refc/compiler"
	"github.com/erraggy/refc/internal/pathutil"
)

type mergeInput struct {
	InputFile string   `json:"input_file"         jsonschema:"Path to the base .yaml or .json document"`
	RefDirs   []string `json:"ref_dirs,omitempty" jsonschema:"Additional reference directories, each optionally holding definitions/ responses/ and parameters/"`
	Output    string   `json:"output,omitempty"   jsonschema:"File path to write the merged document. Its $ref paths are relative to the base document directory. If omitted the result is returned inline."`
}

type mergeOutput struct {
	Format         string         `json:"format"`
	FragmentCount  int            `json:"fragment_count"`
	DuplicateCount int            `json:"duplicate_count"`
	Fragments      []fragmentInfo `json:"fragments,omitempty"`
	Duplicates     []fragmentInfo `json:"duplicates,omitempty"`
	WrittenTo      string         `json:"written_to,omitempty"`
	Document       string         `json:"document,omitempty"`
	Summary        string         `json:"summary"`
}

func handleMerge(_ context.Context, _ *mcp.CallToolRequest, input mergeInput) (*mcp.CallToolResult, mergeOutput, error) {
	c, err := newCompiler(input.InputFile, input.RefDirs, "")
	if err != nil {
		return errResult(err), mergeOutput{}, nil
	}

	merged, err := c.MergeBytes()
	if err != nil {
		return errResult(err), mergeOutput{}, nil
	}

	output := mergeOutput{
		Format:         c.Format().String(),
		FragmentCount:  len(merged.Fragments),
		DuplicateCount: len(merged.Duplicates),
		Fragments:      toFragmentInfos(merged.Fragments),
		Duplicates:     toFragmentInfos(merged.Duplicates),
	}
	output.Summary = buildMergeSummary(output)

	if input.Output != "" {
		cleanPath, pathErr := pathutil.SanitizeOutputPath(input.Output)
		if pathErr != nil {
			return errResult(fmt.Errorf("invalid output path: %w", pathErr)), mergeOutput{}, nil
		}
		if err := compiler.WriteFile(cleanPath, merged.Content); err != nil {
			return errResult(err), mergeOutput{}, nil
		}
		output.WrittenTo = cleanPath
	} else {
		output.Document = string(merged.Content)
	}

	return nil, output, nil
}

func buildMergeSummary(output mergeOutput) string {
	summary := "Merged " + formatCount(output.FragmentCount, "fragment") + " into " + output.Format + " document."
	if output.DuplicateCount > 0 {
		summary += " " + formatCount(output.DuplicateCount, "duplicate name") + " found."
	}
	return summary
}
