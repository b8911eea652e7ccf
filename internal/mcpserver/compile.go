package mcpserver

import (
	"fmt"
	"path/filepath"

	"github.com/erraggy/refc/bundler"
	"github.com/erraggy/refc/compiler"
)

// fragmentInfo describes one injected fragment.
type fragmentInfo struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

func toFragmentInfos(refs []compiler.FragmentRef) []fragmentInfo {
	if len(refs) == 0 {
		return nil
	}
	out := make([]fragmentInfo, 0, len(refs))
	for _, r := range refs {
		out = append(out, fragmentInfo{Category: string(r.Category), Name: r.Name, Path: r.Path})
	}
	return out
}

// newCompiler validates the source and builds a Compiler whose final output
// goes to outputFile. An empty outputFile is allowed for inline results.
func newCompiler(inputFile string, refDirs []string, outputFile string, opts ...compiler.Option) (*compiler.Compiler, error) {
	if inputFile == "" {
		return nil, fmt.Errorf("input_file is required")
	}
	if len(refDirs) > cfg.MaxRefDirs {
		return nil, fmt.Errorf("too many ref_dirs: got %d, maximum is %d; set REFC_MCP_MAX_REF_DIRS to increase",
			len(refDirs), cfg.MaxRefDirs)
	}
	if outputFile == "" {
		// Never written; Compile returns the document instead.
		outputFile = filepath.Join(filepath.Dir(inputFile), "refc-inline.json")
	}

	c, err := compiler.NewConfig(inputFile, outputFile, refDirs)
	if err != nil {
		return nil, err
	}

	b, err := bundler.New(
		bundler.WithAllowedRoots(c.Roots()...),
		bundler.WithMaxRefDepth(cfg.MaxRefDepth),
	)
	if err != nil {
		return nil, err
	}
	return compiler.New(c, append([]compiler.Option{compiler.WithBundler(b)}, opts...)...)
}
