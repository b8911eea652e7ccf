// Package commands implements the refc command tree.
package commands

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/erraggy/refc"
	"github.com/erraggy/refc/internal/cliutil"
)

const rootLong = `Merge OpenAPI definitions into a single file resolving references.

Every file under definitions/, responses/ and parameters/ of the base
document's directory and of each reference directory is injected into the
base document as a $ref entry. The merged document is then bundled, with
every external reference inlined, and written as JSON.

YAML base documents keep everything above the line
  ### ref-compiler: BEGIN
and regenerate everything below it. JSON base documents receive one entry
per fragment in their definitions, responses and parameters objects.

Settings are read from .refc.toml in the working directory or
$XDG_CONFIG_HOME/refc/, then from REFC_* environment variables. Flags win.`

const rootExample = `  refc -i api/api.yaml -o dist/api.json
  refc -i api/api.yaml -o dist/api.json -r shared:vendor/common
  refc -i api/api.json -o dist/api.json --indent 2
  refc -i api/api.yaml -o dist/api.json --watch
  refc -i api/api.yaml -o dist/api.json -t`

// RootFlags contains the flags of the root compile command.
type RootFlags struct {
	InputFile   string
	OutputFile  string
	RefDirs     string
	Verbose     bool
	Test        bool
	Watch       bool
	KeepMerged  bool
	LogFormat   string
	ConfigFile  string
	Indent      int
	MaxRefDepth int
}

// SetupRootFlags binds the compile flags to fs and returns the bound values.
func SetupRootFlags(fs *pflag.FlagSet) *RootFlags {
	flags := &RootFlags{}

	fs.StringVarP(&flags.InputFile, "input-file", "i", "", "main OpenAPI file (.yaml or .json)")
	fs.StringVarP(&flags.OutputFile, "output-file", "o", "", "where the bundled JSON should be written")
	fs.StringVarP(&flags.RefDirs, "ref-dirs", "r", "", "list of reference directories separated by ':'")
	fs.BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output")
	fs.BoolVarP(&flags.Test, "test", "t", false, "print the resolved configuration and output directory, then exit")
	fs.BoolVar(&flags.Watch, "watch", false, "recompile whenever a document under the base or reference directories changes")
	fs.BoolVar(&flags.KeepMerged, "keep-merged", false, "keep the intermediate merged document and print its path")
	fs.StringVar(&flags.LogFormat, "log-format", "", "log format: text or json (default text)")
	fs.StringVar(&flags.ConfigFile, "config", "", "config file (default ./.refc.toml or $XDG_CONFIG_HOME/refc/.refc.toml)")
	fs.IntVar(&flags.Indent, "indent", 0, "spaces of indentation in the bundled JSON, 1-8 (default 4)")
	fs.IntVar(&flags.MaxRefDepth, "max-ref-depth", 0, "maximum reference nesting while bundling (default 100)")

	return flags
}

// splitRefDirs splits a colon separated directory list, dropping empty
// entries.
func splitRefDirs(s string) []string {
	var dirs []string
	for _, d := range strings.Split(s, ":") {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// NewRootCommand builds a fresh command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var flags *RootFlags

	root := &cobra.Command{
		Use:           "refc",
		Short:         "Merge OpenAPI definitions into a single file resolving references",
		Long:          rootLong,
		Example:       rootExample,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := resolveOptions(cmd.Flags(), flags)
			if err != nil {
				return err
			}
			return runCompile(cmd.Context(), opts, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	flags = SetupRootFlags(root.Flags())

	root.AddCommand(newVersionCommand(stdout), newMCPCommand())
	return root
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)

	err := fang.Execute(ctx, root,
		fang.WithVersion(refc.Version()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			cliutil.Writef(w, "Error: %v\n", err)
		}),
	)
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}
