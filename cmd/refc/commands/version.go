package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/erraggy/refc"
	"github.com/erraggy/refc/internal/cliutil"
)

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the refc version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			cliutil.Writef(stdout, "refc %s\n", refc.Version())
		},
	}
}
