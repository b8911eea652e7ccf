// Command refc merges OpenAPI fragment directories into a base document and
// bundles the result into a single JSON file.
package main

import (
	"context"
	"os"

	"github.com/erraggy/refc/cmd/refc/commands"
)

func main() {
	os.Exit(commands.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
