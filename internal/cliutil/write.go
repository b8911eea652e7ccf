// Package cliutil provides utilities for CLI operations.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Writef writes formatted output to the writer.
// If the write fails, it logs to stderr (useful for debugging).
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}

// WriteLabeledJSON writes label, a space, and v as two-space indented JSON
// followed by a newline.
func WriteLabeledJSON(w io.Writer, label string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cliutil: encoding %s: %w", label, err)
	}
	Writef(w, "%s %s\n", label, data)
	return nil
}
