package compiler

import (
	"os"
	"path/filepath"

	"github.com/erraggy/refc/internal/fileutil"
	"github.com/erraggy/refc/refcerrors"
)

// WriteFile writes data to path, creating or truncating it. The write is not
// atomic: a failure part way leaves a partial file behind.
func WriteFile(path string, data []byte) error {
	return writeFile(path, data, fileutil.OwnerReadWrite)
}

// WriteOutput writes the final document, creating missing parent
// directories first.
func WriteOutput(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, fileutil.DirReadableByAll); err != nil {
		return &refcerrors.FilesystemError{Op: "create directory", Path: dir, Cause: err}
	}
	return writeFile(path, data, fileutil.ReadableByAll)
}

func writeFile(path string, data []byte, perm os.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return &refcerrors.FilesystemError{Op: "open", Path: path, Cause: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &refcerrors.FilesystemError{Op: "close", Path: path, Cause: cerr}
		}
	}()

	if _, err := f.Write(data); err != nil {
		return &refcerrors.FilesystemError{Op: "write", Path: path, Cause: err}
	}
	return nil
}
