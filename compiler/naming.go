package compiler

import (
	"path"

	"github.com/erraggy/refc/refcerrors"
	"golang.org/x/text/unicode/norm"
)

// fragmentExtensions are stripped by DeriveName, first match wins.
var fragmentExtensions = []string{".yaml", ".json"}

// DeriveName returns the reference name for a fragment file: the file name
// with its .yaml or .json extension removed.
//
// The name is NFC-normalized so that a fragment listed with a decomposed
// name (as some filesystems return them) gets the same key everywhere.
func DeriveName(fileName string) (string, error) {
	for _, ext := range fragmentExtensions {
		if hasExtFold(fileName, ext) {
			return norm.NFC.String(fileName[:len(fileName)-len(ext)]), nil
		}
	}
	return "", &refcerrors.FragmentNameError{FileName: fileName}
}

// DerivePath joins a slash-separated directory and a file name into a
// reference path. No escaping is applied.
func DerivePath(relDir, fileName string) string {
	return path.Join(relDir, fileName)
}
