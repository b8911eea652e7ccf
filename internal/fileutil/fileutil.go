// Package fileutil holds the file modes used for everything refc writes.
package fileutil

import "os"

// OwnerReadWrite is the file permission mode for intermediate merged
// documents, which only the running process needs to read back.
const OwnerReadWrite os.FileMode = 0o600

// ReadableByAll is the file permission mode for bundled output documents
// intended to be read by build tools and other users.
const ReadableByAll os.FileMode = 0o644

// DirReadableByAll is the permission mode for output directories created
// on demand.
const DirReadableByAll os.FileMode = 0o755
