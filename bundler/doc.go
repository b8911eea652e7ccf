// Package bundler inlines external "$ref" pointers so that a document and all
// the files it references become one self-contained tree.
//
// Bundle loads a root document (YAML or JSON), then replaces every mapping of
// the form {"$ref": "relative/file.yaml#/optional/pointer"} with a copy of
// the referenced content, recursively. References are resolved relative to
// the file they appear in.
//
// Local pointers ("#/definitions/Widget") are handled in two ways:
//
//   - in the root document they are kept as they are, since the target is
//     part of the bundled output
//   - in a referenced file they are resolved against that file when it
//     holds the target, and kept otherwise so that they point into the root
//     document once bundled
//
// The key order of every mapping is preserved.
//
// # Safety
//
// Only files under the allowed roots (WithAllowedRoots, by default the
// directory of the root document) may be referenced. Remote references
// (http, https) are rejected. Cycles between files are reported as a
// [refcerrors.ReferenceError] with IsCircular set. Nesting depth, file size,
// and the number of loaded files are bounded; see [MaxRefDepth],
// [MaxFileSize], and [MaxCachedDocuments].
package bundler
