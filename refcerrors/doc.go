// Package refcerrors provides structured error types for refc.
//
// Import path: github.com/erraggy/refc/refcerrors
//
// Every error type matches a sentinel through errors.Is, so callers can
// branch on the category without type assertions:
//
//	result, err := c.Run(ctx)
//	switch {
//	case errors.Is(err, refcerrors.ErrConfig):
//	    // bad flags or missing reference directory
//	case errors.Is(err, refcerrors.ErrMalformedDocument):
//	    // base JSON document failed to parse
//	case errors.Is(err, refcerrors.ErrCircularReference):
//	    // fragments reference each other in a loop
//	}
//
// # Error Types
//
//   - [ConfigError]: missing or invalid inputs, detected before any file is read
//   - [UnsupportedFormatError]: base file is neither .yaml nor .json
//   - [FilesystemError]: any I/O failure other than an absent category directory
//   - [ParseError]: a structured document failed to parse
//   - [FragmentNameError]: a fragment file name has no recognised extension
//   - [BundleError]: the bundler failed to produce the resolved document
//   - [ReferenceError]: a single $ref could not be resolved
//   - [ResourceLimitError]: bundling exceeded a depth, size, or count limit
//
// All error types support chaining via the Cause field and Unwrap().
package refcerrors
