// Package compiler merges fragment files into a base OpenAPI document and
// drives the bundling of the result.
//
// A run has four steps:
//
//  1. Discover: for each category (definitions, responses, parameters) and
//     each reference root, list <root>/<category>/*.<ext>.
//  2. Merge: inject one "$ref" entry per fragment into a copy of the base
//     document. YAML documents are merged as text after the marker line
//     "### ref-compiler: BEGIN"; JSON documents are merged as a parsed tree.
//  3. Write the merged document to an intermediate file next to the base
//     document, so that the relative "$ref" paths stay valid.
//  4. Bundle the intermediate file and write the fully resolved document as
//     JSON to the output path.
//
// # Usage
//
//	cfg, err := compiler.NewConfig("api/api.yaml", "dist/api.json", []string{"shared"})
//	if err != nil {
//		return err
//	}
//	c, err := compiler.New(cfg, compiler.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	result, err := c.Run(ctx)
//
// # Fragment names
//
// A fragment's name is its file name without the extension. Names are not
// required to be unique across roots: in JSON documents the last root wins,
// and in YAML documents both entries are emitted, which the bundler then
// rejects as a duplicated key. Both cases are logged at warn level and
// reported in MergeResult.Duplicates.
package compiler
