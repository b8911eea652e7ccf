// Package refc compiles a base OpenAPI (Swagger 2.0) document and a set of
// fragment directories into a single self-contained document.
//
// A project keeps its reusable definitions, responses, and parameters as one
// file per fragment:
//
//	api/
//	  api.yaml
//	  definitions/Widget.yaml
//	  responses/NotFound.yaml
//	shared/
//	  parameters/PageSize.yaml
//
// The compiler discovers every fragment under the base directory and the
// configured reference directories, writes a "$ref" entry for each one into a
// merged copy of the base document, and hands that copy to the bundler, which
// inlines every external reference into the final JSON output.
//
// # Packages
//
//   - compiler: fragment discovery, naming, the YAML and JSON mergers, and the
//     end-to-end run
//   - bundler: external "$ref" inlining with cycle and path traversal checks
//   - refcerrors: typed errors for errors.Is / errors.As handling
//
// # Quick Start
//
//	cfg, err := compiler.NewConfig("api/api.yaml", "dist/api.json", []string{"shared"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	b, err := bundler.New(bundler.WithAllowedRoots(cfg.Roots()...))
//	if err != nil {
//		log.Fatal(err)
//	}
//	c, err := compiler.New(cfg, compiler.WithBundler(b))
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := c.Run(context.Background())
//
// # YAML base documents
//
// YAML base documents are merged as text. Everything before the marker line
//
//	### ref-compiler: BEGIN
//
// is kept verbatim; everything after it is regenerated on every run.
//
// # JSON base documents
//
// JSON base documents are parsed, and each category object receives one
// {"$ref": "<path>"} entry per fragment. Key order of the base document is
// preserved.
package refc
