package bundler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/refc"
	"github.com/erraggy/refc/internal/docnode"
	"github.com/erraggy/refc/internal/pathutil"
	"github.com/erraggy/refc/refcerrors"
)

const (
	// MaxRefDepth is the default maximum nesting of documents and references.
	// It prevents stack overflow from deeply nested (but non-circular) content.
	MaxRefDepth = 100

	// MaxCachedDocuments is the default maximum number of files loaded by one
	// Bundle call.
	MaxCachedDocuments = 1000

	// MaxFileSize is the default maximum size of a single loaded file.
	MaxFileSize = 10 * 1024 * 1024 // 10MB
)

// Bundler inlines external references. A Bundler holds configuration only
// and is safe for concurrent use; each Bundle call has its own state.
type Bundler struct {
	allowedRoots       []string
	logger             refc.Logger
	maxRefDepth        int
	maxFileSize        int64
	maxCachedDocuments int
}

// New returns a Bundler configured by opts.
func New(opts ...Option) (*Bundler, error) {
	b := &Bundler{
		logger:             refc.NopLogger{},
		maxRefDepth:        MaxRefDepth,
		maxFileSize:        MaxFileSize,
		maxCachedDocuments: MaxCachedDocuments,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Bundle loads the document at path and returns it with every external
// reference inlined. The cached source documents are never modified.
func (b *Bundler) Bundle(ctx context.Context, path string) (*yaml.Node, error) {
	rootPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("bundler: resolving %s: %w", path, err)
	}

	roots := b.allowedRoots
	if len(roots) == 0 {
		roots = []string{filepath.Dir(rootPath)}
	}

	s := &state{
		Bundler:   b,
		ctx:       ctx,
		roots:     roots,
		rootPath:  rootPath,
		documents: make(map[string]*yaml.Node),
		resolving: make(map[string]bool),
	}

	doc, err := s.load(rootPath)
	if err != nil {
		return nil, err
	}

	out := docnode.DeepCopy(doc)
	if err := s.walk(out, rootPath, 0); err != nil {
		return nil, err
	}
	b.logger.Debug("bundled document", "path", rootPath, "files", len(s.documents))
	return out, nil
}

// state is the per-call resolution state.
type state struct {
	*Bundler
	ctx      context.Context
	roots    []string
	rootPath string

	// documents caches parsed files by absolute path.
	documents map[string]*yaml.Node
	// resolving tracks "file#pointer" targets on the current expansion path.
	resolving map[string]bool
}

// walk replaces every reference under n in place. file is the document n
// was copied from.
func (s *state) walk(n *yaml.Node, file string, depth int) error {
	if depth > s.maxRefDepth {
		return &refcerrors.ResourceLimitError{
			ResourceType: "ref_depth",
			Limit:        int64(s.maxRefDepth),
			Actual:       int64(depth),
			Message:      "structure too deeply nested",
		}
	}

	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil
		}
		*n = *docnode.DeepCopy(n.Alias)
		return s.walk(n, file, depth+1)

	case yaml.MappingNode:
		if ref, ok := docnode.RefValue(n); ok {
			return s.inline(n, ref, file, depth)
		}
		for i := 1; i < len(n.Content); i += 2 {
			if err := s.walk(n.Content[i], file, depth+1); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		for _, item := range n.Content {
			if err := s.walk(item, file, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// inline replaces the reference mapping n with a resolved copy of its
// target. Sibling keys of "$ref" are dropped.
func (s *state) inline(n *yaml.Node, ref, file string, depth int) error {
	if isRemote(ref) {
		return &refcerrors.ReferenceError{Ref: ref, Source: file, Message: "remote references are not supported"}
	}

	filePart, pointer, _ := strings.Cut(ref, "#")

	var target string
	if filePart == "" {
		if file == s.rootPath {
			return nil
		}
		doc, err := s.load(file)
		if err != nil {
			return err
		}
		if _, err := docnode.Lookup(doc, pointer); err != nil {
			s.logger.Debug("keeping local reference", "ref", ref, "source", file)
			return nil
		}
		target = file
	} else {
		resolved, err := s.resolvePath(ref, filePart, file)
		if err != nil {
			return err
		}
		target = resolved
	}

	key := target + "#" + pointer
	if s.resolving[key] {
		return &refcerrors.ReferenceError{Ref: ref, Source: file, IsCircular: true}
	}

	if err := s.ctx.Err(); err != nil {
		return err
	}
	doc, err := s.load(target)
	if err != nil {
		return &refcerrors.ReferenceError{Ref: ref, Source: file, Cause: err}
	}
	found, err := docnode.Lookup(doc, pointer)
	if err != nil {
		return &refcerrors.ReferenceError{Ref: ref, Source: file, Cause: err}
	}

	replacement := docnode.DeepCopy(found)
	s.resolving[key] = true
	err = s.walk(replacement, target, depth+1)
	delete(s.resolving, key)
	if err != nil {
		return err
	}

	*n = *replacement
	return nil
}

// resolvePath turns the file part of a reference into an absolute path and
// checks that it stays inside the allowed roots.
func (s *state) resolvePath(ref, filePart, source string) (string, error) {
	if decoded, err := url.PathUnescape(filePart); err == nil {
		filePart = decoded
	}
	p := filepath.FromSlash(filePart)
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(source), p)
	}
	p = filepath.Clean(p)

	if _, _, ok := pathutil.WithinAny(s.roots, p); ok {
		return p, nil
	}
	return "", &refcerrors.ReferenceError{Ref: ref, Source: source, IsPathTraversal: true}
}

// load returns the parsed document at path, reading it on first use.
func (s *state) load(path string) (*yaml.Node, error) {
	if doc, ok := s.documents[path]; ok {
		return doc, nil
	}
	if len(s.documents) >= s.maxCachedDocuments {
		return nil, &refcerrors.ResourceLimitError{
			ResourceType: "cached_documents",
			Limit:        int64(s.maxCachedDocuments),
			Actual:       int64(len(s.documents)),
			Message:      "too many referenced files",
		}
	}

	data, err := s.readFile(path)
	if err != nil {
		return nil, err
	}

	parse := docnode.Parse
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parse = docnode.ParseJSON
	}
	doc, err := parse(data)
	if err != nil {
		return nil, &refcerrors.ParseError{Path: path, Cause: err}
	}
	if err := docnode.CheckDuplicateKeys(doc); err != nil {
		perr := &refcerrors.ParseError{Path: path, Cause: err}
		var dup *docnode.DuplicateKeyError
		if errors.As(err, &dup) {
			perr.Line, perr.Column, perr.Cause = dup.Line, dup.Column, nil
			perr.Message = fmt.Sprintf("duplicated mapping key %q", dup.Key)
		}
		return nil, perr
	}

	s.logger.Debug("loaded document", "path", path)
	s.documents[path] = doc
	return doc, nil
}

func (s *state) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &refcerrors.FilesystemError{Op: "open", Path: path, Cause: err}
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, s.maxFileSize+1))
	if err != nil {
		return nil, &refcerrors.FilesystemError{Op: "read", Path: path, Cause: err}
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, &refcerrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        s.maxFileSize,
			Message:      "file " + path + " is too large",
		}
	}
	return data, nil
}

// isRemote reports whether ref names a URL rather than a file.
func isRemote(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	// A single letter scheme is a Windows drive, not a URL.
	return len(u.Scheme) > 1
}
