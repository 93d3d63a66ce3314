package fsdir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches constraint documents at any depth.
const DefaultPattern = "**/constraints_*.json"

var (
	ErrInvalidPattern = errors.New("fsdir: invalid pattern")
	ErrInvalidName    = errors.New("fsdir: invalid document name")
	ErrNotDirectory   = errors.New("fsdir: root is not a directory")
)

// Source serves constraint documents from a directory tree. Document names
// are slash separated paths relative to the root.
type Source struct {
	root    string
	pattern string
	fsys    fs.FS
}

// Option configures a Source.
type Option func(*Source)

// WithPattern sets the doublestar pattern documents must match.
func WithPattern(pattern string) Option {
	return func(s *Source) {
		if pattern != "" {
			s.pattern = pattern
		}
	}
}

// New creates a Source rooted at dir.
func New(dir string, opts ...Option) (*Source, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("fsdir: resolve %s: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("fsdir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	s := &Source{root: root, pattern: DefaultPattern}
	for _, opt := range opts {
		opt(s)
	}
	if !doublestar.ValidatePattern(s.pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, s.pattern)
	}
	s.fsys = os.DirFS(root)
	return s, nil
}

// Root returns the absolute root directory.
func (s *Source) Root() string { return s.root }

// Match reports whether a document name matches the pattern.
func (s *Source) Match(name string) bool {
	ok, err := doublestar.Match(s.pattern, name)
	return err == nil && ok
}

// Name converts an absolute or root-relative OS path into a document name.
func (s *Source) Name(path string) (string, bool) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return "", false
		}
		path = rel
	}
	name := filepath.ToSlash(path)
	if !fs.ValidPath(name) || name == "." {
		return "", false
	}
	return name, true
}

// List returns the names of all matching regular files, sorted.
func (s *Source) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := doublestar.Glob(s.fsys, s.pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("fsdir: list %s: %w", s.root, err)
	}
	slices.Sort(names)
	return names, nil
}

// Fetch reads one document.
func (s *Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	raw, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("fsdir: read %s: %w", name, err)
	}
	return raw, nil
}
