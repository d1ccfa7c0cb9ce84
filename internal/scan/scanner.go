package scan

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"photoorganizer/internal/hash"
	"photoorganizer/internal/logging"
)

// Scanner enumerates candidate images under an input root.
type Scanner struct {
	logger *slog.Logger
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the logger used for per-entry failures
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScanner creates a new Scanner
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks root in lexical order and returns every supported image that
// does not resolve under one of the excluded subtrees. Unreadable entries
// are logged and skipped; only a failure to resolve root is returned.
func (s *Scanner) Scan(root string, exclude ...string) ([]string, error) {
	absRoot, err := resolve(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input root is not a directory: %s", root)
	}

	excluded := make([]string, 0, len(exclude))
	for _, ex := range exclude {
		if ex == "" {
			continue
		}
		abs, err := resolve(ex)
		if err != nil {
			abs, err = filepath.Abs(ex)
			if err != nil {
				continue
			}
		}
		excluded = append(excluded, abs)
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			s.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != absRoot && isExcluded(path, excluded) {
				s.logger.Debug("skipping excluded directory", "path", path)
				return fs.SkipDir
			}
			return nil
		}

		if !hash.IsSupportedImage(path) {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := resolve(path)
			if err != nil {
				s.logger.Warn("skipping broken symlink", "path", path, "error", err)
				return nil
			}
			ti, err := os.Stat(target)
			if err != nil || !ti.Mode().IsRegular() {
				return nil
			}
			if isExcluded(target, excluded) {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		if isExcluded(path, excluded) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk folder: %w", err)
	}

	return paths, nil
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func isExcluded(path string, excluded []string) bool {
	for _, ex := range excluded {
		if isUnder(path, ex) {
			return true
		}
	}
	return false
}

// isUnder reports whether path is dir or lies beneath it.
func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
