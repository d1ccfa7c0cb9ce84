package placement

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"photoorganizer/internal/fileutil"
	"photoorganizer/internal/hash"
	"photoorganizer/internal/logging"
	"photoorganizer/internal/models"
)

// maxSuffix bounds the -N walk so a pathological folder cannot spin forever.
const maxSuffix = 100000

// Resolver places files into destination folders without overwriting and
// without re-copying identical content. Placements into the same folder
// are serialized.
type Resolver struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{
		locks:  make(map[string]*sync.Mutex),
		logger: logger,
	}
}

func (r *Resolver) folderLock(folder string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[folder]
	if !ok {
		l = &sync.Mutex{}
		r.locks[folder] = l
	}
	return l
}

// ResolveTarget computes where src should land in folder under name.
// skip is true when target already holds identical content. The folder is
// created if absent. Callers placing concurrently should go through Place.
func (r *Resolver) ResolveTarget(src, folder, name string) (target string, skip bool, err error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", false, fmt.Errorf("failed to create folder: %w", err)
	}

	var same bool
	chosen, err := fileutil.FindUniqueName(name, maxSuffix, func(candidate string) (bool, error) {
		path := filepath.Join(folder, candidate)
		if !fileutil.Exists(path) {
			return true, nil
		}
		identical, err := hash.FilesSame(src, path)
		if err != nil {
			return false, fmt.Errorf("failed to compare with %s: %w", path, err)
		}
		same = identical
		return identical, nil
	})
	if errors.Is(err, fileutil.ErrNoFreeName) {
		return "", false, fmt.Errorf("no free name for %s in %s", name, folder)
	}
	if err != nil {
		return "", false, err
	}
	return filepath.Join(folder, chosen), same, nil
}

// Place copies src into folder as name, honoring idempotent resolution.
func (r *Resolver) Place(src, folder, name string) (models.PlacementDecision, error) {
	folder = filepath.Clean(folder)
	l := r.folderLock(folder)
	l.Lock()
	defer l.Unlock()

	decision := models.PlacementDecision{Source: src}

	target, skip, err := r.ResolveTarget(src, folder, name)
	if err != nil {
		return decision, err
	}
	decision.Target = target

	if skip {
		decision.Outcome = models.SkippedIdentical
		r.logger.Debug("identical file already placed", "path", src, "target", target)
		return decision, nil
	}

	if err := fileutil.CopyFile(src, target); err != nil {
		if errors.Is(err, fileutil.ErrExist) {
			return decision, fmt.Errorf("target appeared during placement: %s", target)
		}
		return decision, fmt.Errorf("failed to copy: %w", err)
	}

	if filepath.Base(target) == name {
		decision.Outcome = models.Copied
	} else {
		decision.Outcome = models.Renamed
	}
	r.logger.Debug("placed file", "path", src, "target", target, "outcome", decision.Outcome.String())
	return decision, nil
}

// Revoke removes the file a placement resolved to, whether this run
// copied it or found it already in place.
func (r *Resolver) Revoke(d models.PlacementDecision) error {
	if d.Target == "" {
		return nil
	}
	folder := filepath.Dir(d.Target)
	l := r.folderLock(folder)
	l.Lock()
	defer l.Unlock()

	if err := fileutil.RemoveFile(d.Target); err != nil {
		return fmt.Errorf("failed to remove %s: %w", d.Target, err)
	}
	r.logger.Debug("removed output copy", "target", d.Target)
	return nil
}
