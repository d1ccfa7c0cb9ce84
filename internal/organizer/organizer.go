// Package organizer runs the photo organizing pipeline: scan, exact
// dedup and placement, fingerprinting, then visual dedup.
package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"photoorganizer/internal/hash"
	"photoorganizer/internal/logging"
	"photoorganizer/internal/match"
	"photoorganizer/internal/metadata"
	"photoorganizer/internal/models"
	"photoorganizer/internal/placement"
	"photoorganizer/internal/scan"
)

// Store persists digests and run results. *storage.Storage satisfies it.
type Store interface {
	LookupDigest(path string, size int64, modTime time.Time) (models.Digest, bool)
	SaveDigests(entries []models.DigestEntry) error
	SaveRun(run *models.RunRecord, groups []models.ReviewGroup) error
}

// Dirs names the three roots of a run.
type Dirs struct {
	Input      string
	Output     string
	Duplicates string
}

func (d Dirs) absolute() (Dirs, error) {
	var out Dirs
	var err error
	if out.Input, err = filepath.Abs(d.Input); err != nil {
		return out, fmt.Errorf("input dir: %w", err)
	}
	if out.Output, err = filepath.Abs(d.Output); err != nil {
		return out, fmt.Errorf("output dir: %w", err)
	}
	if out.Duplicates, err = filepath.Abs(d.Duplicates); err != nil {
		return out, fmt.Errorf("duplicate dir: %w", err)
	}
	return out, nil
}

// Result is what a run hands back to its caller.
type Result struct {
	RunID   string
	Groups  []models.ReviewGroup
	Summary models.Summary
}

// Organizer runs the pipeline
type Organizer struct {
	workers     int
	timeout     time.Duration
	logger      *slog.Logger
	progress    ProgressFunc
	store       Store
	digestCache bool
	now         func() time.Time
}

// Option configures an Organizer
type Option func(*Organizer)

// WithWorkers sets the number of parallel workers for hashing and fingerprinting
func WithWorkers(n int) Option {
	return func(o *Organizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTimeout sets the timeout for decoding each image
func WithTimeout(d time.Duration) Option {
	return func(o *Organizer) {
		o.timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Organizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgress sets the progress sink
func WithProgress(fn ProgressFunc) Option {
	return func(o *Organizer) {
		o.progress = fn
	}
}

// WithStore enables the digest cache and run history
func WithStore(s Store) Option {
	return func(o *Organizer) {
		o.store = s
	}
}

// WithDigestCache toggles digest reuse when a store is configured
func WithDigestCache(enabled bool) Option {
	return func(o *Organizer) {
		o.digestCache = enabled
	}
}

// NewOrganizer creates a new Organizer
func NewOrganizer(opts ...Option) *Organizer {
	o := &Organizer{
		workers:     8,
		timeout:     30 * time.Second,
		logger:      logging.Discard(),
		digestCache: true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Organize runs the pipeline once with default settings and returns the
// review groups.
func Organize(ctx context.Context, inputDir, outputDir, duplicateDir string, progress ProgressFunc) ([]models.ReviewGroup, error) {
	res, err := NewOrganizer(WithProgress(progress)).Organize(ctx, Dirs{
		Input:      inputDir,
		Output:     outputDir,
		Duplicates: duplicateDir,
	})
	if res == nil {
		return nil, err
	}
	return res.Groups, err
}

// run carries the mutable state of a single Organize call.
type run struct {
	o        *Organizer
	dirs     Dirs
	logger   *slog.Logger
	progress *progressReporter
	placer   *placement.Resolver
	times    *metadata.Resolver

	mu         sync.Mutex
	summary    models.Summary
	newDigests []models.DigestEntry

	groups     []models.ReviewGroup
	keepers    []*models.ImageRecord
	placements map[*models.ImageRecord]models.PlacementDecision
	newlyKept  map[*models.ImageRecord]bool
}

func (r *run) fail() {
	r.mu.Lock()
	r.summary.Failed++
	r.mu.Unlock()
}

// Organize runs all phases over dirs. Only a failure to enumerate the
// input root aborts the run; per-file failures are logged and counted.
// On cancellation the partial result is returned with the context error.
func (o *Organizer) Organize(ctx context.Context, dirs Dirs) (*Result, error) {
	runID := uuid.NewString()
	started := o.now()
	logger := o.logger.With("run", runID)

	dirs, err := dirs.absolute()
	if err != nil {
		return nil, err
	}
	r := &run{
		o:          o,
		dirs:       dirs,
		logger:     logger,
		progress:   newProgressReporter(o.progress),
		placer:     placement.NewResolver(logger),
		times:      metadata.NewResolver(logger),
		placements: make(map[*models.ImageRecord]models.PlacementDecision),
		newlyKept:  make(map[*models.ImageRecord]bool),
	}

	logger.Info("organize started", "input", dirs.Input, "output", dirs.Output, "duplicates", dirs.Duplicates)

	paths, err := scan.NewScanner(scan.WithLogger(logger)).Scan(dirs.Input, dirs.Output, dirs.Duplicates)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dirs.Duplicates, 0755); err != nil {
		return nil, fmt.Errorf("failed to create duplicate dir: %w", err)
	}
	r.summary.Scanned = len(paths)

	exact, err := r.scanPhase(ctx, paths)
	if err == nil {
		err = r.exactPhase(ctx, exact)
	}
	var perceptual *match.PerceptualIndex
	if err == nil {
		perceptual, err = r.fingerprintPhase(ctx)
	}
	if err == nil {
		err = r.visualPhase(ctx, perceptual)
	}

	r.summary.Kept = len(r.newlyKept)
	result := &Result{RunID: runID, Groups: r.groups, Summary: r.summary}
	if result.Groups == nil {
		result.Groups = []models.ReviewGroup{}
	}

	if err != nil {
		logger.Warn("organize cancelled", "summary", result.Summary.String(), "error", err)
		return result, fmt.Errorf("organize cancelled: %w", err)
	}

	r.progress.finish()

	if o.store != nil {
		record := &models.RunRecord{
			ID:           runID,
			InputDir:     dirs.Input,
			OutputDir:    dirs.Output,
			DuplicateDir: dirs.Duplicates,
			StartedAt:    started,
			FinishedAt:   o.now(),
			Summary:      result.Summary,
		}
		if err := o.store.SaveRun(record, result.Groups); err != nil {
			logger.Warn("failed to save run history", "error", err)
		}
	}

	logger.Info("organize finished",
		"summary", result.Summary.String(),
		"groups", len(result.Groups),
		"elapsed", o.now().Sub(started).Round(time.Millisecond))
	return result, nil
}

// scanPhase resolves capture time and digest for every path in parallel
// and buckets the records by digest.
func (r *run) scanPhase(ctx context.Context, paths []string) (*match.ExactIndex, error) {
	r.logger.Info("phase started", "phase", PhaseScanning.String(), "items", len(paths))
	r.progress.begin(PhaseScanning, len(paths))

	exact := match.NewExactIndex(r.logger)
	err := runPool(ctx, r.o.workers, len(paths), func(i int) {
		defer r.progress.step()
		if rec, digest, ok := r.inspect(i, paths[i]); ok {
			exact.Add(rec, digest)
		}
	})
	r.logger.Info("phase finished", "phase", PhaseScanning.String(), "records", exact.Len(), "new_digests", len(r.newDigests))

	if r.o.store != nil && r.o.digestCache && len(r.newDigests) > 0 {
		if serr := r.o.store.SaveDigests(r.newDigests); serr != nil {
			r.logger.Warn("failed to save digest cache", "error", serr)
		}
	}
	return exact, err
}

func (r *run) inspect(seq int, path string) (*models.ImageRecord, models.Digest, bool) {
	info, err := os.Stat(path)
	if err != nil {
		r.logger.Warn("failed to stat file", "path", path, "error", err)
		r.fail()
		return nil, models.Digest{}, false
	}

	capture, source := r.times.CaptureTime(path)

	digest, cached := r.cachedDigest(path, info)
	if !cached {
		digest, err = hash.FileDigest(path)
		if err != nil {
			r.logger.Warn("failed to hash file", "path", path, "error", err)
			r.fail()
			return nil, models.Digest{}, false
		}
		if r.o.store != nil && r.o.digestCache {
			r.mu.Lock()
			r.newDigests = append(r.newDigests, models.DigestEntry{
				Path:    path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
				Digest:  digest,
			})
			r.mu.Unlock()
		}
	}

	return &models.ImageRecord{
		Seq:         seq,
		Path:        path,
		CaptureTime: capture,
		TimeSource:  string(source),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, digest, true
}

func (r *run) cachedDigest(path string, info os.FileInfo) (models.Digest, bool) {
	if r.o.store == nil || !r.o.digestCache {
		return models.Digest{}, false
	}
	return r.o.store.LookupDigest(path, info.Size(), info.ModTime())
}

// exactPhase places every keeper into the dated output tree and every
// verified exact duplicate into the duplicates folder.
func (r *run) exactPhase(ctx context.Context, exact *match.ExactIndex) error {
	return r.groupPhase(ctx, PhaseExactDedup, exact, r.placeExactGroup)
}

// groupPhase resolves idx and applies fn to each group in order, one
// progress step per group.
func (r *run) groupPhase(ctx context.Context, phase Phase, idx match.Index, fn func(*models.DuplicateGroup)) error {
	groups := idx.Resolve()
	r.logger.Info("phase started", "phase", phase.String(), "items", len(groups))
	r.progress.begin(phase, len(groups))

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(g)
		r.progress.step()
	}
	return nil
}

func (r *run) placeExactGroup(g *models.DuplicateGroup) {
	keeper := g.Keeper
	folder := placement.DatedFolder(r.dirs.Output, keeper.CaptureTime)
	name := placement.BuildNewFilename(keeper.CaptureTime, keeper.Path, "")

	decision, err := r.placer.Place(keeper.Path, folder, name)
	if err != nil {
		r.logger.Error("failed to place keeper", "path", keeper.Path, "error", err)
		r.summary.Failed++
		for _, m := range g.Members {
			r.logger.Warn("duplicate not placed, keeper failed", "path", m.Path, "keeper", keeper.Path)
			r.summary.Failed++
		}
		return
	}

	r.placements[keeper] = decision
	r.keepers = append(r.keepers, keeper)
	if decision.Placed() {
		r.newlyKept[keeper] = true
	} else {
		r.summary.Skipped++
	}

	if len(g.Members) == 0 {
		return
	}

	dupes := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		d, ok := r.placeDuplicate(m)
		if !ok {
			continue
		}
		if d.Placed() {
			r.summary.ExactDuplicates++
		}
		dupes = append(dupes, d.Target)
	}

	if len(dupes) > 0 {
		r.groups = append(r.groups, models.ReviewGroup{
			Kind:    models.KindExact,
			Keep:    decision.Target,
			KeepSrc: keeper.Path,
			Dupes:   dupes,
		})
	}
}

// placeDuplicate copies rec into the flat duplicates folder under its
// original name. Identical content already there counts as a skip.
func (r *run) placeDuplicate(rec *models.ImageRecord) (models.PlacementDecision, bool) {
	d, err := r.placer.Place(rec.Path, r.dirs.Duplicates, filepath.Base(rec.Path))
	if err != nil {
		r.logger.Error("failed to place duplicate", "path", rec.Path, "error", err)
		r.summary.Failed++
		return d, false
	}
	if !d.Placed() {
		r.summary.Skipped++
	}
	return d, true
}

// fingerprintPhase computes visual fingerprints of the exact-dedup keepers.
func (r *run) fingerprintPhase(ctx context.Context) (*match.PerceptualIndex, error) {
	r.logger.Info("phase started", "phase", PhaseFingerprinting.String(), "items", len(r.keepers))
	r.progress.begin(PhaseFingerprinting, len(r.keepers))

	perceptual := match.NewPerceptualIndex(r.o.timeout, r.logger)
	err := runPool(ctx, r.o.workers, len(r.keepers), func(i int) {
		defer r.progress.step()
		rec := r.keepers[i]
		if err := perceptual.Add(rec); err != nil {
			r.logger.Warn("failed to fingerprint image", "path", rec.Path, "error", err)
			r.fail()
		}
	})
	return perceptual, err
}

// visualPhase demotes every visual duplicate that is not its group's
// earliest capture: its output copy is removed and it is copied into the
// duplicates folder instead.
func (r *run) visualPhase(ctx context.Context, perceptual *match.PerceptualIndex) error {
	return r.groupPhase(ctx, PhaseVisualDedup, perceptual, r.demoteVisualGroup)
}

func (r *run) demoteVisualGroup(g *models.DuplicateGroup) {
	keeper := g.Keeper
	keep := r.placements[keeper].Target
	dupes := make([]string, 0, len(g.Members))

	for _, m := range g.Members {
		prior, hadPlacement := r.placements[m]
		if hadPlacement {
			if err := r.placer.Revoke(prior); err != nil {
				r.logger.Error("failed to remove demoted output copy", "path", m.Path, "target", prior.Target, "error", err)
				r.summary.Failed++
				continue
			}
			delete(r.placements, m)
			delete(r.newlyKept, m)
		}

		d, ok := r.placeDuplicate(m)
		if hadPlacement {
			if ok {
				r.retargetKeep(prior.Target, d.Target)
			} else {
				r.retargetKeep(prior.Target, keep)
			}
		}
		if !ok {
			continue
		}
		if d.Placed() {
			r.summary.VisualDuplicates++
		}
		dupes = append(dupes, d.Target)
	}

	if len(dupes) > 0 {
		r.groups = append(r.groups, models.ReviewGroup{
			Kind:    models.KindPerceptual,
			Keep:    keep,
			KeepSrc: keeper.Path,
			Dupes:   dupes,
		})
	}
}

// retargetKeep points review groups whose kept file was removed at its
// replacement, so every recorded path stays readable.
func (r *run) retargetKeep(removed, replacement string) {
	for i := range r.groups {
		if r.groups[i].Keep == removed {
			r.groups[i].Keep = replacement
		}
	}
}
