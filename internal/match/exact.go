package match

import (
	"log/slog"
	"os"
	"sync"

	"photoorganizer/internal/hash"
	"photoorganizer/internal/logging"
	"photoorganizer/internal/models"
)

// ExactIndex buckets records by content digest. It is safe for
// concurrent Add calls.
type ExactIndex struct {
	mu      sync.Mutex
	buckets map[models.Digest][]*models.ImageRecord
	logger  *slog.Logger
}

// NewExactIndex creates an empty ExactIndex.
func NewExactIndex(logger *slog.Logger) *ExactIndex {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ExactIndex{
		buckets: make(map[models.Digest][]*models.ImageRecord),
		logger:  logger,
	}
}

// Add buckets a record under its digest.
func (x *ExactIndex) Add(record *models.ImageRecord, digest models.Digest) {
	x.mu.Lock()
	x.buckets[digest] = append(x.buckets[digest], record)
	x.mu.Unlock()
}

// Len returns the number of records added.
func (x *ExactIndex) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	n := 0
	for _, recs := range x.buckets {
		n += len(recs)
	}
	return n
}

// Resolve returns one group per digest bucket, singletons included with
// no members. Members whose size or head bytes differ from the keeper are
// logged and left out of the group; they are resolved again among
// themselves so each still ends up as a keeper or a verified member.
func (x *ExactIndex) Resolve() []*models.DuplicateGroup {
	x.mu.Lock()
	defer x.mu.Unlock()

	groups := make([]*models.DuplicateGroup, 0, len(x.buckets))
	for digest, recs := range x.buckets {
		pending := sortByCapture(recs)
		for len(pending) > 0 {
			keeper := pending[0]
			group := &models.DuplicateGroup{Keeper: keeper, Members: []*models.ImageRecord{}}

			var rejected []*models.ImageRecord
			for _, rec := range pending[1:] {
				ok, reason := verifyIdentical(keeper.Path, rec.Path)
				if !ok {
					x.logger.Warn("same digest but content differs, not merged",
						"path", rec.Path,
						"keeper", keeper.Path,
						"digest", digest.String(),
						"reason", reason)
					rejected = append(rejected, rec)
					continue
				}
				group.Members = append(group.Members, rec)
			}

			groups = append(groups, group)
			pending = rejected
		}
	}

	sortGroups(groups)
	return groups
}

// verifyIdentical guards against digest collisions by comparing file size
// and the leading byte window.
func verifyIdentical(keeper, candidate string) (bool, string) {
	ks, err := os.Stat(keeper)
	if err != nil {
		return false, err.Error()
	}
	cs, err := os.Stat(candidate)
	if err != nil {
		return false, err.Error()
	}
	if ks.Size() != cs.Size() {
		return false, "size mismatch"
	}

	same, err := hash.SameHead(keeper, candidate)
	if err != nil {
		return false, err.Error()
	}
	if !same {
		return false, "head bytes mismatch"
	}
	return true, ""
}
