package match

import (
	"log/slog"
	"sync"
	"time"

	"photoorganizer/internal/hash"
	"photoorganizer/internal/logging"
	"photoorganizer/internal/models"
)

// PerceptualIndex buckets records by exact difference-hash equality.
type PerceptualIndex struct {
	mu      sync.Mutex
	buckets map[models.Fingerprint][]*models.ImageRecord
	timeout time.Duration
	logger  *slog.Logger
}

// NewPerceptualIndex creates an empty PerceptualIndex. timeout bounds the
// decode of a single image; zero disables it.
func NewPerceptualIndex(timeout time.Duration, logger *slog.Logger) *PerceptualIndex {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PerceptualIndex{
		buckets: make(map[models.Fingerprint][]*models.ImageRecord),
		timeout: timeout,
		logger:  logger,
	}
}

// Add fingerprints the record's image and buckets it. On error the record
// is left out of perceptual grouping.
func (p *PerceptualIndex) Add(record *models.ImageRecord) error {
	fp, err := hash.FingerprintWithTimeout(record.Path, p.timeout)
	if err != nil {
		return err
	}
	p.AddFingerprint(record, fp)
	return nil
}

// AddFingerprint buckets a record under a precomputed fingerprint.
func (p *PerceptualIndex) AddFingerprint(record *models.ImageRecord, fp models.Fingerprint) {
	p.mu.Lock()
	p.buckets[fp] = append(p.buckets[fp], record)
	p.mu.Unlock()
	p.logger.Debug("fingerprinted", "path", record.Path, "fingerprint", fp.String())
}

// Resolve returns a group for every bucket holding two or more records.
func (p *PerceptualIndex) Resolve() []*models.DuplicateGroup {
	p.mu.Lock()
	defer p.mu.Unlock()

	var groups []*models.DuplicateGroup
	for _, recs := range p.buckets {
		if len(recs) < 2 {
			continue
		}
		keeper, rest := selectKeeper(recs)
		groups = append(groups, &models.DuplicateGroup{Keeper: keeper, Members: rest})
	}

	sortGroups(groups)
	return groups
}
