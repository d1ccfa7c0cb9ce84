package models

import (
	"encoding/hex"
	"fmt"
	"time"
)

// ImageRecord describes one scanned source image. Seq is the scan
// enumeration index and breaks capture-time ties.
type ImageRecord struct {
	Seq         int       `json:"seq"`
	Path        string    `json:"path"`
	CaptureTime time.Time `json:"capture_time"`
	TimeSource  string    `json:"time_source"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
}

// Digest is the 128-bit content hash of a file's full byte content.
type Digest [16]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes a hex encoded digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if len(b) != len(d) {
		return d, fmt.Errorf("invalid digest length %d", len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Fingerprint is a 64-bit difference hash of an image.
type Fingerprint uint64

func (f Fingerprint) String() string {
	return fmt.Sprintf("d:%016x", uint64(f))
}

// DuplicateGroup holds the keeper of a bucket and the remaining members
// in keeper-selection order.
type DuplicateGroup struct {
	Keeper  *ImageRecord   `json:"keeper"`
	Members []*ImageRecord `json:"members"`
}

// Outcome is the result of placing a file.
type Outcome int

const (
	Copied Outcome = iota
	SkippedIdentical
	Renamed
)

func (o Outcome) String() string {
	switch o {
	case Copied:
		return "copied"
	case SkippedIdentical:
		return "skipped_identical"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// PlacementDecision records where a source file ended up. For
// SkippedIdentical the target is the existing identical file.
type PlacementDecision struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Outcome Outcome `json:"outcome"`
}

// Placed reports whether the decision produced a new copy.
func (d PlacementDecision) Placed() bool {
	return d.Outcome == Copied || d.Outcome == Renamed
}

// ReviewKind distinguishes exact and perceptual review groups.
type ReviewKind string

const (
	KindExact      ReviewKind = "exact"
	KindPerceptual ReviewKind = "perceptual"
)

// ReviewGroup is the record handed to reviewers: one keeper plus the
// locations of its duplicates.
type ReviewGroup struct {
	Kind    ReviewKind `json:"kind"`
	Keep    string     `json:"keep"`
	KeepSrc string     `json:"keep_src"`
	Dupes   []string   `json:"dupes"`
}

// Summary holds the counters of one pipeline run.
type Summary struct {
	Scanned          int `json:"total_scanned"`
	Kept             int `json:"kept"`
	ExactDuplicates  int `json:"exact_duplicates"`
	VisualDuplicates int `json:"visual_duplicates"`
	Skipped          int `json:"skipped_identical"`
	Failed           int `json:"failed"`
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d, kept=%d, exact_dupes=%d, visual_dupes=%d, skipped=%d, failed=%d",
		s.Scanned, s.Kept, s.ExactDuplicates, s.VisualDuplicates, s.Skipped, s.Failed)
}

// RunRecord is the persisted history entry of one run.
type RunRecord struct {
	ID           string    `json:"id"`
	InputDir     string    `json:"input_dir"`
	OutputDir    string    `json:"output_dir"`
	DuplicateDir string    `json:"duplicate_dir"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Summary      Summary   `json:"summary"`
}

// DigestEntry is a cached content digest keyed by path, size and mtime.
type DigestEntry struct {
	Path    string
	Size    int64
	ModTime time.Time
	Digest  Digest
}
