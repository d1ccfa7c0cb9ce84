package metadata

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"photoorganizer/internal/logging"
)

// Source identifies where a capture time came from.
type Source string

const (
	SourceExif     Source = "exif"
	SourceFileTime Source = "file"
	SourceNow      Source = "now"
)

// Resolver derives best-effort capture timestamps.
type Resolver struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewResolver creates a Resolver. A nil logger discards diagnostics.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{logger: logger, now: time.Now}
}

// ExifTime reads DateTimeOriginal (or DateTime) from embedded EXIF data.
// Malformed EXIF blocks that make the decoder panic are reported as errors.
func ExifTime(path string) (t time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("exif decode panic: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}

	return x.DateTime()
}

// CaptureTime returns the EXIF capture time when present and parseable,
// else the file modification time. It never fails: as a last resort the
// current time is returned.
func (r *Resolver) CaptureTime(path string) (time.Time, Source) {
	t, err := ExifTime(path)
	if err == nil && !t.IsZero() {
		return t, SourceExif
	}
	r.logger.Debug("no usable exif capture time", "path", path, "error", err)

	info, statErr := os.Stat(path)
	if statErr == nil {
		return info.ModTime(), SourceFileTime
	}
	r.logger.Warn("capture time fallback to now", "path", path, "error", statErr)

	return r.now(), SourceNow
}
