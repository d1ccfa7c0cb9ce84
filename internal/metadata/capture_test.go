package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"photoorganizer/internal/testsupport"
)

func TestCaptureTime_FallsBackToModTime(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "no_exif.png")
	if err := os.WriteFile(path, []byte("not an image with exif"), 0644); err != nil {
		t.Fatal(err)
	}

	want := time.Date(2025, 1, 2, 10, 30, 0, 0, time.Local)
	if err := os.Chtimes(path, want, want); err != nil {
		t.Fatal(err)
	}

	got, source := NewResolver(nil).CaptureTime(path)
	if source != SourceFileTime {
		t.Errorf("source = %q, want %q", source, SourceFileTime)
	}
	if !got.Equal(want) {
		t.Errorf("capture time = %v, want %v", got, want)
	}
}

func TestCaptureTime_MissingFile(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r := NewResolver(nil)
	r.now = func() time.Time { return fixed }

	got, source := r.CaptureTime("/nonexistent/photo.jpg")
	if source != SourceNow {
		t.Errorf("source = %q, want %q", source, SourceNow)
	}
	if !got.Equal(fixed) {
		t.Errorf("capture time = %v, want %v", got, fixed)
	}
}

func TestExifTime_NoExif(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "plain.jpg")
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ExifTime(path); err == nil {
		t.Error("expected error for image without exif")
	}
}

func TestCaptureTime_Sources(t *testing.T) {
	mtime := time.Date(2025, 1, 2, 10, 30, 0, 0, time.Local)

	tests := []struct {
		name       string
		exifDate   string
		wantTime   time.Time
		wantSource Source
	}{
		{
			name:       "exif date wins over mtime",
			exifDate:   "2019:03:04 05:06:07",
			wantTime:   time.Date(2019, 3, 4, 5, 6, 7, 0, time.Local),
			wantSource: SourceExif,
		},
		{
			name:       "unparseable exif date falls back to mtime",
			exifDate:   "not a capture date",
			wantTime:   mtime,
			wantSource: SourceFileTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "photo.jpg")
			testsupport.WriteExifJPEG(t, path, tt.exifDate, mtime)

			got, source := NewResolver(nil).CaptureTime(path)
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
			if !got.Equal(tt.wantTime) {
				t.Errorf("capture time = %v, want %v", got, tt.wantTime)
			}
		})
	}
}

func TestExifTime_DateTimeOriginal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	testsupport.WriteExifJPEG(t, path, "2021:12:31 23:59:58", time.Now())

	got, err := ExifTime(path)
	if err != nil {
		t.Fatalf("ExifTime failed: %v", err)
	}
	want := time.Date(2021, 12, 31, 23, 59, 58, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("ExifTime = %v, want %v", got, want)
	}
}
