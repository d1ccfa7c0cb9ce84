package placement

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSourceHint(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"微信图片_20240101.jpg", "wechat"},
		{"屏幕截图 2024-05-01.png", "screenshot"},
		{"mmexport1700000000.jpg", "mmexport"},
		{"DCIM_0001.jpg", "dcim"},
		{"IMG_1234.JPG", "dcim"},
		{"Screenshot_2024.png", "screenshot"},
		{"WeChat_export.jpg", "wechat"},
		{"holiday.jpg", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceHint(tt.name); got != tt.expected {
				t.Errorf("SourceHint(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestSanitizeStem(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"IMG_20250701_1234.jpg", "img_20250701_1234"},
		{"My Photo (1).png", "myphoto1"},
		{"微信图片_abc.jpg", "_abc"},
		{"a-very-long-file-name-that-overflows.jpg", "a-very-long-file-nam"},
		{".jpg", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeStem(tt.name); got != tt.expected {
				t.Errorf("SanitizeStem(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestBuildNewFilename(t *testing.T) {
	date := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		original string
		ext      string
		expected string
	}{
		{"camera", "IMG_20250701_1234.jpg", ".jpg", "20250701-dcim-img_20250701_1234.jpg"},
		{"keeps original extension", "Screenshot 1.PNG", "", "20250701-screenshot-screenshot1.png"},
		{"fallback hint", "beach.jpeg", ".jpeg", "20250701-file-beach.jpeg"},
		{"directory ignored", filepath.Join("sub", "img.jpg"), ".jpg", "20250701-dcim-img.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildNewFilename(date, tt.original, tt.ext)
			if got != tt.expected {
				t.Errorf("BuildNewFilename() = %q, want %q", got, tt.expected)
			}
			if again := BuildNewFilename(date, tt.original, tt.ext); again != got {
				t.Errorf("not deterministic: %q vs %q", got, again)
			}
		})
	}
}

func TestDatedFolder(t *testing.T) {
	date := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	got := DatedFolder("/out", date)
	want := filepath.Join("/out", "2025", "01")
	if got != want {
		t.Errorf("DatedFolder = %q, want %q", got, want)
	}
}
