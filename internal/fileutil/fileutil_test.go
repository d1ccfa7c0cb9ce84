package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCopyFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src.jpg")
	dest := filepath.Join(tmpDir, "dest.jpg")

	content := []byte("photo bytes")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dest); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("content = %q, want %q", got, content)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestCopyFile_RefusesOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src.jpg")
	dest := filepath.Join(tmpDir, "dest.jpg")
	os.WriteFile(src, []byte("new"), 0644)
	os.WriteFile(dest, []byte("old"), 0644)

	err := CopyFile(src, dest)
	if !errors.Is(err, ErrExist) {
		t.Fatalf("expected ErrExist, got %v", err)
	}

	got, _ := os.ReadFile(dest)
	if string(got) != "old" {
		t.Errorf("existing file was modified: %q", got)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	tmpDir := t.TempDir()
	dest := filepath.Join(tmpDir, "dest.jpg")
	if err := CopyFile(filepath.Join(tmpDir, "nope.jpg"), dest); err == nil {
		t.Error("expected error for missing source")
	}
	if Exists(dest) {
		t.Error("destination should not be created")
	}
}

func TestRemoveFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "a.jpg")
	os.WriteFile(path, []byte("a"), 0644)

	if err := RemoveFile(path); err != nil {
		t.Fatalf("RemoveFile failed: %v", err)
	}
	if Exists(path) {
		t.Error("file still exists")
	}
	if err := RemoveFile(path); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}
}

func TestSuffixedName(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected string
	}{
		{"photo.jpg", 0, "photo.jpg"},
		{"photo.jpg", 1, "photo-1.jpg"},
		{"photo.jpg", 12, "photo-12.jpg"},
		{"noext", 2, "noext-2"},
		{"archive.tar.png", 1, "archive.tar-1.png"},
	}

	for _, tt := range tests {
		if got := SuffixedName(tt.name, tt.n); got != tt.expected {
			t.Errorf("SuffixedName(%q, %d) = %q, want %q", tt.name, tt.n, got, tt.expected)
		}
	}
}

func TestFindUniqueName(t *testing.T) {
	taken := map[string]bool{"a.jpg": true, "a-1.jpg": true, "c.jpg": true}
	free := func(name string) (bool, error) { return !taken[name], nil }

	tests := []struct {
		name    string
		input   string
		limit   int
		want    string
		wantErr error
	}{
		{"first free suffix", "a.jpg", 10, "a-2.jpg", nil},
		{"base name free", "b.jpg", 10, "b.jpg", nil},
		{"limit reached", "a.jpg", 1, "", ErrNoFreeName},
		{"zero limit checks base only", "c.jpg", 0, "", ErrNoFreeName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindUniqueName(tt.input, tt.limit, free)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FindUniqueName error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FindUniqueName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindUniqueName_AcceptError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := FindUniqueName("a.jpg", 10, func(string) (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("accept called %d times, want 1", calls)
	}
}
