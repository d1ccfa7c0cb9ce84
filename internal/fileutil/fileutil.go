package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrExist is returned by CopyFile when the destination already exists.
var ErrExist = os.ErrExist

// ErrNoFreeName is returned by FindUniqueName when every candidate up to
// the limit was rejected.
var ErrNoFreeName = errors.New("no free name")

// CopyFile copies src to dest, failing if dest already exists. The
// source modification time is carried over. A partially written
// destination is removed on failure.
func CopyFile(src, dest string) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := destFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dest) // Clean up on failure
		}
	}()

	if _, err = io.Copy(destFile, srcFile); err != nil {
		return err
	}
	if err = destFile.Sync(); err != nil {
		return err
	}

	mtime := srcInfo.ModTime()
	if err = os.Chtimes(dest, mtime, mtime); err != nil {
		return fmt.Errorf("failed to preserve mtime: %w", err)
	}
	return nil
}

// RemoveFile deletes path. A file that is already gone is not an error.
func RemoveFile(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SuffixedName returns filename with "-n" inserted before the extension.
// n == 0 returns filename unchanged.
func SuffixedName(filename string, n int) string {
	if n == 0 {
		return filename
	}
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s-%d%s", name, n, ext)
}

// FindUniqueName walks filename, filename-1, filename-2, ... up to limit
// and returns the first candidate accepted by accept. An error from accept
// stops the walk.
func FindUniqueName(filename string, limit int, accept func(candidate string) (bool, error)) (string, error) {
	for counter := 0; counter <= limit; counter++ {
		candidate := SuffixedName(filename, counter)
		ok, err := accept(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", ErrNoFreeName
}

// Exists reports whether path exists. Errors other than not-exist are
// treated as existing so callers never overwrite.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
