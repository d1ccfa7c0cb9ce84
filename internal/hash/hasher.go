package hash

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corona10/goimagehash"

	"photoorganizer/internal/models"
)

// HeadSize is the number of leading bytes compared when verifying
// digest matches.
const HeadSize = 512

// FileDigest computes the MD5 digest of a file's full content.
func FileDigest(path string) (models.Digest, error) {
	var d models.Digest

	file, err := os.Open(path)
	if err != nil {
		return d, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return d, fmt.Errorf("failed to read file: %w", err)
	}

	copy(d[:], h.Sum(nil))
	return d, nil
}

// HeadBlock returns up to n leading bytes of a file.
func HeadBlock(path string, n int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read head: %w", err)
	}
	return buf[:read], nil
}

// SameHead reports whether two files share the same HeadSize prefix.
func SameHead(a, b string) (bool, error) {
	ha, err := HeadBlock(a, HeadSize)
	if err != nil {
		return false, err
	}
	hb, err := HeadBlock(b, HeadSize)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ha, hb), nil
}

// FilesSame reports whether two files have identical size and content.
func FilesSame(a, b string) (bool, error) {
	sa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if sa.Size() != sb.Size() {
		return false, nil
	}

	da, err := FileDigest(a)
	if err != nil {
		return false, err
	}
	db, err := FileDigest(b)
	if err != nil {
		return false, err
	}
	return da == db, nil
}

// Fingerprint decodes an image and computes its difference hash.
func Fingerprint(path string) (models.Fingerprint, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute hash: %w", err)
	}

	return models.Fingerprint(hash.GetHash()), nil
}

// FingerprintWithTimeout computes a fingerprint, giving up after timeout.
// A non-positive timeout waits indefinitely.
func FingerprintWithTimeout(path string, timeout time.Duration) (models.Fingerprint, error) {
	if timeout <= 0 {
		return Fingerprint(path)
	}

	type result struct {
		fp  models.Fingerprint
		err error
	}
	done := make(chan result, 1)

	go func() {
		fp, err := Fingerprint(path)
		done <- result{fp, err}
	}()

	select {
	case r := <-done:
		return r.fp, r.err
	case <-time.After(timeout):
		return 0, fmt.Errorf("timeout hashing image: %s", path)
	}
}

// IsSupportedImage checks if a file has an organizable image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}
