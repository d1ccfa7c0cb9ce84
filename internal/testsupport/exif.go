// Package testsupport holds fixture builders shared by package tests.
package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	tagExifIFDPointer   = 0x8769
	tagDateTimeOriginal = 0x9003
	typeASCII           = 2
	typeLong            = 4
)

// WriteExifJPEG writes a small decodable JPEG whose APP1 segment carries
// dateTimeOriginal as the EXIF DateTimeOriginal value, then sets the file
// modification time to mtime.
func WriteExifJPEG(t testing.TB, path, dateTimeOriginal string, mtime time.Time) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 8)})
		}
	}
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	payload := append([]byte("Exif\x00\x00"), exifTIFF(dateTimeOriginal)...)
	var app1 bytes.Buffer
	app1.Write([]byte{0xFF, 0xE1})
	binary.Write(&app1, binary.BigEndian, uint16(len(payload)+2))
	app1.Write(payload)

	// SOI, then APP1, then the rest of the encoded stream.
	data := encoded.Bytes()
	var out bytes.Buffer
	out.Write(data[:2])
	out.Write(app1.Bytes())
	out.Write(data[2:])

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// exifTIFF builds a big-endian TIFF block: IFD0 holds only the Exif
// sub-IFD pointer, the sub-IFD holds only DateTimeOriginal.
func exifTIFF(dateTimeOriginal string) []byte {
	value := append([]byte(dateTimeOriginal), 0)

	const (
		ifd0Offset  = 8
		ifdSize     = 2 + 12 + 4
		subIFD      = ifd0Offset + ifdSize
		valueOffset = subIFD + ifdSize
	)

	var b bytes.Buffer
	be := binary.BigEndian
	b.WriteString("MM")
	binary.Write(&b, be, uint16(42))
	binary.Write(&b, be, uint32(ifd0Offset))

	binary.Write(&b, be, uint16(1))
	binary.Write(&b, be, uint16(tagExifIFDPointer))
	binary.Write(&b, be, uint16(typeLong))
	binary.Write(&b, be, uint32(1))
	binary.Write(&b, be, uint32(subIFD))
	binary.Write(&b, be, uint32(0))

	binary.Write(&b, be, uint16(1))
	binary.Write(&b, be, uint16(tagDateTimeOriginal))
	binary.Write(&b, be, uint16(typeASCII))
	binary.Write(&b, be, uint32(len(value)))
	binary.Write(&b, be, uint32(valueOffset))
	binary.Write(&b, be, uint32(0))

	b.Write(value)
	return b.Bytes()
}
