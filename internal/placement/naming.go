package placement

import (
	"path/filepath"
	"strings"
	"time"
)

// maxStemLen caps the sanitized original stem in generated names.
const maxStemLen = 20

// hintRules are checked in order against the lowercased filename.
var hintRules = []struct {
	substr string
	hint   string
}{
	{"微信图片", "wechat"},
	{"屏幕截图", "screenshot"},
	{"mmexport", "mmexport"},
	{"dcim", "dcim"},
	{"img", "dcim"},
	{"screenshot", "screenshot"},
	{"wechat", "wechat"},
}

// SourceHint classifies a filename by the device or app that likely
// produced it. Unrecognized names yield "file".
func SourceHint(name string) string {
	lower := strings.ToLower(name)
	for _, r := range hintRules {
		if strings.Contains(lower, r.substr) {
			return r.hint
		}
	}
	return "file"
}

// SanitizeStem strips everything outside [A-Za-z0-9_-] from the stem of
// name, lowercases it and truncates it to 20 characters.
func SanitizeStem(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}

	s := b.String()
	if len(s) > maxStemLen {
		s = s[:maxStemLen]
	}
	return s
}

// BuildNewFilename returns {YYYYMMDD}-{hint}-{stem}{ext} for a file
// captured at date. An empty ext keeps the original extension, lowercased.
func BuildNewFilename(date time.Time, originalName, ext string) string {
	base := filepath.Base(originalName)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(base))
	}
	return date.Format("20060102") + "-" + SourceHint(base) + "-" + SanitizeStem(base) + ext
}

// DatedFolder returns root/YYYY/MM for date.
func DatedFolder(root string, date time.Time) string {
	return filepath.Join(root, date.Format("2006"), date.Format("01"))
}
