// Package debugstore persists raw page content captured when an attempt is
// blocked or fails, so an operator can see what the engine actually served.
package debugstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	maxKeywordRunes = 80
	timestampLayout = "20060102T150405.000000000Z"
	maxCollisions   = 100
)

// Store writes evidence files into a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// New returns a Store rooted at dir. The directory is created lazily on
// the first Save.
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the directory evidence is written to.
func (s *Store) Dir() string { return s.dir }

// Save writes content to {sanitized-keyword}_{UTC-timestamp}.{ext} and
// returns the file path. An existing file is never overwritten; on a name
// collision a numeric suffix is added.
func (s *Store) Save(keyword, content, ext string) (string, error) {
	if s == nil {
		return "", errors.New("debugstore: nil store")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("debugstore: create dir: %w", err)
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "html"
	}
	base := SanitizeKeyword(keyword) + "_" + s.now().UTC().Format(timestampLayout)

	for i := 0; i < maxCollisions; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		path := filepath.Join(s.dir, name+"."+ext)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("debugstore: create %s: %w", path, err)
		}

		_, werr := f.WriteString(content)
		cerr := f.Close()
		if werr != nil {
			return "", fmt.Errorf("debugstore: write %s: %w", path, werr)
		}
		if cerr != nil {
			return "", fmt.Errorf("debugstore: close %s: %w", path, cerr)
		}

		slog.Info("saved debug evidence", "path", path, "bytes", len(content))
		return path, nil
	}
	return "", fmt.Errorf("debugstore: too many files named %s", base)
}

// SanitizeKeyword replaces every character that is not a letter or digit
// with an underscore and truncates the result to 80 characters.
func SanitizeKeyword(keyword string) string {
	var b strings.Builder
	n := 0
	for _, r := range keyword {
		if n == maxKeywordRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
