package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists deletes the file if present.
func RemoveIfExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	} else if os.IsNotExist(err) {
		return nil
	} else {
		return err
	}
}

// FileSize returns the size of path, or 0 when it cannot be stat'ed.
func FileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// titleReplacer maps characters that are invalid in file names on at least
// one supported OS to an underscore.
var titleReplacer = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeFilename makes a remote title safe to use as a file name.
// The characters / \ : * ? " < > | become underscores; the result is trimmed
// and truncated to 200 runes.
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(titleReplacer.Replace(s))
	if s == "" {
		return "untitled"
	}

	const maxRunes = 200
	if utf8.RuneCountInString(s) > maxRunes {
		var b strings.Builder
		b.Grow(len(s))
		count := 0
		for _, r := range s {
			if count >= maxRunes {
				break
			}
			b.WriteRune(r)
			count++
		}
		s = strings.TrimSpace(b.String())
	}
	return s
}

// IsMediaFile reports whether path has an audio or video container extension.
func IsMediaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mkv", ".webm", ".mov", ".avi", ".flv", ".m4a", ".m4v", ".mp3", ".opus", ".ogg", ".aac", ".wav":
		return true
	default:
		return false
	}
}
