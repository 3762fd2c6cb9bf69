package downloader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vidgrab/internal/util"
)

// ErrNoOutput is returned when no finished media file can be found.
var ErrNoOutput = errors.New("no output file found")

// SelectOutputFile finds the file a download produced in dir when yt-dlp did
// not report it. Only media files modified at or after since are considered;
// they are ranked by container preference, then newest first.
func SelectOutputFile(dir string, since time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !util.IsMediaFile(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil || fi.ModTime().Before(since) {
			continue
		}
		candidates = append(candidates, candidate{path: filepath.Join(dir, e.Name()), mod: fi.ModTime()})
	}
	if len(candidates) == 0 {
		return "", ErrNoOutput
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := extPriority(filepath.Ext(candidates[i].path)), extPriority(filepath.Ext(candidates[j].path))
		if pi != pj {
			return pi < pj
		}
		if !candidates[i].mod.Equal(candidates[j].mod) {
			return candidates[i].mod.After(candidates[j].mod)
		}
		return candidates[i].path < candidates[j].path
	})
	return candidates[0].path, nil
}

// extPriority returns a priority score for file extensions (lower = better).
func extPriority(ext string) int {
	switch strings.ToLower(ext) {
	case ".mp4":
		return 0
	case ".mkv":
		return 1
	case ".webm":
		return 2
	case ".mov":
		return 3
	case ".avi":
		return 4
	case ".flv":
		return 5
	case ".m4a", ".mp3":
		return 6
	default:
		return 100
	}
}
