package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrNotFound is wrapped by every lookup failure so callers can map it to
// the missing-dependency exit code.
var ErrNotFound = errors.New("dependency not found")

// FindDownloader returns the path to yt-dlp or youtube-dl.
// If customPath is non-empty, it tries that path or looks it up in PATH.
func FindDownloader(customPath string) (string, error) {
	if customPath != "" {
		return lookup(customPath)
	}
	if p, err := exec.LookPath("yt-dlp"); err == nil {
		return p, nil
	}
	if p, err := exec.LookPath("youtube-dl"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: yt-dlp or youtube-dl not in PATH, please install yt-dlp", ErrNotFound)
}

// FindFFmpeg returns the ffmpeg binary, preferring customPath when set.
func FindFFmpeg(customPath string) (string, error) {
	return findTool("ffmpeg", customPath)
}

// FindFFprobe returns the ffprobe binary, preferring customPath when set.
func FindFFprobe(customPath string) (string, error) {
	return findTool("ffprobe", customPath)
}

// FindAria2c returns the aria2c binary. aria2c is optional, so callers
// usually treat an error as "acceleration disabled".
func FindAria2c(customPath string) (string, error) {
	return findTool("aria2c", customPath)
}

// Tool is one row of a dependency report.
type Tool struct {
	Name     string
	Path     string
	Optional bool
	Err      error
}

// Paths holds user overrides for every external binary.
type Paths struct {
	Downloader string
	FFmpeg     string
	FFprobe    string
	Aria2c     string
}

// Check resolves every external tool and reports each outcome.
func Check(p Paths) []Tool {
	var out []Tool
	add := func(name string, optional bool, path string, err error) {
		out = append(out, Tool{Name: name, Path: path, Optional: optional, Err: err})
	}
	path, err := FindDownloader(p.Downloader)
	add("yt-dlp", false, path, err)
	path, err = FindFFmpeg(p.FFmpeg)
	add("ffmpeg", false, path, err)
	path, err = FindFFprobe(p.FFprobe)
	add("ffprobe", false, path, err)
	path, err = FindAria2c(p.Aria2c)
	add("aria2c", true, path, err)
	return out
}

func findTool(name, customPath string) (string, error) {
	if customPath != "" {
		return lookup(customPath)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s not in PATH, please install %s", ErrNotFound, name, name)
}

func lookup(customPath string) (string, error) {
	if _, err := os.Stat(customPath); err == nil {
		return customPath, nil
	}
	if p, err := exec.LookPath(customPath); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: nothing at %q", ErrNotFound, customPath)
}
