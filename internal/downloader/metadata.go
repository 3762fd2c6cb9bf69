package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vidgrab/internal/engine"
	"vidgrab/internal/util"
)

// ErrNoMetadata is returned when yt-dlp produced no parseable JSON.
var ErrNoMetadata = errors.New("no metadata returned")

// FetchInfo runs a metadata-only query for url.
func FetchInfo(ctx context.Context, url string, profile engine.Profile, opts Options) (Info, error) {
	if opts.DownloaderPath == "" {
		return Info{}, errors.New("downloader path is required")
	}
	args := []string{"--dump-json", "--no-playlist", "--no-warnings"}
	args = append(args, profile.HeaderArgs(true)...)
	args = append(args, url)

	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:          opts.DownloaderPath,
		Args:          args,
		Verbose:       opts.Verbose,
		CaptureStdout: true,
	})
	if runErr != nil && len(res.Stdout) == 0 {
		return Info{}, fmt.Errorf("metadata fetch failed: %w%s", runErr, stderrTail(res.Stderr))
	}
	return decodeInfo(res.Stdout)
}

// decodeInfo parses yt-dlp JSON output. When stdout carries several lines
// the last one that decodes to an object with an id wins.
func decodeInfo(stdout []byte) (Info, error) {
	data := strings.TrimSpace(string(stdout))
	if data == "" {
		return Info{}, ErrNoMetadata
	}
	var info Info
	if err := json.Unmarshal([]byte(data), &info); err == nil && info.ID != "" {
		return info, nil
	}

	lines := strings.Split(data, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || line[0] != '{' {
			continue
		}
		var tmp Info
		if json.Unmarshal([]byte(line), &tmp) == nil && tmp.ID != "" {
			return tmp, nil
		}
	}
	return Info{}, fmt.Errorf("parse metadata JSON: %w", ErrNoMetadata)
}

// stderrTail picks the most useful line of yt-dlp's stderr for an error
// message: the last "ERROR:" line, else the last non-empty line.
func stderrTail(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		l := strings.TrimSpace(lines[i])
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "ERROR:") {
			return ": " + l
		}
		if last == "" {
			last = l
		}
	}
	if last == "" {
		return ""
	}
	return ": " + last
}
