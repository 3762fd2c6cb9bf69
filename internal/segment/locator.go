package segment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"vidgrab/internal/downloader"
	"vidgrab/internal/model"
)

// ErrNoStreams is returned when a chunk's files cannot be identified.
var ErrNoStreams = errors.New("could not identify downloaded streams")

// ChunkRequest is one chunk of a segmented download.
type ChunkRequest struct {
	URL       string
	Segment   model.Segment
	Total     int
	OutputDir string
	FormatID  string
	Title     string
	// Direct downloads the whole video without a time range.
	Direct bool
}

// Streams are the files a chunk produced. Either Muxed is set, or both
// Video and Audio are. When Muxed is set any other stream is unused.
type Streams struct {
	Video string
	Audio string
	Muxed string
}

// Usable reports whether the streams can produce a final file.
func (s Streams) Usable() bool {
	return s.Muxed != "" || (s.Video != "" && s.Audio != "")
}

// StreamLocator finds the files a chunk download produced.
type StreamLocator interface {
	Locate(ctx context.Context, chunk ChunkRequest, printed []downloader.PrintedFile) (Streams, error)
}

// PrintedLocator trusts the codec fields yt-dlp printed for each file.
type PrintedLocator struct{}

func (PrintedLocator) Locate(_ context.Context, _ ChunkRequest, printed []downloader.PrintedFile) (Streams, error) {
	var s Streams
	for _, f := range printed {
		switch {
		case f.HasVideo() && f.HasAudio():
			s.Muxed = f.Path
		case f.HasVideo():
			s.Video = f.Path
		case f.HasAudio():
			s.Audio = f.Path
		}
	}
	if !s.Usable() {
		return Streams{}, fmt.Errorf("%w: %d printed files", ErrNoStreams, len(printed))
	}
	return s, nil
}

// FormatIDLocator classifies the chunk's files by the format id embedded in
// their names (".f<id>."), checked against known format-id sets.
type FormatIDLocator struct {
	Video map[string]bool
	Audio map[string]bool
	Muxed map[string]bool
}

// NewFormatIDLocator builds the id sets from a metadata query.
func NewFormatIDLocator(info downloader.Info) FormatIDLocator {
	return FormatIDLocator{
		Video: info.VideoFormatIDs(),
		Audio: info.AudioFormatIDs(),
		Muxed: info.MuxedFormatIDs(),
	}
}

var formatIDInName = regexp.MustCompile(`\.f([\w-]+)\.[[:alnum:]]+$`)

func (l FormatIDLocator) Locate(_ context.Context, chunk ChunkRequest, _ []downloader.PrintedFile) (Streams, error) {
	pattern := filepath.Join(chunk.OutputDir, fmt.Sprintf("*_part%d.f*", chunk.Segment.Index))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return Streams{}, err
	}

	var s Streams
	for _, path := range matches {
		m := formatIDInName.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		id := m[1]
		switch {
		case l.Muxed[id]:
			s.Muxed = path
		case l.Video[id]:
			s.Video = path
		case l.Audio[id]:
			s.Audio = path
		}
	}
	if !s.Usable() {
		return Streams{}, fmt.Errorf("%w: %d files match %s", ErrNoStreams, len(matches), filepath.Base(pattern))
	}
	return s, nil
}

// ChainLocator returns the first usable result.
type ChainLocator []StreamLocator

func (c ChainLocator) Locate(ctx context.Context, chunk ChunkRequest, printed []downloader.PrintedFile) (Streams, error) {
	err := ErrNoStreams
	for _, l := range c {
		s, lerr := l.Locate(ctx, chunk, printed)
		if lerr == nil && s.Usable() {
			return s, nil
		}
		if lerr != nil {
			err = lerr
		}
	}
	return Streams{}, err
}
