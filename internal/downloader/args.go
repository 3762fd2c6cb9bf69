package downloader

import (
	"strconv"
	"strings"
	"time"

	"vidgrab/internal/model"
	"vidgrab/internal/progress"
)

// PrintPrefix marks the line yt-dlp prints for every file it finishes.
const PrintPrefix = "[file] "

// printTemplate reports stream kinds with each path so callers do not have
// to guess what a file contains from its name.
const printTemplate = "after_move:" + PrintPrefix + "%(vcodec)s|%(acodec)s|%(filepath)s"

// Args translates cfg into yt-dlp command-line arguments for url.
func Args(cfg model.DownloadConfig, url string) []string {
	args := []string{
		"-o", cfg.OutputTemplate,
		"-f", cfg.FormatSelector,
	}
	if cfg.FormatSort != "" {
		args = append(args, "-S", cfg.FormatSort)
	}
	if cfg.MergeOutputFormat != "" {
		args = append(args, "--merge-output-format", cfg.MergeOutputFormat)
	}
	for _, pp := range cfg.PostProcessors {
		args = append(args, postProcessorArgs(pp)...)
	}
	for _, section := range cfg.Sections {
		args = append(args, "--download-sections", section)
	}
	for _, h := range cfg.Headers {
		args = append(args, "--add-header", h.Arg())
	}
	args = append(args, tuningArgs(cfg.Tuning)...)

	if cfg.External != nil {
		name := cfg.External.Path
		if name == "" {
			name = cfg.External.Name
		}
		args = append(args, "--downloader", name)
		if len(cfg.External.Args) > 0 {
			args = append(args, "--downloader-args", cfg.External.Name+":"+strings.Join(cfg.External.Args, " "))
		}
	}
	// --force-overwrites implies --no-continue, so resuming wins when both are set.
	switch {
	case cfg.Continue:
		args = append(args, "--continue")
	case cfg.Overwrites:
		args = append(args, "--force-overwrites")
	}
	if cfg.NoPlaylist {
		args = append(args, "--no-playlist")
	}

	// --print implies --quiet; --progress keeps the hook lines coming.
	args = append(args,
		"--newline",
		"--progress",
		"--progress-template", progress.HookTemplate,
		"--print", printTemplate,
		url,
	)
	return args
}

func postProcessorArgs(pp model.PostProcessor) []string {
	switch pp.Kind {
	case model.PostExtractAudio:
		args := []string{"-x", "--audio-format", pp.Codec}
		if pp.Quality != "" {
			args = append(args, "--audio-quality", pp.Quality+"K")
		}
		return args
	case model.PostRemuxVideo:
		args := []string{"--remux-video", pp.Container}
		if pp.Args != "" {
			args = append(args, "--postprocessor-args", "VideoRemuxer:"+pp.Args)
		}
		return args
	default:
		return nil
	}
}

func tuningArgs(t model.Tuning) []string {
	var args []string
	addInt := func(flag string, v int64) {
		if v > 0 {
			args = append(args, flag, strconv.FormatInt(v, 10))
		}
	}
	addSeconds := func(flag string, d time.Duration) {
		if d > 0 {
			args = append(args, flag, strconv.FormatFloat(d.Seconds(), 'f', -1, 64))
		}
	}
	addInt("--concurrent-fragments", int64(t.ConcurrentFragments))
	addInt("--retries", int64(t.Retries))
	addInt("--fragment-retries", int64(t.FragmentRetries))
	addInt("--http-chunk-size", t.HTTPChunkSize)
	addInt("--buffer-size", int64(t.BufferSize))
	addSeconds("--socket-timeout", t.SocketTimeout)
	addInt("--file-access-retries", int64(t.FileAccessRetries))
	addInt("--extractor-retries", int64(t.ExtractorRetries))
	addSeconds("--sleep-interval", t.SleepInterval)
	addSeconds("--max-sleep-interval", t.MaxSleepInterval)
	return args
}

// PrintedFile is one file yt-dlp reported after moving it into place.
type PrintedFile struct {
	VideoCodec string
	AudioCodec string
	Path       string
}

// HasVideo reports whether the file carries a video stream.
func (p PrintedFile) HasVideo() bool { return hasCodec(p.VideoCodec) }

// HasAudio reports whether the file carries an audio stream.
func (p PrintedFile) HasAudio() bool { return hasCodec(p.AudioCodec) }

// ParsePrinted parses a line produced by printTemplate.
func ParsePrinted(line string) (PrintedFile, bool) {
	if !strings.HasPrefix(line, PrintPrefix) {
		return PrintedFile{}, false
	}
	parts := strings.SplitN(strings.TrimPrefix(line, PrintPrefix), "|", 3)
	if len(parts) != 3 || strings.TrimSpace(parts[2]) == "" {
		return PrintedFile{}, false
	}
	return PrintedFile{
		VideoCodec: strings.TrimSpace(parts[0]),
		AudioCodec: strings.TrimSpace(parts[1]),
		Path:       strings.TrimSpace(parts[2]),
	}, true
}
