// Package merger multiplexes separately downloaded video and audio streams
// with ffmpeg and verifies the result with ffprobe.
package merger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"vidgrab/internal/progress"
	"vidgrab/internal/util"
)

// DefaultTimeout bounds a single ffmpeg merge.
const DefaultTimeout = 600 * time.Second

var (
	// ErrVerify is returned when the merged file lacks a video or audio stream.
	ErrVerify = errors.New("merged output failed verification")
	// ErrMissingInput is returned when either elementary stream path is empty.
	ErrMissingInput = errors.New("merge needs both a video and an audio input")
)

// Options control ffmpeg and ffprobe execution.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	AudioCodec  string        // "aac" (default) or "copy"
	Timeout     time.Duration // 0 uses DefaultTimeout
	Verbose     bool

	Runner   util.CmdRunner
	Reporter progress.Reporter
	JobID    string
}

func (o Options) runner() util.CmdRunner {
	if o.Runner == nil {
		return util.NewDefaultRunner()
	}
	return o.Runner
}

// Input names the two elementary streams and the merged destination.
type Input struct {
	VideoPath  string
	AudioPath  string
	OutputPath string
	Duration   time.Duration // expected length, for progress; 0 if unknown
}

// Output describes a verified merged file.
type Output struct {
	Path    string
	Bytes   int64
	Streams StreamInfo
}

// StreamInfo counts the streams ffprobe found in a file.
type StreamInfo struct {
	Video int
	Audio int
	Size  int64
}

// Verified reports whether the file is non-empty and carries both stream kinds.
func (s StreamInfo) Verified() bool {
	return s.Size > 0 && s.Video > 0 && s.Audio > 0
}

// Merge runs ffmpeg, verifies the output and only then deletes both inputs.
// On any failure the inputs are kept and a partial output is removed.
func Merge(ctx context.Context, in Input, opts Options) (Output, error) {
	if opts.FFmpegPath == "" {
		return Output{}, errors.New("ffmpeg path is required")
	}
	if in.VideoPath == "" || in.AudioPath == "" {
		return Output{}, ErrMissingInput
	}
	if in.OutputPath == "" {
		return Output{}, errors.New("output path is required")
	}
	if err := util.EnsureDir(filepath.Dir(in.OutputPath)); err != nil {
		return Output{}, fmt.Errorf("ensure output dir: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}

	state := &ProgressState{}
	_, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:    opts.FFmpegPath,
		Args:    BuildMergeArgs(in.VideoPath, in.AudioPath, in.OutputPath, opts.AudioCodec, true),
		Verbose: opts.Verbose,
		Timeout: timeout,
		StdoutLine: func(line string) {
			if u, ok := state.UpdateFromLine(line, opts.JobID, in.Duration); ok {
				reporter.Update(u)
			}
		},
		StderrLine: func(line string) {
			reporter.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
		},
	})
	if runErr != nil {
		_ = util.RemoveIfExists(in.OutputPath)
		return Output{}, fmt.Errorf("ffmpeg failed: %w", runErr)
	}

	info, err := Probe(ctx, in.OutputPath, opts)
	if err != nil {
		_ = util.RemoveIfExists(in.OutputPath)
		return Output{}, fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if !info.Verified() {
		_ = util.RemoveIfExists(in.OutputPath)
		return Output{}, fmt.Errorf("%w: %d video, %d audio streams, %d bytes", ErrVerify, info.Video, info.Audio, info.Size)
	}

	for _, p := range []string{in.VideoPath, in.AudioPath} {
		if err := util.RemoveIfExists(p); err != nil {
			reporter.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: "remove " + p + ": " + err.Error()})
		}
	}

	return Output{Path: in.OutputPath, Bytes: info.Size, Streams: info}, nil
}

type probeResult struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Probe asks ffprobe which stream kinds path contains.
func Probe(ctx context.Context, path string, opts Options) (StreamInfo, error) {
	if opts.FFprobePath == "" {
		return StreamInfo{}, errors.New("ffprobe path is required")
	}
	res, err := opts.runner().Run(ctx, util.CmdSpec{
		Path:          opts.FFprobePath,
		Args:          BuildProbeArgs(path),
		Verbose:       opts.Verbose,
		CaptureStdout: true,
		Timeout:       time.Minute,
	})
	if err != nil {
		return StreamInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var parsed probeResult
	if err := json.Unmarshal(res.Stdout, &parsed); err != nil {
		return StreamInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := StreamInfo{Size: util.FileSize(path)}
	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			info.Video++
		case "audio":
			info.Audio++
		}
	}
	return info, nil
}
