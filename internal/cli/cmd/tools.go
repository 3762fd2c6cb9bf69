package cmd

import (
	"go.uber.org/zap"

	"vidgrab/internal/config"
	"vidgrab/internal/pipeline"
	"vidgrab/internal/progress"
	"vidgrab/internal/util/deps"
)

// tools are the resolved external binaries.
type tools struct {
	downloader string
	ffmpeg     string
	ffprobe    string
	aria2c     string
}

// findTools resolves yt-dlp and ffmpeg, plus ffprobe when merge is set.
// aria2c is looked up only when enabled, and a missing one only disables
// acceleration.
func findTools(s config.Settings, merge bool, log *zap.Logger) (tools, error) {
	var t tools
	var err error
	if t.downloader, err = deps.FindDownloader(s.Tools.Downloader); err != nil {
		return t, &ExitError{Code: ExitMissingDep, Err: err}
	}
	if t.ffmpeg, err = deps.FindFFmpeg(s.Tools.FFmpeg); err != nil {
		return t, &ExitError{Code: ExitMissingDep, Err: err}
	}
	if merge {
		if t.ffprobe, err = deps.FindFFprobe(s.Tools.FFprobe); err != nil {
			return t, &ExitError{Code: ExitMissingDep, Err: err}
		}
	}
	if s.Aria2.Enabled {
		if t.aria2c, err = deps.FindAria2c(s.Tools.Aria2c); err != nil {
			log.Info("aria2c not found, using the built-in downloader", zap.Error(err))
			t.aria2c = ""
		}
	}
	log.Debug("tools resolved",
		zap.String("downloader", t.downloader),
		zap.String("ffmpeg", t.ffmpeg),
		zap.String("ffprobe", t.ffprobe),
		zap.String("aria2c", t.aria2c),
	)
	return t, nil
}

// newService builds a pipeline service for the resolved tools.
func newService(e env, t tools, rep progress.Reporter, extra ...pipeline.Option) *pipeline.Service {
	opts := []pipeline.Option{
		pipeline.WithDownloaderPath(t.downloader),
		pipeline.WithFFmpegPath(t.ffmpeg),
		pipeline.WithFFprobePath(t.ffprobe),
		pipeline.WithAria2Path(t.aria2c),
		pipeline.WithSettings(e.settings),
		pipeline.WithLogger(e.logger),
		pipeline.WithReporter(rep),
	}
	return pipeline.NewService(append(opts, extra...)...)
}
