package downloader

import (
	"errors"
	"fmt"
	"path/filepath"

	"vidgrab/internal/config"
	"vidgrab/internal/engine"
	"vidgrab/internal/model"
	"vidgrab/internal/util"
)

// OutputTemplate is the yt-dlp file name template inside the output directory.
const OutputTemplate = "%(title)s.%(ext)s"

// Build turns a request into the immutable configuration handed to yt-dlp.
// It creates the output directory. aria2Path enables transfer delegation
// when non-empty and the settings allow it.
func Build(req model.DownloadRequest, profile engine.Profile, s config.Settings, aria2Path string) (model.DownloadConfig, error) {
	if req.OutputDir == "" {
		return model.DownloadConfig{}, errors.New("output directory is required")
	}
	if req.Height < 0 {
		return model.DownloadConfig{}, fmt.Errorf("invalid height %d", req.Height)
	}
	if err := util.EnsureDir(req.OutputDir); err != nil {
		return model.DownloadConfig{}, fmt.Errorf("create output dir: %w", err)
	}

	cfg := model.DownloadConfig{
		OutputDir:      req.OutputDir,
		OutputTemplate: filepath.Join(req.OutputDir, OutputTemplate),
		Headers:        append([]model.Header(nil), profile.Headers...),
		Tuning:         s.Download,
		Overwrites:     true,
		Continue:       true,
		NoPlaylist:     true,
	}

	switch req.Choice {
	case model.ChoiceAudio:
		cfg.FormatSelector = "bestaudio/best"
		cfg.FormatSort = s.Audio.FormatSort
		cfg.PostProcessors = []model.PostProcessor{{
			Kind:    model.PostExtractAudio,
			Codec:   s.Audio.Codec,
			Quality: s.Audio.Quality,
		}}
	case model.ChoiceVideo, "":
		if req.Height > 0 {
			cfg.FormatSelector = fmt.Sprintf("bestvideo[height=%d]+bestaudio/best", req.Height)
		} else {
			cfg.FormatSelector = "bestvideo+bestaudio/best"
		}
		cfg.MergeOutputFormat = s.Video.Container
		cfg.PostProcessors = []model.PostProcessor{{
			Kind:      model.PostRemuxVideo,
			Container: s.Video.Container,
			Args:      s.Video.RemuxArgs,
		}}
	default:
		return model.DownloadConfig{}, fmt.Errorf("unknown format choice %q", req.Choice)
	}

	if s.Aria2.Enabled && aria2Path != "" {
		cfg.External = &model.ExternalDownloader{
			Name: "aria2c",
			Path: aria2Path,
			Args: append([]string(nil), s.Aria2.Args...),
		}
	}
	return cfg, nil
}
