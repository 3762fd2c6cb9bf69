// Package pipeline wires URL resolution, format listing, downloads and
// segmented downloads into one service used by the CLI and the TUI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vidgrab/internal/config"
	"vidgrab/internal/downloader"
	"vidgrab/internal/engine"
	"vidgrab/internal/merger"
	"vidgrab/internal/model"
	"vidgrab/internal/platform"
	"vidgrab/internal/progress"
	"vidgrab/internal/segment"
	"vidgrab/internal/util"
	"vidgrab/internal/util/format"
)

// ErrBusy is returned when a download is started while another is running.
var ErrBusy = errors.New("a download is already in progress")

// Service orchestrates the resolve → configure → download workflow.
type Service struct {
	dlPath      string
	ffmpegPath  string
	ffprobePath string
	aria2Path   string
	settings    config.Settings
	runner      util.CmdRunner
	reporter    progress.Reporter
	logger      *zap.Logger
	jobID       string
	onState     func(segment.State)

	busy atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithDownloaderPath sets the yt-dlp binary path.
func WithDownloaderPath(p string) Option {
	return func(s *Service) {
		s.dlPath = p
	}
}

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithFFprobePath sets the ffprobe binary path.
func WithFFprobePath(p string) Option {
	return func(s *Service) {
		s.ffprobePath = p
	}
}

// WithAria2Path enables aria2c delegation when the settings allow it.
func WithAria2Path(p string) Option {
	return func(s *Service) {
		s.aria2Path = p
	}
}

// WithSettings replaces the default settings.
func WithSettings(cfg config.Settings) Option {
	return func(s *Service) {
		s.settings = cfg
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter (used by TUI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithJobID sets the job ID associated with reporter events.
func WithJobID(id string) Option {
	return func(s *Service) {
		s.jobID = id
	}
}

// WithStateHook observes segmented download state transitions.
func WithStateHook(fn func(segment.State)) Option {
	return func(s *Service) {
		s.onState = fn
	}
}

// NewService constructs a new Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{settings: config.DefaultSettings()}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Result is the outcome of a single download.
type Result struct {
	URL      string
	Platform platform.Platform
	Config   model.DownloadConfig
	Output   model.DownloadResult
}

// Resolve normalizes raw and picks its engine profile. Unknown sites fall
// back to the YouTube profile with a warning.
func (s *Service) Resolve(raw string) (string, engine.Profile) {
	url := platform.Normalize(strings.TrimSpace(raw))
	profile := engine.Select(url)
	if profile.Fallback {
		s.logger.Warn("unrecognized URL, trying the default engine",
			zap.String("url", url),
			zap.String("engine", profile.Name),
		)
		s.reporter.Log(progress.Log{
			JobID:  s.jobID,
			Stream: progress.StreamStderr,
			Line:   fmt.Sprintf("warning: %s is not a recognized YouTube or Bilibili URL, trying %s", url, profile.Name),
		})
	}
	return url, profile
}

// Info fetches metadata for raw.
func (s *Service) Info(ctx context.Context, raw string) (downloader.Info, error) {
	if s.dlPath == "" {
		return downloader.Info{}, errors.New("downloader path is required")
	}
	url, profile := s.Resolve(raw)
	return downloader.FetchInfo(ctx, url, profile, s.downloaderOptions(s.jobID))
}

// ListFormats returns the selectable resolutions of raw. Any failure yields
// an empty list; the reason is logged.
func (s *Service) ListFormats(ctx context.Context, raw string) []model.VideoFormat {
	if s.dlPath == "" {
		s.logger.Error("cannot list formats", zap.Error(errors.New("downloader path is required")))
		return []model.VideoFormat{}
	}
	url, profile := s.Resolve(raw)
	formats, err := downloader.ListFormats(ctx, url, profile, s.downloaderOptions(s.jobID))
	if err != nil {
		s.logger.Error("format listing failed", zap.String("url", url), zap.Error(err))
		return []model.VideoFormat{}
	}
	if formats == nil {
		formats = []model.VideoFormat{}
	}
	s.logger.Debug("formats listed", zap.String("url", url), zap.Int("count", len(formats)))
	return formats
}

// Download runs one download to completion. Only one download may be in
// flight per Service; a concurrent call fails with ErrBusy.
func (s *Service) Download(ctx context.Context, req model.DownloadRequest) (Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Result{URL: req.URL}, ErrBusy
	}
	defer s.busy.Store(false)
	return s.download(ctx, req, s.taskJobID())
}

func (s *Service) download(ctx context.Context, req model.DownloadRequest, jobID string) (Result, error) {
	res := Result{URL: req.URL}
	if s.dlPath == "" {
		return res, s.fail(jobID, errors.New("downloader path is required"))
	}

	url, profile := s.Resolve(req.URL)
	res.URL = url
	res.Platform = profile.Platform
	req.URL = url
	if req.OutputDir == "" {
		req.OutputDir = s.settings.OutDir
	}

	cfg, err := downloader.Build(req, profile, s.settings, s.aria2Path)
	if err != nil {
		return res, s.fail(jobID, fmt.Errorf("build config: %w", err))
	}
	res.Config = cfg

	log := s.logger.With(zap.String("url", url), zap.String("platform", profile.Platform.String()), zap.String("job", jobID))
	log.Info("download started",
		zap.String("choice", string(req.Choice)),
		zap.Int("height", req.Height),
		zap.String("dir", cfg.OutputDir),
		zap.Bool("aria2c", cfg.External != nil),
	)
	s.reporter.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageDownloading,
		Percent: -1,
		Message: "Starting download",
	})

	out, err := downloader.Download(ctx, url, cfg, s.downloaderOptions(jobID))
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("download cancelled")
		} else {
			log.Error("download failed", zap.Error(err))
		}
		return res, s.fail(jobID, err)
	}
	res.Output = out

	log.Info("download finished", zap.String("path", out.OutputPath), zap.Int64("bytes", out.Bytes))
	s.emitSaved(jobID, out)
	return res, nil
}

// Segmented downloads raw in time-range chunks. formatID selects the video
// format; empty means best available. It shares the busy gate with Download.
func (s *Service) Segmented(ctx context.Context, raw, formatID string) (segment.Report, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return segment.Report{}, ErrBusy
	}
	defer s.busy.Store(false)

	switch {
	case s.dlPath == "":
		return segment.Report{}, errors.New("downloader path is required")
	case s.ffmpegPath == "" || s.ffprobePath == "":
		return segment.Report{}, errors.New("ffmpeg and ffprobe paths are required")
	}

	url, profile := s.Resolve(raw)
	jobID := s.taskJobID()
	r := &segment.Runner{
		Downloader: s.downloaderOptions(jobID),
		Merger: merger.Options{
			FFmpegPath:  s.ffmpegPath,
			FFprobePath: s.ffprobePath,
			AudioCodec:  s.settings.Merge.AudioCodec,
			Timeout:     s.settings.Merge.Timeout,
			Verbose:     s.settings.Verbose,
			Runner:      s.runner,
			Reporter:    s.reporter,
			JobID:       jobID,
		},
		Profile:   profile,
		Settings:  s.settings,
		OutputDir: s.settings.OutDir,
		Logger:    s.logger.With(zap.String("job", jobID)),
		OnState:   s.onState,
	}

	report, err := r.Run(ctx, url, formatID)
	switch {
	case err != nil:
		s.reporter.Result(progress.Result{JobID: jobID, Err: err})
	case !report.Complete():
		s.reporter.Result(progress.Result{
			JobID: jobID,
			Err:   fmt.Errorf("%s; failed: %s", report.Summary(), report.FailedList()),
		})
	default:
		s.reporter.Update(progress.Update{
			JobID:   jobID,
			Stage:   progress.StageCompleted,
			Percent: 100,
			Message: report.Summary(),
		})
		s.reporter.Result(progress.Result{JobID: jobID, OutputPath: s.settings.OutDir})
	}
	return report, err
}

func (s *Service) taskJobID() string {
	if s.jobID != "" {
		return s.jobID
	}
	return uuid.NewString()
}

func (s *Service) downloaderOptions(jobID string) downloader.Options {
	return downloader.Options{
		DownloaderPath: s.dlPath,
		Verbose:        s.settings.Verbose,
		Runner:         s.runner,
		Reporter:       s.reporter,
		JobID:          jobID,
	}
}

// fail reports err as the job's terminal result and returns it.
func (s *Service) fail(jobID string, err error) error {
	s.reporter.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageError,
		Percent: -1,
		Message: err.Error(),
	})
	s.reporter.Result(progress.Result{JobID: jobID, Err: err})
	return err
}

// emitSaved sends a final "saved" update and reporter result for TUI.
func (s *Service) emitSaved(jobID string, out model.DownloadResult) {
	s.reporter.Update(progress.Update{
		JobID:   jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", filepath.Base(out.OutputPath), format.HumanizeBytes(out.Bytes)),
	})
	s.reporter.Result(progress.Result{
		JobID:      jobID,
		OutputPath: out.OutputPath,
		Bytes:      out.Bytes,
	})
}
