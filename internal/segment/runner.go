package segment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"vidgrab/internal/config"
	"vidgrab/internal/downloader"
	"vidgrab/internal/engine"
	"vidgrab/internal/merger"
	"vidgrab/internal/model"
	"vidgrab/internal/progress"
	"vidgrab/internal/util"
)

// authMarkers identify failures that retrying cannot fix.
var authMarkers = []string{
	"registered users",
	"sign in",
	"private video",
	"video unavailable",
	"members-only",
	"login required",
}

// IsAuthError reports whether err looks like an authentication or
// availability failure.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Runner drives one segmented download. Chunks run strictly one after another.
type Runner struct {
	Downloader downloader.Options
	Merger     merger.Options
	Profile    engine.Profile
	Settings   config.Settings
	OutputDir  string

	// Locator overrides the default printed-then-format-id chain.
	Locator StreamLocator
	Logger  *zap.Logger
	// OnState is called on every state transition.
	OnState func(State)
}

func (r *Runner) setState(s State) {
	if r.OnState != nil {
		r.OnState(s)
	}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) reporter() progress.Reporter {
	if r.Downloader.Reporter == nil {
		return progress.Nop{}
	}
	return r.Downloader.Reporter
}

// Run fetches metadata for url, plans the chunks and downloads each one.
// formatID selects a video format; empty means best available. A chunk
// failure never stops later chunks. The returned error is non-nil only
// when nothing could be attempted or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, url, formatID string) (Report, error) {
	r.setState(FetchingMetadata)
	info, err := downloader.FetchInfo(ctx, url, r.Profile, r.Downloader)
	if err != nil {
		r.setState(Failed)
		return Report{}, fmt.Errorf("fetch metadata: %w", err)
	}
	return r.RunInfo(ctx, url, info, formatID)
}

// RunInfo is Run with metadata already fetched.
func (r *Runner) RunInfo(ctx context.Context, url string, info downloader.Info, formatID string) (Report, error) {
	log := r.logger().With(zap.String("url", url))
	total := info.VideoInfo().Duration

	segments, err := Plan(total, r.Settings.Segment.Length)
	direct := false
	switch {
	case errors.Is(err, ErrUnknownDuration):
		log.Warn("duration unknown, downloading without splitting")
		segments = []model.Segment{{Index: 1}}
		direct = true
	case err != nil:
		r.setState(Failed)
		return Report{}, err
	case len(segments) == 1:
		direct = true
	}

	if direct {
		r.setState(DirectDownload)
	} else {
		r.setState(SegmentLoop)
	}

	locator := r.Locator
	if locator == nil {
		locator = ChainLocator{PrintedLocator{}, NewFormatIDLocator(info)}
	}

	report := Report{Title: info.Title, Total: len(segments)}
	log.Info("segmented download planned",
		zap.String("title", info.Title),
		zap.Duration("duration", total),
		zap.Int("segments", len(segments)),
	)

	for _, seg := range segments {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		chunk := ChunkRequest{
			URL:       url,
			Segment:   seg,
			Total:     len(segments),
			OutputDir: r.OutputDir,
			FormatID:  formatID,
			Title:     info.Title,
			Direct:    direct,
		}
		out, merged, err := r.runChunk(ctx, chunk, locator)
		switch {
		case err == nil:
			report.Succeeded = append(report.Succeeded, seg.Index)
			report.Outputs = append(report.Outputs, out)
		case ctx.Err() != nil:
			report.Cancelled = true
		default:
			report.Failed = append(report.Failed, seg.Index)
			if merged {
				report.MergeFailed = append(report.MergeFailed, seg.Index)
			}
			log.Error("segment failed", zap.Int("segment", seg.Index), zap.Error(err))
			r.reporter().Log(progress.Log{
				JobID:  r.Downloader.JobID,
				Stream: progress.StreamStderr,
				Line:   fmt.Sprintf("segment %d failed: %v", seg.Index, err),
			})
		}
		if report.Cancelled {
			break
		}
		if !direct {
			r.setState(SegmentLoop)
		}
	}

	if report.Complete() {
		r.setState(Done)
	} else {
		r.setState(Failed)
	}
	log.Info(report.Summary(), zap.Ints("failed", report.Failed))

	if report.Cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// runChunk downloads, locates and merges one chunk. merged is true when the
// failure happened in the merge step.
func (r *Runner) runChunk(ctx context.Context, chunk ChunkRequest, locator StreamLocator) (string, bool, error) {
	r.reporter().Update(progress.Update{
		JobID:   r.Downloader.JobID,
		Stage:   progress.StageDownloading,
		Percent: -1,
		Message: fmt.Sprintf("Segment %d/%d", chunk.Segment.Index, chunk.Total),
	})

	out, err := r.downloadWithRetry(ctx, chunk)
	if err != nil {
		return "", false, err
	}

	streams, err := locator.Locate(ctx, chunk, out.Files)
	if err != nil {
		return "", false, err
	}
	if streams.Muxed != "" {
		// A muxed pick makes the separately fetched bestaudio redundant.
		for _, p := range []string{streams.Video, streams.Audio} {
			if p != "" && p != streams.Muxed {
				if err := util.RemoveIfExists(p); err != nil {
					r.logger().Warn("remove unused stream", zap.String("path", p), zap.Error(err))
				}
			}
		}
		return streams.Muxed, false, nil
	}

	r.setState(Merging)
	final := filepath.Join(chunk.OutputDir, fmt.Sprintf("%s_part%d.mp4", util.SanitizeFilename(chunk.Title), chunk.Segment.Index))
	mopts := r.Merger
	mopts.JobID = r.Downloader.JobID
	if mopts.Reporter == nil {
		mopts.Reporter = r.Downloader.Reporter
	}
	if _, err := merger.Merge(ctx, merger.Input{
		VideoPath:  streams.Video,
		AudioPath:  streams.Audio,
		OutputPath: final,
		Duration:   chunk.Segment.Duration,
	}, mopts); err != nil {
		return "", true, err
	}
	return final, false, nil
}

// downloadWithRetry makes up to 1+Retries attempts with a fixed delay,
// giving up at once on authentication and availability errors.
func (r *Runner) downloadWithRetry(ctx context.Context, chunk ChunkRequest) (downloader.RunOutput, error) {
	cfg, err := ChunkConfig(chunk, r.Profile, r.Settings)
	if err != nil {
		return downloader.RunOutput{}, err
	}
	log := r.logger().With(zap.Int("segment", chunk.Segment.Index))
	attempts := 1 + r.Settings.Segment.Retries

	for attempt := 1; ; attempt++ {
		out, err := downloader.Run(ctx, chunk.URL, cfg, r.Downloader)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if IsAuthError(err) {
			log.Warn("access denied, not retrying", zap.Error(err))
			return out, err
		}
		if attempt >= attempts {
			return out, fmt.Errorf("after %d attempts: %w", attempt, err)
		}

		log.Warn("segment download failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", r.Settings.Segment.RetryDelay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(r.Settings.Segment.RetryDelay):
		}
	}
}

// ChunkConfig builds the yt-dlp configuration for one chunk. Video and audio
// are fetched as separate files so the merge step controls the container.
func ChunkConfig(chunk ChunkRequest, profile engine.Profile, s config.Settings) (model.DownloadConfig, error) {
	if chunk.OutputDir == "" {
		return model.DownloadConfig{}, errors.New("output directory is required")
	}
	if err := os.MkdirAll(chunk.OutputDir, 0o755); err != nil {
		return model.DownloadConfig{}, fmt.Errorf("create output dir: %w", err)
	}

	selector := "bestvideo,bestaudio/best"
	if chunk.FormatID != "" {
		selector = chunk.FormatID + ",bestaudio"
	}
	cfg := model.DownloadConfig{
		OutputDir:      chunk.OutputDir,
		OutputTemplate: filepath.Join(chunk.OutputDir, fmt.Sprintf("%%(title)s_part%d.f%%(format_id)s.%%(ext)s", chunk.Segment.Index)),
		FormatSelector: selector,
		Headers:        append([]model.Header(nil), profile.Headers...),
		Tuning:         s.Download,
		Overwrites:     true,
		Continue:       true,
		NoPlaylist:     true,
	}
	if !chunk.Direct {
		cfg.Sections = []string{Section(chunk.Segment)}
	}
	return cfg, nil
}
