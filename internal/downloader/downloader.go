package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vidgrab/internal/model"
	"vidgrab/internal/progress"
	"vidgrab/internal/util"
)

// Options controls downloader behavior.
type Options struct {
	DownloaderPath string // Path to yt-dlp or youtube-dl
	Verbose        bool

	Runner   util.CmdRunner    // nil uses the os/exec runner
	Reporter progress.Reporter // nil discards progress
	JobID    string
}

func (o Options) runner() util.CmdRunner {
	if o.Runner == nil {
		return util.NewDefaultRunner()
	}
	return o.Runner
}

// RunOutput is what a yt-dlp transfer produced.
type RunOutput struct {
	Files  []PrintedFile
	Stderr string
}

// Run executes yt-dlp with cfg, forwarding every output line to the
// progress bridge and collecting the files it reports.
func Run(ctx context.Context, url string, cfg model.DownloadConfig, opts Options) (RunOutput, error) {
	if opts.DownloaderPath == "" {
		return RunOutput{}, errors.New("downloader path is required")
	}
	bridge := progress.NewBridge(opts.Reporter, opts.JobID)

	// Both callbacks run on their own reader goroutine; files is only
	// touched by the stdout one and read after Run returns.
	var files []PrintedFile
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:    opts.DownloaderPath,
		Args:    Args(cfg, url),
		Verbose: opts.Verbose,
		StdoutLine: func(line string) {
			if f, ok := ParsePrinted(line); ok {
				files = append(files, f)
				return
			}
			bridge.Stdout(line)
		},
		StderrLine: bridge.Stderr,
	})
	out := RunOutput{Files: files, Stderr: string(res.Stderr)}
	if runErr != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, fmt.Errorf("downloader failed: %w%s", runErr, stderrTail(res.Stderr))
	}
	return out, nil
}

// Download runs a full download and resolves the produced file.
func Download(ctx context.Context, url string, cfg model.DownloadConfig, opts Options) (model.DownloadResult, error) {
	// File mtimes come from a coarse kernel clock and can trail time.Now.
	started := time.Now().Add(-2 * time.Second)
	out, err := Run(ctx, url, cfg, opts)
	if err != nil {
		return model.DownloadResult{URL: url}, err
	}

	path := lastExisting(out.Files)
	if path == "" {
		path, err = SelectOutputFile(cfg.OutputDir, started)
		if err != nil {
			return model.DownloadResult{URL: url}, fmt.Errorf("resolve download: %w", err)
		}
	}
	return model.DownloadResult{
		URL:        url,
		OutputPath: path,
		Bytes:      util.FileSize(path),
		Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}, nil
}

func lastExisting(files []PrintedFile) string {
	for i := len(files) - 1; i >= 0; i-- {
		if _, err := os.Stat(files[i].Path); err == nil {
			return files[i].Path
		}
	}
	return ""
}
