package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"vidgrab/internal/model"
	"vidgrab/internal/pipeline"
	"vidgrab/internal/platform"
	"vidgrab/internal/progress"
	"vidgrab/internal/ui"
	"vidgrab/internal/util/format"
)

// logInterval throttles progress lines in plain-text mode.
const logInterval = 2 * time.Second

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Download a video, or its audio track as mp3",
		Example: `  vidgrab get https://www.youtube.com/watch?v=dQw4w9WgXcQ
  vidgrab get --height 720 https://www.bilibili.com/video/BV1xx411c7mD
  vidgrab get --audio https://youtu.be/dQw4w9WgXcQ`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0])
		},
	}
	bindGetFlags(cmd.Flags())
	return cmd
}

func bindGetFlags(fs *pflag.FlagSet) {
	fs.Bool("audio", false, "Download audio only and convert it to mp3")
	fs.Int("height", 0, "Video height to download, e.g. 1080 (0 = best available)")
	fs.Bool("no-aria2", false, "Do not delegate transfers to aria2c")
}

// getRequest turns flags and the URL argument into a download request.
func getRequest(cmd *cobra.Command, raw, outDir string) (model.DownloadRequest, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.DownloadRequest{}, cliError("a video URL is required")
	}
	audio, _ := cmd.Flags().GetBool("audio")
	height, _ := cmd.Flags().GetInt("height")
	if height < 0 {
		return model.DownloadRequest{}, cliError("invalid --height %d", height)
	}
	if audio && height > 0 {
		return model.DownloadRequest{}, cliError("--height cannot be combined with --audio")
	}
	req := model.DownloadRequest{
		URL:       raw,
		OutputDir: outDir,
		Choice:    model.ChoiceVideo,
		Height:    height,
	}
	if audio {
		req.Choice = model.ChoiceAudio
	}
	return req, nil
}

func runGet(cmd *cobra.Command, raw string) error {
	e, err := mustEnv(cmd)
	if err != nil {
		return err
	}
	req, err := getRequest(cmd, raw, e.settings.OutDir)
	if err != nil {
		return err
	}
	if noAria2, _ := cmd.Flags().GetBool("no-aria2"); noAria2 {
		e.settings.Aria2.Enabled = false
	}

	t, err := findTools(e.settings, false, e.logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if e.tui {
		err = ui.Run(ctx, platform.Normalize(req.URL), func(ctx context.Context, rep progress.Reporter) error {
			task := newService(e, t, rep).Start(ctx, req)
			e.logger.Info("download task started", zap.String("task", task.ID), zap.String("url", req.URL))
			_, err := task.Wait()
			return err
		})
		if err != nil {
			return downloadError(err)
		}
		return nil
	}

	svc := newService(e, t, progress.NewLoggerReporter(e.logger, logInterval))
	res, err := svc.Download(ctx, req)
	if err != nil {
		return downloadError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s (%s)\n", res.Output.OutputPath, format.HumanizeBytes(res.Output.Bytes))
	return nil
}

func downloadError(err error) error {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee
	}
	if errors.Is(err, pipeline.ErrBusy) || errors.Is(err, context.Canceled) {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return &ExitError{Code: ExitDownloadError, Err: fmt.Errorf("download failed: %w", err)}
}
