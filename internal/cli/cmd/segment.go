package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vidgrab/internal/config"
	"vidgrab/internal/model"
	"vidgrab/internal/pipeline"
	"vidgrab/internal/progress"
	"vidgrab/internal/segment"
	"vidgrab/internal/ui"
)

func newSegmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment [url]",
		Short: "Download a long video as merged time-range segments",
		Long: `Download a long video in fixed-length segments. Each segment is fetched as
separate video and audio streams and merged into <title>_part<n>.mp4.
A failed segment is retried and then skipped; the others still run.

Without a URL, vidgrab asks for the URL, the segment length and the quality
in a loop until you enter q.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runSegment,
	}
	cmd.Flags().Int("minutes", 30, "Segment length in minutes")
	cmd.Flags().String("format-id", "", "yt-dlp format id of the video stream (default: best)")
	return cmd
}

func runSegment(cmd *cobra.Command, args []string) error {
	e, err := mustEnv(cmd)
	if err != nil {
		return err
	}
	length, err := segmentLength(cmd, e.settings)
	if err != nil {
		return err
	}
	formatID, _ := cmd.Flags().GetString("format-id")

	t, err := findTools(e.settings, true, e.logger)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		sess := &segmentSession{
			in:            bufio.NewReader(cmd.InOrStdin()),
			out:           cmd.OutOrStdout(),
			defaultLength: length,
			listFormats: func(ctx context.Context, url string) []model.VideoFormat {
				return newService(e, t, progress.Nop{}).ListFormats(ctx, url)
			},
			drive: driver(e),
			run: func(ctx context.Context, rep progress.Reporter, url string, length time.Duration, formatID string) (segment.Report, error) {
				return segmentWith(ctx, e, t, rep, url, length, formatID)
			},
		}
		return sess.loop(cmd.Context())
	}

	url := args[0]
	var report segment.Report
	err = driver(e)(cmd.Context(), url, func(ctx context.Context, rep progress.Reporter) error {
		var err error
		report, err = segmentWith(ctx, e, t, rep, url, length, formatID)
		return err
	})
	printReport(cmd.OutOrStdout(), report, err)
	return segmentExit(report, err)
}

// segmentLength prefers --minutes when given and the configured
// segment.length otherwise.
func segmentLength(cmd *cobra.Command, s config.Settings) (time.Duration, error) {
	minutes, _ := cmd.Flags().GetInt("minutes")
	length := time.Duration(minutes) * time.Minute
	if !cmd.Flags().Changed("minutes") && s.Segment.Length > 0 {
		length = s.Segment.Length
	}
	if length <= 0 {
		return 0, cliError("--minutes must be greater than 0")
	}
	return length, nil
}

// driver returns how a download reports progress: through the terminal UI
// on a TTY, through the logger otherwise.
func driver(e env) func(ctx context.Context, title string, work ui.Work) error {
	if e.tui {
		return ui.Run
	}
	return func(ctx context.Context, _ string, work ui.Work) error {
		return work(ctx, progress.NewLoggerReporter(e.logger, logInterval))
	}
}

// segmentWith runs one segmented download with the given segment length.
func segmentWith(ctx context.Context, e env, t tools, rep progress.Reporter, url string, length time.Duration, formatID string) (segment.Report, error) {
	e.settings.Segment.Length = length
	hook := pipeline.WithStateHook(func(s segment.State) {
		e.logger.Debug("segment state", zap.Stringer("state", s))
	})
	return newService(e, t, rep, hook).Segmented(ctx, url, formatID)
}

func printReport(w io.Writer, r segment.Report, err error) {
	if err != nil && r.Total == 0 {
		fmt.Fprintf(w, "Segmented download failed: %v\n", err)
		return
	}
	if r.Title != "" {
		fmt.Fprintf(w, "%s: ", r.Title)
	}
	fmt.Fprintln(w, r.Summary())
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "Failed segments: %s\n", r.FailedList())
	}
	if r.Cancelled {
		fmt.Fprintln(w, "Cancelled before all segments were attempted")
	}
	for _, p := range r.Outputs {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

// segmentExit maps a segmented run onto the process exit codes.
func segmentExit(r segment.Report, err error) error {
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, pipeline.ErrBusy)):
		return &ExitError{Code: ExitCLIError, Err: err}
	case err != nil:
		return &ExitError{Code: ExitDownloadError, Err: err}
	case r.Complete():
		return nil
	case len(r.Succeeded) > 0:
		return &ExitError{Code: ExitPartialFailure, Err: fmt.Errorf("%s; failed: %s", r.Summary(), r.FailedList())}
	case len(r.MergeFailed) > 0 && len(r.MergeFailed) == len(r.Failed):
		return &ExitError{Code: ExitMergeError, Err: errors.New("every segment failed to merge")}
	default:
		return &ExitError{Code: ExitDownloadError, Err: errors.New("every segment failed to download")}
	}
}

// segmentSession is the interactive prompt loop of "vidgrab segment".
type segmentSession struct {
	in            *bufio.Reader
	out           io.Writer
	defaultLength time.Duration

	listFormats func(ctx context.Context, url string) []model.VideoFormat
	drive       func(ctx context.Context, title string, work ui.Work) error
	run         func(ctx context.Context, rep progress.Reporter, url string, length time.Duration, formatID string) (segment.Report, error)
}

var errQuit = errors.New("quit")

// loop prompts until the user quits, input ends or ctx is cancelled.
// Failures of one download are printed and the loop continues.
func (s *segmentSession) loop(ctx context.Context) error {
	for ctx.Err() == nil {
		url, err := s.promptURL()
		if err != nil {
			return quitErr(err)
		}
		length, err := s.promptLength()
		if err != nil {
			return quitErr(err)
		}
		formatID, err := s.promptFormat(ctx, url)
		if err != nil {
			return quitErr(err)
		}

		var report segment.Report
		err = s.drive(ctx, url, func(ctx context.Context, rep progress.Reporter) error {
			var err error
			report, err = s.run(ctx, rep, url, length, formatID)
			return err
		})
		printReport(s.out, report, err)
		fmt.Fprintln(s.out)
	}
	return nil
}

func quitErr(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *segmentSession) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return line, nil
}

func (s *segmentSession) promptURL() (string, error) {
	for {
		url, err := s.readLine("Video URL (q to quit): ")
		if err != nil {
			return "", err
		}
		switch strings.ToLower(url) {
		case "":
			continue
		case "q", "quit", "exit":
			return "", errQuit
		}
		return url, nil
	}
}

func (s *segmentSession) promptLength() (time.Duration, error) {
	for {
		line, err := s.readLine(fmt.Sprintf("Segment length in minutes [%s]: ", minutesLabel(s.defaultLength)))
		if err != nil {
			return 0, err
		}
		if line == "" {
			return s.defaultLength, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n <= 0 {
			fmt.Fprintln(s.out, "Please enter a whole number of minutes greater than 0.")
			continue
		}
		return time.Duration(n) * time.Minute, nil
	}
}

// minutesLabel prints whole minutes as a bare number and anything else as a duration.
func minutesLabel(d time.Duration) string {
	if d%time.Minute == 0 {
		return strconv.Itoa(int(d / time.Minute))
	}
	return d.String()
}

// promptFormat lists the resolutions and returns the chosen format id.
// Enter, or an empty listing, means best available.
func (s *segmentSession) promptFormat(ctx context.Context, url string) (string, error) {
	formats := s.listFormats(ctx, url)
	if len(formats) == 0 {
		fmt.Fprintln(s.out, "No format list available, using best quality.")
		return "", nil
	}
	fmt.Fprintln(s.out, "Available formats:")
	printFormats(s.out, formats)
	for {
		line, err := s.readLine("Quality number (Enter for best): ")
		if err != nil {
			return "", err
		}
		if line == "" {
			return "", nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(formats) {
			fmt.Fprintf(s.out, "Please enter a number between 1 and %d.\n", len(formats))
			continue
		}
		return formats[n-1].FormatID, nil
	}
}
