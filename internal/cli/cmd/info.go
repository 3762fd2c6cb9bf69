package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"vidgrab/internal/downloader"
	"vidgrab/internal/platform"
	"vidgrab/internal/progress"
	"vidgrab/internal/util/format"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "info <url>",
		Short:         "Show what vidgrab knows about a URL",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := mustEnv(cmd)
			if err != nil {
				return err
			}
			t, err := findTools(e.settings, false, e.logger)
			if err != nil {
				return err
			}
			info, err := newService(e, t, progress.Nop{}).Info(cmd.Context(), args[0])
			if err != nil {
				return &ExitError{Code: ExitDownloadError, Err: err}
			}
			printInfo(cmd.OutOrStdout(), args[0], info)
			return nil
		},
	}
}

func printInfo(w io.Writer, raw string, info downloader.Info) {
	url := platform.Normalize(raw)
	id, ok := platform.VideoID(url)
	if !ok {
		id = info.ID
	}
	v := info.VideoInfo()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Platform:\t%s\n", platform.Detect(url))
	fmt.Fprintf(tw, "URL:\t%s\n", url)
	fmt.Fprintf(tw, "Video ID:\t%s\n", id)
	fmt.Fprintf(tw, "Title:\t%s\n", v.Title)
	if v.Uploader != "" {
		fmt.Fprintf(tw, "Uploader:\t%s\n", v.Uploader)
	}
	if v.Duration > 0 {
		fmt.Fprintf(tw, "Duration:\t%s\n", format.Clock(v.Duration.Round(time.Second)))
	} else {
		fmt.Fprintf(tw, "Duration:\tunknown\n")
	}
	fmt.Fprintf(tw, "Formats:\t%d resolutions\n", len(downloader.SelectFormats(info.Formats)))
	_ = tw.Flush()
}
