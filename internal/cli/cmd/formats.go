package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vidgrab/internal/model"
	"vidgrab/internal/progress"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "formats <url>",
		Short:         "List the available video resolutions",
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
			formats := newService(e, t, progress.Nop{}).ListFormats(cmd.Context(), args[0])
			if len(formats) == 0 {
				return &ExitError{Code: ExitDownloadError, Err: errors.New("no video formats found")}
			}
			printFormats(cmd.OutOrStdout(), formats)
			return nil
		},
	}
}

// printFormats writes one numbered line per format, e.g.
// "1. 1080p (mp4) - 12.3MB".
func printFormats(w io.Writer, formats []model.VideoFormat) {
	for i, f := range formats {
		fmt.Fprintf(w, "%d. %s (%s) - %s\n", i+1, f.Quality, f.Ext, f.SizeLabel())
	}
}
