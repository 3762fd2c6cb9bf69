package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"vidgrab/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (yt-dlp, ffmpeg, ffprobe, aria2c)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := mustEnv(cmd)
			if err != nil {
				return err
			}
			tp := e.settings.Tools
			report := deps.Check(deps.Paths{
				Downloader: tp.Downloader,
				FFmpeg:     tp.FFmpeg,
				FFprobe:    tp.FFprobe,
				Aria2c:     tp.Aria2c,
			})
			if missing := printDoctor(cmd.OutOrStdout(), report); missing > 0 {
				return &ExitError{Code: ExitMissingDep, Err: errors.New("required tools are missing")}
			}
			return nil
		},
	}
}

// printDoctor writes one line per tool and returns how many required tools
// are missing.
func printDoctor(w io.Writer, tools []deps.Tool) int {
	missing := 0
	for _, t := range tools {
		switch {
		case t.Err == nil:
			fmt.Fprintf(w, "%-8s %s\n", t.Name+":", t.Path)
		case t.Optional:
			fmt.Fprintf(w, "%-8s not found (optional, downloads will not be accelerated)\n", t.Name+":")
		default:
			missing++
			fmt.Fprintf(w, "%-8s MISSING: %v\n", t.Name+":", t.Err)
		}
	}
	return missing
}
