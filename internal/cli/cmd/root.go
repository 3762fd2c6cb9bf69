package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vidgrab/internal/config"
	"vidgrab/internal/dirs"
	"vidgrab/internal/logging"
	"vidgrab/internal/ui"
)

const (
	ExitOK             = 0
	ExitCLIError       = 1
	ExitMissingDep     = 2
	ExitDownloadError  = 3
	ExitMergeError     = 4
	ExitPartialFailure = 5
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vidgrab [url]",
		Short: "Download YouTube and Bilibili videos",
		Long: `vidgrab downloads videos and audio from YouTube and Bilibili through yt-dlp,
optionally accelerated by aria2c. Long videos can be fetched as a series of
time-range segments that are merged with ffmpeg one by one.

Without a subcommand, "vidgrab <url>" behaves like "vidgrab get <url>".`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if env, ok := envFrom(cmd); ok {
				_ = env.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runGet(cmd, args[0])
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("out-dir", "o", "", "Output directory (default ~/Downloads)")
	pf.BoolP("verbose", "v", false, "Show full subprocess commands/output")
	pf.Bool("no-ui", false, "Disable the TUI; log progress as plain text")
	pf.String("dl-binary", "", "Path to yt-dlp or youtube-dl")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("config", "", "Config file (default is $XDG_CONFIG_HOME/vidgrab/config.yaml)")

	// `vidgrab <url>` accepts the same flags as `vidgrab get <url>`.
	bindGetFlags(root.Flags())

	root.AddCommand(newGetCmd())
	root.AddCommand(newFormatsCmd())
	root.AddCommand(newSegmentCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

type ctxKey string

const envKey ctxKey = "env"

// env is what every command needs once flags and config are resolved.
type env struct {
	settings config.Settings
	logger   *zap.Logger
	tui      bool
}

func envFrom(cmd *cobra.Command) (env, bool) {
	if cmd.Context() == nil {
		return env{}, false
	}
	e, ok := cmd.Context().Value(envKey).(env)
	return e, ok
}

func mustEnv(cmd *cobra.Command) (env, error) {
	e, ok := envFrom(cmd)
	if !ok {
		return env{}, &ExitError{Code: ExitCLIError, Err: errors.New("command not initialized")}
	}
	return e, nil
}

// setup loads configuration and builds the logger. While the TUI owns the
// terminal, logs go to the state-dir log file instead of stderr.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.Init(cmd.Root()); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	s, err := config.Load()
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	tui := !s.NoUI && ui.IsTerminal()
	logCfg := s.Logging
	if s.Verbose {
		logCfg.Level = "debug"
	}
	if tui && isStdStream(logCfg.OutputPath) {
		if p, err := dirs.LogFile(); err == nil {
			logCfg.OutputPath = p
		}
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		logger = logging.NewDefault()
		logger.Warn("falling back to stderr logging", zap.Error(err))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, envKey, env{settings: s, logger: logger, tui: tui}))
	logger.Debug("configuration loaded",
		zap.String("out_dir", s.OutDir),
		zap.Bool("tui", tui),
		zap.Bool("aria2", s.Aria2.Enabled),
		zap.Duration("segment_length", s.Segment.Length),
	)
	return nil
}

func isStdStream(path string) bool {
	return path == "" || path == "stdout" || path == "stderr"
}

func cliError(format string, args ...any) error {
	return &ExitError{Code: ExitCLIError, Err: fmt.Errorf(format, args...)}
}
