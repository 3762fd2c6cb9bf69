// Package config loads vidgrab settings from defaults, a config file,
// VIDGRAB_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vidgrab/internal/dirs"
	"vidgrab/internal/logging"
	"vidgrab/internal/model"
)

// EnvPrefix is prepended to every environment override, e.g. VIDGRAB_OUT_DIR.
const EnvPrefix = "VIDGRAB"

// Settings is the complete runtime configuration.
type Settings struct {
	OutDir   string          `mapstructure:"out_dir"`
	Verbose  bool            `mapstructure:"verbose"`
	NoUI     bool            `mapstructure:"no_ui"`
	Tools    ToolPaths       `mapstructure:"tools"`
	Download model.Tuning    `mapstructure:"download"`
	Aria2    Aria2Settings   `mapstructure:"aria2"`
	Audio    AudioSettings   `mapstructure:"audio"`
	Video    VideoSettings   `mapstructure:"video"`
	Segment  SegmentSettings `mapstructure:"segment"`
	Merge    MergeSettings   `mapstructure:"merge"`
	Logging  logging.Config  `mapstructure:"logging"`
}

// ToolPaths overrides PATH lookup for external binaries.
type ToolPaths struct {
	Downloader string `mapstructure:"downloader"`
	FFmpeg     string `mapstructure:"ffmpeg"`
	FFprobe    string `mapstructure:"ffprobe"`
	Aria2c     string `mapstructure:"aria2c"`
}

// Aria2Settings controls delegation of transfers to aria2c.
type Aria2Settings struct {
	Enabled bool     `mapstructure:"enabled"`
	Args    []string `mapstructure:"args"`
}

// AudioSettings controls audio-only downloads.
type AudioSettings struct {
	Codec      string `mapstructure:"codec"`
	Quality    string `mapstructure:"quality"`
	FormatSort string `mapstructure:"format_sort"`
}

// VideoSettings controls the container and remux step of video downloads.
type VideoSettings struct {
	Container string `mapstructure:"container"`
	RemuxArgs string `mapstructure:"remux_args"`
}

// SegmentSettings controls segmented downloads of long videos.
type SegmentSettings struct {
	Length     time.Duration `mapstructure:"length"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// MergeSettings controls the ffmpeg merge of segment streams.
type MergeSettings struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	AudioCodec string        `mapstructure:"audio_codec"`
}

// DefaultAria2Args are the aria2c options used when delegation is enabled.
var DefaultAria2Args = []string{
	"--min-split-size=1M",
	"--max-connection-per-server=16",
	"--split=16",
	"--max-concurrent-downloads=16",
	"--max-tries=10",
	"--retry-wait=3",
	"--auto-file-renaming=false",
	"--allow-overwrite=true",
	"--continue=true",
	"--timeout=120",
	"--connect-timeout=120",
	"--stream-piece-selector=inorder",
}

// DefaultSettings returns a configuration with default values.
func DefaultSettings() Settings {
	out, err := dirs.DefaultOutputDir()
	if err != nil {
		out = "Downloads"
	}
	return Settings{
		OutDir: out,
		Download: model.Tuning{
			ConcurrentFragments: 8,
			Retries:             10,
			FragmentRetries:     10,
			HTTPChunkSize:       52428800,
			BufferSize:          65536,
			SocketTimeout:       60 * time.Second,
			FileAccessRetries:   10,
			ExtractorRetries:    5,
			SleepInterval:       500 * time.Millisecond,
			MaxSleepInterval:    3 * time.Second,
		},
		Aria2: Aria2Settings{
			Enabled: true,
			Args:    append([]string(nil), DefaultAria2Args...),
		},
		Audio: AudioSettings{
			Codec:      "mp3",
			Quality:    "192",
			FormatSort: "acodec:m4a,acodec:mp3,acodec",
		},
		Video: VideoSettings{
			Container: "mp4",
			RemuxArgs: "-c:v copy -c:a aac -strict experimental",
		},
		Segment: SegmentSettings{
			Length:     30 * time.Minute,
			Retries:    3,
			RetryDelay: 5 * time.Second,
		},
		Merge: MergeSettings{
			Timeout:    600 * time.Second,
			AudioCodec: "aac",
		},
		Logging: logging.Config{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}

// Init wires the global Viper instance with config paths, env, defaults and
// flag bindings, then reads the config file if one exists.
func Init(root *cobra.Command) error {
	_ = dirs.EnsureAll()

	v := viper.GetViper()
	configure(v)

	flags := root.PersistentFlags()
	for key, flag := range map[string]string{
		"out_dir":          "out-dir",
		"verbose":          "verbose",
		"no_ui":            "no-ui",
		"tools.downloader": "dl-binary",
		"logging.level":    "log-level",
	} {
		if f := flags.Lookup(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}

	if cfgFile, _ := flags.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	return readConfig(v)
}

// Load decodes the global Viper state into Settings.
func Load() (Settings, error) {
	return load(viper.GetViper())
}

func configure(v *viper.Viper) {
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		v.AddConfigPath(cfgDir)
	}
	v.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultSettings())
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the config file.
func setDefaults(v *viper.Viper, s Settings) {
	v.SetDefault("out_dir", s.OutDir)
	v.SetDefault("verbose", s.Verbose)
	v.SetDefault("no_ui", s.NoUI)

	v.SetDefault("tools.downloader", s.Tools.Downloader)
	v.SetDefault("tools.ffmpeg", s.Tools.FFmpeg)
	v.SetDefault("tools.ffprobe", s.Tools.FFprobe)
	v.SetDefault("tools.aria2c", s.Tools.Aria2c)

	v.SetDefault("download.concurrent_fragments", s.Download.ConcurrentFragments)
	v.SetDefault("download.retries", s.Download.Retries)
	v.SetDefault("download.fragment_retries", s.Download.FragmentRetries)
	v.SetDefault("download.http_chunk_size", s.Download.HTTPChunkSize)
	v.SetDefault("download.buffer_size", s.Download.BufferSize)
	v.SetDefault("download.socket_timeout", s.Download.SocketTimeout)
	v.SetDefault("download.file_access_retries", s.Download.FileAccessRetries)
	v.SetDefault("download.extractor_retries", s.Download.ExtractorRetries)
	v.SetDefault("download.sleep_interval", s.Download.SleepInterval)
	v.SetDefault("download.max_sleep_interval", s.Download.MaxSleepInterval)

	v.SetDefault("aria2.enabled", s.Aria2.Enabled)
	v.SetDefault("aria2.args", s.Aria2.Args)

	v.SetDefault("audio.codec", s.Audio.Codec)
	v.SetDefault("audio.quality", s.Audio.Quality)
	v.SetDefault("audio.format_sort", s.Audio.FormatSort)

	v.SetDefault("video.container", s.Video.Container)
	v.SetDefault("video.remux_args", s.Video.RemuxArgs)

	v.SetDefault("segment.length", s.Segment.Length)
	v.SetDefault("segment.retries", s.Segment.Retries)
	v.SetDefault("segment.retry_delay", s.Segment.RetryDelay)

	v.SetDefault("merge.timeout", s.Merge.Timeout)
	v.SetDefault("merge.audio_codec", s.Merge.AudioCodec)

	v.SetDefault("logging.level", s.Logging.Level)
	v.SetDefault("logging.format", s.Logging.Format)
	v.SetDefault("logging.output_path", s.Logging.OutputPath)
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func load(v *viper.Viper) (Settings, error) {
	s := DefaultSettings()
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	s.OutDir = dirs.ExpandHome(s.OutDir)
	if p := s.Logging.OutputPath; p != "stdout" && p != "stderr" && p != "" {
		s.Logging.OutputPath = dirs.ExpandHome(p)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// Validate rejects settings that cannot drive a download.
func (s Settings) Validate() error {
	if s.OutDir == "" {
		return errors.New("output directory not configured")
	}
	if s.Segment.Length <= 0 {
		return fmt.Errorf("segment length must be positive, got %s", s.Segment.Length)
	}
	if s.Segment.Retries < 0 {
		return errors.New("segment retries cannot be negative")
	}
	if s.Merge.Timeout <= 0 {
		return fmt.Errorf("merge timeout must be positive, got %s", s.Merge.Timeout)
	}
	switch s.Merge.AudioCodec {
	case "aac", "copy":
	default:
		return fmt.Errorf("merge audio codec must be aac or copy, got %q", s.Merge.AudioCodec)
	}
	if s.Download.Retries < 0 || s.Download.FragmentRetries < 0 {
		return errors.New("download retries cannot be negative")
	}
	return nil
}
