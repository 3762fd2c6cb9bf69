package model

import (
	"fmt"
	"time"
)

// FormatChoice selects between a full video download and audio extraction.
type FormatChoice string

const (
	ChoiceVideo FormatChoice = "video"
	ChoiceAudio FormatChoice = "audio"
)

// VideoFormat is one selectable resolution offered to the user.
type VideoFormat struct {
	FormatID   string
	Height     int
	Ext        string
	Quality    string // "{height}p"
	FileSize   int64  // 0 if unknown
	VideoCodec string
}

// SizeLabel renders FileSize for listings.
func (f VideoFormat) SizeLabel() string {
	if f.FileSize <= 0 {
		return "unknown size"
	}
	return fmt.Sprintf("%.1fMB", float64(f.FileSize)/(1024*1024))
}

// DownloadRequest is what the user asked for.
type DownloadRequest struct {
	URL       string
	OutputDir string
	Choice    FormatChoice
	Height    int // 0 = best available
}

// VideoInfo is the metadata the extraction tool reports for a URL.
type VideoInfo struct {
	ID        string
	Title     string
	Uploader  string
	Duration  time.Duration // 0 if unknown
	ViewCount int64
	URL       string
}

// PostProcessorKind names a step the extraction tool runs after transfer.
type PostProcessorKind string

const (
	PostExtractAudio PostProcessorKind = "extract-audio"
	PostRemuxVideo   PostProcessorKind = "remux-video"
)

// PostProcessor describes one post-transfer step.
type PostProcessor struct {
	Kind      PostProcessorKind
	Codec     string // extract-audio: target codec, e.g. "mp3"
	Quality   string // extract-audio: bitrate in kbps, e.g. "192"
	Container string // remux-video: target container, e.g. "mp4"
	Args      string // extra arguments handed to ffmpeg
}

// ExternalDownloader delegates transfers to an accelerated downloader.
type ExternalDownloader struct {
	Name string
	Path string
	Args []string
}

// Tuning holds the retry and concurrency knobs applied to every download.
type Tuning struct {
	ConcurrentFragments int           `mapstructure:"concurrent_fragments"`
	Retries             int           `mapstructure:"retries"`
	FragmentRetries     int           `mapstructure:"fragment_retries"`
	HTTPChunkSize       int64         `mapstructure:"http_chunk_size"`
	BufferSize          int           `mapstructure:"buffer_size"`
	SocketTimeout       time.Duration `mapstructure:"socket_timeout"`
	FileAccessRetries   int           `mapstructure:"file_access_retries"`
	ExtractorRetries    int           `mapstructure:"extractor_retries"`
	SleepInterval       time.Duration `mapstructure:"sleep_interval"`
	MaxSleepInterval    time.Duration `mapstructure:"max_sleep_interval"`
}

// DownloadConfig is the fully resolved, immutable instruction set for one
// download. It is built once per request and never mutated afterwards.
type DownloadConfig struct {
	OutputDir         string
	OutputTemplate    string
	FormatSelector    string
	FormatSort        string
	MergeOutputFormat string
	PostProcessors    []PostProcessor
	Sections          []string // --download-sections values, e.g. "*0-1800"
	Headers           []Header
	Tuning            Tuning
	External          *ExternalDownloader
	Overwrites        bool
	Continue          bool
	NoPlaylist        bool
}

// Header is an HTTP header forwarded to the extraction tool.
type Header struct {
	Name  string
	Value string
}

// Arg renders h in the "Name:Value" form yt-dlp's --add-header expects.
func (h Header) Arg() string { return h.Name + ":" + h.Value }

// DownloadResult describes a finished download.
type DownloadResult struct {
	URL        string
	OutputPath string
	Bytes      int64
	Title      string
}
