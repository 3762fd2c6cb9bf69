package progress

import "time"

// Stage identifies a high-level step in the pipeline.
type Stage string

const (
	StageMetadata    Stage = "metadata"
	StageDownloading Stage = "downloading"
	StageMerging     Stage = "merging"
	StageCompleted   Stage = "completed"
	StageError       Stage = "error"
)

// Source names the external tool whose output produced an update.
type Source string

const (
	SourceYTDLP  Source = "yt-dlp"
	SourceAria2  Source = "aria2c"
	SourceFFmpeg Source = "ffmpeg"
)

// LogStream indicates which stream produced a log line.
type LogStream int

const (
	StreamStdout LogStream = iota
	StreamStderr
)

func (s LogStream) String() string {
	if s == StreamStderr {
		return "stderr"
	}
	return "stdout"
}

// Update conveys progress or stage changes for a job.
// Percent is 0..100 when known; set to a negative value (e.g., -1) to mean unknown.
type Update struct {
	JobID   string
	Stage   Stage
	Source  Source
	Percent float64 // 0..100, or <0 if unknown

	SpeedBps float64        // bytes per second, 0 if unknown
	ETA      *time.Duration // optional
	Bytes    *int64         // optional cumulative bytes
	Total    *int64         // optional expected total bytes
	Message  string         // short human-friendly status line
}

// Log is a raw output line associated with a job.
type Log struct {
	JobID  string
	Stream LogStream
	Line   string
}

// Result is emitted once per job when it completes or fails.
type Result struct {
	JobID      string
	OutputPath string
	Bytes      int64
	Err        error // nil on success
}

// Reporter is implemented by UI or any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Log(l Log)
	Result(r Result)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Log(Log)       {}
func (Nop) Result(Result) {}

// Multi fans events out to several reporters in order.
type Multi []Reporter

func (m Multi) Update(u Update) {
	for _, r := range m {
		r.Update(u)
	}
}

func (m Multi) Log(l Log) {
	for _, r := range m {
		r.Log(l)
	}
}

func (m Multi) Result(res Result) {
	for _, r := range m {
		r.Result(res)
	}
}

// Clamp bounds a known percentage to 0..100 and leaves unknown (<0) values alone.
func Clamp(p float64) float64 {
	switch {
	case p < 0:
		return -1
	case p > 100:
		return 100
	default:
		return p
	}
}
