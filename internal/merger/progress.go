package merger

import (
	"strconv"
	"strings"
	"time"

	"vidgrab/internal/progress"
)

// ProgressState tracks ffmpeg -progress output across lines.
type ProgressState struct {
	OutTimeMs int64
	SpeedStr  string
	TotalSize int64
}

// UpdateFromLine updates the state from a progress line and returns an
// update when a progress= marker closes a block. duration is the expected
// output length; zero leaves the percentage unknown.
func (ps *ProgressState) UpdateFromLine(line, jobID string, duration time.Duration) (progress.Update, bool) {
	kv := strings.SplitN(line, "=", 2)
	if len(kv) != 2 {
		return progress.Update{}, false
	}

	key := strings.TrimSpace(kv[0])
	val := strings.TrimSpace(kv[1])

	switch key {
	case "out_time_ms":
		// Despite the name ffmpeg reports microseconds here.
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.OutTimeMs = v
		}
	case "speed":
		if val != "N/A" {
			ps.SpeedStr = val
		}
	case "total_size":
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			ps.TotalSize = v
		}
	case "progress":
		percent := -1.0
		if duration > 0 {
			percent = progress.Clamp(float64(ps.OutTimeMs) / float64(duration.Microseconds()) * 100.0)
		}
		if val == "end" {
			percent = 100
		}

		var bytesPtr *int64
		if ps.TotalSize > 0 {
			b := ps.TotalSize
			bytesPtr = &b
		}

		msg := "Merging"
		if ps.SpeedStr != "" {
			msg += " " + ps.SpeedStr
		}

		return progress.Update{
			JobID:   jobID,
			Stage:   progress.StageMerging,
			Source:  progress.SourceFFmpeg,
			Percent: percent,
			Bytes:   bytesPtr,
			Message: msg,
		}, true
	}

	return progress.Update{}, false
}
