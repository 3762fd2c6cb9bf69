package progress

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HookPrefix marks lines printed through yt-dlp's --progress-template.
const HookPrefix = "[hook]"

// HookTemplate is the --progress-template value whose output ParseHookLine
// understands. yt-dlp prints NA for fields it does not know.
const HookTemplate = "download:" + HookPrefix +
	" %(progress.status)s|%(progress.downloaded_bytes)s|%(progress.total_bytes)s|%(progress.total_bytes_estimate)s|%(progress.speed)s|%(progress.eta)s|%(progress.filename)s"

// ParseHookLine parses a line produced with HookTemplate. The status
// dictionary fields map onto an Update: percent comes from downloaded/total,
// falling back to the estimate when the exact total is not known.
func ParseHookLine(line, jobID string) (Update, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, HookPrefix) {
		return Update{}, false
	}
	fields := strings.SplitN(strings.TrimSpace(strings.TrimPrefix(line, HookPrefix)), "|", 7)
	if len(fields) < 6 {
		return Update{}, false
	}

	status := strings.TrimSpace(fields[0])
	downloaded := hookNumber(fields[1])
	total := hookNumber(fields[2])
	if total <= 0 {
		total = hookNumber(fields[3])
	}
	speed := hookNumber(fields[4])
	eta := hookNumber(fields[5])
	var filename string
	if len(fields) == 7 {
		filename = strings.TrimSpace(fields[6])
	}

	u := Update{
		JobID:    jobID,
		Stage:    StageDownloading,
		Source:   SourceYTDLP,
		Percent:  -1,
		SpeedBps: speed,
		Message:  "Downloading",
	}
	if downloaded > 0 {
		b := int64(downloaded)
		u.Bytes = &b
	}
	if total > 0 {
		t := int64(total)
		u.Total = &t
		u.Percent = Clamp(downloaded / total * 100)
	}
	if eta > 0 {
		d := time.Duration(eta * float64(time.Second))
		u.ETA = &d
	}
	switch status {
	case "finished":
		u.Percent = 100
		u.Message = "Downloaded"
	case "error":
		u.Message = "Download error"
	}
	if filename != "" && filename != "NA" {
		u.Message += " " + filename
	}
	return u, true
}

func hookNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "None" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ParseYTDLPLine parses yt-dlp's default progress output lines.
// Returns an Update if the line contains download progress, and ok=true.
func ParseYTDLPLine(line, jobID string) (u Update, ok bool) {
	// [download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[download]") {
		return Update{}, false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(line, "[download]"))

	idx := strings.Index(rest, "%")
	if idx == -1 {
		return Update{}, false
	}
	percent, err := strconv.ParseFloat(strings.TrimSpace(rest[:idx]), 64)
	if err != nil {
		return Update{}, false
	}

	var speed float64
	if i := strings.Index(rest, " at "); i != -1 {
		speedPart := strings.TrimSpace(rest[i+4:])
		if j := strings.Index(speedPart, " "); j != -1 {
			speedPart = speedPart[:j]
		}
		speed, _ = ParseSpeed(speedPart)
	}

	var total *int64
	if i := strings.Index(rest, " of "); i != -1 {
		sizePart := strings.TrimPrefix(strings.TrimSpace(rest[i+4:]), "~")
		if j := strings.Index(sizePart, " "); j != -1 {
			sizePart = sizePart[:j]
		}
		if v, err := ParseSize(sizePart); err == nil && v > 0 {
			t := int64(v)
			total = &t
		}
	}

	var eta *time.Duration
	if i := strings.Index(rest, "ETA "); i != -1 {
		etaStr := strings.TrimSpace(rest[i+4:])
		if j := strings.Index(etaStr, " "); j != -1 {
			etaStr = etaStr[:j]
		}
		if d, err := parseETA(etaStr); err == nil {
			eta = &d
		}
	}

	return Update{
		JobID:    jobID,
		Stage:    StageDownloading,
		Source:   SourceYTDLP,
		Percent:  Clamp(percent),
		SpeedBps: speed,
		ETA:      eta,
		Total:    total,
		Message:  "Downloading",
	}, true
}

// ParseAria2Line parses aria2c's console summary, for example
// [#2089b0 400.0KiB/33.2MiB(1%) CN:16 DL:115.7KiB ETA:4m51s].
func ParseAria2Line(line, jobID string) (Update, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[#") {
		return Update{}, false
	}
	open := strings.Index(line, "(")
	closeIdx := strings.Index(line, "%)")
	if open == -1 || closeIdx == -1 || closeIdx < open {
		return Update{}, false
	}
	percent, err := strconv.ParseFloat(line[open+1:closeIdx], 64)
	if err != nil {
		return Update{}, false
	}

	u := Update{
		JobID:   jobID,
		Stage:   StageDownloading,
		Source:  SourceAria2,
		Percent: Clamp(percent),
		Message: "Downloading (aria2c)",
	}

	body := strings.TrimSuffix(strings.TrimPrefix(line, "[#"), "]")
	for _, tok := range strings.Fields(body) {
		switch {
		case strings.HasPrefix(tok, "DL:"):
			u.SpeedBps, _ = ParseSpeed(strings.TrimPrefix(tok, "DL:"))
		case strings.HasPrefix(tok, "ETA:"):
			if d, err := time.ParseDuration(strings.TrimPrefix(tok, "ETA:")); err == nil {
				u.ETA = &d
			}
		case strings.Contains(tok, "/") && strings.HasSuffix(tok, "%)"):
			done := tok[:strings.Index(tok, "/")]
			if v, err := ParseSize(done); err == nil {
				b := int64(v)
				u.Bytes = &b
			}
		}
	}
	return u, true
}

var sizeUnits = []struct {
	suffix string
	mult   float64
}{
	// Longest suffixes first so "KiB" is not read as "B".
	{"KiB", 1 << 10},
	{"MiB", 1 << 20},
	{"GiB", 1 << 30},
	{"TiB", 1 << 40},
	{"KB", 1e3},
	{"MB", 1e6},
	{"GB", 1e9},
	{"TB", 1e12},
	{"B", 1},
}

// ParseSize converts a size such as "10.00MiB" or "400.0KiB" to bytes.
func ParseSize(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), 64)
			if err != nil {
				return 0, fmt.Errorf("parse size %q: %w", s, err)
			}
			return v * u.mult, nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, err)
	}
	return v, nil
}

// ParseSpeed converts a rate such as "1.50MiB/s" or "115.7KiB" to bytes per second.
func ParseSpeed(s string) (float64, error) {
	return ParseSize(strings.TrimSuffix(strings.TrimSpace(s), "/s"))
}

// parseETA parses duration strings like "00:04", "01:23:45", etc.
func parseETA(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("parse eta %q", s)
		}
		return time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		sec, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, fmt.Errorf("parse eta %q", s)
		}
		return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
	default:
		sec, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return time.Duration(sec) * time.Second, nil
	}
}
