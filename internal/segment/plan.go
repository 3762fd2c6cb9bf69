// Package segment downloads long videos as a sequence of time-range chunks.
package segment

import (
	"errors"
	"fmt"
	"time"

	"vidgrab/internal/model"
)

// ErrUnknownDuration is returned by Plan when the total length is not known.
var ErrUnknownDuration = errors.New("video duration unknown")

// Plan partitions total into contiguous chunks of length. The last chunk
// carries the remainder, so the durations always sum to total. A video no
// longer than length yields a single chunk.
func Plan(total, length time.Duration) ([]model.Segment, error) {
	if length <= 0 {
		return nil, fmt.Errorf("segment length must be positive, got %s", length)
	}
	if total <= 0 {
		return nil, ErrUnknownDuration
	}
	if total <= length {
		return []model.Segment{{Index: 1, Start: 0, Duration: total}}, nil
	}

	n := int((total + length - 1) / length)
	segments := make([]model.Segment, 0, n)
	for i := 0; i < n; i++ {
		start := time.Duration(i) * length
		d := length
		if rest := total - start; rest < d {
			d = rest
		}
		segments = append(segments, model.Segment{Index: i + 1, Start: start, Duration: d})
	}
	return segments, nil
}

// Section renders s as a yt-dlp --download-sections value in seconds.
func Section(s model.Segment) string {
	return "*" + seconds(s.Start) + "-" + seconds(s.End())
}

func seconds(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d", int64(d/time.Second))
	}
	return fmt.Sprintf("%.3f", d.Seconds())
}
