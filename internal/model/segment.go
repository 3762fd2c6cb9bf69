package model

import "time"

// Segment is one time window of a long video. Index is 1-based.
type Segment struct {
	Index    int
	Start    time.Duration
	Duration time.Duration
}

// End is the exclusive end offset of the segment.
func (s Segment) End() time.Duration { return s.Start + s.Duration }
