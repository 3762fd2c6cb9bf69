package segment

import (
	"fmt"
	"strings"
)

// State is a step of a segmented run.
type State int

const (
	AwaitingInput State = iota
	FetchingMetadata
	DirectDownload
	SegmentLoop
	Merging
	Done
	Failed
)

var stateNames = [...]string{
	AwaitingInput:    "awaiting-input",
	FetchingMetadata: "fetching-metadata",
	DirectDownload:   "direct-download",
	SegmentLoop:      "segment-loop",
	Merging:          "merging",
	Done:             "done",
	Failed:           "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Report summarizes a segmented run. Index lists are 1-based and ordered.
type Report struct {
	Title     string
	Total     int
	Succeeded []int
	// Failed lists every chunk that did not produce a final file, including
	// those in MergeFailed.
	Failed      []int
	MergeFailed []int
	Cancelled   bool
	Outputs     []string
}

// Summary renders "N of M segments succeeded".
func (r Report) Summary() string {
	return fmt.Sprintf("%d of %d segments succeeded", len(r.Succeeded), r.Total)
}

// Complete reports whether every chunk succeeded.
func (r Report) Complete() bool {
	return !r.Cancelled && r.Total > 0 && len(r.Succeeded) == r.Total
}

// FailedList renders failed indices as "2, 5" for user messages.
func (r Report) FailedList() string {
	parts := make([]string, len(r.Failed))
	for i, idx := range r.Failed {
		parts[i] = fmt.Sprint(idx)
	}
	return strings.Join(parts, ", ")
}
