package progress

import "sync"

// Bridge turns raw tool output into Reporter events. Lines that any parser
// recognizes become Updates; everything else is forwarded verbatim as a Log.
// Feed is safe for concurrent use by the stdout and stderr readers.
type Bridge struct {
	Reporter Reporter
	JobID    string
	// Stage overrides the stage of parsed updates when set.
	Stage Stage

	mu   sync.Mutex
	last float64
}

// NewBridge returns a Bridge that reports for jobID. A nil reporter discards events.
func NewBridge(r Reporter, jobID string) *Bridge {
	if r == nil {
		r = Nop{}
	}
	return &Bridge{Reporter: r, JobID: jobID, last: -1}
}

// Feed classifies one line. It never fails.
func (b *Bridge) Feed(stream LogStream, line string) {
	if b == nil || b.Reporter == nil {
		return
	}
	if u, ok := b.parse(line); ok {
		if b.Stage != "" {
			u.Stage = b.Stage
		}
		b.mu.Lock()
		if u.Percent >= 0 {
			b.last = u.Percent
		}
		b.mu.Unlock()
		b.Reporter.Update(u)
		return
	}
	b.Reporter.Log(Log{JobID: b.JobID, Stream: stream, Line: line})
}

// Stdout and Stderr adapt Feed to util.CmdSpec line callbacks.
func (b *Bridge) Stdout(line string) { b.Feed(StreamStdout, line) }
func (b *Bridge) Stderr(line string) { b.Feed(StreamStderr, line) }

// LastPercent is the most recent known percentage, or -1.
func (b *Bridge) LastPercent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *Bridge) parse(line string) (Update, bool) {
	if u, ok := ParseHookLine(line, b.JobID); ok {
		return u, true
	}
	if u, ok := ParseYTDLPLine(line, b.JobID); ok {
		return u, true
	}
	return ParseAria2Line(line, b.JobID)
}
