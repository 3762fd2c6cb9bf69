package progress

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// LoggerReporter writes progress events to a zap logger. Updates are
// throttled so a fast download does not flood the log.
type LoggerReporter struct {
	log      *zap.Logger
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewLoggerReporter returns a Reporter that logs at most one update per job per interval.
func NewLoggerReporter(log *zap.Logger, interval time.Duration) *LoggerReporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggerReporter{log: log, interval: interval, last: make(map[string]time.Time)}
}

func (r *LoggerReporter) Update(u Update) {
	r.mu.Lock()
	now := time.Now()
	prev, seen := r.last[u.JobID+string(u.Stage)]
	skip := seen && now.Sub(prev) < r.interval && u.Percent < 100
	if !skip {
		r.last[u.JobID+string(u.Stage)] = now
	}
	r.mu.Unlock()
	if skip {
		return
	}

	fields := []zap.Field{
		zap.String("job", u.JobID),
		zap.String("stage", string(u.Stage)),
		zap.Float64("percent", u.Percent),
	}
	if u.Source != "" {
		fields = append(fields, zap.String("source", string(u.Source)))
	}
	if u.SpeedBps > 0 {
		fields = append(fields, zap.Float64("speed_bps", u.SpeedBps))
	}
	if u.ETA != nil {
		fields = append(fields, zap.Duration("eta", *u.ETA))
	}
	r.log.Info(u.Message, fields...)
}

func (r *LoggerReporter) Log(l Log) {
	r.log.Debug(l.Line, zap.String("job", l.JobID), zap.Stringer("stream", l.Stream))
}

func (r *LoggerReporter) Result(res Result) {
	if res.Err != nil {
		r.log.Error("job failed", zap.String("job", res.JobID), zap.Error(res.Err))
		return
	}
	r.log.Info("job completed",
		zap.String("job", res.JobID),
		zap.String("output", res.OutputPath),
		zap.Int64("bytes", res.Bytes),
	)
}
