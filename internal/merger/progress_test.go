package merger

import (
	"testing"
	"time"

	"vidgrab/internal/progress"
)

func TestProgressState_UpdateFromLine(t *testing.T) {
	tests := []struct {
		name        string
		lines       []string
		duration    time.Duration
		wantOk      bool
		wantPercent float64
		wantMessage string
	}{
		{
			name: "progress sequence",
			lines: []string{
				"out_time_ms=30000000",
				"speed=1.5x",
				"total_size=10485760",
				"progress=continue",
			},
			duration:    60 * time.Second,
			wantOk:      true,
			wantPercent: 50.0,
			wantMessage: "Merging 1.5x",
		},
		{
			name: "unknown duration",
			lines: []string{
				"speed=N/A",
				"progress=continue",
			},
			wantOk:      true,
			wantPercent: -1.0,
			wantMessage: "Merging",
		},
		{
			name: "end marker completes",
			lines: []string{
				"out_time_ms=59000000",
				"progress=end",
			},
			duration:    60 * time.Second,
			wantOk:      true,
			wantPercent: 100.0,
			wantMessage: "Merging",
		},
		{
			name: "overshoot is clamped",
			lines: []string{
				"out_time_ms=90000000",
				"progress=continue",
			},
			duration:    60 * time.Second,
			wantOk:      true,
			wantPercent: 100.0,
			wantMessage: "Merging",
		},
		{
			name:   "no progress marker",
			lines:  []string{"out_time_ms=1000", "bitrate=1000kbits/s"},
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &ProgressState{}
			var u progress.Update
			var ok bool
			for _, line := range tt.lines {
				u, ok = ps.UpdateFromLine(line, "job", tt.duration)
			}
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if u.Stage != progress.StageMerging {
				t.Errorf("Stage = %v, want merging", u.Stage)
			}
			if u.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", u.Percent, tt.wantPercent)
			}
			if u.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", u.Message, tt.wantMessage)
			}
		})
	}
}
