package progress

import (
	"testing"
	"time"
)

func TestParseYTDLPLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		jobID       string
		wantOk      bool
		wantPercent float64
		wantSpeed   float64
		wantETA     *time.Duration
	}{
		{
			name:        "typical download progress",
			line:        "[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04",
			jobID:       "job1",
			wantOk:      true,
			wantPercent: 45.2,
			wantSpeed:   1.5 * (1 << 20),
			wantETA:     durationPtr(4 * time.Second),
		},
		{
			name:        "progress without ETA",
			line:        "[download]  25.0% of 5.00MiB at  500.00KiB/s",
			jobID:       "job2",
			wantOk:      true,
			wantPercent: 25.0,
			wantSpeed:   500 * 1024,
		},
		{
			name:        "progress with HH:MM:SS ETA",
			line:        "[download]  10.5% of ~100.00MiB at  1.00MiB/s ETA 01:23:45",
			jobID:       "job3",
			wantOk:      true,
			wantPercent: 10.5,
			wantSpeed:   1 << 20,
			wantETA:     durationPtr(1*time.Hour + 23*time.Minute + 45*time.Second),
		},
		{
			name:   "destination line",
			line:   "[download] Destination: Some Title.f137.mp4",
			jobID:  "job4",
			wantOk: false,
		},
		{
			name:   "non-download line",
			line:   "[ExtractorError] Unable to download webpage",
			jobID:  "job4",
			wantOk: false,
		},
		{
			name:   "empty line",
			line:   "",
			jobID:  "job5",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := ParseYTDLPLine(tt.line, tt.jobID)

			if ok != tt.wantOk {
				t.Fatalf("ParseYTDLPLine() ok = %v, want %v", ok, tt.wantOk)
			}
			if !tt.wantOk {
				return
			}
			if u.JobID != tt.jobID {
				t.Errorf("JobID = %v, want %v", u.JobID, tt.jobID)
			}
			if u.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", u.Percent, tt.wantPercent)
			}
			if u.SpeedBps != tt.wantSpeed {
				t.Errorf("SpeedBps = %v, want %v", u.SpeedBps, tt.wantSpeed)
			}
			if u.Stage != StageDownloading {
				t.Errorf("Stage = %v, want StageDownloading", u.Stage)
			}
			if tt.wantETA != nil {
				if u.ETA == nil || *u.ETA != *tt.wantETA {
					t.Errorf("ETA = %v, want %v", ptrDur(u.ETA), *tt.wantETA)
				}
			}
		})
	}
}

func TestParseHookLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantOk      bool
		wantPercent float64
		wantSpeed   float64
		wantTotal   int64
	}{
		{
			name:        "exact total",
			line:        "[hook] downloading|1048576|4194304|NA|262144.5|12|/tmp/a.f137.mp4",
			wantOk:      true,
			wantPercent: 25,
			wantSpeed:   262144.5,
			wantTotal:   4194304,
		},
		{
			name:        "estimate only",
			line:        "[hook] downloading|500|NA|1000.0|NA|NA|NA",
			wantOk:      true,
			wantPercent: 50,
			wantTotal:   1000,
		},
		{
			name:        "unknown total",
			line:        "[hook] downloading|500|NA|NA|100|NA|x.mp4",
			wantOk:      true,
			wantPercent: -1,
			wantSpeed:   100,
		},
		{
			name:        "finished",
			line:        "[hook] finished|4194304|4194304|NA|NA|NA|/tmp/a.mp4",
			wantOk:      true,
			wantPercent: 100,
			wantTotal:   4194304,
		},
		{
			name:   "not a hook line",
			line:   "[download]  45.2% of 10.00MiB",
			wantOk: false,
		},
		{
			name:   "truncated hook line",
			line:   "[hook] downloading|1",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := ParseHookLine(tt.line, "j")
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if u.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", u.Percent, tt.wantPercent)
			}
			if u.SpeedBps != tt.wantSpeed {
				t.Errorf("SpeedBps = %v, want %v", u.SpeedBps, tt.wantSpeed)
			}
			if tt.wantTotal > 0 && (u.Total == nil || *u.Total != tt.wantTotal) {
				t.Errorf("Total = %v, want %d", u.Total, tt.wantTotal)
			}
		})
	}
}

func TestParseAria2Line(t *testing.T) {
	u, ok := ParseAria2Line("[#2089b0 400.0KiB/33.2MiB(1%) CN:16 DL:115.7KiB ETA:4m51s]", "j")
	if !ok {
		t.Fatal("expected aria2 line to parse")
	}
	if u.Percent != 1 {
		t.Errorf("Percent = %v, want 1", u.Percent)
	}
	if want := 115.7 * 1024; u.SpeedBps != want {
		t.Errorf("SpeedBps = %v, want %v", u.SpeedBps, want)
	}
	if u.ETA == nil || *u.ETA != 4*time.Minute+51*time.Second {
		t.Errorf("ETA = %v", ptrDur(u.ETA))
	}
	if u.Bytes == nil || *u.Bytes != 400*1024 {
		t.Errorf("Bytes = %v", u.Bytes)
	}
	if u.Source != SourceAria2 {
		t.Errorf("Source = %v", u.Source)
	}

	for _, line := range []string{"", "[#2089b0 SEED(0.0) CN:0]", "Download Results:"} {
		if _, ok := ParseAria2Line(line, "j"); ok {
			t.Errorf("%q should not parse", line)
		}
	}
}

func TestParseSpeed(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "1.50MiB/s", want: 1.5 * (1 << 20)},
		{in: "512B/s", want: 512},
		{in: "2GiB/s", want: 2 * (1 << 30)},
		{in: "3KB/s", want: 3000},
		{in: "1.5MB", want: 1.5e6},
		{in: "2GB/s", want: 2e9},
		{in: "115.7KiB", want: 115.7 * 1024},
		{in: "42", want: 42},
		{in: "Unknown B/s", wantErr: true},
		{in: "fast", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSpeed(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSpeed(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSpeed(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSpeed(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseETA(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    time.Duration
		wantErr bool
	}{
		{name: "MM:SS format", s: "04:30", want: 4*time.Minute + 30*time.Second},
		{name: "HH:MM:SS format", s: "01:23:45", want: 1*time.Hour + 23*time.Minute + 45*time.Second},
		{name: "seconds only", s: "45", want: 45 * time.Second},
		{name: "zero seconds", s: "00:00", want: 0},
		{name: "invalid format", s: "invalid", wantErr: true},
		{name: "too many colons", s: "1:2:3:4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseETA(tt.s)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseETA(%q) expected error, got nil", tt.s)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseETA(%q) unexpected error: %v", tt.s, err)
			}
			if got != tt.want {
				t.Errorf("parseETA(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func ptrDur(d *time.Duration) string {
	if d == nil {
		return "<nil>"
	}
	return d.String()
}
