package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidgrab/internal/config"
	"vidgrab/internal/downloader"
	"vidgrab/internal/model"
	"vidgrab/internal/pipeline"
	"vidgrab/internal/progress"
	"vidgrab/internal/segment"
	"vidgrab/internal/ui"
	"vidgrab/internal/util/deps"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"get", "formats", "segment", "info", "doctor", "completion"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
	for _, flag := range []string{"out-dir", "verbose", "no-ui", "dl-binary", "log-level", "config"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
	for _, flag := range []string{"audio", "height", "no-aria2"} {
		assert.NotNil(t, root.Flags().Lookup(flag), "root accepts get flag %s", flag)
	}
	seg, _, _ := root.Find([]string{"segment"})
	assert.Equal(t, "30", seg.Flags().Lookup("minutes").DefValue)
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := error(&ExitError{Code: ExitDownloadError, Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, "", (&ExitError{Code: 1}).Error())
}

func TestGetRequest(t *testing.T) {
	cmd := newGetCmd()
	req, err := getRequest(cmd, " https://youtu.be/abc ", "/out")
	require.NoError(t, err)
	assert.Equal(t, model.DownloadRequest{URL: "https://youtu.be/abc", OutputDir: "/out", Choice: model.ChoiceVideo}, req)

	require.NoError(t, cmd.Flags().Set("height", "720"))
	req, err = getRequest(cmd, "u", "/out")
	require.NoError(t, err)
	assert.Equal(t, 720, req.Height)

	require.NoError(t, cmd.Flags().Set("audio", "true"))
	_, err = getRequest(cmd, "u", "/out")
	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitCLIError, ee.Code)

	require.NoError(t, cmd.Flags().Set("height", "0"))
	req, err = getRequest(cmd, "u", "/out")
	require.NoError(t, err)
	assert.Equal(t, model.ChoiceAudio, req.Choice)

	_, err = getRequest(cmd, "   ", "/out")
	assert.Error(t, err)
}

func TestDownloadError(t *testing.T) {
	var ee *ExitError
	require.ErrorAs(t, downloadError(errors.New("HTTP 403")), &ee)
	assert.Equal(t, ExitDownloadError, ee.Code)

	require.ErrorAs(t, downloadError(pipeline.ErrBusy), &ee)
	assert.Equal(t, ExitCLIError, ee.Code)

	require.ErrorAs(t, downloadError(&ExitError{Code: ExitMissingDep}), &ee)
	assert.Equal(t, ExitMissingDep, ee.Code)
}

func TestPrintFormats(t *testing.T) {
	var buf bytes.Buffer
	printFormats(&buf, []model.VideoFormat{
		{Quality: "1080p", Ext: "mp4", FileSize: 12_897_485},
		{Quality: "720p", Ext: "webm"},
	})
	assert.Equal(t, "1. 1080p (mp4) - 12.3MB\n2. 720p (webm) - unknown size\n", buf.String())
}

func TestSegmentExit(t *testing.T) {
	tests := []struct {
		name   string
		report segment.Report
		err    error
		code   int
	}{
		{name: "complete", report: segment.Report{Total: 2, Succeeded: []int{1, 2}}, code: ExitOK},
		{name: "partial", report: segment.Report{Total: 6, Succeeded: []int{1, 3, 4, 6}, Failed: []int{2, 5}}, code: ExitPartialFailure},
		{name: "all merges failed", report: segment.Report{Total: 2, Failed: []int{1, 2}, MergeFailed: []int{1, 2}}, code: ExitMergeError},
		{name: "all downloads failed", report: segment.Report{Total: 2, Failed: []int{1, 2}, MergeFailed: []int{2}}, code: ExitDownloadError},
		{name: "metadata error", err: errors.New("fetch metadata"), code: ExitDownloadError},
		{name: "cancelled", report: segment.Report{Total: 3, Succeeded: []int{1}, Cancelled: true}, err: context.Canceled, code: ExitCLIError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := segmentExit(tt.report, tt.err)
			if tt.code == ExitOK {
				assert.NoError(t, err)
				return
			}
			var ee *ExitError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.code, ee.Code)
		})
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, segment.Report{Title: "Talk", Total: 6, Succeeded: []int{1, 3, 4, 6}, Failed: []int{2, 5}}, nil)
	out := buf.String()
	assert.Contains(t, out, "Talk: 4 of 6 segments succeeded")
	assert.Contains(t, out, "Failed segments: 2, 5")
}

type sessionCall struct {
	url      string
	length   time.Duration
	formatID string
}

// recordingReporter keeps every update it is handed.
type recordingReporter struct {
	progress.Nop
	updates []progress.Update
}

func (r *recordingReporter) Update(u progress.Update) { r.updates = append(r.updates, u) }

func newSession(input string) (*segmentSession, *bytes.Buffer, *[]sessionCall) {
	var out bytes.Buffer
	var calls []sessionCall
	s := &segmentSession{
		in:            bufio.NewReader(strings.NewReader(input)),
		out:           &out,
		defaultLength: 30 * time.Minute,
		listFormats: func(_ context.Context, url string) []model.VideoFormat {
			if strings.Contains(url, "noformats") {
				return nil
			}
			return []model.VideoFormat{
				{FormatID: "137", Quality: "1080p", Ext: "mp4"},
				{FormatID: "136", Quality: "720p", Ext: "mp4"},
			}
		},
		drive: func(ctx context.Context, _ string, work ui.Work) error {
			return work(ctx, progress.Nop{})
		},
		run: func(_ context.Context, _ progress.Reporter, url string, length time.Duration, formatID string) (segment.Report, error) {
			calls = append(calls, sessionCall{url, length, formatID})
			return segment.Report{Total: 1, Succeeded: []int{1}}, nil
		},
	}
	return s, &out, &calls
}

func TestSegmentSessionLoop(t *testing.T) {
	input := strings.Join([]string{
		"https://youtu.be/a", "", "",
		"", // blank URL is asked again
		"https://youtu.be/b", "0", "abc", "45", "9", "2",
		"https://youtu.be/noformats", "10",
		"q",
	}, "\n") + "\n"
	s, out, calls := newSession(input)

	require.NoError(t, s.loop(context.Background()))
	assert.Equal(t, []sessionCall{
		{"https://youtu.be/a", 30 * time.Minute, ""},
		{"https://youtu.be/b", 45 * time.Minute, "136"},
		{"https://youtu.be/noformats", 10 * time.Minute, ""},
	}, *calls)

	text := out.String()
	assert.Contains(t, text, "1. 1080p (mp4) - unknown size")
	assert.Contains(t, text, "greater than 0")
	assert.Contains(t, text, "between 1 and 2")
	assert.Contains(t, text, "1 of 1 segments succeeded")
	assert.Contains(t, text, "using best quality")
}

func TestSegmentSessionReportsProgress(t *testing.T) {
	s, _, _ := newSession("https://youtu.be/a\n\n\nq\n")
	rec := &recordingReporter{}
	var titles []string
	s.drive = func(ctx context.Context, title string, work ui.Work) error {
		titles = append(titles, title)
		return work(ctx, rec)
	}
	s.run = func(_ context.Context, rep progress.Reporter, _ string, _ time.Duration, _ string) (segment.Report, error) {
		rep.Update(progress.Update{Stage: progress.StageDownloading, Percent: 50})
		return segment.Report{Total: 1, Succeeded: []int{1}}, nil
	}

	require.NoError(t, s.loop(context.Background()))
	assert.Equal(t, []string{"https://youtu.be/a"}, titles)
	require.Len(t, rec.updates, 1)
	assert.Equal(t, 50.0, rec.updates[0].Percent)
}

func TestSegmentSessionKeepsSubMinuteDefault(t *testing.T) {
	s, out, calls := newSession("https://youtu.be/a\n\n\nq\n")
	s.defaultLength = 90 * time.Second

	require.NoError(t, s.loop(context.Background()))
	require.Len(t, *calls, 1)
	assert.Equal(t, 90*time.Second, (*calls)[0].length)
	assert.Contains(t, out.String(), "[1m30s]")
}

func TestSegmentLength(t *testing.T) {
	settings := config.DefaultSettings()

	settings.Segment.Length = 30 * time.Second
	cmd := newSegmentCmd()
	got, err := segmentLength(cmd, settings)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, got)

	settings.Segment.Length = 90 * time.Second
	got, err = segmentLength(cmd, settings)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, got)

	cmd = newSegmentCmd()
	require.NoError(t, cmd.Flags().Set("minutes", "5"))
	got, err = segmentLength(cmd, settings)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, got)

	cmd = newSegmentCmd()
	require.NoError(t, cmd.Flags().Set("minutes", "0"))
	_, err = segmentLength(cmd, settings)
	assert.Error(t, err)
}

func TestSegmentSessionEOF(t *testing.T) {
	s, _, calls := newSession("https://youtu.be/a\n")
	require.NoError(t, s.loop(context.Background()))
	assert.Empty(t, *calls)
}

func TestSegmentSessionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _, calls := newSession("https://youtu.be/a\n\n\n")
	require.NoError(t, s.loop(ctx))
	assert.Empty(t, *calls)
}

func TestPrintDoctor(t *testing.T) {
	var buf bytes.Buffer
	missing := printDoctor(&buf, []deps.Tool{
		{Name: "yt-dlp", Path: "/usr/bin/yt-dlp"},
		{Name: "ffmpeg", Err: deps.ErrNotFound},
		{Name: "aria2c", Optional: true, Err: deps.ErrNotFound},
	})
	assert.Equal(t, 1, missing)
	out := buf.String()
	assert.Contains(t, out, "/usr/bin/yt-dlp")
	assert.Contains(t, out, "ffmpeg:  MISSING")
	assert.Contains(t, out, "optional")
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	printInfo(&buf, "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1", downloader.Info{
		ID: "dQw4w9WgXcQ", Title: "Demo", Uploader: "Someone", Duration: 3725,
	})
	out := buf.String()
	assert.Contains(t, out, "https://www.youtube.com/watch?v=dQw4w9WgXcQ\n")
	assert.Contains(t, out, "dQw4w9WgXcQ")
	assert.Contains(t, out, "1:02:05")
	assert.Contains(t, out, "youtube")
}
