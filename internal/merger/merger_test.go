package merger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidgrab/internal/progress"
	"vidgrab/internal/util"
)

type fakeRunner struct {
	ffmpegErr   error
	probeJSON   string
	writeOutput bool
	gotTimeout  time.Duration
}

func (f *fakeRunner) Run(ctx context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	switch spec.Path {
	case "ffmpeg":
		f.gotTimeout = spec.Timeout
		out := spec.Args[len(spec.Args)-1]
		if f.writeOutput {
			if err := os.WriteFile(out, []byte("merged"), 0o644); err != nil {
				return util.CmdResult{}, err
			}
		}
		if spec.StdoutLine != nil {
			spec.StdoutLine("out_time_ms=1000000")
			spec.StdoutLine("progress=end")
		}
		if f.ffmpegErr != nil {
			return util.CmdResult{Code: 1}, f.ffmpegErr
		}
		return util.CmdResult{}, nil
	case "ffprobe":
		return util.CmdResult{Stdout: []byte(f.probeJSON)}, nil
	}
	return util.CmdResult{}, errors.New("unexpected tool: " + spec.Path)
}

type countingReporter struct {
	progress.Nop
	updates int
}

func (c *countingReporter) Update(progress.Update) { c.updates++ }

func setup(t *testing.T) Input {
	t.Helper()
	dir := t.TempDir()
	in := Input{
		VideoPath:  filepath.Join(dir, "Title_part1.f137.mp4"),
		AudioPath:  filepath.Join(dir, "Title_part1.f140.m4a"),
		OutputPath: filepath.Join(dir, "Title_part1.mp4"),
		Duration:   2 * time.Second,
	}
	require.NoError(t, os.WriteFile(in.VideoPath, []byte("v"), 0o644))
	require.NoError(t, os.WriteFile(in.AudioPath, []byte("a"), 0o644))
	return in
}

const bothStreams = `{"streams":[{"codec_type":"video"},{"codec_type":"audio"}]}`

func TestMergeSuccessDeletesInputs(t *testing.T) {
	in := setup(t)
	runner := &fakeRunner{writeOutput: true, probeJSON: bothStreams}
	rep := &countingReporter{}

	out, err := Merge(context.Background(), in, Options{
		FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", Runner: runner, Reporter: rep,
	})
	require.NoError(t, err)
	assert.Equal(t, in.OutputPath, out.Path)
	assert.Equal(t, int64(len("merged")), out.Bytes)
	assert.True(t, out.Streams.Verified())
	assert.Equal(t, DefaultTimeout, runner.gotTimeout)
	assert.Equal(t, 1, rep.updates)

	assert.NoFileExists(t, in.VideoPath)
	assert.NoFileExists(t, in.AudioPath)
	assert.FileExists(t, in.OutputPath)
}

func TestMergeVerifyFailureKeepsInputs(t *testing.T) {
	in := setup(t)
	runner := &fakeRunner{writeOutput: true, probeJSON: `{"streams":[{"codec_type":"video"}]}`}

	_, err := Merge(context.Background(), in, Options{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", Runner: runner})
	require.ErrorIs(t, err, ErrVerify)

	assert.FileExists(t, in.VideoPath)
	assert.FileExists(t, in.AudioPath)
	assert.NoFileExists(t, in.OutputPath)
}

func TestMergeFFmpegFailureKeepsInputs(t *testing.T) {
	in := setup(t)
	runner := &fakeRunner{writeOutput: true, ffmpegErr: errors.New("exit status 1"), probeJSON: bothStreams}

	_, err := Merge(context.Background(), in, Options{
		FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", Runner: runner, Timeout: time.Second,
	})
	require.Error(t, err)
	assert.Equal(t, time.Second, runner.gotTimeout)
	assert.FileExists(t, in.VideoPath)
	assert.FileExists(t, in.AudioPath)
	assert.NoFileExists(t, in.OutputPath)
}

func TestMergeEmptyOutputFailsVerification(t *testing.T) {
	in := setup(t)
	runner := &fakeRunner{writeOutput: false, probeJSON: bothStreams}

	_, err := Merge(context.Background(), in, Options{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", Runner: runner})
	require.ErrorIs(t, err, ErrVerify)
	assert.FileExists(t, in.VideoPath)
}

func TestMergeMissingInput(t *testing.T) {
	_, err := Merge(context.Background(), Input{VideoPath: "v", OutputPath: "o"}, Options{FFmpegPath: "ffmpeg"})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestProbeBadJSON(t *testing.T) {
	_, err := Probe(context.Background(), "x", Options{FFprobePath: "ffprobe", Runner: &fakeRunner{probeJSON: "nope"}})
	assert.Error(t, err)
}

func TestStreamInfoVerified(t *testing.T) {
	assert.True(t, StreamInfo{Video: 1, Audio: 2, Size: 10}.Verified())
	assert.False(t, StreamInfo{Video: 1, Audio: 1}.Verified())
	assert.False(t, StreamInfo{Audio: 1, Size: 10}.Verified())
}
