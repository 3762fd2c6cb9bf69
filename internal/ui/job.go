package ui

import (
	"time"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"vidgrab/internal/progress"
)

// maxLogLines bounds the per-job log tail shown under the bar.
const maxLogLines = 3

type jobState struct {
	id     string
	label  string
	stage  progress.Stage
	source progress.Source
	status string
	err    error
	done   bool

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown
	speed      float64
	eta        *time.Duration

	spinner spinner.Model
	bar     bubblesprogress.Model

	logsRing []string
}

func newJobState(id, label string, styles Styles) *jobState {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return &jobState{
		id:      id,
		label:   label,
		stage:   progress.StageMetadata,
		status:  "Starting",
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}

func (js *jobState) apply(u progress.Update) {
	if u.Stage != "" {
		js.stage = u.Stage
	}
	if u.Source != "" {
		js.source = u.Source
	}
	js.percent = u.Percent
	if u.Message != "" {
		js.status = u.Message
	}
	js.speed = u.SpeedBps
	js.eta = u.ETA
	if u.Bytes != nil {
		js.bytes = *u.Bytes
	}
}

func (js *jobState) addLog(line string) {
	if line == "" {
		return
	}
	if len(js.logsRing) >= maxLogLines {
		js.logsRing = js.logsRing[1:]
	}
	js.logsRing = append(js.logsRing, line)
}
