package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"vidgrab/internal/progress"
	"vidgrab/internal/util/format"
)

// Work is the download driven by the TUI. It must report through rep and
// return when ctx is cancelled.
type Work func(ctx context.Context, rep progress.Reporter) error

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	title string
	work  Work

	jobOrder []string
	jobs     map[string]*jobState

	cancelling bool
	finished   bool
	err        error

	width  int
	styles Styles

	// Internal event channel used by reporter to feed tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, title string, work Work) Model {
	c, cancel := context.WithCancel(ctx)
	return Model{
		ctx:     c,
		cancel:  cancel,
		title:   title,
		work:    work,
		jobs:    make(map[string]*jobState),
		styles:  defaultStyles(),
		eventCh: make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listenEventsCmd(), m.runWorkCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancelling {
				// Second press: stop waiting for the subprocess.
				return m, tea.Quit
			}
			m.cancelling = true
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case jobUpdateMsg:
		js, cmd := m.job(msg.U.JobID)
		js.apply(msg.U)
		cmds = append(cmds, cmd, m.listenEventsCmd())

	case jobLogMsg:
		js, cmd := m.job(msg.L.JobID)
		js.addLog(strings.TrimRight(msg.L.Line, "\r\n"))
		cmds = append(cmds, cmd, m.listenEventsCmd())

	case jobResultMsg:
		r := msg.R
		js, cmd := m.job(r.JobID)
		js.done = true
		js.err = r.Err
		if r.Err == nil {
			js.stage = progress.StageCompleted
			js.percent = 100
			js.outputPath = r.OutputPath
			js.bytes = r.Bytes
			if r.Bytes > 0 {
				js.status = fmt.Sprintf("Saved: %s (%s)", filepath.Base(r.OutputPath), format.HumanizeBytes(r.Bytes))
			} else if js.status == "" {
				js.status = "Completed"
			}
		} else {
			js.stage = progress.StageError
			js.status = r.Err.Error()
			js.percent = -1
		}
		cmds = append(cmds, cmd, m.listenEventsCmd())

	case workDoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		for _, id := range m.jobOrder {
			js := m.jobs[id]
			if js.spinner.ID() != msg.ID {
				continue
			}
			var c tea.Cmd
			js.spinner, c = js.spinner.Update(msg)
			cmds = append(cmds, c)
		}
	}
	return m, tea.Batch(cmds...)
}

// job returns the state for id, creating it on first sight. The returned
// command starts the new job's spinner.
func (m *Model) job(id string) (*jobState, tea.Cmd) {
	if js, ok := m.jobs[id]; ok {
		return js, nil
	}
	label := m.title
	if n := len(m.jobOrder); n > 0 {
		label = fmt.Sprintf("%s #%d", m.title, n+1)
	}
	js := newJobState(id, label, m.styles)
	m.jobs[id] = js
	m.jobOrder = append(m.jobOrder, id)
	return js, js.spinner.Tick
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewJobs())
	if s := m.viewSummary(); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) runWorkCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.work(m.ctx, teaReporter{ch: m.eventCh, done: m.ctx.Done()})
		return workDoneMsg{Err: err}
	}
}

// teaReporter turns reporter calls into tea messages. Progress is dropped
// when the UI falls behind; terminal events always get through unless the
// UI is shutting down.
type teaReporter struct {
	ch   chan tea.Msg
	done <-chan struct{}
}

func (r teaReporter) Update(u progress.Update) {
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.send(jobUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.send(jobResultMsg{R: res})
}

func (r teaReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.done:
		// Cancelled: the buffer may be full and nobody is reading any more.
		select {
		case r.ch <- msg:
		default:
		}
	}
}
