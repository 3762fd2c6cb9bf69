package ui

import (
	"fmt"
	"strings"

	"vidgrab/internal/progress"
	"vidgrab/internal/util/format"
)

func (m Model) viewHeader() string {
	done, total := 0, len(m.jobOrder)
	for _, id := range m.jobOrder {
		if m.jobs[id].done {
			done++
		}
	}
	title := m.styles.Title.Render("vidgrab")
	hint := "q: cancel"
	if m.cancelling {
		hint = m.styles.Warning.Render("cancelling… press q again to quit")
	}
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Jobs: %d/%d done • ", done, total)) + hint
	return title + "\n" + sub
}

func (m Model) viewJobs() string {
	if len(m.jobOrder) == 0 {
		return m.styles.Faint.Render("  " + truncate(m.title, 60) + ": fetching metadata…")
	}
	var b strings.Builder
	for _, id := range m.jobOrder {
		b.WriteString(m.viewJob(m.jobs[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewJob(js *jobState) string {
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageMetadata:
		stageStyle = m.styles.StageMeta
	case progress.StageDownloading:
		stageStyle = m.styles.StageDL
	case progress.StageMerging:
		stageStyle = m.styles.StageMerge
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	left := m.styles.JobTitle.Render(truncate(js.label, 48))
	stage := stageStyle.Render(string(js.stage))
	if js.source != "" && !js.done {
		stage += m.styles.Faint.Render(" (" + string(js.source) + ")")
	}

	var right string
	switch {
	case js.percent >= 0 && js.percent <= 100:
		right = fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
		if rate := rateInfo(js); rate != "" {
			right += "  " + m.styles.Faint.Render(rate)
		}
	case js.done && js.err == nil:
		right = m.styles.Success.Render("✓ done")
	case js.err != nil:
		right = m.styles.Error.Render("✗ error")
	default:
		right = m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("working")
	}

	lines := []string{
		fmt.Sprintf("%s  %s", left, stage),
		right,
		m.styles.JobInfo.Render(truncate(js.status, 80)),
	}
	if !js.done {
		for _, l := range js.logsRing {
			lines = append(lines, m.styles.Faint.Render("  "+truncate(l, 78)))
		}
	}
	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

func rateInfo(js *jobState) string {
	var parts []string
	if js.speed > 0 {
		parts = append(parts, format.Speed(js.speed))
	}
	if js.eta != nil {
		parts = append(parts, "ETA "+format.Clock(*js.eta))
	}
	return strings.Join(parts, " • ")
}

func (m Model) viewSummary() string {
	var completed []string
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if js.done && js.err == nil && js.outputPath != "" {
			completed = append(completed, js.outputPath)
		}
	}
	if len(completed) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("✓ Completed:"))
	b.WriteString("\n")
	for _, path := range completed {
		b.WriteString(m.styles.Success.Render("  • " + path))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
