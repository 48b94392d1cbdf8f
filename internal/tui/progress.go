package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const barWidth = 40

// ProgressMsg reports completed work units.
type ProgressMsg struct {
	Done, Total int
}

type finishedMsg struct{ err error }

type TickMsg time.Time

// ProgressModel is a single progress bar for batch work such as sweeps.
type ProgressModel struct {
	title     string
	done      int
	total     int
	start     time.Time
	now       time.Time
	err       error
	finished  bool
	cancelled bool
}

func NewProgress(title string, total int) ProgressModel {
	now := time.Now()
	return ProgressModel{title: title, total: total, start: now, now: now}
}

func (m ProgressModel) Cancelled() bool { return m.cancelled }
func (m ProgressModel) Finished() bool  { return m.finished }

func (m ProgressModel) Init() tea.Cmd {
	return tea.Tick(time.Second/4, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		}
	case ProgressMsg:
		m.done, m.total = msg.Done, msg.Total
	case finishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case TickMsg:
		m.now = time.Time(msg)
		return m, tea.Tick(time.Second/4, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m ProgressModel) View() string {
	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.done) / float64(m.total)
	}
	filled := int(ratio * barWidth)
	bar := barFillStyle.Render(strings.Repeat("█", filled)) + borderStyle.Render(strings.Repeat("░", barWidth-filled))

	var s strings.Builder
	s.WriteString(titleStyle.Render(strings.ToUpper(m.title)) + "\n\n")
	s.WriteString(fmt.Sprintf("%s %3.0f%%  %d/%d\n", bar, 100*ratio, m.done, m.total))
	s.WriteString(labelStyle.Render("elapsed") + valueStyle.Render(m.now.Sub(m.start).Truncate(time.Second).String()) + "\n")
	switch {
	case m.cancelled:
		s.WriteString(Note("cancelled") + "\n")
	case m.finished && m.err != nil:
		s.WriteString(Note("failed: %v", m.err) + "\n")
	case m.finished:
		s.WriteString(valueStyle.Render("done") + "\n")
	default:
		s.WriteString(borderStyle.Render("q: cancel") + "\n")
	}
	return s.String()
}

// RunWithProgress runs work while a progress view renders to out. Quitting
// the view cancels the context passed to work; the work's error is
// returned either way.
func RunWithProgress(ctx context.Context, title string, total int, out io.Writer,
	work func(ctx context.Context, progress func(done, total int)) error) error {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgress(title, total), tea.WithOutput(out))
	errc := make(chan error, 1)
	go func() {
		err := work(ctx, func(done, total int) { p.Send(ProgressMsg{Done: done, Total: total}) })
		errc <- err
		p.Send(finishedMsg{err: err})
	}()

	_, runErr := p.Run()
	// stops the work when the view was quit early
	cancel()
	err := <-errc
	if err == nil {
		return runErr
	}
	return err
}
