// Package tui is the live status view: one screen showing the current
// session and a ticking elapsed timer. Everything it knows comes from the
// coordinator; the timer is a periodic recomputation, never a local counter.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mahimrahman/monheure/internal/punch"
)

type tickMsg time.Time

type statusMsg struct {
	status punch.Status
	err    error
}

type transitionMsg struct {
	err error
}

// Watch is the root Bubble Tea model.
type Watch struct {
	co *punch.Coordinator

	width  int
	height int

	status  punch.Status
	elapsed time.Duration
	ticking bool
	err     error

	help help.Model
}

func NewWatch(co *punch.Coordinator) Watch {
	h := help.New()
	h.ShowAll = false
	return Watch{co: co, help: h}
}

func (w Watch) Init() tea.Cmd {
	return w.refresh()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w Watch) refresh() tea.Cmd {
	return func() tea.Msg {
		st, err := w.co.Status()
		return statusMsg{status: st, err: err}
	}
}

func (w Watch) punch(in bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if in {
			_, err = w.co.PunchIn("")
		} else {
			_, err = w.co.PunchOut("")
		}
		return transitionMsg{err: err}
	}
}

func (w Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.help.Width = msg.Width
		return w, nil

	case statusMsg:
		w.status = msg.status
		w.err = msg.err
		w.elapsed = w.co.Elapsed()
		// The timer runs only while a session is open.
		if w.status.Working && !w.ticking {
			w.ticking = true
			return w, tickCmd()
		}
		return w, nil

	case transitionMsg:
		w.err = msg.err
		return w, w.refresh()

	case tickMsg:
		if !w.status.Working {
			w.ticking = false
			return w, nil
		}
		w.elapsed = w.co.Elapsed()
		return w, tickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return w, tea.Quit
		case key.Matches(msg, keys.PunchIn):
			return w, w.punch(true)
		case key.Matches(msg, keys.PunchOut):
			return w, w.punch(false)
		case key.Matches(msg, keys.Refresh):
			return w, w.refresh()
		}
	}
	return w, nil
}

func (w Watch) View() string {
	var state, timer string
	if w.status.Working {
		state = timerWorkingStyle.Render(fmt.Sprintf("● working since %s",
			w.status.PunchInAt.Local().Format("15:04")))
		timer = timerWorkingStyle.Render(formatElapsed(w.elapsed))
	} else {
		state = mutedStyle.Render("○ idle")
		timer = timerIdleStyle.Render(formatElapsed(0))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("monheure"),
		"",
		state,
		timer,
		"",
		mutedStyle.Render(todayLine(w.status)),
	)
	if w.err != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", errorStyle.Render(w.err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Render(body),
		footerStyle.Render(w.help.View(keys)),
	)
}

func todayLine(st punch.Status) string {
	if st.GoalHours > 0 {
		return fmt.Sprintf("today (%s): %.2fh of %.0fh goal", st.TodayDate, st.TodayHours, st.GoalHours)
	}
	return fmt.Sprintf("today (%s): %.2fh", st.TodayDate, st.TodayHours)
}

func formatElapsed(d time.Duration) string {
	secs := int64(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
