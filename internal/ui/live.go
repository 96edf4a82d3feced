package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// FetchFunc produces one fully rendered frame for the live view.
type FetchFunc func(ctx context.Context) (string, error)

type refreshDoneMsg struct {
	view string
	err  error
}

type refreshTickMsg time.Time

// liveModel drives the auto-refreshing full-screen view. One refresh is in
// flight at a time; the next is scheduled only after the current one lands.
type liveModel struct {
	ctx      context.Context
	fetch    FetchFunc
	interval time.Duration

	spinner spinner.Model
	view    string
	err     error
	loading bool
	updated time.Time
}

func newLiveModel(ctx context.Context, fetch FetchFunc, interval time.Duration) liveModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = headerStyle
	return liveModel{
		ctx:      ctx,
		fetch:    fetch,
		interval: interval,
		spinner:  sp,
		loading:  true,
	}
}

func (m liveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

func (m liveModel) refresh() tea.Cmd {
	return func() tea.Msg {
		view, err := m.fetch(m.ctx)
		return refreshDoneMsg{view: view, err: err}
	}
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.refresh()
			}
		}

	case refreshDoneMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.view = msg.view
			m.updated = time.Now()
		}
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return refreshTickMsg(t)
		})

	case refreshTickMsg:
		m.loading = true
		return m, m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m liveModel) View() string {
	status := fmt.Sprintf("updated %s", m.updated.Format("15:04:05"))
	if m.updated.IsZero() {
		status = "loading"
	}
	if m.loading {
		status = m.spinner.View() + "refreshing"
	}
	if m.err != nil {
		status = errorStyle.Render("refresh failed: " + m.err.Error())
	}

	footer := mutedStyle.Render(fmt.Sprintf("%s • every %s • q to quit, r to refresh", status, m.interval))
	return m.view + "\n" + footer + "\n"
}

// RunLive renders the fetched view full-screen and refreshes it on the
// given interval until the user quits or the context is cancelled.
func RunLive(ctx context.Context, fetch FetchFunc, interval time.Duration) error {
	p := tea.NewProgram(newLiveModel(ctx, fetch, interval),
		tea.WithAltScreen(),
		tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
