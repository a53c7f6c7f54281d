package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/rotary/internal/config"
	"github.com/five82/rotary/internal/logtail"
)

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// logPath returns the file the viewer logs to.
func (m Model) logPath() string {
	if m.config != nil && m.config.LogPath != "" {
		return m.config.LogPath
	}
	return config.Default().LogPath
}

func (m Model) logHeight() int {
	return m.contentHeight()
}

// refreshLogs reads the log tail in the background.
func (m Model) refreshLogs() tea.Cmd {
	path := m.logPath()
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		return logsMsg{entries: logtail.ParseLines(lines), err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logErr = msg.err
	lines := make([]string, 0, len(msg.entries))
	for _, e := range msg.entries {
		lines = append(lines, m.formatLogEntry(e))
	}
	if len(lines) == 0 && msg.err == nil {
		lines = append(lines, m.theme.Styles().MutedText.Render("No log records yet."))
	}
	if msg.err != nil {
		lines = append(lines, m.theme.Styles().DangerText.Render(msg.err.Error()))
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = m.returnView
		return m, nil
	case key.Matches(msg, m.keys.Follow):
		m.logFollow = !m.logFollow
		if m.logFollow {
			return m, m.refreshLogs()
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logFollow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	if !m.logViewport.AtBottom() {
		m.logFollow = false
	}
	return m, cmd
}

// formatLogEntry colors one record: time, level, component, message, attrs.
func (m Model) formatLogEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	if e.Level == "" && e.Time.IsZero() {
		return styles.MutedText.Render(e.Message)
	}

	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
	}
	parts = append(parts, m.levelStyle(e.Level).Render(padRight(e.Level, 5)))
	if e.Component != "" {
		parts = append(parts, styles.AccentText.Render("["+e.Component+"]"))
	}
	parts = append(parts, styles.Text.Render(e.Message))
	for _, a := range e.Attrs {
		parts = append(parts, styles.FaintText.Render(a.Key+"=")+styles.MutedText.Render(a.Value))
	}
	return truncateANSI(strings.Join(parts, " "), m.width)
}

func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch level {
	case "ERROR":
		return styles.DangerText
	case "WARN":
		return styles.WarningText.Bold(true)
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.SuccessText
	}
}

// renderLogs renders the log viewport.
func (m Model) renderLogs() string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.logHeight()).
		Render(m.logViewport.View())
}

func truncateANSI(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
