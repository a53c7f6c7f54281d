package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// errorModal reports a failed album open. Enter retries, esc dismisses.
type errorModal struct {
	title   string
	message string
	albumID string
}

func newErrorModal(title, message, albumID string) errorModal {
	return errorModal{title: title, message: message, albumID: albumID}
}

func (e errorModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return e, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Open):
		albumID := e.albumID
		return e, func() tea.Msg { return openRetryMsg{albumID: albumID} }, true
	case key.Matches(keyMsg, keys.Escape), key.Matches(keyMsg, keys.Quit):
		return e, nil, true
	}
	return e, nil, false
}

func (e errorModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.DangerText.Render(e.title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 36)))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(e.message))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("enter"))
	b.WriteString(styles.MutedText.Render(" retry   "))
	b.WriteString(styles.AccentText.Render("esc"))
	b.WriteString(styles.MutedText.Render(" back"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(min(60, max(20, width-4))).
		Render(b.String())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
