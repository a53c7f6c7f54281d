package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/rotary/internal/album"
)

// handleAlbumsKey processes keyboard input for the album browser.
func (m Model) handleAlbumsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Albums)

	switch {
	case key.Matches(msg, m.keys.Refresh):
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil
	case count == 0:
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.selected < count-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = count - 1
	case key.Matches(msg, m.keys.Open):
		return m.openAlbum(m.snapshot.Albums[m.selected].ID)
	}
	return m, nil
}

// selectedAlbum returns the album under the cursor.
func (m Model) selectedAlbum() (album.Album, bool) {
	if m.selected < 0 || m.selected >= len(m.snapshot.Albums) {
		return album.Album{}, false
	}
	return m.snapshot.Albums[m.selected], true
}

// renderAlbums renders the album list.
func (m Model) renderAlbums() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	box := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Background)).Width(m.width).Height(height)

	if m.viewer.opening {
		label := m.spinner.View() + bg.Space() + bg.Render("Opening "+m.viewer.openingID+"...", styles.WarningText)
		return box.Render(lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, label,
			lipgloss.WithWhitespaceBackground(bg.Color())))
	}

	if len(m.snapshot.Albums) == 0 {
		msg := "Waiting for the album server..."
		if m.snapshot.HasAlbums {
			msg = "No albums yet. Add a directory of images under the server's albums_dir."
		}
		return box.Render(lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
			bg.Render(msg, styles.MutedText), lipgloss.WithWhitespaceBackground(bg.Color())))
	}

	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(len(m.snapshot.Albums), start+height)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderAlbumRow(m.snapshot.Albums[i], i == m.selected))
	}
	return box.Render(strings.Join(lines, "\n"))
}

func (m Model) renderAlbumRow(a album.Album, selected bool) string {
	rowBg := m.theme.Background
	if selected {
		rowBg = m.theme.SelectionBg
	}
	styles := m.theme.Styles().WithBackground(rowBg)
	bg := NewBgStyle(rowBg)

	nameStyle := styles.Text.Bold(true)
	if selected {
		nameStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(rowBg)).
			Foreground(lipgloss.Color(m.theme.SelectionText)).
			Bold(true)
	}

	name := a.Metadata.Name
	if name == "" {
		name = a.ID
	}
	nameWidth := 28
	if m.width < LayoutCompactWidth {
		nameWidth = 20
	}

	parts := []string{
		bg.Render(ternary(selected, "▸", " "), styles.AccentText),
		bg.Render(padRight(truncate(name, nameWidth), nameWidth), nameStyle),
		bg.Render(fmt.Sprintf("%4d frames", len(a.Metadata.Images)), styles.MutedText),
	}
	if info := a.Metadata.ShootingInfo; info != nil && info.Camera != "" && m.width >= LayoutCompactWidth {
		parts = append(parts, bg.Render(truncate(info.Camera, 24), styles.InfoText))
	}
	if updated := formatUpdated(a.Metadata.UpdatedAt); updated != "" {
		parts = append(parts, bg.Render("updated "+updated, styles.FaintText))
	}
	if m.width >= LayoutDetailWidth && a.Metadata.Description != "" {
		parts = append(parts, bg.Render(truncate(a.Metadata.Description, 40), styles.MutedText))
	}

	return bg.FillLine(bg.Join(parts, "  "), m.width)
}
