package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/rotary/internal/viewer"
)

// renderHeader renders the status bar for the active view.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.snapshot.LastError != nil && (!m.snapshot.HasAlbums || m.snapshot.IsOffline()) {
		return m.renderOfflineHeader(styles, bg)
	}

	var content string
	switch m.currentView {
	case ViewViewer:
		content = m.viewerStatus(styles, bg)
	case ViewLogs:
		content = bg.Join([]string{
			bg.Render("rotary", styles.Logo),
			bg.Render("Logs", styles.Text.Bold(true)),
			bg.Render(truncateMiddle(m.logPath(), 60), styles.MutedText),
		}, "  ")
	default:
		content = m.albumsStatus(styles, bg)
	}
	return styles.Header.Width(m.width).Render(content)
}

// renderOfflineHeader shows the connecting or offline state.
func (m Model) renderOfflineHeader(styles Styles, bg BgStyle) string {
	last := "soon"
	if !m.lastUpdated.IsZero() {
		last = m.lastUpdated.Format("15:04:05")
	}
	parts := []string{
		bg.Render("rotary", styles.Logo),
		bg.Render("SERVER "+classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
		bg.Render("Retrying...", styles.WarningText.Bold(true)),
		bg.Render(last, styles.MutedText),
	}
	if m.width >= LayoutCompactWidth {
		parts = append(parts, bg.Render("logs", styles.FaintText)+bg.Space()+
			bg.Render(truncateMiddle(m.logPath(), 50), styles.MutedText))
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) albumsStatus(styles Styles, bg BgStyle) string {
	if !m.snapshot.HasAlbums {
		return bg.Render("rotary", styles.Logo) + bg.Spaces(2) +
			bg.Render("Connecting to album server...", styles.WarningText.Bold(true))
	}

	frames := 0
	for _, a := range m.snapshot.Albums {
		frames += len(a.Metadata.Images)
	}
	parts := []string{
		bg.Render("rotary", styles.Logo),
		bg.Render(fmt.Sprintf("%d albums", len(m.snapshot.Albums)), styles.Text.Bold(true)),
		bg.Render(fmt.Sprintf("%d frames", frames), styles.MutedText),
	}
	if m.snapshot.LastError != nil {
		parts = append(parts, bg.Render(classifyConnectionError(m.snapshot.LastError), styles.WarningText))
	}
	if ts := formatTimestamp(m.lastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.FaintText))
	}
	return bg.Join(parts, "  ")
}

func (m Model) viewerStatus(styles Styles, bg BgStyle) string {
	snap := m.viewer.snap
	name := m.viewer.album.Metadata.Name
	if name == "" {
		name = m.viewer.album.ID
	}
	compact := m.width < LayoutCompactWidth

	playState := "paused"
	switch {
	case !snap.Ready:
		playState = "loading"
	case snap.Playing:
		playState = "playing"
	}

	parts := []string{
		bg.Render("rotary", styles.Logo),
		bg.Render(truncate(name, ternaryInt(compact, 16, 32)), styles.Text.Bold(true)),
		bg.Render(fmt.Sprintf("%d / %d", snap.FrameIndex+1, snap.Frames), styles.AccentText),
		styles.StatusStyle(playState).Render(strings.ToUpper(playState)),
	}
	if snap.Zoomed() || snap.Scale < 1 {
		parts = append(parts, styles.StatusStyle("zoomed").Render(formatZoom(snap.Scale)))
	}
	if snap.AltHeld {
		parts = append(parts, bg.Render("ALT", styles.WarningText.Bold(true)))
	}
	if m.viewer.session != nil && !compact {
		parts = append(parts, bg.Render("autoplay "+formatCadence(m.viewerOptions().AutoplayInterval), styles.MutedText))
	}
	if m.viewerOptions().Mode == viewer.ModeBasic {
		parts = append(parts, bg.Render("basic", styles.FaintText))
	}
	if m.viewer.loadTime > 0 && !compact {
		parts = append(parts, bg.Render("loaded in "+formatDuration(m.viewer.loadTime), styles.FaintText))
	}
	return bg.Join(parts, "  ")
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewViewer:
		if !m.viewer.snap.Ready {
			commands = []cmd{
				{"←/→", "Step"},
				{"esc", "Skip loading"},
				{"?", "More"},
			}
			break
		}
		commands = []cmd{
			{"drag", ternary(m.viewer.snap.Zoomed() && !m.viewer.snap.AltHeld, "Pan", "Rotate")},
			{"←/→", "Step"},
			{"space", ternary(m.viewer.snap.Playing, "Pause", "Play")},
			{"+/-", "Zoom"},
			{"r", "Reset"},
			{"a", ternary(m.viewer.altLatch, "Alt on", "Alt off")},
			{"i", "Info"},
			{"esc", "Albums"},
			{"?", "More"},
		}
	case ViewLogs:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"f", ternary(m.logFollow, "Pause", "Follow")},
			{"L", "Back"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Open"},
			{"L", "Logs"},
			{"q", "Quit"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

func ternaryInt(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}
