package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/rotary/internal/album"
	"github.com/five82/rotary/internal/config"
	"github.com/five82/rotary/internal/viewer"
)

// infoPanelWidth is the width of the frame info side panel.
const infoPanelWidth = 34

// viewerState tracks the open album session.
type viewerState struct {
	pendingAlbum string
	opening      bool
	openingID    string

	session  *viewer.Session
	album    album.Album
	snap     viewer.Snapshot
	openedAt time.Time
	loadTime time.Duration
	frames   *frameCache

	altLatch    bool
	pointerDown bool
	retrying    bool

	showInfo bool
	info     map[string]*album.ImageInfo
	infoErr  error
}

// loading reports whether something in the viewer is waiting on the network.
func (v viewerState) loading() bool {
	if v.opening || v.retrying {
		return true
	}
	return v.session != nil && !v.snap.Ready
}

// Messages

type sessionOpenedMsg struct {
	albumID  string
	session  *viewer.Session
	err      error
	openedAt time.Time
}

type openRetryMsg struct{ albumID string }

type sessionChangedMsg struct{ session *viewer.Session }

type frameRetriedMsg struct {
	session *viewer.Session
	index   int
	err     error
}

type imageInfoMsg struct {
	albumID string
	name    string
	info    *album.ImageInfo
	err     error
}

// Commands

func openAlbumCmd(ctx context.Context, client Gallery, albumID string, opts viewer.Options) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		sess, err := viewer.OpenAlbum(ctx, client, albumID, client.Resolver(albumID), client, opts)
		return sessionOpenedMsg{albumID: albumID, session: sess, err: err, openedAt: start}
	}
}

// waitForChange delivers the next change notification of sess. A closed
// session produces no message.
func waitForChange(sess *viewer.Session) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-sess.Changed(); !ok {
			return nil
		}
		return sessionChangedMsg{session: sess}
	}
}

func retryFrameCmd(ctx context.Context, sess *viewer.Session, index int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RetryTimeout)
		defer cancel()
		_, err := sess.RetryFrame(ctx, index)
		return frameRetriedMsg{session: sess, index: index, err: err}
	}
}

func imageInfoCmd(ctx context.Context, client Gallery, albumID, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ImageInfoTimeout)
		defer cancel()
		info, err := client.FetchImageInfo(ctx, albumID, name)
		return imageInfoMsg{albumID: albumID, name: name, info: info, err: err}
	}
}

// viewerOptions maps the config onto session options.
func (m Model) viewerOptions() viewer.Options {
	cfg := config.Default()
	if m.config != nil {
		cfg = *m.config
	}
	return viewer.Options{
		Mode:               viewer.ParseMode(cfg.Mode),
		AutoplayInterval:   viewer.AutoplayInterval(cfg.Autoplay, cfg.AutoplayInterval),
		PreloadConcurrency: cfg.PreloadConcurrency,
		ContainerWidth:     float64(m.frameCols()),
		Logger:             m.logger,
	}
}

// openAlbum closes any open session and starts opening albumID.
func (m Model) openAlbum(albumID string) (tea.Model, tea.Cmd) {
	m.closeSession()
	m.viewer.pendingAlbum = ""
	if m.client == nil {
		return m, nil
	}
	m.viewer.opening = true
	m.viewer.openingID = albumID
	m.currentView = ViewAlbums
	return m, tea.Batch(openAlbumCmd(m.ctx, m.client, albumID, m.viewerOptions()), m.spinner.Tick)
}

// closeSession releases the open session, if any.
func (m *Model) closeSession() {
	if m.viewer.session == nil {
		return
	}
	m.viewer.session.Close()
	m.viewer.session = nil
	m.viewer.snap = viewer.Snapshot{}
	m.viewer.pointerDown = false
	m.viewer.retrying = false
	m.viewer.altLatch = false
	m.viewer.infoErr = nil
	clear(m.viewer.info)
	m.viewer.frames = newFrameCache()
}

func (m Model) handleSessionOpened(msg sessionOpenedMsg) (tea.Model, tea.Cmd) {
	if !m.viewer.opening || msg.albumID != m.viewer.openingID {
		if msg.session != nil {
			msg.session.Close()
		}
		return m, nil
	}
	m.viewer.opening = false

	if msg.err != nil {
		m.logger.Warn("ui: open album failed", "album", msg.albumID, "error", msg.err)
		m.modal = newErrorModal("Could not open album", msg.err.Error(), msg.albumID)
		return m, nil
	}

	m.viewer.session = msg.session
	m.viewer.album = album.Album{ID: msg.albumID}
	if a, ok := m.snapshot.Album(msg.albumID); ok {
		m.viewer.album = a
	}
	m.viewer.openedAt = msg.openedAt
	m.viewer.loadTime = 0
	m.viewer.snap = msg.session.Snapshot()
	m.currentView = ViewViewer
	m.syncContainerWidth()
	return m, tea.Batch(waitForChange(msg.session), m.spinner.Tick)
}

func (m Model) handleSessionChanged(msg sessionChangedMsg) (tea.Model, tea.Cmd) {
	sess := m.viewer.session
	if sess == nil || msg.session != sess {
		return m, nil
	}
	m.viewer.snap = sess.Snapshot()
	if m.viewer.snap.Ready && m.viewer.loadTime == 0 {
		m.viewer.loadTime = time.Since(m.viewer.openedAt)
	}
	return m, tea.Batch(waitForChange(sess), m.infoCmd())
}

func (m Model) handleFrameRetried(msg frameRetriedMsg) (tea.Model, tea.Cmd) {
	if msg.session != m.viewer.session {
		return m, nil
	}
	m.viewer.retrying = false
	if msg.err != nil {
		m.logger.Warn("ui: frame retry failed", "frame", msg.index, "error", msg.err)
	} else {
		m.viewer.frames.forget(msg.index)
	}
	if m.viewer.session != nil {
		m.viewer.snap = m.viewer.session.Snapshot()
	}
	return m, nil
}

func (m *Model) handleImageInfo(msg imageInfoMsg) {
	if msg.albumID != m.viewer.album.ID {
		return
	}
	if msg.err != nil {
		m.viewer.infoErr = msg.err
		return
	}
	m.viewer.infoErr = nil
	m.viewer.info[msg.name] = msg.info
}

// infoCmd fetches info for the current frame when the panel shows it and it
// is not cached. Nothing is fetched during autoplay.
func (m Model) infoCmd() tea.Cmd {
	sess := m.viewer.session
	if !m.viewer.showInfo || sess == nil || m.client == nil || m.viewer.snap.Playing {
		return nil
	}
	entry, ok := sess.Frame(m.viewer.snap.FrameIndex)
	if !ok {
		return nil
	}
	if _, cached := m.viewer.info[entry.ID]; cached {
		return nil
	}
	return imageInfoCmd(m.ctx, m.client, m.viewer.album.ID, entry.ID)
}

// handleViewerKey processes keyboard input while an album is open.
func (m Model) handleViewerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sess := m.viewer.session
	if sess == nil {
		m.currentView = ViewAlbums
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		if !m.viewer.snap.Ready {
			m.viewer.snap = sess.Key(viewer.KeyEscape)
			return m, nil
		}
		m.closeSession()
		m.currentView = ViewAlbums
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.viewer.snap = sess.Key(viewer.KeyLeft)
	case key.Matches(msg, m.keys.Next):
		m.viewer.snap = sess.Key(viewer.KeyRight)
	case key.Matches(msg, m.keys.Play):
		m.viewer.snap = sess.Key(viewer.KeySpace)
	case key.Matches(msg, m.keys.Reset):
		m.viewer.snap = sess.Key(viewer.KeyReset)
	case key.Matches(msg, m.keys.ZoomIn):
		m.viewer.snap = sess.Key(viewer.KeyZoomIn)
	case key.Matches(msg, m.keys.ZoomOut):
		m.viewer.snap = sess.Key(viewer.KeyZoomOut)
	case key.Matches(msg, m.keys.ZoomReset):
		m.viewer.snap = sess.Key(viewer.KeyZoomReset)
	case key.Matches(msg, m.keys.AltDrag):
		m.viewer.altLatch = !m.viewer.altLatch
		m.viewer.snap = sess.Dispatch(viewer.SetAltHeld{Held: m.viewer.altLatch})
	case key.Matches(msg, m.keys.Retry):
		index := m.viewer.snap.FrameIndex
		entry, ok := sess.Frame(index)
		if !ok || entry.Status != viewer.StatusErrored || m.viewer.retrying {
			return m, nil
		}
		m.viewer.retrying = true
		return m, tea.Batch(retryFrameCmd(m.ctx, sess, index), m.spinner.Tick)
	case key.Matches(msg, m.keys.Info):
		m.viewer.showInfo = !m.viewer.showInfo
		m.syncContainerWidth()
	}
	return m, m.infoCmd()
}

// handleViewerMouse maps terminal mouse events onto viewer gestures. The left
// button drags, the wheel zooms, and Alt held at press time scrubs a zoomed
// frame instead of panning it.
func (m Model) handleViewerMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	sess := m.viewer.session
	if sess == nil {
		return m, nil
	}
	pt, inside := m.framePoint(msg.X, msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if inside {
			m.viewer.snap = sess.Wheel(1)
		}
	case msg.Button == tea.MouseButtonWheelDown:
		if inside {
			m.viewer.snap = sess.Wheel(-1)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !inside {
			return m, nil
		}
		if held := msg.Alt || m.viewer.altLatch; held != m.viewer.snap.AltHeld {
			sess.Dispatch(viewer.SetAltHeld{Held: held})
		}
		m.viewer.pointerDown = true
		m.viewer.snap = sess.PointerDown(viewer.SourceMouse, pt)
	case msg.Action == tea.MouseActionMotion:
		if m.viewer.pointerDown {
			m.viewer.snap = sess.PointerMove(pt)
		}
	case msg.Action == tea.MouseActionRelease:
		if !m.viewer.pointerDown {
			return m, nil
		}
		m.viewer.pointerDown = false
		m.viewer.snap = sess.PointerUp(pt, 0)
		if m.viewer.snap.AltHeld && !m.viewer.altLatch {
			m.viewer.snap = sess.Dispatch(viewer.SetAltHeld{Held: false})
		}
	}
	return m, m.infoCmd()
}

// framePoint converts a terminal cell into frame pixel coordinates.
func (m Model) framePoint(x, y int) (viewer.Point, bool) {
	row := y - 2
	inside := row >= 0 && row < m.frameRows() && x >= 0 && x < m.frameCols()
	return viewer.Point{X: float64(x), Y: float64(row * 2)}, inside
}

func (m Model) frameCols() int {
	cols := m.width
	if m.viewer.showInfo {
		cols -= infoPanelWidth
	}
	return max(0, cols)
}

func (m Model) frameRows() int {
	return max(0, m.height-chromeRows)
}

// syncContainerWidth tells the session how wide the scrub area is.
func (m Model) syncContainerWidth() {
	if m.viewer.session != nil {
		m.viewer.session.SetContainerWidth(float64(m.frameCols()))
	}
}

// renderViewer renders the frame area and the bar beneath it.
func (m Model) renderViewer() string {
	cols, rows := m.frameCols(), m.frameRows()
	frame := m.renderFrame(cols, rows)
	if m.viewer.showInfo {
		frame = lipgloss.JoinHorizontal(lipgloss.Top, frame, m.renderInfoPanel(rows))
	}
	return frame + "\n" + m.renderViewerBar()
}

func (m Model) renderFrame(cols, rows int) string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	place := func(content string) string {
		return lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center, content,
			lipgloss.WithWhitespaceBackground(bg.Color()))
	}

	sess := m.viewer.session
	if sess == nil || rows == 0 || cols == 0 {
		return place("")
	}
	snap := m.viewer.snap
	entry, ok := sess.Frame(snap.FrameIndex)
	if !ok {
		return place("")
	}

	switch entry.Status {
	case viewer.StatusLoaded:
		return m.viewer.frames.render(snap.FrameIndex, entry.Image, cols, rows, snap.State, m.theme.Background, m.profile)

	case viewer.StatusErrored:
		lines := []string{
			bg.Render(fmt.Sprintf("Frame %d of %d failed to load", snap.FrameIndex+1, snap.Frames), styles.DangerText),
		}
		if entry.Err != nil {
			lines = append(lines, bg.Render(truncate(entry.Err.Error(), max(10, cols-4)), styles.MutedText))
		}
		if m.viewer.retrying {
			lines = append(lines, m.spinner.View()+bg.Space()+bg.Render("Retrying...", styles.WarningText))
		} else {
			lines = append(lines, bg.Render("R", styles.AccentText)+bg.Space()+bg.Render("retry", styles.MutedText))
		}
		return place(strings.Join(lines, "\n"))

	default:
		return place(m.spinner.View() + bg.Space() +
			bg.Render(fmt.Sprintf("Loading frame %d...", snap.FrameIndex+1), styles.MutedText))
	}
}

// renderViewerBar shows preload progress until the album is ready, then the
// rotation position.
func (m Model) renderViewerBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	snap := m.viewer.snap

	if !snap.Ready {
		p := snap.Progress
		label := m.spinner.View() + bg.Space() +
			bg.Render(fmt.Sprintf("Loading %d/%d", p.Resolved, p.Total), styles.WarningText)
		pct := bg.Render(fmt.Sprintf("%3.0f%%", p.Percent()), styles.Text)
		hint := bg.Render("esc", styles.AccentText) + bg.Space() + bg.Render("to skip", styles.MutedText)
		width := max(10, m.width-lipgloss.Width(label)-lipgloss.Width(pct)-lipgloss.Width(hint)-8)
		bar := m.progressBar(width, p.Percent()/100, m.theme.Warning)
		return bg.FillLine(bg.Join([]string{label, bar, pct, hint}, "  "), m.width)
	}

	frames := max(1, snap.Frames)
	position := bg.Render(fmt.Sprintf("↻ %d/%d", snap.FrameIndex+1, frames), styles.AccentText.Bold(true))
	parts := []string{position}
	var extra []string
	if snap.Gesture == viewer.GestureScrub && snap.DragProgress > 0 {
		extra = append(extra, bg.Render(fmt.Sprintf("scrub %2.0f%%", snap.DragProgress*100), styles.StatusStyle("scrub")))
	}
	if failed := m.erroredFrames(); failed > 0 {
		extra = append(extra, bg.Render(fmt.Sprintf("%d failed", failed), styles.DangerText))
	}
	used := lipgloss.Width(position) + 4
	for _, e := range extra {
		used += lipgloss.Width(e) + 2
	}
	parts = append(parts, m.progressBar(max(10, m.width-used), float64(snap.FrameIndex+1)/float64(frames), m.theme.Accent))
	parts = append(parts, extra...)
	return bg.FillLine(bg.Join(parts, "  "), m.width)
}

func (m Model) erroredFrames() int {
	if m.viewer.session == nil {
		return 0
	}
	n := 0
	for _, e := range m.viewer.session.Frames() {
		if e.Status == viewer.StatusErrored {
			n++
		}
	}
	return n
}

// progressBar renders a fraction in [0,1] as a bar of the given width.
func (m Model) progressBar(width int, fraction float64, fill string) string {
	fraction = min(1, max(0, fraction))
	filled := int(fraction*float64(width) + 0.5)
	done := lipgloss.NewStyle().
		Foreground(lipgloss.Color(fill)).
		Background(lipgloss.Color(m.theme.Surface)).
		Render(strings.Repeat("━", filled))
	rest := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.SurfaceAlt)).
		Background(lipgloss.Color(m.theme.Surface)).
		Render(strings.Repeat("━", width-filled))
	return done + rest
}

// renderInfoPanel shows file and EXIF details of the current frame.
func (m Model) renderInfoPanel(rows int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	inner := infoPanelWidth - 4

	var lines []string
	field := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines,
			styles.FaintText.Render(padRight(label, 10))+styles.Text.Render(truncate(value, inner-10)))
	}

	sess := m.viewer.session
	var name string
	if sess != nil {
		if entry, ok := sess.Frame(m.viewer.snap.FrameIndex); ok {
			name = entry.ID
			lines = append(lines, styles.AccentText.Bold(true).Render(truncateMiddle(name, inner)))
			field("Status", entry.Status.String())
			if entry.UsedFallback {
				field("Source", "static fallback")
			}
		}
	}

	if info := m.viewer.info[name]; info != nil {
		field("Size", formatBytes(info.Size))
		if d := info.Dimensions; d != nil {
			field("Pixels", fmt.Sprintf("%d×%d", d.Width, d.Height))
		}
		for _, k := range []string{"DateTimeOriginal", "ISO", "FNumber", "ExposureTime", "FocalLength", "Orientation"} {
			if v, ok := info.Exif[k]; ok {
				field(exifLabel(k), fmt.Sprint(v))
			}
		}
	} else if m.viewer.snap.Playing {
		lines = append(lines, styles.MutedText.Render("paused frames only"))
	} else if m.viewer.infoErr != nil {
		lines = append(lines, styles.DangerText.Render(truncate(m.viewer.infoErr.Error(), inner)))
	}

	if shoot := m.viewer.album.Metadata.ShootingInfo; shoot != nil {
		lines = append(lines, "", styles.AccentText.Render("Album"))
		field("Camera", shoot.Camera)
		field("Lens", shoot.Lens)
		field("Date", shoot.Date)
		if s := shoot.Settings; s != nil {
			if s.ISO > 0 {
				field("ISO", fmt.Sprint(s.ISO))
			}
			field("Aperture", s.Aperture)
			field("Shutter", s.ShutterSpeed)
			field("Focal", s.FocalLength)
		}
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.SurfaceAlt)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Padding(1, 2).
		Width(infoPanelWidth).
		Height(rows).
		MaxHeight(rows).
		Render(strings.Join(lines, "\n"))
}

func exifLabel(key string) string {
	switch key {
	case "DateTimeOriginal":
		return "Taken"
	case "FNumber":
		return "f-number"
	case "ExposureTime":
		return "Exposure"
	case "FocalLength":
		return "Focal"
	default:
		return key
	}
}
