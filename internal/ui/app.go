package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/five82/rotary/internal/album"
	"github.com/five82/rotary/internal/config"
	"github.com/five82/rotary/internal/prefs"
	"github.com/five82/rotary/internal/state"
	"github.com/five82/rotary/internal/viewer"
)

// View identifies the active screen.
type View int

const (
	ViewAlbums View = iota
	ViewViewer
	ViewLogs
)

// Gallery is the album server as the UI uses it. *gallery.Client implements it.
type Gallery interface {
	viewer.FrameSource
	viewer.Loader
	Resolver(albumID string) viewer.URLResolver
	FetchImageInfo(ctx context.Context, albumID, name string) (*album.ImageInfo, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    Gallery
	Store     *state.Store
	Config    *config.Config
	Logger    *slog.Logger
	PollTick  time.Duration
	ThemeName string
	Prefs     prefs.Prefs
	PrefsPath string
	AlbumID   string // open this album on start
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    Gallery
	store     *state.Store
	config    *config.Config
	logger    *slog.Logger
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration
	keys      keyMap
	profile   termenv.Profile

	// UI state
	theme       Theme
	currentView View
	returnView  View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	// Album browser state
	snapshot    state.Snapshot
	lastUpdated time.Time
	selected    int

	// Viewer state
	viewer  viewerState
	spinner spinner.Model

	// Log state
	logViewport viewport.Model
	logFollow   bool
	logErr      error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	theme := GetTheme(themeName)
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	return Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		config:      opts.Config,
		logger:      logger,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		profile:     lipgloss.ColorProfile(),
		theme:       theme,
		currentView: ViewAlbums,
		spinner:     spin,
		logFollow:   true,
		viewer: viewerState{
			pendingAlbum: strings.TrimSpace(opts.AlbumID),
			frames:       newFrameCache(),
			info:         make(map[string]*album.ImageInfo),
		},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.currentView == ViewViewer && m.modal == nil && !m.showHelp {
			return m.handleViewerMouse(msg)
		}
		if m.currentView == ViewLogs {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logViewport = viewport.New(m.width, m.logHeight())
		}
		m.ready = true
		m.logViewport.Width = m.width
		m.logViewport.Height = m.logHeight()
		m.syncContainerWidth()
		if m.viewer.pendingAlbum != "" && !m.viewer.opening && m.viewer.session == nil {
			return m.openAlbum(m.viewer.pendingAlbum)
		}
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.snapshot.LastUpdated
		if m.selected >= len(m.snapshot.Albums) {
			m.selected = max(0, len(m.snapshot.Albums)-1)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.viewer.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionOpenedMsg:
		return m.handleSessionOpened(msg)

	case openRetryMsg:
		m.modal = nil
		return m.openAlbum(msg.albumID)

	case sessionChangedMsg:
		return m.handleSessionChanged(msg)

	case frameRetriedMsg:
		return m.handleFrameRetried(msg)

	case imageInfoMsg:
		m.handleImageInfo(msg)
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewViewer:
		return m.renderViewer()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderAlbums()
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
			if cmd == nil {
				m.currentView = ViewAlbums
			}
			return m, cmd
		}
		m.modal = modal
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.closeSession()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		if m.currentView == ViewLogs {
			m.currentView = m.returnView
			return m, nil
		}
		m.returnView = m.currentView
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	}

	switch m.currentView {
	case ViewViewer:
		return m.handleViewerKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleAlbumsKey(msg)
	}
}

// cycleTheme switches to the next theme and persists the choice.
func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
	m.prefs.Theme = m.theme.Name
	if m.prefsPath != "" {
		if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
			m.logger.Warn("ui: save prefs failed", "error", err)
		}
	}
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.currentView == ViewLogs && m.logFollow {
		cmds = append(cmds, m.refreshLogs())
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// contentHeight is the number of rows below the header and command bar.
func (m Model) contentHeight() int {
	return max(0, m.height-2)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(m.ctx),
	)
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.closeSession()
	}
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
