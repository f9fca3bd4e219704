package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/brickview/internal/catalog"
	"github.com/five82/brickview/internal/gallery"
	"github.com/five82/brickview/internal/input"
	"github.com/five82/brickview/internal/nav"
	"github.com/five82/brickview/internal/prefs"
)

const (
	logOverlayLines = 200
	previewTimeout  = 15 * time.Second
)

// PhotoSource downloads photo binaries.
type PhotoSource interface {
	FetchPhotoBytes(ctx context.Context, filename string) ([]byte, error)
}

// BlobCache stores photo binaries between runs.
type BlobCache interface {
	Get(ctx context.Context, filename string) ([]byte, bool, error)
	Put(ctx context.Context, filename string, data []byte) error
}

// VideoControl applies playback requests in the order they are made. The
// returned channels deliver each outcome.
type VideoControl interface {
	Play(ctx context.Context, ref string) <-chan error
	Stop() <-chan error
}

type nopVideo struct{}

func (nopVideo) Play(context.Context, string) <-chan error { return doneErr(nil) }
func (nopVideo) Stop() <-chan error                        { return doneErr(nil) }

func doneErr(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}

// Options configure the UI runtime.
type Options struct {
	Context    context.Context
	Catalog    *catalog.Catalog
	Store      *gallery.Store
	Photos     PhotoSource
	Cache      BlobCache // optional
	Player     VideoControl // optional; no video without it
	PollEvents <-chan gallery.PollResult
	ThemeName  string
	PrefsPath  string
	LogFile    string
	UploadURL  string
	Logger     *slog.Logger
	Now        func() time.Time
}

type refreshedMsg struct {
	count int
	err   error
}

type pollMsg struct {
	result gallery.PollResult
}

// indicatorExpiredMsg carries the deadline that was armed when it was
// scheduled. The store decides visibility, so a tick from a superseded
// deadline only causes a redraw.
type indicatorExpiredMsg struct {
	deadline time.Time
}

type previewMsg struct {
	filename string
	cols     int
	rows     int
	art      string
	err      error
}

type logsMsg struct {
	lines []string
	err   error
}

type playbackMsg struct {
	ref string
	err error
}

type previewState struct {
	filename string
	cols     int
	rows     int
	art      string
	err      error
	loading  bool
}

// Model is the Bubble Tea model for the remote.
type Model struct {
	ctx        context.Context
	catalog    *catalog.Catalog
	store      *gallery.Store
	machine    *nav.Machine
	dispatcher *input.Dispatcher
	photos     PhotoSource
	cache      BlobCache
	player     VideoControl
	pollEvents <-chan gallery.PollResult
	logger     *slog.Logger
	now        func() time.Time

	theme     Theme
	prefsPath string
	logFile   string
	uploadURL string
	uploadQR  string

	help       help.Model
	spinner    spinner.Model
	logView    viewport.Model
	refreshing int
	showHelp   bool
	showLogs   bool
	logErr     error
	preview    previewState
	playErr    error

	width  int
	height int
}

// New builds the model. Catalog and Store are required.
func New(opts Options) (Model, error) {
	if opts.Catalog == nil {
		return Model{}, errors.New("ui requires a scene catalog")
	}
	if opts.Store == nil {
		return Model{}, errors.New("ui requires a gallery store")
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Player == nil {
		opts.Player = nopVideo{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ThemeName == "" {
		opts.ThemeName = prefs.DefaultTheme()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:        opts.Context,
		catalog:    opts.Catalog,
		store:      opts.Store,
		machine:    nav.New(opts.Catalog, opts.Store),
		dispatcher: input.NewDispatcher(),
		photos:     opts.Photos,
		cache:      opts.Cache,
		player:     opts.Player,
		pollEvents: opts.PollEvents,
		logger:     opts.Logger,
		now:        opts.Now,
		theme:      GetTheme(opts.ThemeName),
		prefsPath:  opts.PrefsPath,
		logFile:    opts.LogFile,
		uploadURL:  opts.UploadURL,
		help:       help.New(),
		spinner:    sp,
		logView:    viewport.New(0, 0),
	}
	if m.uploadURL != "" {
		qr, err := renderQR(m.uploadURL)
		if err != nil {
			m.logger.Warn("upload qr unavailable", "url", m.uploadURL, "error", err)
		} else {
			m.uploadQR = qr
		}
	}
	m.applyTheme()
	return m, nil
}

// Machine exposes the navigation state for the driver and tests.
func (m Model) Machine() *nav.Machine {
	return m.machine
}

// Init starts listening for poll events.
func (m Model) Init() tea.Cmd {
	return m.waitForPoll()
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.logView.Width = msg.Width
		m.logView.Height = max(1, msg.Height-4)
		if m.machine.State().View == nav.ViewFullscreen {
			cmd := m.loadPreview()
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshedMsg:
		return m.handleRefreshed(msg)

	case pollMsg:
		var cmds []tea.Cmd
		if msg.result.NewContent {
			cmds = append(cmds, m.runEffects(m.machine.NotifyNewContent())...)
		}
		cmds = append(cmds, m.waitForPoll())
		return m, tea.Batch(cmds...)

	case indicatorExpiredMsg:
		return m, nil

	case previewMsg:
		if msg.filename != m.preview.filename || msg.cols != m.preview.cols || msg.rows != m.preview.rows {
			return m, nil
		}
		m.preview.loading = false
		m.preview.art = msg.art
		m.preview.err = msg.err
		if msg.err != nil {
			m.logger.Warn("preview failed", "photo", msg.filename, "error", msg.err)
		}
		return m, nil

	case logsMsg:
		m.logErr = msg.err
		m.logView.SetContent(m.renderLogLines(msg.lines))
		m.logView.GotoBottom()
		return m, nil

	case playbackMsg:
		m.playErr = msg.err
		if msg.err != nil {
			m.logger.Error("video playback failed", "video", msg.ref, "error", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		if m.refreshing == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	command := m.dispatcher.Resolve(msg)

	if m.showLogs {
		switch command {
		case input.CommandDismiss, input.CommandLogs:
			m.showLogs = false
			return m, nil
		case input.CommandQuit:
		default:
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd
		}
	}
	if m.showHelp && (command == input.CommandDismiss || command == input.CommandHelp) {
		m.showHelp = false
		return m, nil
	}

	switch command {
	case input.CommandNone:
		return m, nil
	case input.CommandQuit:
		if err := <-m.player.Stop(); err != nil {
			m.logger.Warn("stop player on quit", "error", err)
		}
		return m, tea.Quit
	case input.CommandHelp:
		m.showHelp = true
		return m, nil
	case input.CommandLogs:
		m.showLogs = true
		m.showHelp = false
		return m, m.loadLogs()
	case input.CommandCycleTheme:
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
			m.logger.Warn("save prefs", "error", err)
		}
		return m, nil
	case input.CommandOpenPhoto:
		if m.store.PhotoCount() == 0 {
			return m, nil
		}
	}

	effects, err := input.Apply(m.machine, command)
	if err != nil {
		m.logger.Debug("command rejected", "command", command.String(), "error", err)
		return m, nil
	}
	cmds := m.runEffects(effects)
	return m, tea.Batch(cmds...)
}

func (m Model) handleRefreshed(msg refreshedMsg) (tea.Model, tea.Cmd) {
	if m.refreshing > 0 {
		m.refreshing--
	}
	if msg.err != nil {
		m.logger.Warn("gallery refresh failed", "error", msg.err)
	} else {
		m.logger.Debug("gallery refreshed", "photos", msg.count)
	}

	var cmds []tea.Cmd
	cmds = append(cmds, m.runEffects(m.machine.Reconcile())...)
	switch m.machine.State().View {
	case nav.ViewFullscreen:
		cmds = append(cmds, m.loadPreview(), m.showPendingIndicator())
	case nav.ViewPhotos:
		cmds = append(cmds, m.showPendingIndicator())
	}
	return m, tea.Batch(cmds...)
}

// showPendingIndicator consumes PendingNew while the gallery is on screen.
// Away from it the flag waits for the next visit.
func (m Model) showPendingIndicator() tea.Cmd {
	if !m.store.Snapshot().PendingNew {
		return nil
	}
	deadline := m.store.MarkIndicatorShown(m.now())
	return indicatorTick(deadline, deadline.Sub(m.now()))
}

// runEffects turns machine effects into commands. View reads the machine
// state directly, so most view changes need no command.
func (m *Model) runEffects(effects []nav.Effect) []tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range effects {
		switch e.Kind {
		case nav.EffectPlayVideo:
			m.playErr = nil
			cmds = append(cmds, m.playVideo(e.VideoRef))
		case nav.EffectStopVideo:
			cmds = append(cmds, m.stopVideo())
		case nav.EffectShowPhotos:
			cmds = append(cmds, m.showPendingIndicator())
		case nav.EffectRefreshGallery:
			cmds = append(cmds, m.startRefresh()...)
		case nav.EffectShowFullscreen:
			m.preview = previewState{}
			cmds = append(cmds, m.loadPreview())
		}
	}
	return cmds
}

func (m *Model) startRefresh() []tea.Cmd {
	m.refreshing++
	store := m.store
	ctx := m.ctx
	refresh := func() tea.Msg {
		photos, err := store.Refresh(ctx)
		return refreshedMsg{count: len(photos), err: err}
	}
	if m.refreshing == 1 {
		return []tea.Cmd{refresh, m.spinner.Tick}
	}
	return []tea.Cmd{refresh}
}

func (m Model) waitForPoll() tea.Cmd {
	if m.pollEvents == nil {
		return nil
	}
	events := m.pollEvents
	return func() tea.Msg {
		result, ok := <-events
		if !ok {
			return nil
		}
		return pollMsg{result: result}
	}
}

func indicatorTick(deadline time.Time, after time.Duration) tea.Cmd {
	if after <= 0 {
		after = time.Millisecond
	}
	return tea.Tick(after, func(time.Time) tea.Msg {
		return indicatorExpiredMsg{deadline: deadline}
	})
}

// playVideo and stopVideo submit to the player while Update runs, so the
// player sees requests in key order. The commands only wait for the outcome.
func (m Model) playVideo(ref string) tea.Cmd {
	result := m.player.Play(m.ctx, ref)
	return func() tea.Msg {
		return playbackMsg{ref: ref, err: <-result}
	}
}

func (m Model) stopVideo() tea.Cmd {
	result := m.player.Stop()
	return func() tea.Msg {
		return playbackMsg{err: <-result}
	}
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	m.spinner.Style = styles.AccentText
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.help.Styles.FullKey = styles.AccentText
	m.help.Styles.FullDesc = styles.MutedText
	m.help.Styles.FullSeparator = styles.FaintText
}
