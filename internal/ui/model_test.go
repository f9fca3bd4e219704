package ui

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/brickview/internal/backend"
	"github.com/five82/brickview/internal/catalog"
	"github.com/five82/brickview/internal/gallery"
	"github.com/five82/brickview/internal/nav"
	"github.com/five82/brickview/internal/player"
	"github.com/five82/brickview/internal/prefs"
)

var fixedNow = time.Unix(1_760_000_000, 0)

type fakeFetcher struct {
	mu         sync.Mutex
	photos     []backend.Photo
	photoCalls int
	stateTotal int
}

func (f *fakeFetcher) FetchPhotos(context.Context) ([]backend.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photoCalls++
	return append([]backend.Photo(nil), f.photos...), nil
}

func (f *fakeFetcher) FetchState(context.Context) (*backend.StateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := f.stateTotal
	if total == 0 {
		total = len(f.photos)
	}
	return &backend.StateResponse{TotalCount: total}, nil
}

func (f *fakeFetcher) add(p backend.Photo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append([]backend.Photo{p}, f.photos...)
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.photoCalls
}

type recordingPlayer struct {
	mu     sync.Mutex
	played []string
	stops  int
	ops    []string
}

func (p *recordingPlayer) Play(_ context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, ref)
	p.ops = append(p.ops, "play")
	return nil
}

func (p *recordingPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.ops = append(p.ops, "stop")
	return nil
}

func (p *recordingPlayer) history() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ops...)
}

type fakePhotoSource struct {
	mu    sync.Mutex
	data  []byte
	calls int
}

func (s *fakePhotoSource) FetchPhotoBytes(context.Context, string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.data, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *mapCache) Get(_ context.Context, name string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[name]
	return data, ok, nil
}

func (c *mapCache) Put(_ context.Context, name string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string][]byte{}
	}
	c.entries[name] = data
	return nil
}

type harness struct {
	model   Model
	fetcher *fakeFetcher
	store   *gallery.Store
	player  *recordingPlayer
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	fetcher := &fakeFetcher{photos: []backend.Photo{
		{ID: 2, Filename: "b.jpg", Caption: "Castle", CreatedAt: fixedNow.Add(-10 * time.Minute).Unix()},
		{ID: 1, Filename: "a.jpg", AIName: "Millennium Falcon", CreatedAt: fixedNow.Add(-3 * time.Hour).Unix()},
	}}
	store := gallery.NewStore(fetcher)
	store.SetIndicatorWindow(time.Millisecond)
	rec := &recordingPlayer{}
	queue := player.NewQueue(rec, nil)
	t.Cleanup(func() { _ = queue.Close() })

	opts := Options{
		Catalog:   catalog.Default(),
		Store:     store,
		Player:    queue,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Now:       func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	m, err := New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	h := &harness{model: m, fetcher: fetcher, store: store, player: rec}
	h.send(t, tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

// send delivers msg and runs every resulting command to completion,
// feeding their messages back in. Spinner ticks are dropped so the loop
// terminates.
func (h *harness) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatalf("message loop did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if _, ok := next.(spinner.TickMsg); ok {
			continue
		}
		updated, cmd := h.model.Update(next)
		h.model = updated.(Model)
		queue = append(queue, run(cmd)...)
	}
}

func (h *harness) press(t *testing.T, keys ...tea.KeyMsg) {
	t.Helper()
	for _, k := range keys {
		h.send(t, k)
	}
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNew_RequiresCatalogAndStore(t *testing.T) {
	if _, err := New(Options{Store: gallery.NewStore(&fakeFetcher{})}); err == nil {
		t.Fatalf("New without catalog returned nil error")
	}
	if _, err := New(Options{Catalog: catalog.Default()}); err == nil {
		t.Fatalf("New without store returned nil error")
	}
}

func TestVideoScenePlaysAndBackStops(t *testing.T) {
	h := newHarness(t, nil)

	h.press(t, keyEnter)
	if got := h.model.Machine().State().View; got != nav.ViewVideo {
		t.Fatalf("view = %v, want video", got)
	}
	if len(h.player.played) != 1 || h.player.played[0] != catalog.Default().At(0).VideoRef {
		t.Fatalf("played = %v, want first scene video", h.player.played)
	}
	if !strings.Contains(h.model.View(), "Now playing") {
		t.Fatalf("video view missing Now playing panel")
	}

	h.press(t, keyEsc)
	if got := h.model.Machine().State().View; got != nav.ViewDashboard {
		t.Fatalf("view = %v, want dashboard", got)
	}
	if h.player.stops != 1 {
		t.Fatalf("stops = %d, want 1", h.player.stops)
	}
}

func TestGalleryRefreshAndNewIndicator(t *testing.T) {
	h := newHarness(t, nil)

	// Up from the first scene wraps to the gallery at the end.
	h.press(t, keyUp, keyEnter)
	if got := h.model.Machine().State().View; got != nav.ViewPhotos {
		t.Fatalf("view = %v, want photos", got)
	}
	if h.store.PhotoCount() != 2 {
		t.Fatalf("PhotoCount = %d, want 2 after opening gallery", h.store.PhotoCount())
	}
	if h.store.IndicatorVisible(fixedNow) {
		t.Fatalf("indicator visible after first load")
	}
	view := h.model.View()
	if !strings.Contains(view, "Castle") || !strings.Contains(view, "Millennium Falcon") {
		t.Fatalf("photo wall missing card labels:\n%s", view)
	}

	h.fetcher.add(backend.Photo{ID: 3, Filename: "c.jpg", Caption: "Rocket", CreatedAt: fixedNow.Unix()})
	result, err := h.store.Poll(context.Background())
	if err != nil || !result.NewContent {
		t.Fatalf("Poll = %+v, %v, want new content", result, err)
	}
	h.send(t, pollMsg{result: result})

	if h.store.PhotoCount() != 3 {
		t.Fatalf("PhotoCount = %d, want 3 after poll refresh", h.store.PhotoCount())
	}
	if !h.store.IndicatorVisible(fixedNow) {
		t.Fatalf("indicator not visible after new photo arrived")
	}
	if h.store.Snapshot().PendingNew {
		t.Fatalf("PendingNew still set after indicator shown")
	}
	if !strings.Contains(h.model.View(), "NEW") {
		t.Fatalf("view missing NEW indicator")
	}
}

func TestPollAwayFromGalleryDefersRefresh(t *testing.T) {
	h := newHarness(t, nil)
	before := h.fetcher.calls()

	h.send(t, pollMsg{result: gallery.PollResult{Total: 9, NewContent: true}})
	if h.fetcher.calls() != before {
		t.Fatalf("photos fetched while on dashboard")
	}
	if !h.model.Machine().RefreshDeferred() {
		t.Fatalf("RefreshDeferred = false, want true")
	}
}

func TestOpenPhotoOnEmptyGalleryIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.fetcher.photos = nil

	h.press(t, keyUp, keyEnter, keySpace)
	if got := h.model.Machine().State().View; got != nav.ViewPhotos {
		t.Fatalf("view = %v, want photos", got)
	}
	if !strings.Contains(h.model.View(), "No photos yet") {
		t.Fatalf("empty gallery message missing")
	}
}

func TestEmptyGalleryShowsUploadQR(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.UploadURL = "https://lego.example/upload" })
	h.fetcher.photos = nil

	h.press(t, keyUp, keyEnter)
	view := h.model.View()
	if !strings.Contains(view, "Scan to upload") || !strings.Contains(view, "█") {
		t.Fatalf("empty gallery missing QR code:\n%s", view)
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 227, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// holdRefresh presses Enter on the photo wall and returns the refresh
// command without running it.
func (h *harness) holdRefresh(t *testing.T) tea.Cmd {
	t.Helper()
	if got := h.model.Machine().State().View; got != nav.ViewPhotos {
		t.Fatalf("view = %v, want photos before refresh", got)
	}
	updated, cmd := h.model.Update(keyEnter)
	h.model = updated.(Model)
	if cmd == nil {
		t.Fatalf("Enter on photo wall returned no command")
	}
	return cmd
}

func (h *harness) deliver(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	for _, msg := range run(cmd) {
		h.send(t, msg)
	}
}

func TestFullscreenPreviewReadsThroughCache(t *testing.T) {
	source := &fakePhotoSource{data: testPNG(t)}
	cache := &mapCache{}
	h := newHarness(t, func(o *Options) {
		o.Photos = source
		o.Cache = cache
	})

	h.press(t, keyUp, keyEnter, keyRight, keySpace)
	state := h.model.Machine().State()
	if state.View != nav.ViewFullscreen || state.FocusedPhoto != 1 {
		t.Fatalf("state = %+v, want fullscreen on photo 1", state)
	}
	if h.model.preview.loading || h.model.preview.err != nil || h.model.preview.art == "" {
		t.Fatalf("preview = %+v, want rendered art", h.model.preview)
	}
	if h.model.preview.filename != "a.jpg" {
		t.Fatalf("preview filename = %q, want a.jpg", h.model.preview.filename)
	}
	if _, ok, _ := cache.Get(context.Background(), "a.jpg"); !ok {
		t.Fatalf("photo not stored in cache")
	}

	h.press(t, keyEsc, keySpace)
	if source.calls != 1 {
		t.Fatalf("source calls = %d, want 1 (second open served from cache)", source.calls)
	}
}

func TestFullscreenFollowsPhotoAcrossRefresh(t *testing.T) {
	source := &fakePhotoSource{data: testPNG(t)}
	h := newHarness(t, func(o *Options) { o.Photos = source })

	h.press(t, keyUp, keyEnter, keyRight)
	refresh := h.holdRefresh(t)
	h.press(t, keySpace)
	if h.model.preview.filename != "a.jpg" {
		t.Fatalf("preview filename = %q, want a.jpg", h.model.preview.filename)
	}

	// A newer photo is prepended before the refresh result arrives.
	h.fetcher.add(backend.Photo{ID: 3, Filename: "c.jpg", CreatedAt: fixedNow.Unix()})
	h.deliver(t, refresh)

	state := h.model.Machine().State()
	if state.View != nav.ViewFullscreen || state.FocusedPhoto != 2 {
		t.Fatalf("state = %+v, want fullscreen on index 2", state)
	}
	if photo, _ := h.store.Photo(state.FocusedPhoto); photo.Filename != "a.jpg" {
		t.Fatalf("focused photo = %q, want a.jpg", photo.Filename)
	}
	if h.model.preview.filename != "a.jpg" {
		t.Fatalf("preview filename = %q, want a.jpg", h.model.preview.filename)
	}
	if source.calls != 1 {
		t.Fatalf("source calls = %d, want 1 (same photo not reloaded)", source.calls)
	}

	// The focused photo is removed: focus clamps and the preview follows.
	h.fetcher.mu.Lock()
	h.fetcher.photos = h.fetcher.photos[:2]
	h.fetcher.mu.Unlock()
	h.model.refreshing++
	if _, err := h.store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	h.send(t, refreshedMsg{count: 2})

	state = h.model.Machine().State()
	if state.FocusedPhoto != 1 {
		t.Fatalf("FocusedPhoto = %d, want 1 after removal", state.FocusedPhoto)
	}
	if h.model.preview.filename != "b.jpg" || h.model.preview.art == "" {
		t.Fatalf("preview = %+v, want b.jpg art", h.model.preview)
	}
	if photo, _ := h.store.Photo(state.FocusedPhoto); photo.Filename != "b.jpg" {
		t.Fatalf("focused photo = %q, want b.jpg", photo.Filename)
	}
}

func TestDismissDuringRefreshStillApplies(t *testing.T) {
	h := newHarness(t, nil)
	h.press(t, keyUp, keyEnter, keyRight)

	refresh := h.holdRefresh(t)
	h.press(t, keyEsc)
	h.fetcher.add(backend.Photo{ID: 3, Filename: "c.jpg", CreatedAt: fixedNow.Unix()})
	h.deliver(t, refresh)

	state := h.model.Machine().State()
	if state.View != nav.ViewDashboard {
		t.Fatalf("view = %v, want dashboard", state.View)
	}
	if h.store.PhotoCount() != 3 {
		t.Fatalf("PhotoCount = %d, want 3 from the late refresh", h.store.PhotoCount())
	}
	if photo, _ := h.store.Photo(state.FocusedPhoto); photo.Filename != "a.jpg" {
		t.Fatalf("focus moved to %q, want a.jpg", photo.Filename)
	}
	if h.model.refreshing != 0 {
		t.Fatalf("refreshing = %d, want 0", h.model.refreshing)
	}
}

func TestIndicatorWaitsForGalleryVisit(t *testing.T) {
	h := newHarness(t, nil)
	h.press(t, keyUp, keyEnter)

	refresh := h.holdRefresh(t)
	h.press(t, keyEsc)
	h.fetcher.add(backend.Photo{ID: 3, Filename: "c.jpg", CreatedAt: fixedNow.Unix()})
	h.deliver(t, refresh)

	if !h.store.Snapshot().PendingNew {
		t.Fatalf("PendingNew consumed while away from the gallery")
	}
	if h.store.IndicatorVisible(fixedNow) {
		t.Fatalf("indicator shown while away from the gallery")
	}

	h.press(t, keyEnter)
	if got := h.model.Machine().State().View; got != nav.ViewPhotos {
		t.Fatalf("view = %v, want photos", got)
	}
	if h.store.Snapshot().PendingNew || !h.store.IndicatorVisible(fixedNow) {
		t.Fatalf("indicator not shown on return to the gallery")
	}
}

func TestPlayThenBackStopsInKeyOrder(t *testing.T) {
	h := newHarness(t, nil)

	updated, play := h.model.Update(keyEnter)
	h.model = updated.(Model)
	updated, stop := h.model.Update(keyEsc)
	h.model = updated.(Model)

	// Commands finish in the opposite order to the keys.
	run(stop)
	run(play)

	ops := h.player.history()
	if len(ops) == 0 || ops[len(ops)-1] != "stop" {
		t.Fatalf("player ops = %v, want stop last", ops)
	}
	if got := h.model.Machine().State().View; got != nav.ViewDashboard {
		t.Fatalf("view = %v, want dashboard", got)
	}
}

func TestFullscreenBackReturnsToWall(t *testing.T) {
	h := newHarness(t, nil)
	h.press(t, keyUp, keyEnter, keySpace)
	if got := h.model.Machine().State().View; got != nav.ViewFullscreen {
		t.Fatalf("view = %v, want fullscreen", got)
	}
	// No photo source configured: the preview reports an error instead of art.
	if h.model.preview.err == nil {
		t.Fatalf("preview err = nil, want missing source error")
	}
	h.press(t, keyEsc)
	if got := h.model.Machine().State().View; got != nav.ViewPhotos {
		t.Fatalf("view = %v, want photos", got)
	}
	h.press(t, keyDown)
	if got := h.model.Machine().State().View; got != nav.ViewDashboard {
		t.Fatalf("view = %v, want dashboard after scene change", got)
	}
}

func TestHelpOverlay(t *testing.T) {
	h := newHarness(t, nil)
	h.press(t, runeKey('?'))
	if !strings.Contains(h.model.View(), "Remote Controls") {
		t.Fatalf("help overlay not shown")
	}
	h.press(t, keyEsc)
	if strings.Contains(h.model.View(), "Remote Controls") {
		t.Fatalf("help overlay still shown after Back")
	}
	if got := h.model.Machine().State().View; got != nav.ViewDashboard {
		t.Fatalf("Back on help changed view to %v", got)
	}
}

func TestLogsOverlayShowsClientLog(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "brickview.log")
	line := `time=2026-10-14T09:00:00.000Z level=WARN msg="poll failed" error="connection refused"` + "\n"
	if err := os.WriteFile(logFile, []byte(line), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h := newHarness(t, func(o *Options) { o.LogFile = logFile })

	h.press(t, runeKey('L'))
	view := h.model.View()
	if !strings.Contains(view, "Diagnostics") || !strings.Contains(view, "poll failed") {
		t.Fatalf("logs overlay missing content:\n%s", view)
	}
	h.press(t, keyEsc)
	if h.model.showLogs {
		t.Fatalf("logs overlay still open after Back")
	}
}

func TestCycleThemeSavesPrefs(t *testing.T) {
	h := newHarness(t, nil)
	h.press(t, runeKey('T'))
	if h.model.theme.Name != "Dracula" {
		t.Fatalf("theme = %q, want Dracula", h.model.theme.Name)
	}
	p, err := prefs.Load(h.model.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	if p.Theme != "Dracula" {
		t.Fatalf("saved theme = %q, want Dracula", p.Theme)
	}
}

func TestQuitStopsPlayer(t *testing.T) {
	h := newHarness(t, nil)
	_, cmd := h.model.Update(runeKey('q'))
	if cmd == nil {
		t.Fatalf("quit returned nil command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit command did not return QuitMsg")
	}
	if h.player.stops != 1 {
		t.Fatalf("stops = %d, want 1", h.player.stops)
	}
}

func TestWaitForPoll_ClosedChannel(t *testing.T) {
	events := make(chan gallery.PollResult)
	close(events)
	h := newHarness(t, func(o *Options) { o.PollEvents = events })
	if msg := h.model.Init()(); msg != nil {
		t.Fatalf("Init on closed channel returned %T, want nil", msg)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"Castle", 10, "Castle"},
		{"Millennium Falcon", 6, "Mille…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestRenderQR(t *testing.T) {
	out, err := renderQR("https://lego.example/upload")
	if err != nil {
		t.Fatalf("renderQR returned error: %v", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) < 10 {
		t.Fatalf("renderQR produced %d lines, want a full code", len(lines))
	}
}
