package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/brickview/internal/backend"
	"github.com/five82/brickview/internal/gallery"
	"github.com/five82/brickview/internal/logtail"
	"github.com/five82/brickview/internal/nav"
)

const (
	cardWidth  = 26
	cardHeight = 4
)

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	if m.showLogs {
		body = m.renderLogs()
	} else {
		switch m.machine.State().View {
		case nav.ViewDashboard:
			body = m.renderDashboard()
		case nav.ViewVideo:
			body = m.renderVideo()
		case nav.ViewPhotos:
			body = m.renderPhotos(bodyHeight)
		case nav.ViewFullscreen:
			body = m.renderFullscreen()
		}
	}
	body = lipgloss.NewStyle().Width(m.width).Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	state := m.machine.State()
	snap := m.store.Snapshot()
	sep := styles.FaintText.Render("  ·  ")

	parts := []string{styles.Logo.Render("brickview")}
	scene := m.machine.Scene()
	parts = append(parts, styles.Text.Bold(true).Render(displayTitle(scene.Title, scene.ID)))

	if state.View == nav.ViewPhotos || state.View == nav.ViewFullscreen {
		parts = append(parts, styles.MutedText.Render(photoCountLabel(len(snap.Photos))))
		if m.store.IndicatorVisible(m.now()) {
			parts = append(parts, styles.Badge.Render("NEW"))
		}
		if m.refreshing > 0 {
			parts = append(parts, m.spinner.View()+styles.MutedText.Render(" syncing"))
		}
	}
	if snap.IsOffline() {
		parts = append(parts, styles.DangerText.Render("OFFLINE")+" "+styles.WarningText.Render("retrying..."))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	return styles.Footer.Width(m.width).Render(m.help.ShortHelpView(m.dispatcher.Keys.ShortHelp()))
}

func (m Model) renderDashboard() string {
	styles := m.theme.Styles()
	state := m.machine.State()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Scenes"))
	b.WriteString("\n\n")
	for i := 0; i < m.catalog.Len(); i++ {
		scene := m.catalog.At(i)
		label := fmt.Sprintf(" %s ", displayTitle(scene.Title, scene.ID))
		if i == state.SceneIndex {
			b.WriteString(styles.Selected.Render("▶" + label))
		} else {
			b.WriteString(styles.Text.Render(" " + label))
		}
		b.WriteString("\n")
	}

	scene := m.machine.Scene()
	b.WriteString("\n")
	if scene.ImageRef != "" {
		b.WriteString(styles.FaintText.Render("image  " + scene.ImageRef))
		b.WriteString("\n")
	}
	switch {
	case scene.HasVideo():
		b.WriteString(styles.MutedText.Render("Enter to play"))
	case m.catalog.IsGallery(scene.ID):
		b.WriteString(styles.MutedText.Render("Enter to open gallery"))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderVideo() string {
	styles := m.theme.Styles()
	scene := m.machine.Scene()

	lines := []string{
		styles.AccentText.Bold(true).Render("Now playing " + displayTitle(scene.Title, scene.ID)),
		styles.FaintText.Render(scene.VideoRef),
		"",
	}
	if m.playErr != nil {
		lines = append(lines, styles.DangerText.Render("Playback failed: "+m.playErr.Error()))
	}
	lines = append(lines, styles.MutedText.Render("Back to return"))
	panel := styles.Modal.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, panel)
}

func (m Model) renderPhotos(height int) string {
	styles := m.theme.Styles()
	snap := m.store.Snapshot()

	if len(snap.Photos) == 0 {
		return m.renderEmptyGallery(snap)
	}

	cols := max(1, m.width/(cardWidth+2))
	visibleRows := max(1, height/cardHeight)
	focused := m.machine.State().FocusedPhoto
	firstRow := 0
	if row := focused / cols; row >= visibleRows {
		firstRow = row - visibleRows + 1
	}

	now := m.now()
	var rows []string
	for r := firstRow; r < firstRow+visibleRows; r++ {
		start := r * cols
		if start >= len(snap.Photos) {
			break
		}
		end := min(start+cols, len(snap.Photos))
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, renderCard(styles, snap.Photos[i], now, i == focused))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(rows, "\n")
}

func renderCard(styles Styles, photo backend.Photo, now time.Time, focused bool) string {
	inner := cardWidth - 4
	label := truncate(photo.Label(), inner)
	age := gallery.AgeLabel(now, photo.CreatedAt)
	meta := styles.MutedText.Render(age)
	if gallery.IsNew(now, photo.CreatedAt) {
		meta += " " + styles.Badge.Render("NEW")
	}
	style := styles.Card
	if focused {
		style = styles.FocusedCard
	}
	return style.Width(cardWidth - 2).Render(styles.Text.Bold(focused).Render(label) + "\n" + meta)
}

func (m Model) renderEmptyGallery(snap gallery.Snapshot) string {
	styles := m.theme.Styles()
	var lines []string
	switch {
	case !snap.Fetched && snap.LastError != nil:
		lines = append(lines, styles.DangerText.Render("Could not load photos"),
			styles.MutedText.Render(snap.LastError.Error()))
	case !snap.Fetched:
		lines = append(lines, styles.MutedText.Render("Loading photos..."))
	default:
		lines = append(lines, styles.Text.Bold(true).Render("No photos yet"))
	}
	if m.uploadQR != "" {
		lines = append(lines, "", styles.MutedText.Render("Scan to upload your sets"), m.uploadQR,
			styles.FaintText.Render(m.uploadURL))
	}
	block := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, block)
}

func (m Model) renderFullscreen() string {
	styles := m.theme.Styles()
	photo, ok := m.store.Photo(m.machine.State().FocusedPhoto)
	if !ok {
		return styles.MutedText.Render("Photo unavailable")
	}

	var art string
	switch {
	case m.preview.loading:
		art = styles.MutedText.Render("Loading " + photo.Filename + "...")
	case m.preview.err != nil:
		art = styles.DangerText.Render("Preview unavailable") + "\n" + styles.MutedText.Render(m.preview.err.Error())
	default:
		art = m.preview.art
	}

	caption := styles.Text.Bold(true).Render(photo.Label())
	if photo.Identified() && photo.Caption != "" {
		caption += styles.MutedText.Render("  " + photo.Caption)
	}
	meta := styles.MutedText.Render(gallery.AgeLabel(m.now(), photo.CreatedAt))
	if photo.Theme != "" {
		meta += styles.FaintText.Render("  " + photo.Theme)
	}
	return lipgloss.JoinVertical(lipgloss.Center, art, "", caption, meta)
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Diagnostics") + "  " + styles.FaintText.Render(m.logFile)
	if m.logErr != nil {
		return title + "\n" + styles.DangerText.Render(m.logErr.Error())
	}
	return title + "\n" + m.logView.View()
}

func (m Model) renderLogLines(lines []string) string {
	if len(lines) == 0 {
		return m.theme.Styles().MutedText.Render("No log lines yet")
	}
	styles := m.theme.Styles()
	out := make([]string, len(lines))
	for i, line := range lines {
		level := logtail.Level(line)
		if level == "" {
			out[i] = styles.MutedText.Render(line)
			continue
		}
		out[i] = styles.LevelStyle(level).Render(fmt.Sprintf("%-5s", level)) + " " + styles.Text.Render(logtail.Message(line)) +
			styles.FaintText.Render(attrsAfterMessage(line))
	}
	return strings.Join(out, "\n")
}

// attrsAfterMessage returns the key=value pairs that follow msg= so errors
// stay visible next to the message.
func attrsAfterMessage(line string) string {
	start := strings.Index(line, "msg=")
	if start < 0 {
		return ""
	}
	msg := logtail.Message(line)
	i := strings.Index(line[start:], msg)
	if i < 0 {
		return ""
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line[start+i+len(msg):], `"`))
	if rest == "" {
		return ""
	}
	return " " + rest
}

func displayTitle(title, id string) string {
	if strings.TrimSpace(title) != "" {
		return title
	}
	return id
}

func photoCountLabel(n int) string {
	if n == 1 {
		return "1 photo"
	}
	return fmt.Sprintf("%d photos", n)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
