package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/brickview/internal/logtail"
	"github.com/five82/brickview/internal/preview"
)

var errNoPhotoSource = errors.New("no photo source configured")

// previewSize is the cell area left for the photo in full screen.
func (m Model) previewSize() (cols, rows int) {
	cols = m.width - 4
	rows = m.height - 6
	if cols < 8 {
		cols = 8
	}
	if rows < 4 {
		rows = 4
	}
	return cols, rows
}

// loadPreview starts rendering the focused photo unless the current preview
// already matches it.
func (m *Model) loadPreview() tea.Cmd {
	photo, ok := m.store.Photo(m.machine.State().FocusedPhoto)
	if !ok {
		m.preview = previewState{}
		return nil
	}
	cols, rows := m.previewSize()
	if m.preview.filename == photo.Filename && m.preview.cols == cols && m.preview.rows == rows {
		return nil
	}
	m.preview = previewState{filename: photo.Filename, cols: cols, rows: rows, loading: true}

	ctx, source, cache := m.ctx, m.photos, m.cache
	logger := m.logger
	filename := photo.Filename
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, previewTimeout)
		defer cancel()

		data, err := photoBytes(ctx, source, cache, filename)
		if err != nil {
			return previewMsg{filename: filename, cols: cols, rows: rows, err: err}
		}
		art, err := preview.RenderBytes(data, cols, rows)
		if err != nil {
			logger.Debug("photo not renderable", "photo", filename, "bytes", len(data))
		}
		return previewMsg{filename: filename, cols: cols, rows: rows, art: art, err: err}
	}
}

// photoBytes reads through the cache. Cache failures degrade to a plain
// download.
func photoBytes(ctx context.Context, source PhotoSource, cache BlobCache, filename string) ([]byte, error) {
	if cache != nil {
		if data, ok, err := cache.Get(ctx, filename); err == nil && ok {
			return data, nil
		}
	}
	if source == nil {
		return nil, errNoPhotoSource
	}
	data, err := source.FetchPhotoBytes(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("load photo %s: %w", filename, err)
	}
	if cache != nil {
		_ = cache.Put(ctx, filename, data)
	}
	return data, nil
}

func (m Model) loadLogs() tea.Cmd {
	path := m.logFile
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, logOverlayLines)
		return logsMsg{lines: lines, err: err}
	}
}
