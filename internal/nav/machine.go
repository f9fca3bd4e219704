// Package nav is the remote-control state machine: which view is on screen,
// which scene is selected and which photo has focus. It performs no I/O;
// every operation returns the effects the UI has to carry out.
package nav

import (
	"errors"
	"fmt"

	"github.com/five82/brickview/internal/catalog"
)

// ErrIndexOutOfRange is returned when a photo index is outside the gallery.
var ErrIndexOutOfRange = errors.New("photo index out of range")

// View is the screen currently shown.
type View int

const (
	ViewDashboard View = iota
	ViewVideo
	ViewPhotos
	ViewFullscreen
)

func (v View) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewVideo:
		return "video"
	case ViewPhotos:
		return "photos"
	case ViewFullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// PhotoCounter reports how many photos the gallery holds right now.
type PhotoCounter interface {
	PhotoCount() int
}

// PhotoIdentity lets the machine follow the focused photo across a
// refresh. Galleries that do not implement it fall back to clamping the
// index.
type PhotoIdentity interface {
	PhotoKey(i int) (string, bool)
	IndexOfPhoto(key string) (int, bool)
}

// State is the navigation state. SceneIndex always indexes the traversal
// order; FocusedPhoto is within the gallery, or 0 when it is empty.
type State struct {
	View         View
	SceneID      string
	SceneIndex   int
	FocusedPhoto int
}

// Machine owns State and applies commands to it.
type Machine struct {
	catalog *catalog.Catalog
	photos  PhotoCounter
	state   State
	// deferred is set when new content arrived while the photo wall was not
	// able to refresh.
	deferred bool
	// focusKey identifies the photo at FocusedPhoto when focus was last set.
	focusKey string
}

// New returns a machine on the dashboard at the first scene.
func New(c *catalog.Catalog, photos PhotoCounter) *Machine {
	return &Machine{
		catalog: c,
		photos:  photos,
		state: State{
			View:    ViewDashboard,
			SceneID: c.At(0).ID,
		},
	}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

// Scene returns the currently selected scene.
func (m *Machine) Scene() catalog.Scene {
	return m.catalog.At(m.state.SceneIndex)
}

// MoveNext advances to the next scene, wrapping around.
func (m *Machine) MoveNext() []Effect {
	return m.step(1)
}

// MovePrevious goes back one scene, wrapping around.
func (m *Machine) MovePrevious() []Effect {
	return m.step(-1)
}

func (m *Machine) step(delta int) []Effect {
	var effects []Effect
	switch m.state.View {
	case ViewDashboard:
	case ViewPhotos:
		m.state.View = ViewDashboard
		effects = append(effects, Effect{Kind: EffectShowDashboard})
	default:
		return nil
	}
	n := m.catalog.Len()
	m.state.SceneIndex = (m.state.SceneIndex + delta + n) % n
	m.state.SceneID = m.catalog.At(m.state.SceneIndex).ID
	return append(effects, Effect{Kind: EffectSceneChanged, SceneID: m.state.SceneID})
}

// Activate is the Enter command.
func (m *Machine) Activate() []Effect {
	switch m.state.View {
	case ViewDashboard:
		scene := m.Scene()
		if scene.HasVideo() {
			m.state.View = ViewVideo
			return []Effect{{Kind: EffectPlayVideo, SceneID: scene.ID, VideoRef: scene.VideoRef}}
		}
		if m.catalog.IsGallery(scene.ID) {
			m.state.View = ViewPhotos
			m.setFocus(m.anchoredFocus())
			m.deferred = false
			return []Effect{{Kind: EffectShowPhotos}, {Kind: EffectRefreshGallery}}
		}
		return nil
	case ViewPhotos:
		m.deferred = false
		return []Effect{{Kind: EffectRefreshGallery}}
	default:
		return nil
	}
}

// Dismiss is the Back command.
func (m *Machine) Dismiss() []Effect {
	switch m.state.View {
	case ViewVideo:
		m.state.View = ViewDashboard
		return []Effect{{Kind: EffectStopVideo, SceneID: m.state.SceneID}, {Kind: EffectShowDashboard}}
	case ViewPhotos:
		m.state.View = ViewDashboard
		return []Effect{{Kind: EffectShowDashboard}}
	case ViewFullscreen:
		return m.leaveFullscreen()
	default:
		return nil
	}
}

// MoveFocusLeft moves photo focus one step toward the start.
func (m *Machine) MoveFocusLeft() []Effect {
	return m.moveFocus(-1)
}

// MoveFocusRight moves photo focus one step toward the end.
func (m *Machine) MoveFocusRight() []Effect {
	return m.moveFocus(1)
}

func (m *Machine) moveFocus(delta int) []Effect {
	if m.state.View != ViewPhotos {
		return nil
	}
	next := m.clampFocus(m.state.FocusedPhoto + delta)
	if next == m.state.FocusedPhoto {
		return nil
	}
	m.setFocus(next)
	return []Effect{{Kind: EffectFocusChanged, PhotoIndex: next}}
}

// EnterPhotoView opens photo index full screen. It only applies on the photo
// wall; the index must be inside the gallery.
func (m *Machine) EnterPhotoView(index int) ([]Effect, error) {
	if m.state.View != ViewPhotos {
		return nil, nil
	}
	count := m.photoCount()
	if index < 0 || index >= count {
		return nil, fmt.Errorf("enter photo %d of %d: %w", index, count, ErrIndexOutOfRange)
	}
	m.state.View = ViewFullscreen
	m.setFocus(index)
	return []Effect{{Kind: EffectShowFullscreen, PhotoIndex: index}}, nil
}

// ExitPhotoView returns from full screen to the photo wall.
func (m *Machine) ExitPhotoView() []Effect {
	if m.state.View != ViewFullscreen {
		return nil
	}
	return m.leaveFullscreen()
}

func (m *Machine) leaveFullscreen() []Effect {
	m.state.View = ViewPhotos
	effects := []Effect{{Kind: EffectShowPhotos}}
	if m.deferred {
		m.deferred = false
		effects = append(effects, Effect{Kind: EffectRefreshGallery})
	}
	return effects
}

// NotifyNewContent tells the machine that a poll saw more photos than are
// loaded. The photo wall refreshes at once; anywhere else the refresh waits
// for the next visit.
func (m *Machine) NotifyNewContent() []Effect {
	if m.state.View == ViewPhotos {
		m.deferred = false
		return []Effect{{Kind: EffectRefreshGallery}}
	}
	m.deferred = true
	return nil
}

// RefreshDeferred reports whether new content is waiting for the next visit
// to the photo wall.
func (m *Machine) RefreshDeferred() bool {
	return m.deferred
}

// Reconcile restores photo focus after the gallery changed underneath. The
// focused photo keeps focus at its new position; if it is gone the old index
// is clamped.
func (m *Machine) Reconcile() []Effect {
	prev := m.state.FocusedPhoto
	next := m.anchoredFocus()
	m.setFocus(next)
	if next == prev {
		return nil
	}
	return []Effect{{Kind: EffectFocusChanged, PhotoIndex: next}}
}

func (m *Machine) anchoredFocus() int {
	if ids, ok := m.photos.(PhotoIdentity); ok && m.focusKey != "" {
		if i, found := ids.IndexOfPhoto(m.focusKey); found {
			return i
		}
	}
	return m.clampFocus(m.state.FocusedPhoto)
}

func (m *Machine) setFocus(i int) {
	m.state.FocusedPhoto = i
	m.focusKey = ""
	if ids, ok := m.photos.(PhotoIdentity); ok {
		if key, found := ids.PhotoKey(i); found {
			m.focusKey = key
		}
	}
}

func (m *Machine) photoCount() int {
	if m.photos == nil {
		return 0
	}
	return m.photos.PhotoCount()
}

func (m *Machine) clampFocus(i int) int {
	count := m.photoCount()
	if count <= 0 || i < 0 {
		return 0
	}
	if i > count-1 {
		return count - 1
	}
	return i
}
