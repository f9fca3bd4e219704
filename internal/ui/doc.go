// Package ui is the Bubble Tea front end of the remote.
//
// The Model owns a nav.Machine and is the only place it is mutated: key
// presses resolve to input commands, the machine answers with effects, and
// runEffects turns those into tea.Cmds (gallery refreshes, video playback,
// photo previews). Rendering reads the machine state and a gallery
// snapshot, so every frame shows either the whole of a refresh or none of
// it.
//
// Background work reports back as messages:
//
//   - refreshedMsg after gallery.Store.Refresh. Focus follows the photo it
//     was on and, while the gallery is on screen, new photos arm the NEW
//     indicator with a tea.Tick.
//   - pollMsg from the poller channel. New content refreshes the photo wall
//     at once or is deferred by the machine until the next visit.
//   - previewMsg with half-block art for the full screen photo. Photos are
//     read through the optional BlobCache before hitting the backend.
//   - logsMsg with the tail of the client log for the diagnostics overlay.
//   - playbackMsg with the outcome of a video request. Requests are
//     submitted to the VideoControl during Update, so they reach the player
//     in key order.
//
// Themes follow the prefs file and cycle with T.
package ui
