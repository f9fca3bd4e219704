// Package app is the composition root of brickview.
//
// # Startup
//
//  1. config.Load reads ~/.config/brickview/config.toml (defaults when missing)
//  2. openLogger points slog at the log file; the terminal belongs to the UI
//  3. catalog.LoadFile loads the scene catalog, built-in when unset
//  4. backend.NewClient and gallery.NewStore share one HTTP client
//  5. photocache.Open and player.NewExec are optional and degrade to off;
//     the player always sits behind a player.Queue
//  6. probeBackend hits /health once and only logs the outcome
//  7. runGroup runs the Poller and ui.Run in an errgroup; leaving the UI
//     cancels the poller's context
//
// # Data Flow
//
//	┌──────────────┐  every 2s   ┌───────────────┐
//	│   Poller     │────────────>│ store.Poll()  │ GET /api/state
//	└──────┬───────┘             └───────────────┘
//	       │ NewContent
//	       v
//	 events chan (1 slot) ──> ui.Model ──> nav.Machine.NotifyNewContent()
//	                                  └──> store.Refresh()  GET /api/photos
//
// The poller never fetches the photo list itself. It only reports that the
// total grew; the navigation machine decides whether the photo wall
// refreshes now or on its next visit.
//
// # Errors
//
// Run returns errors for an unreadable config, catalog or log file and for
// an invalid api_base. Backend failures after startup are logged and
// retried on the next tick.
package app
