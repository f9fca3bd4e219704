// Package gallery holds the photo wall state shared by the poller and the UI.
//
// # Two sources of truth
//
// The store is fed from two directions:
//
//	Poller goroutine                 UI command
//	┌──────────────────┐             ┌──────────────────┐
//	│ Poll()           │             │ Refresh()        │
//	│  GET /api/state  │             │  GET /api/photos │
//	│  total_count ────┼──┐       ┌──┼── []Photo        │
//	└──────────────────┘  │       │  └──────────────────┘
//	                      ▼       ▼
//	                 ┌──────────────────┐
//	                 │ Store (RWMutex)  │──→ Snapshot()
//	                 └──────────────────┘
//
// Poll is cheap and only moves LastKnownTotal forward. It never downloads
// photos; it reports NewContent and leaves it to the caller to Refresh, right
// away when the photo wall is on screen or on the next visit otherwise.
//
// Refresh downloads everything and swaps the collection in one step under
// the write lock. Network I/O happens before the lock is taken, so a slow
// fetch never blocks readers, and two overlapping refreshes simply resolve
// in completion order.
//
// # Counters
//
//   - LastKnownTotal: max of every total seen. Never decreases; the backend
//     is append-only from this client's point of view.
//   - SeenCount: size of the last applied full fetch.
//   - PendingNew: raised when a full fetch grows past SeenCount (never on the
//     very first fetch), lowered by MarkIndicatorShown.
//
// The NEW indicator itself is presentation state: MarkIndicatorShown arms it
// for IndicatorWindow and IndicatorVisible answers against a caller-supplied
// clock, so the UI decides when to redraw.
//
// # Failures
//
// Fetch errors leave photos and counters untouched. They are recorded in
// LastError and ConsecutiveFailures for the status line, and returned to the
// caller for logging.
package gallery
