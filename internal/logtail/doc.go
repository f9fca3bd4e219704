// Package logtail reads the tail of brickview's own log file for the
// diagnostics overlay.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// bounded however large the file grows. A missing file yields no lines and
// no error: the overlay simply shows nothing until something is logged.
//
// Level and Message pick fields out of slog's text format
// (time=... level=INFO msg="poll failed" error=...) so the UI can colour
// lines without depending on the handler.
package logtail
