// Package config loads brickview's TOML configuration.
//
// Load reads ~/.config/brickview/config.toml unless a path is given. A
// missing file is not an error: every key has a default so the remote works
// against a backend on localhost out of the box.
//
// # Keys
//
//	api_base = "http://127.0.0.1:5001"   # backend base URL, tunnel hosts welcome
//	poll_interval_ms = 2000               # /api/state poll period
//	indicator_seconds = 5                 # NEW indicator lifetime
//	request_timeout_seconds = 10          # per-request HTTP timeout
//	catalog_file = "~/scenes.yaml"        # optional scene catalog, built-in when unset
//	cache_db = "~/.cache/brickview/photos.db"   # "off" disables the photo cache
//	log_file = "~/.local/state/brickview/brickview.log"
//	upload_url = ""                       # shown as a QR code on an empty gallery
//	player_command = "mpv --fs"           # video player, argv split on spaces
//
// Empty or zero values fall back to the defaults. Negative durations are
// rejected. Paths accept a leading ~.
package config
