// Package backend is the HTTP client for the photo backend.
//
// # Endpoints
//
//	GET /api/photos            full collection, newest first
//	GET /api/state             {total_count, latest_photo, timestamp}, polled
//	GET /api/photos/{filename} photo binary
//	GET /health                liveness probe
//
// # Tunnel interstitial
//
// The backend is usually exposed through a tunnel that answers unknown
// browsers with an HTML warning page, still with status 200. Every request
// therefore carries TunnelHeader, and any HTML or otherwise non-JSON body on
// a JSON endpoint is reported as a failure (ErrInterstitial or ErrNotJSON)
// rather than decoded.
//
// # Errors
//
// All failures are *FetchError values wrapping one of ErrBadStatus,
// ErrNotJSON, ErrInterstitial or the transport error. They carry the request
// id sent in RequestIDHeader so a failed poll can be found in server logs.
// Callers treat them as recoverable: log, keep the previous state, try again
// on the next tick.
package backend
