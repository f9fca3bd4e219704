package gallery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/five82/brickview/internal/backend"
)

// IndicatorWindow is how long the NEW indicator stays up once shown.
const IndicatorWindow = 5 * time.Second

// Fetcher is the subset of the backend the store needs.
type Fetcher interface {
	FetchPhotos(ctx context.Context) ([]backend.Photo, error)
	FetchState(ctx context.Context) (*backend.StateResponse, error)
}

// Snapshot is an immutable view of the gallery at one point in time.
type Snapshot struct {
	Photos []backend.Photo
	// LastKnownTotal is the highest total the backend has reported through
	// either a poll or a full fetch. It never decreases.
	LastKnownTotal int
	// SeenCount is the number of photos in the last applied full fetch.
	SeenCount int
	// PendingNew is set when a full fetch brought more photos than the one
	// before it, until the UI shows the indicator.
	PendingNew bool
	// Fetched is false until the first successful full fetch.
	Fetched bool

	LastRefreshed       time.Time
	LastPolled          time.Time
	LastError           error
	ConsecutiveFailures int
}

// HasUnfetched reports whether the backend announced photos that no full
// fetch has delivered yet.
func (s Snapshot) HasUnfetched() bool {
	return s.LastKnownTotal > len(s.Photos)
}

// IsOffline returns true when the backend has failed several calls in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// PollResult is the outcome of one lightweight poll.
type PollResult struct {
	Total      int
	NewContent bool
}

// Store owns the gallery state. Full fetches are applied as a single swap
// under the write lock, so readers see either the previous or the next
// collection, never a mix. Concurrent refreshes resolve by completion order.
type Store struct {
	fetcher Fetcher
	window  time.Duration
	now     func() time.Time

	mu             sync.RWMutex
	snapshot       Snapshot
	indicatorUntil time.Time
}

// NewStore returns an empty store backed by fetcher.
func NewStore(fetcher Fetcher) *Store {
	return &Store{fetcher: fetcher, window: IndicatorWindow, now: time.Now}
}

// SetIndicatorWindow overrides IndicatorWindow. Non-positive values are
// ignored.
func (s *Store) SetIndicatorWindow(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = d
}

// IndicatorDuration returns the configured indicator window.
func (s *Store) IndicatorDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// Refresh fetches the full collection and replaces the stored photos. On
// failure the previous photos and counters are kept and the error recorded.
func (s *Store) Refresh(ctx context.Context) ([]backend.Photo, error) {
	if s.fetcher == nil {
		return nil, fmt.Errorf("gallery store has no fetcher")
	}
	photos, err := s.fetcher.FetchPhotos(ctx)
	if err != nil {
		s.recordFailure(err)
		return nil, fmt.Errorf("refresh photos: %w", err)
	}
	photos = clonePhotos(photos)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot
	next.Photos = photos
	if s.snapshot.Fetched && len(photos) > s.snapshot.SeenCount {
		next.PendingNew = true
	}
	next.SeenCount = len(photos)
	if len(photos) > next.LastKnownTotal {
		next.LastKnownTotal = len(photos)
	}
	next.Fetched = true
	next.LastRefreshed = s.now()
	next.LastError = nil
	next.ConsecutiveFailures = 0
	s.snapshot = next

	return clonePhotos(photos), nil
}

// Poll asks the backend for its total count. It never touches the photos;
// when the total grew it records it and reports NewContent so the caller
// can decide whether to Refresh now or later.
func (s *Store) Poll(ctx context.Context) (PollResult, error) {
	if s.fetcher == nil {
		return PollResult{}, fmt.Errorf("gallery store has no fetcher")
	}
	state, err := s.fetcher.FetchState(ctx)
	if err != nil {
		s.recordFailure(err)
		return PollResult{}, fmt.Errorf("poll state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := PollResult{Total: state.TotalCount}
	if state.TotalCount > s.snapshot.LastKnownTotal {
		s.snapshot.LastKnownTotal = state.TotalCount
		res.NewContent = true
	}
	s.snapshot.LastPolled = s.now()
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	return res, nil
}

// MarkIndicatorShown consumes PendingNew and keeps the NEW indicator visible
// for the indicator window from now. Calling it again while visible extends
// the window. It returns the new expiry.
func (s *Store) MarkIndicatorShown(now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.PendingNew = false
	s.indicatorUntil = now.Add(s.window)
	return s.indicatorUntil
}

// IndicatorVisible reports whether the NEW indicator should be drawn.
func (s *Store) IndicatorVisible(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Before(s.indicatorUntil)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Photos = clonePhotos(s.snapshot.Photos)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// PhotoCount returns the number of photos currently held.
func (s *Store) PhotoCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot.Photos)
}

// Photo returns the photo at index i of the current collection.
func (s *Store) Photo(i int) (backend.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.snapshot.Photos) {
		return backend.Photo{}, false
	}
	return s.snapshot.Photos[i], true
}

// PhotoKey returns the identity of the photo at index i. Filenames are
// unique on the backend.
func (s *Store) PhotoKey(i int) (string, bool) {
	photo, ok := s.Photo(i)
	if !ok {
		return "", false
	}
	return photo.Filename, true
}

// IndexOfPhoto returns the current index of the photo with the given key.
func (s *Store) IndexOfPhoto(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, photo := range s.snapshot.Photos {
		if photo.Filename == key {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = err
	s.snapshot.ConsecutiveFailures++
}

func clonePhotos(photos []backend.Photo) []backend.Photo {
	if len(photos) == 0 {
		return nil
	}
	dup := make([]backend.Photo, len(photos))
	copy(dup, photos)
	return dup
}
