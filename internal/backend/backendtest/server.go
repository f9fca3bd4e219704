// Package backendtest runs an in-memory photo backend for tests. It speaks
// the same routes as the real server, including the tunnel interstitial
// behaviour when the skip-warning header is missing.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/five82/brickview/internal/backend"
)

const interstitialPage = `<!DOCTYPE html><html><head><title>You are about to visit a tunnel</title></head><body>warning</body></html>`

// Server is a fake backend. The zero value is not usable; call New or Start.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	photos        []backend.Photo
	blobs         map[string][]byte
	stateTotal    int // -1 reports len(photos)
	failStatus    int
	requireTunnel bool
	gate          chan struct{}
	hits          map[string]int
	lastHeaders   http.Header
}

// New starts a server. Callers must Close it.
func New() *Server {
	s := &Server{
		blobs:         make(map[string][]byte),
		hits:          make(map[string]int),
		stateTotal:    -1,
		requireTunnel: true,
	}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.tunnel)
	r.Use(s.failures)
	r.Get("/health", s.handleHealth)
	r.Get("/api/state", s.handleState)
	r.Get("/api/photos", s.handlePhotos)
	r.Get("/api/photos/{filename}", s.handlePhotoBlob)
	s.Server = httptest.NewServer(r)
	return s
}

// Start is New with t.Cleanup registered.
func Start(tb testing.TB) *Server {
	tb.Helper()
	s := New()
	tb.Cleanup(s.Close)
	return s
}

// SetPhotos replaces the collection served by /api/photos.
func (s *Server) SetPhotos(photos ...backend.Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = append([]backend.Photo(nil), photos...)
}

// AddPhotos prepends photos, keeping newest first.
func (s *Server) AddPhotos(photos ...backend.Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = append(append([]backend.Photo(nil), photos...), s.photos...)
}

// SetBlob registers binary content for a photo filename.
func (s *Server) SetBlob(filename string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[filename] = data
}

// SetStateTotal pins the total_count reported by /api/state, independent of
// the photos actually served. Pass -1 to follow the collection again.
func (s *Server) SetStateTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateTotal = n
}

// FailWith makes every /api route answer with status. Zero restores normal
// service.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// RequireTunnelHeader toggles the interstitial page for requests missing
// the skip-warning header. On by default.
func (s *Server) RequireTunnelHeader(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requireTunnel = on
}

// HoldPhotos makes /api/photos block until the returned release func is
// called. The response reflects the collection at release time.
func (s *Server) HoldPhotos() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gate == gate {
				s.gate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastHeaders returns the headers of the most recent request.
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeaders.Clone()
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.lastHeaders = r.Header.Clone()
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) tunnel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		require := s.requireTunnel
		s.mu.Unlock()
		if require && r.Header.Get(backend.TunnelHeader) == "" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(interstitialPage))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failStatus
		s.mu.Unlock()
		if status != 0 && r.URL.Path != "/health" {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, backend.HealthResponse{Status: "ok", Service: "backendtest"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := backend.StateResponse{
		TotalCount: s.stateTotal,
		Timestamp:  float64(time.Now().Unix()),
	}
	if resp.TotalCount < 0 {
		resp.TotalCount = len(s.photos)
	}
	if len(s.photos) > 0 {
		latest := s.photos[0]
		resp.LatestPhoto = &latest
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	photos := append([]backend.Photo{}, s.photos...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, photos)
}

func (s *Server) handlePhotoBlob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	s.mu.Lock()
	data, ok := s.blobs[name]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
