package backend

import (
	"strings"
	"time"
)

// Photo mirrors one entry of GET /api/photos. The backend returns newest
// first.
type Photo struct {
	ID        int64  `json:"id"`
	Filename  string `json:"filename"`
	Caption   string `json:"caption,omitempty"`
	CreatedAt int64  `json:"created_at"`
	AIName    string `json:"ai_identified_name,omitempty"`
	Theme     string `json:"theme,omitempty"`
}

// unknownAIName is what the identifier answers when it gives up.
const unknownAIName = "Unknown LEGO Set"

// Created returns CreatedAt as a time.Time.
func (p Photo) Created() time.Time {
	return time.Unix(p.CreatedAt, 0)
}

// Identified reports whether the backend recognised the set in the photo.
func (p Photo) Identified() bool {
	name := strings.TrimSpace(p.AIName)
	return name != "" && name != unknownAIName
}

// Label picks the best human title for the photo: the identified set name,
// then the caption, then the file name.
func (p Photo) Label() string {
	if p.Identified() {
		return strings.TrimSpace(p.AIName)
	}
	if c := strings.TrimSpace(p.Caption); c != "" {
		return c
	}
	return p.Filename
}

// StateResponse mirrors GET /api/state.
type StateResponse struct {
	TotalCount  int     `json:"total_count"`
	LatestPhoto *Photo  `json:"latest_photo"`
	Timestamp   float64 `json:"timestamp"`
}

// HealthResponse mirrors GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// OK reports whether the backend described itself as healthy.
func (h HealthResponse) OK() bool {
	return strings.EqualFold(strings.TrimSpace(h.Status), "ok")
}
