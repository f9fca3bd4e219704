// Package catalog holds the fixed set of dashboard scenes and the order the
// remote walks through them.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownScene is returned when a scene id is not registered.
var ErrUnknownScene = errors.New("unknown scene")

// Scene is one fixed piece of content on the dashboard. Empty refs mean the
// scene has no image or no video.
type Scene struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	ImageRef string `yaml:"image"`
	VideoRef string `yaml:"video"`
}

// HasVideo reports whether activating the scene should start playback.
func (s Scene) HasVideo() bool {
	return strings.TrimSpace(s.VideoRef) != ""
}

// Catalog maps scene ids to scenes and holds the traversal order. It is
// immutable after construction.
type Catalog struct {
	scenes  map[string]Scene
	order   []string
	gallery string
}

// New validates and builds a catalog. The gallery id designates the scene
// that opens the photo wall and must appear in the order.
func New(scenes []Scene, order []string, gallery string) (*Catalog, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("catalog: traversal order is empty")
	}
	byID := make(map[string]Scene, len(scenes))
	for _, s := range scenes {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog: scene with empty id")
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("catalog: duplicate scene %q", id)
		}
		s.ID = id
		byID[id] = s
	}

	seen := make(map[string]struct{}, len(order))
	ordered := make([]string, 0, len(order))
	for _, raw := range order {
		id := strings.TrimSpace(raw)
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("catalog: order references %q: %w", id, ErrUnknownScene)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("catalog: %q appears twice in traversal order", id)
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}

	gallery = strings.TrimSpace(gallery)
	if gallery != "" {
		if _, ok := seen[gallery]; !ok {
			return nil, fmt.Errorf("catalog: gallery scene %q not in traversal order", gallery)
		}
	}

	return &Catalog{scenes: byID, order: ordered, gallery: gallery}, nil
}

// MustNew is New that panics. Use it for catalogs compiled into the binary.
func MustNew(scenes []Scene, order []string, gallery string) *Catalog {
	c, err := New(scenes, order, gallery)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the scene registered under id.
func (c *Catalog) Lookup(id string) (Scene, error) {
	s, ok := c.scenes[id]
	if !ok {
		return Scene{}, fmt.Errorf("lookup %q: %w", id, ErrUnknownScene)
	}
	return s, nil
}

// TraversalOrder returns a copy of the ordered scene ids.
func (c *Catalog) TraversalOrder() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of scenes in the traversal order.
func (c *Catalog) Len() int {
	return len(c.order)
}

// At returns the scene at position i of the traversal order.
func (c *Catalog) At(i int) Scene {
	return c.scenes[c.order[i]]
}

// GallerySceneID returns the id of the photo wall scene, or "" if the
// catalog has none.
func (c *Catalog) GallerySceneID() string {
	return c.gallery
}

// IsGallery reports whether id is the photo wall scene.
func (c *Catalog) IsGallery(id string) bool {
	return c.gallery != "" && id == c.gallery
}

// Default returns the catalog bundled with brickview.
func Default() *Catalog {
	return MustNew([]Scene{
		{ID: "city", Title: "Lego City", ImageRef: "assets/city.jpg", VideoRef: "assets/city.mp4"},
		{ID: "space", Title: "Space Station", ImageRef: "assets/space.jpg", VideoRef: "assets/space.mp4"},
		{ID: "castle", Title: "Castle", ImageRef: "assets/castle.jpg", VideoRef: "assets/castle.mp4"},
		{ID: "gallery", Title: "My Lego Sets", ImageRef: "assets/gallery.jpg"},
	}, []string{"city", "space", "castle", "gallery"}, "gallery")
}

type catalogFile struct {
	Scenes  []Scene  `yaml:"scenes"`
	Order   []string `yaml:"order"`
	Gallery string   `yaml:"gallery"`
}

// LoadFile reads a YAML catalog. An empty path returns Default. When the
// file omits order, scenes are traversed in declaration order.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	order := raw.Order
	if len(order) == 0 {
		for _, s := range raw.Scenes {
			order = append(order, s.ID)
		}
	}
	return New(raw.Scenes, order, raw.Gallery)
}
