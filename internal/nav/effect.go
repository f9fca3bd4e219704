package nav

// EffectKind names something the presentation layer must do after a
// transition.
type EffectKind int

const (
	EffectSceneChanged EffectKind = iota + 1
	EffectShowDashboard
	EffectShowPhotos
	EffectShowFullscreen
	EffectPlayVideo
	EffectStopVideo
	EffectRefreshGallery
	EffectFocusChanged
)

func (k EffectKind) String() string {
	switch k {
	case EffectSceneChanged:
		return "scene-changed"
	case EffectShowDashboard:
		return "show-dashboard"
	case EffectShowPhotos:
		return "show-photos"
	case EffectShowFullscreen:
		return "show-fullscreen"
	case EffectPlayVideo:
		return "play-video"
	case EffectStopVideo:
		return "stop-video"
	case EffectRefreshGallery:
		return "refresh-gallery"
	case EffectFocusChanged:
		return "focus-changed"
	default:
		return "unknown"
	}
}

// Effect is one output of a transition. Only the fields relevant to Kind
// are set.
type Effect struct {
	Kind       EffectKind
	SceneID    string
	VideoRef   string
	PhotoIndex int
}

// Has reports whether effects contains kind.
func Has(effects []Effect, kind EffectKind) bool {
	for _, e := range effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
