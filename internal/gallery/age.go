package gallery

import (
	"fmt"
	"time"
)

// newPhotoAge is the age below which a photo gets the NEW badge.
const newPhotoAge = time.Hour

// Age returns how long ago createdAt (epoch seconds) was, never negative.
func Age(now time.Time, createdAt int64) time.Duration {
	age := now.Sub(time.Unix(createdAt, 0))
	if age < 0 {
		return 0
	}
	return age
}

// AgeLabel renders the age of a photo the way the photo wall shows it.
func AgeLabel(now time.Time, createdAt int64) string {
	secs := int64(Age(now, createdAt) / time.Second)
	switch {
	case secs < 60:
		return "Just now"
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
}

// IsNew reports whether a photo is recent enough for the NEW badge. This is
// independent of the store's NEW indicator.
func IsNew(now time.Time, createdAt int64) bool {
	return Age(now, createdAt) < newPhotoAge
}
