package backend

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultAPIBase {
		t.Fatalf("base = %q, want %q", u.String(), defaultAPIBase)
	}

	u, err = parseBaseURL("photos.example.com:5001/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "photos.example.com:5001" {
		t.Fatalf("base = %q, want http://photos.example.com:5001", u.String())
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestParseBaseURL_MissingHost(t *testing.T) {
	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL returned nil error, want missing host")
	}
}

func TestPhotoURL(t *testing.T) {
	c, err := NewClient("https://tv.example.com", time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.PhotoURL("lego_1.jpg"); got != "https://tv.example.com/api/photos/lego_1.jpg" {
		t.Fatalf("PhotoURL = %q", got)
	}
	abs := "https://res.cloudinary.com/demo/lego_photos/lego_1.jpg"
	if got := c.PhotoURL(abs); got != abs {
		t.Fatalf("PhotoURL(absolute) = %q, want unchanged", got)
	}
}

func TestFetchError_UnwrapAndMessage(t *testing.T) {
	err := error(&FetchError{Op: "GET", URL: "http://x/api/state", Status: 502, Err: ErrBadStatus})
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("errors.Is(ErrBadStatus) = false")
	}
	if !IsFetchError(err) {
		t.Fatalf("IsFetchError = false")
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("Error() = %q, want status", err.Error())
	}
	if IsFetchError(errors.New("plain")) {
		t.Fatalf("IsFetchError(plain) = true")
	}
}

func TestPhotoLabel(t *testing.T) {
	cases := []struct {
		name  string
		photo Photo
		want  string
	}{
		{"identified", Photo{Filename: "a.jpg", Caption: "mine", AIName: "LEGO City Fire Truck (60331)"}, "LEGO City Fire Truck (60331)"},
		{"unknown falls back to caption", Photo{Filename: "a.jpg", Caption: "mine", AIName: unknownAIName}, "mine"},
		{"filename", Photo{Filename: "a.jpg"}, "a.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.photo.Label(); got != tc.want {
				t.Fatalf("Label = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDescribeHTML(t *testing.T) {
	got := describeHTML([]byte("<html><head><title>\n  Tunnel   warning </title></head></html>"))
	if got != "Tunnel warning" {
		t.Fatalf("describeHTML = %q, want collapsed title", got)
	}
}
