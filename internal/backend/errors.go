package backend

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchError reports a failed backend call: transport failure, non-2xx
// status, or a body that is not JSON. It is always recoverable; callers keep
// their previous state.
type FetchError struct {
	Op        string
	URL       string
	Status    int
	RequestID string
	Err       error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err carries a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

var (
	// ErrBadStatus marks a non-2xx response.
	ErrBadStatus = errors.New("unexpected status")
	// ErrNotJSON marks a 2xx response whose body does not decode as JSON.
	ErrNotJSON = errors.New("response is not JSON")
	// ErrInterstitial marks an HTML page served in place of the API, which
	// is what the tunnel does when the skip-warning header is missing.
	ErrInterstitial = errors.New("tunnel interstitial page")
)

// describeHTML names an HTML page by its <title> so interstitials are
// recognisable in the log.
func describeHTML(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<"))
}
