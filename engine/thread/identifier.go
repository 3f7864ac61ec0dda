package thread

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/WessleyAI/threadsnap/pkg/fn"
)

// idSegment is the 1-based position of the identifier among the non-empty
// path segments.
const idSegment = 3

// ThreadID returns the thread id embedded in a page path.
func ThreadID(path string) (string, error) {
	segments := fn.Filter(strings.Split(path, "/"), func(s string) bool { return s != "" })
	if len(segments) < idSegment {
		return "", ErrMissingIdentifier
	}
	return segments[idSegment-1], nil
}

// IDFromURL parses an absolute page URL and returns its thread id.
func IDFromURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingIdentifier, err)
	}
	return ThreadID(u.Path)
}

// JSONURL returns the JSON endpoint for a thread page. The query string and
// the path's original escaping are kept; the fragment is dropped.
func JSONURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Path += ".json"
	if u.RawPath != "" {
		u.RawPath += ".json"
	}
	return u.String(), nil
}

// Filename is the export file name for a thread id.
func Filename(id string) string {
	return "reddit-thread-" + id + ".json"
}
