package manifest

import (
	"net/url"
	"strings"
)

// ShouldFetch reports whether a discovered reference is a remote
// resource worth prefetching. Only absolute http and https URLs
// qualify; anchors, relative paths, and special protocols are skipped.
func ShouldFetch(rawURL string) bool {
	if rawURL == "" || strings.HasPrefix(rawURL, "#") {
		return false
	}

	if strings.HasPrefix(rawURL, "mailto:") ||
		strings.HasPrefix(rawURL, "tel:") ||
		strings.HasPrefix(rawURL, "javascript:") ||
		strings.HasPrefix(rawURL, "data:") {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
