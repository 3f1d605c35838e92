// Package cache memoizes fetch outcomes between runs based on content-addressed keys.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key identifies one cached fetch outcome. Two fetches share an entry
// only when both the URL and the User-Agent match.
type Key struct {
	URL       string
	UserAgent string
}

// ID returns a stable hex identifier for the key, usable as a KV key or
// a primary key column. Length prefixes keep the url/user-agent
// boundary unambiguous.
func (k Key) ID() string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:%s%d:%s", len(k.URL), k.URL, len(k.UserAgent), k.UserAgent)
	return hex.EncodeToString(h.Sum(nil))
}
