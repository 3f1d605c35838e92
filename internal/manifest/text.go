package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseURLList reads a plain-text URL list, one URL per line. Blank
// lines and #-comments are skipped. A UTF-8 or UTF-16 byte order mark
// is honored and stripped, so lists exported from Windows tooling work
// unchanged.
func ParseURLList(r io.Reader) ([]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	var urls []string
	scanner := bufio.NewScanner(decoded)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}
