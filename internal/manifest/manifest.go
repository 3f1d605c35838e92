// Package manifest discovers the remote resources a build depends on,
// from explicit lists and from scanning documentation sources.
package manifest

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scan source types. An empty type is inferred from the file extension.
const (
	TypeText     = "text"
	TypeMarkdown = "markdown"
	TypeHTML     = "html"
)

// Resource is one URL to prefetch, with the optional User-Agent it
// should be requested with. Source records where the resource was
// discovered, for diagnostics.
type Resource struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent,omitempty"`
	Source    string `yaml:"-"`
}

// Source is a file or directory to scan for resource references. An
// explicit Type applies to every file under a directory source.
type Source struct {
	Path string `yaml:"path"`
	Type string `yaml:"type,omitempty"`
}

// Defaults apply to resources that do not override them.
type Defaults struct {
	UserAgent string `yaml:"user_agent,omitempty"`
}

// Manifest lists the remote resources a documentation build depends on.
type Manifest struct {
	Version   int        `yaml:"version,omitempty"`
	Defaults  Defaults   `yaml:"defaults,omitempty"`
	Resources []Resource `yaml:"resources,omitempty"`
	Scan      []Source   `yaml:"scan,omitempty"`

	dir string
}

// Load reads and parses a manifest file. Scan paths resolve relative to
// the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m.Version > 1 {
		return nil, fmt.Errorf("unsupported manifest version %d (expected 1)", m.Version)
	}

	m.dir = filepath.Dir(path)
	for i := range m.Resources {
		m.Resources[i].Source = path
	}
	return &m, nil
}

// Collect resolves the manifest into a deduplicated resource list.
// Explicit entries come first, scanned references follow in file order,
// and the first occurrence of a (url, user-agent) pair wins, so
// explicit entries take precedence over scanned ones. Resources
// without a user agent inherit the manifest default.
func (m *Manifest) Collect() ([]Resource, error) {
	var resources []Resource
	seen := make(map[string]bool)

	add := func(r Resource) {
		if !ShouldFetch(r.URL) {
			return
		}
		if r.UserAgent == "" {
			r.UserAgent = m.Defaults.UserAgent
		}
		key := r.URL + "\x00" + r.UserAgent
		if seen[key] {
			return
		}
		seen[key] = true
		resources = append(resources, r)
	}

	for _, r := range m.Resources {
		add(r)
	}
	for _, src := range m.Scan {
		if err := m.scanSource(src, add); err != nil {
			return nil, err
		}
	}

	slog.Debug("Collected manifest resources", "count", len(resources))
	return resources, nil
}

// ScanRoots returns the scan source paths resolved against the
// manifest's directory, for callers that watch them for changes.
func (m *Manifest) ScanRoots() []string {
	roots := make([]string, 0, len(m.Scan))
	for _, src := range m.Scan {
		roots = append(roots, m.resolve(src.Path))
	}
	return roots
}

func (m *Manifest) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.dir, path)
}

func (m *Manifest) scanSource(src Source, add func(Resource)) error {
	root := m.resolve(src.Path)

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat scan source %s: %w", src.Path, err)
	}
	if !info.IsDir() {
		return m.scanFile(root, src.Type, add)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		kind := src.Type
		if kind == "" {
			kind = kindForExtension(path)
		}
		if kind == "" {
			return nil // Not a scannable file type
		}
		return m.scanFile(path, kind, add)
	})
}

func (m *Manifest) scanFile(path, kind string, add func(Resource)) error {
	if kind == "" {
		kind = kindForExtension(path)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to open scan source %s: %w", path, err)
	}
	defer func() {
		_ = file.Close() // Ignore close errors on read-only operation
	}()

	var urls []string
	switch kind {
	case TypeText:
		urls, err = ParseURLList(file)
	case TypeMarkdown:
		var data []byte
		data, err = io.ReadAll(file)
		if err == nil {
			urls = ExtractMarkdownLinks(data)
		}
	case TypeHTML:
		urls, err = ExtractHTMLLinks(file)
	default:
		return fmt.Errorf("unknown scan source type %q for %s", kind, path)
	}
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", path, err)
	}

	for _, u := range urls {
		add(Resource{URL: u, Source: path})
	}
	slog.Debug("Scanned source file", "path", path, "type", kind, "links", len(urls))
	return nil
}

func kindForExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return TypeMarkdown
	case ".html", ".htm":
		return TypeHTML
	case ".txt", ".urls":
		return TypeText
	default:
		return ""
	}
}
