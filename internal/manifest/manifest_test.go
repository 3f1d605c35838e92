package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func urlsOf(resources []Resource) []string {
	urls := make([]string, 0, len(resources))
	for _, r := range resources {
		urls = append(urls, r.URL)
	}
	return urls
}

func containsURL(urls []string, want string) bool {
	for _, u := range urls {
		if u == want {
			return true
		}
	}
	return false
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "resources.yaml", `
version: 1
defaults:
  user_agent: docfetch/1.0
resources:
  - url: https://example.com/schema.json
  - url: https://example.com/openapi.yaml
    user_agent: special/2.0
scan:
  - path: urls.txt
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Defaults.UserAgent != "docfetch/1.0" {
		t.Errorf("expected default user agent docfetch/1.0, got %s", m.Defaults.UserAgent)
	}
	if len(m.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(m.Resources))
	}
	if m.Resources[0].Source != path {
		t.Errorf("expected resource source %s, got %s", path, m.Resources[0].Source)
	}
	if m.Resources[1].UserAgent != "special/2.0" {
		t.Errorf("expected per-resource user agent, got %s", m.Resources[1].UserAgent)
	}
	if len(m.Scan) != 1 || m.Scan[0].Path != "urls.txt" {
		t.Errorf("unexpected scan sources: %+v", m.Scan)
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "resources.yaml", "version: 2\n")

	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported manifest version")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestCollect_ExplicitEntriesWinOverScanned(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "urls.txt", "https://example.com/schema.json\nhttps://example.com/extra\n")
	path := writeFile(t, dir, "resources.yaml", `
resources:
  - url: https://example.com/schema.json
scan:
  - path: urls.txt
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	resources, err := m.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(resources) != 2 {
		t.Fatalf("expected 2 deduplicated resources, got %d: %v", len(resources), urlsOf(resources))
	}
	if resources[0].URL != "https://example.com/schema.json" || resources[0].Source != path {
		t.Errorf("explicit entry should win with manifest source, got %+v", resources[0])
	}
	if resources[1].URL != "https://example.com/extra" || resources[1].Source != filepath.Join(dir, "urls.txt") {
		t.Errorf("scanned entry should carry its file source, got %+v", resources[1])
	}
}

func TestCollect_DirectoryScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/guide.md", "See the [API](https://example.com/api) and [local notes](../notes.md).\n")
	writeFile(t, dir, "docs/page.html", `<html><body><a href="https://example.com/page">x</a></body></html>`)
	writeFile(t, dir, "docs/refs.txt", "# pinned\nhttps://example.com/ref\n")
	writeFile(t, dir, "docs/data.json", `{"url": "https://example.com/not-scanned"}`)
	writeFile(t, dir, "docs/.cache/stale.md", "[old](https://example.com/old)\n")
	path := writeFile(t, dir, "resources.yaml", "scan:\n  - path: docs\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	resources, err := m.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	urls := urlsOf(resources)
	for _, want := range []string{
		"https://example.com/api",
		"https://example.com/page",
		"https://example.com/ref",
	} {
		if !containsURL(urls, want) {
			t.Errorf("expected %s in collected resources, got %v", want, urls)
		}
	}
	for _, unwanted := range []string{
		"https://example.com/not-scanned", // unknown extension
		"https://example.com/old",         // hidden directory
		"../notes.md",                     // relative link
	} {
		if containsURL(urls, unwanted) {
			t.Errorf("did not expect %s in collected resources", unwanted)
		}
	}
}

func TestCollect_ExplicitTypeOverridesExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pinned.list", "https://example.com/listed\n")
	path := writeFile(t, dir, "resources.yaml", "scan:\n  - path: pinned.list\n    type: text\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	resources, err := m.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(resources) != 1 || resources[0].URL != "https://example.com/listed" {
		t.Errorf("expected the .list file to be scanned as text, got %v", urlsOf(resources))
	}
}

func TestCollect_SkipsNonRemoteReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "urls.txt", `https://example.com/keep
mailto:docs@example.com
/relative/path
ftp://example.com/file
#anchor
`)
	path := writeFile(t, dir, "resources.yaml", "scan:\n  - path: urls.txt\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	resources, err := m.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(resources) != 1 || resources[0].URL != "https://example.com/keep" {
		t.Errorf("expected only the https URL to survive, got %v", urlsOf(resources))
	}
}

func TestCollect_MissingScanSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "resources.yaml", "scan:\n  - path: absent.txt\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := m.Collect(); err == nil {
		t.Error("expected error for missing scan source")
	}
}

func TestCollect_DistinctUserAgentsAreSeparateResources(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "resources.yaml", `
resources:
  - url: https://example.com/doc.json
  - url: https://example.com/doc.json
    user_agent: special/2.0
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	resources, err := m.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(resources) != 2 {
		t.Errorf("expected same URL with different user agents to stay distinct, got %d", len(resources))
	}
}

func TestCollect_AppliesDefaultUserAgent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "urls.txt", "https://example.com/scanned\n")
	path := writeFile(t, dir, "resources.yaml", `
defaults:
  user_agent: docfetch/1.0
resources:
  - url: https://example.com/doc.json
  - url: https://example.com/openapi.yaml
    user_agent: special/2.0
scan:
  - path: urls.txt
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	resources, err := m.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	agents := make(map[string]string)
	for _, r := range resources {
		agents[r.URL] = r.UserAgent
	}
	if agents["https://example.com/doc.json"] != "docfetch/1.0" {
		t.Errorf("expected default user agent on explicit resource, got %q", agents["https://example.com/doc.json"])
	}
	if agents["https://example.com/openapi.yaml"] != "special/2.0" {
		t.Errorf("expected per-resource user agent to win, got %q", agents["https://example.com/openapi.yaml"])
	}
	if agents["https://example.com/scanned"] != "docfetch/1.0" {
		t.Errorf("expected default user agent on scanned resource, got %q", agents["https://example.com/scanned"])
	}
}

func TestScanRoots(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "resources.yaml", `
scan:
  - path: docs
  - path: /abs/urls.txt
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	roots := m.ScanRoots()
	if len(roots) != 2 {
		t.Fatalf("expected 2 scan roots, got %d", len(roots))
	}
	if roots[0] != filepath.Join(dir, "docs") {
		t.Errorf("expected relative root resolved against manifest dir, got %s", roots[0])
	}
	if roots[1] != "/abs/urls.txt" {
		t.Errorf("expected absolute root kept as-is, got %s", roots[1])
	}
}
