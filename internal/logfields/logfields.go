package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyURL        = "url"
	KeySource     = "source"
	KeyKind       = "kind"
	KeyStatus     = "status"
	KeyRunID      = "run_id"
	KeyManifest   = "manifest"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyBytes      = "bytes"
	KeyCount      = "count"
	KeyBackend    = "backend"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Manifest(path string) slog.Attr  { return slog.String(KeyManifest, path) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Bytes(n int64) slog.Attr         { return slog.Int64(KeyBytes, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Backend(b string) slog.Attr      { return slog.String(KeyBackend, b) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
