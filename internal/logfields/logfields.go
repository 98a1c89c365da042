package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySheet      = "sheet"
	KeyKind       = "kind"
	KeyPath       = "path"
	KeyImage      = "image"
	KeyStylesheet = "stylesheet"
	KeyTrigger    = "trigger"
	KeyDirectory  = "directory"
	KeyFormat     = "format"
	KeyFont       = "font"
	KeyGlyph      = "glyph"
	KeyEvent      = "event"
	KeyCount      = "count"
	KeyRunID      = "run_id"
	KeyCategory   = "category"
	KeyBuildID    = "build_id"
	KeyDurationMS = "duration_ms"
	KeyAddr       = "addr"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Sheet(name string) slog.Attr     { return slog.String(KeySheet, name) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Image(p string) slog.Attr        { return slog.String(KeyImage, p) }
func Stylesheet(p string) slog.Attr   { return slog.String(KeyStylesheet, p) }
func Trigger(t string) slog.Attr      { return slog.String(KeyTrigger, t) }
func Directory(d string) slog.Attr    { return slog.String(KeyDirectory, d) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Font(name string) slog.Attr      { return slog.String(KeyFont, name) }
func Glyph(name string) slog.Attr     { return slog.String(KeyGlyph, name) }
func Event(op string) slog.Attr       { return slog.String(KeyEvent, op) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
