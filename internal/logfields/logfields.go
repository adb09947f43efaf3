package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPhase      = "phase"
	KeyStep       = "step"
	KeyCommand    = "command"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyLayout     = "layout"
	KeyCollection = "collection"
	KeyCount      = "count"
	KeyPrefix     = "prefix"
	KeyToken      = "token"
	KeyDurationMS = "duration_ms"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Phase(p string) slog.Attr         { return slog.String(KeyPhase, p) }
func Step(name string) slog.Attr       { return slog.String(KeyStep, name) }
func Command(c string) slog.Attr       { return slog.String(KeyCommand, c) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Layout(l string) slog.Attr        { return slog.String(KeyLayout, l) }
func Collection(name string) slog.Attr { return slog.String(KeyCollection, name) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Prefix(p string) slog.Attr        { return slog.String(KeyPrefix, p) }
func Token(path string) slog.Attr      { return slog.String(KeyToken, path) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }

// Duration records d as fractional milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
