// Package observability carries the run/sheet scope through contexts so log
// lines emitted deep inside a builder can be tied back to the run and sheet
// that caused them.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/spritegen/internal/foundation/errors"
	"git.home.luguber.info/inful/spritegen/internal/logfields"
)

// Scope identifies the unit of work a log line belongs to.
type Scope struct {
	RunID   string // one pass over the configured sheets
	Trigger string
	BuildID string // one sheet build
	Sheet   string
	Kind    string // sprite or iconfont
}

type scopeKey struct{}

// ScopeFrom returns the scope stored in ctx, or the zero Scope.
func ScopeFrom(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}

func with(ctx context.Context, set func(*Scope)) context.Context {
	s := ScopeFrom(ctx)
	set(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithRun starts a run scope.
func WithRun(ctx context.Context, runID, trigger string) context.Context {
	return with(ctx, func(s *Scope) {
		s.RunID, s.Trigger = runID, trigger
	})
}

// WithSheetBuild scopes ctx to one sheet build. The trigger is set as well
// since single-sheet rebuilds have no enclosing run.
func WithSheetBuild(ctx context.Context, buildID, sheet, trigger string) context.Context {
	return with(ctx, func(s *Scope) {
		s.BuildID, s.Sheet, s.Trigger = buildID, sheet, trigger
	})
}

func WithSheet(ctx context.Context, sheet string) context.Context {
	return with(ctx, func(s *Scope) { s.Sheet = sheet })
}

func WithKind(ctx context.Context, kind string) context.Context {
	return with(ctx, func(s *Scope) { s.Kind = kind })
}

func (s Scope) attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 5)
	if s.RunID != "" {
		attrs = append(attrs, logfields.RunID(s.RunID))
	}
	if s.Trigger != "" {
		attrs = append(attrs, logfields.Trigger(s.Trigger))
	}
	if s.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(s.BuildID))
	}
	if s.Sheet != "" {
		attrs = append(attrs, logfields.Sheet(s.Sheet))
	}
	if s.Kind != "" {
		attrs = append(attrs, logfields.Kind(s.Kind))
	}
	return attrs
}

func log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	slog.LogAttrs(ctx, level, msg, append(ScopeFrom(ctx).attrs(), attrs...)...)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelError, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelDebug, msg, attrs)
}

// Failure logs err at error level together with its category, which is
// "internal" for errors that were never classified.
func Failure(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		logfields.Category(string(errors.GetCategory(err))),
		logfields.Error(err))
	log(ctx, slog.LevelError, msg, attrs)
}
