// Package slog adapts the standard log/slog to shopmirror.Logger.
package slog

import (
	"context"
	"io"
	stdslog "log/slog"
	"sort"
	"strings"

	"github.com/unkn0wn-root/shopmirror"
)

var _ shopmirror.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New returns a JSON logger writing to w at level.
func New(w io.Writer, level string) Logger {
	var lvl stdslog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = stdslog.LevelInfo
	}
	h := stdslog.NewJSONHandler(w, &stdslog.HandlerOptions{Level: lvl})
	return Logger{L: stdslog.New(h).With("component", "shopmirror")}
}

func (s Logger) Debug(msg string, f shopmirror.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f shopmirror.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f shopmirror.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f shopmirror.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(lvl stdslog.Level, msg string, f shopmirror.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, lvl) {
		return
	}
	s.L.LogAttrs(ctx, lvl, msg, attrs(f)...)
}

func attrs(f shopmirror.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range keys {
		out = append(out, stdslog.Any(k, f[k]))
	}
	return out
}
