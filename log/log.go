// Copyright (c) 2025 The StakeVault developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger is the structured logger handed out to packages.
type Logger interface {
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	With(ctx ...any) Logger
}

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(NewTerminalHandler(os.Stderr, slog.LevelInfo, false)))
}

// SetDefault replaces the process-wide root handler.
func SetDefault(handler slog.Handler) {
	root.Store(slog.New(handler))
}

// WithContext returns a logger carrying the given key/value context,
// resolved against the root handler at call time.
func WithContext(ctx ...any) Logger {
	return &logger{attrs: ctx}
}

type logger struct {
	attrs []any
}

func (l *logger) log(level slog.Level, msg string, ctx []any) {
	r := root.Load()
	if len(l.attrs) > 0 {
		r = r.With(l.attrs...)
	}
	r.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Debug(msg string, ctx ...any) { l.log(slog.LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.log(slog.LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.log(slog.LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.log(slog.LevelError, msg, ctx) }

func (l *logger) With(ctx ...any) Logger {
	attrs := make([]any, 0, len(l.attrs)+len(ctx))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, ctx...)
	return &logger{attrs: attrs}
}

// FromVerbosity maps a numeric verbosity flag onto an slog level.
// 0=error ... 4=debug, out-of-range values clamp.
func FromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2, v == 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
