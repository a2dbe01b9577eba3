// Package klog is the kernel's structured logging facade: a package-
// level global (SetGlobal/Global), a safe default to a discard logger,
// and a thin category-tagged helper API, built on top of logiface
// rather than a hand-rolled Logger interface.
// logiface.Logger[logiface.Event] is the facade type, and NewZerolog
// wires in the rs/zerolog backend via izerolog.
package klog

import (
	"io"
	"sync"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Logger is the facade type every kernel component logs through.
type Logger = logiface.Logger[logiface.Event]

// Category names the kernel subsystem emitting a log event.
type Category string

const (
	CategoryScheduler Category = "sched"
	CategorySignal    Category = "signal"
	CategoryPage      Category = "page"
	CategoryPool      Category = "pool"
	CategoryThread    Category = "thread"
	CategoryResource  Category = "resource"
	CategoryKernel    Category = "kernel"
)

var global struct {
	sync.RWMutex
	logger *Logger
}

// SetGlobal installs l as the process-wide default logger. A nil l
// restores the discard default.
func SetGlobal(l *Logger) {
	global.Lock()
	defer global.Unlock()
	global.logger = l
}

// Global returns the process-wide logger, or a discard logger if none has
// been installed.
func Global() *Logger {
	global.RLock()
	defer global.RUnlock()
	if global.logger != nil {
		return global.logger
	}
	return Discard()
}

// Discard returns a logger that drops everything — logiface's own
// zero-configuration behavior when no writer is attached, so this is
// just New with no options, named for clarity at call sites.
func Discard() *Logger {
	return logiface.New[logiface.Event]()
}

// NewZerolog builds a Logger backed by rs/zerolog, writing newline-
// delimited JSON to w at the given minimum level.
func NewZerolog(w io.Writer, level logiface.Level) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	typed := logiface.New[*izerolog.Event](
		izerolog.WithZerolog(zl),
		logiface.WithLevel[*izerolog.Event](level),
	)
	return typed.Logger()
}

// Event starts a log entry at level, tagged with category.
func Event(l *Logger, level logiface.Level, category Category) *logiface.Builder[logiface.Event] {
	return l.Build(level).Str("category", string(category))
}

// Info logs msg at informational level under category.
func Info(l *Logger, category Category, msg string) {
	Event(l, logiface.LevelInformational, category).Log(msg)
}

// Warn logs msg at warning level under category.
func Warn(l *Logger, category Category, msg string) {
	Event(l, logiface.LevelWarning, category).Log(msg)
}

// Error logs msg at error level under category, attaching err.
func Error(l *Logger, category Category, msg string, err error) {
	Event(l, logiface.LevelError, category).Err(err).Log(msg)
}

// ThreadEvent logs msg at level under CategoryThread, tagging the
// originating thread's id and name — the pattern most kernel hooks
// (OnThreadExit, OnStackOverflow) need.
func ThreadEvent(l *Logger, level logiface.Level, threadID uint32, threadName, msg string) {
	Event(l, level, CategoryThread).
		Int("thread_id", int(threadID)).
		Str("thread_name", threadName).
		Log(msg)
}
