// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package log provides a leveled logger with key-value contexts,
// safe for concurrent use from multiple child loggers sharing a writer.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger is a leveled logger with an optional key-value context.
// It is safe for concurrent use.
type Logger struct {
	settings settings
	mutex    *sync.Mutex // shared with child loggers writing to the same writer
}

// New creates a new logger from the options given.
func New(options ...Option) *Logger {
	s := newSettings(options)
	s.setDefaults()
	return &Logger{
		settings: s,
		mutex:    new(sync.Mutex),
	}
}

// New creates a child logger inheriting the parent settings,
// sharing the parent writer mutex.
func (l *Logger) New(options ...Option) *Logger {
	s := newSettings(options)
	s.mergeWith(l.settings)
	s.setDefaults()
	return &Logger{
		settings: s,
		mutex:    l.mutex,
	}
}

func (s *settings) setDefaults() {
	if s.writer == nil {
		s.writer = os.Stdout
	}
	if s.level == nil {
		level := LevelInfo
		s.level = &level
	}
}

func (l *Logger) log(level Level, s string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if *l.settings.level > level {
		return
	}

	line := time.Now().Format("2006-01-02T15:04:05.000") + " " + level.String() + " " + s
	if len(l.settings.context) > 0 {
		keyValues := make([]string, 0, len(l.settings.context))
		for _, kv := range l.settings.context {
			keyValues = append(keyValues, kv.key+"="+kv.value)
		}
		line += "\t" + strings.Join(keyValues, " ")
	}

	fmt.Fprintln(l.settings.writer, line)
}

// Trace logs with the trace level.
func (l *Logger) Trace(s string) { l.log(LevelTrace, s) }

// Debug logs with the debug level.
func (l *Logger) Debug(s string) { l.log(LevelDebug, s) }

// Info logs with the info level.
func (l *Logger) Info(s string) { l.log(LevelInfo, s) }

// Warn logs with the warn level.
func (l *Logger) Warn(s string) { l.log(LevelWarn, s) }

// Error logs with the error level.
func (l *Logger) Error(s string) { l.log(LevelError, s) }

// Critical logs with the critical level.
func (l *Logger) Critical(s string) { l.log(LevelCritical, s) }

// Tracef formats and logs with the trace level.
func (l *Logger) Tracef(format string, args ...any) {
	l.log(LevelTrace, fmt.Sprintf(format, args...))
}

// Debugf formats and logs with the debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Infof formats and logs with the info level.
func (l *Logger) Infof(format string, args ...any) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf formats and logs with the warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf formats and logs with the error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}

// Criticalf formats and logs with the critical level.
func (l *Logger) Criticalf(format string, args ...any) {
	l.log(LevelCritical, fmt.Sprintf(format, args...))
}
