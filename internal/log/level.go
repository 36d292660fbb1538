// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

// Level is the severity level of a log line.
type Level uint8

const (
	// LevelTrace is the trace level.
	LevelTrace Level = iota
	// LevelDebug is the debug level.
	LevelDebug
	// LevelInfo is the informational level.
	LevelInfo
	// LevelWarn is the warning level.
	LevelWarn
	// LevelError is the error level.
	LevelError
	// LevelCritical is the critical level.
	LevelCritical
)

func (level Level) String() string {
	switch level {
	case LevelTrace:
		return "TRCE"
	case LevelDebug:
		return "DBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "EROR"
	case LevelCritical:
		return "CRIT"
	}
	return "???"
}
