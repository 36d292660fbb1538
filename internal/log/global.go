// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

var globalLogger = New()

// NewFromGlobal creates a child logger from the global logger.
func NewFromGlobal(options ...Option) *Logger {
	return globalLogger.New(options...)
}

// SetGlobalLevel sets the level of the global logger;
// children created afterwards inherit it.
func SetGlobalLevel(level Level) {
	globalLogger.settings.level = &level
}
