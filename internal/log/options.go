// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"io"
)

// Option modifies the settings of a logger at construction time.
type Option func(s *settings)

type contextKeyValue struct {
	key   string
	value string
}

type settings struct {
	writer  io.Writer
	level   *Level
	context []contextKeyValue
}

func newSettings(options []Option) (s settings) {
	for _, option := range options {
		option(&s)
	}
	return s
}

func (s *settings) mergeWith(other settings) {
	if s.writer == nil {
		s.writer = other.writer
	}
	if s.level == nil && other.level != nil {
		level := *other.level
		s.level = &level
	}
	s.context = append(append([]contextKeyValue{}, other.context...), s.context...)
}

// SetWriter sets the writer of the logger.
func SetWriter(writer io.Writer) Option {
	return func(s *settings) {
		s.writer = writer
	}
}

// SetLevel sets the level of the logger.
func SetLevel(level Level) Option {
	return func(s *settings) {
		s.level = &level
	}
}

// AddContext adds a key-value context to each line logged.
func AddContext(key, value string) Option {
	return func(s *settings) {
		s.context = append(s.context, contextKeyValue{key: key, value: value})
	}
}
