// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package database exposes the key-value store used to persist
// approval-voting block and candidate entries.
package database

import (
	"io"
)

type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

type Writer interface {
	Put(key, value []byte) error
	Del(key []byte) error
	Flush() error
}

// Iterator iterates over key-value pairs in ascending key order.
// It must be released after use.
type Iterator interface {
	First() bool
	Valid() bool
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

// Batch accumulates writes to be flushed to the database atomically.
type Batch interface {
	io.Closer
	Writer

	ValueSize() int
	Reset()
}

// Database wraps all database operations. All methods are safe for
// concurrent use.
type Database interface {
	Reader
	Writer
	io.Closer

	NewBatch() Batch
	NewIterator() (Iterator, error)
	NewPrefixIterator(prefix []byte) (Iterator, error)
}

// Table is a database view restricted to a key prefix.
type Table interface {
	Reader
	Writer
	NewBatch() Batch
	NewIterator() (Iterator, error)
}
