// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package database

import (
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/ChainSafe/approval-voting/internal/log"
)

var logger = log.NewFromGlobal(log.AddContext("internal", "database"))

// ErrNotFound is returned when a key is absent from the database.
var ErrNotFound = pebble.ErrNotFound

var _ Database = (*pebbleDB)(nil)

type pebbleDB struct {
	db *pebble.DB
}

// NewPebble opens a pebble database at the given path, or an in-memory
// database when inMemory is set (used by tests).
func NewPebble(path string, inMemory bool) (Database, error) {
	opts := &pebble.Options{}
	if inMemory {
		opts.FS = vfs.NewMem()
	} else if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("opening pebble database: %w", err)
	}

	return &pebbleDB{db: db}, nil
}

func (p *pebbleDB) Get(key []byte) ([]byte, error) {
	value, closer, err := p.db.Get(key)
	if err != nil {
		return nil, fmt.Errorf("getting 0x%x from database: %w", key, err)
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	if err := closer.Close(); err != nil {
		return nil, fmt.Errorf("closing after get: %w", err)
	}

	return valueCopy, nil
}

func (p *pebbleDB) Has(key []byte) (bool, error) {
	_, closer, err := p.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	if err := closer.Close(); err != nil {
		return false, fmt.Errorf("closing after get: %w", err)
	}

	return true, nil
}

func (p *pebbleDB) Put(key, value []byte) error {
	if err := p.db.Set(key, value, &pebble.WriteOptions{}); err != nil {
		return fmt.Errorf("writing 0x%x to database: %w", key, err)
	}
	return nil
}

func (p *pebbleDB) Del(key []byte) error {
	if err := p.db.Delete(key, &pebble.WriteOptions{}); err != nil {
		return fmt.Errorf("deleting 0x%x from database: %w", key, err)
	}
	return nil
}

func (p *pebbleDB) Flush() error {
	if err := p.db.Flush(); err != nil {
		return fmt.Errorf("flushing database: %w", err)
	}
	return nil
}

func (p *pebbleDB) Close() error {
	return p.db.Close()
}

func (p *pebbleDB) NewBatch() Batch {
	return &pebbleBatch{batch: p.db.NewBatch()}
}

func (p *pebbleDB) NewIterator() (Iterator, error) {
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating iterator: %w", err)
	}
	return &pebbleIterator{iter}, nil
}

func (p *pebbleDB) NewPrefixIterator(prefix []byte) (Iterator, error) {
	// The upper bound is the prefix with its last non-0xff byte incremented.
	upperBound := func(b []byte) []byte {
		end := make([]byte, len(b))
		copy(end, b)
		for i := len(end) - 1; i >= 0; i-- {
			end[i]++
			if end[i] != 0 {
				return end[:i+1]
			}
		}
		return nil
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("creating prefix iterator: %w", err)
	}
	return &pebbleIterator{iter}, nil
}

var _ Batch = (*pebbleBatch)(nil)

type pebbleBatch struct {
	batch *pebble.Batch
}

func (pb *pebbleBatch) Put(key, value []byte) error {
	if err := pb.batch.Set(key, value, &pebble.WriteOptions{}); err != nil {
		return fmt.Errorf("setting on batch: %w", err)
	}
	return nil
}

func (pb *pebbleBatch) Del(key []byte) error {
	if err := pb.batch.Delete(key, &pebble.WriteOptions{}); err != nil {
		return fmt.Errorf("deleting on batch: %w", err)
	}
	return nil
}

func (pb *pebbleBatch) Flush() error {
	if err := pb.batch.Commit(&pebble.WriteOptions{}); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (pb *pebbleBatch) ValueSize() int {
	return int(pb.batch.Count())
}

func (pb *pebbleBatch) Reset() {
	pb.batch.Reset()
}

func (pb *pebbleBatch) Close() error {
	return pb.batch.Close()
}

var _ Iterator = (*pebbleIterator)(nil)

type pebbleIterator struct {
	*pebble.Iterator
}

func (pi *pebbleIterator) Release() {
	if err := pi.Close(); err != nil {
		logger.Criticalf("closing iterator: %s", err)
	}
}
