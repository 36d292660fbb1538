// Copyright 2023 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package database

import (
	"bytes"
)

var _ Table = (*table)(nil)

type table struct {
	db     Database
	prefix []byte
}

// NewTable returns a view of the database restricted to the given key prefix.
func NewTable(db Database, prefix string) Table {
	return &table{
		db:     db,
		prefix: []byte(prefix),
	}
}

func (t *table) key(key []byte) []byte {
	return bytes.Join([][]byte{t.prefix, key}, nil)
}

func (t *table) Get(key []byte) ([]byte, error) {
	return t.db.Get(t.key(key))
}

func (t *table) Has(key []byte) (bool, error) {
	return t.db.Has(t.key(key))
}

func (t *table) Put(key, value []byte) error {
	return t.db.Put(t.key(key), value)
}

func (t *table) Del(key []byte) error {
	return t.db.Del(t.key(key))
}

func (t *table) Flush() error {
	return t.db.Flush()
}

func (t *table) NewBatch() Batch {
	return &tableBatch{
		batch:  t.db.NewBatch(),
		prefix: t.prefix,
	}
}

func (t *table) NewIterator() (Iterator, error) {
	return t.db.NewPrefixIterator(t.prefix)
}

var _ Batch = (*tableBatch)(nil)

type tableBatch struct {
	batch  Batch
	prefix []byte
}

func (tb *tableBatch) key(key []byte) []byte {
	return bytes.Join([][]byte{tb.prefix, key}, nil)
}

func (tb *tableBatch) Put(key, value []byte) error {
	return tb.batch.Put(tb.key(key), value)
}

func (tb *tableBatch) Del(key []byte) error {
	return tb.batch.Del(tb.key(key))
}

func (tb *tableBatch) Flush() error {
	return tb.batch.Flush()
}

func (tb *tableBatch) ValueSize() int {
	return tb.batch.ValueSize()
}

func (tb *tableBatch) Reset() {
	tb.batch.Reset()
}

func (tb *tableBatch) Close() error {
	return tb.batch.Close()
}
