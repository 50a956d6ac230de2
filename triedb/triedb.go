// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package triedb wraps the core trie engine into a database shaped for
// Ethereum state use: keys are fixed at 32 bytes, DB.Set accepts only
// 32-byte values, and each committed block's root pointer is recorded in
// a small LevelDB
// instance so past roots can be reopened for as long as the backing
// store retains their pages. Pruning those pages is the backing store's
// job, not this package's; the history here is pointers only.
package triedb

import (
	"fmt"

	"github.com/byksy/paprika/trie"
)

// ValueLength is the value size DB.Set enforces. The core engine below
// accepts variable-length values, and so do batches opened through
// DB.Begin: their Set is the engine's own and does not check ValueLength.
const ValueLength = 32

// Config collects the options of a DB.
type Config struct {
	// Directory is where the root-pointer history is kept. An empty
	// directory disables history; commits then only publish to the
	// engine.
	Directory string
}

// DB combines a trie engine with an optional root-pointer history.
type DB struct {
	engine  *trie.Engine
	history *History
}

// Open creates a DB over the given backing store. If config names a
// history directory, the root-pointer database in it is opened or
// created.
func Open(backing trie.BackingStore, config Config) (*DB, error) {
	db := &DB{engine: trie.NewEngine(backing)}
	if config.Directory != "" {
		history, err := OpenHistory(config.Directory)
		if err != nil {
			return nil, fmt.Errorf("triedb: cannot open history: %w", err)
		}
		db.history = history
	}
	return db, nil
}

// Close releases the history database. The engine itself holds no
// resources beyond its backing store, which the caller owns.
func (db *DB) Close() error {
	if db.history == nil {
		return nil
	}
	return db.history.Close()
}

// Engine grants access to the wrapped trie engine.
func (db *DB) Engine() *trie.Engine {
	return db.engine
}

// Set writes a single key/value pair in its own batch. value must be
// exactly ValueLength bytes.
func (db *DB) Set(key [trie.KeyLength]byte, value []byte) error {
	if err := checkValue(value); err != nil {
		return err
	}
	return db.engine.Set(key, value)
}

// TryGet reads a key against the engine's currently published root.
func (db *DB) TryGet(key [trie.KeyLength]byte) ([]byte, bool, error) {
	return db.engine.TryGet(key)
}

// Begin opens a batch on the wrapped engine. Values written through the
// returned batch are not checked against ValueLength.
func (db *DB) Begin() (*trie.Batch, error) {
	return db.engine.Begin()
}

// CommitBlock commits the batch with the given mode and records the
// resulting root pointer under the block number, when history is
// enabled.
func (db *DB) CommitBlock(batch *trie.Batch, block uint64, mode trie.CommitMode) error {
	if err := batch.Commit(mode); err != nil {
		return err
	}
	if db.history == nil {
		return nil
	}
	hash, err := trie.RootHash(db.engine.Store(), db.engine.Root())
	if err != nil {
		return err
	}
	return db.history.Record(block, db.engine.Root(), hash)
}

// TryGetAt reads a key against the root recorded for the given block.
// The read succeeds only while the backing store still retains that
// snapshot's pages.
func (db *DB) TryGetAt(block uint64, key [trie.KeyLength]byte) ([]byte, bool, error) {
	if db.history == nil {
		return nil, false, fmt.Errorf("%w: no history configured", trie.ErrInvalidArgument)
	}
	root, _, found, err := db.history.RootOf(block)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return trie.TryGet(db.engine.Store(), root, trie.NewNibblePath(key[:]))
}

func checkValue(value []byte) error {
	if len(value) != ValueLength {
		return fmt.Errorf("%w: value must be %d bytes, got %d", trie.ErrInvalidArgument, ValueLength, len(value))
	}
	return nil
}
