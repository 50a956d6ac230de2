// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package triedb

import (
	"encoding/binary"
	"fmt"
	"log"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/byksy/paprika/trie"
)

// History records, per block number, the root node id and root hash a
// commit published. It is a thin layer over LevelDB; the node payloads
// themselves stay in the backing store.
type History struct {
	db *leveldb.DB
}

const (
	rootKeyPrefix = byte('R')
	lastBlockKey  = byte('L')
	rootRecordLen = 8 + 32
)

// OpenHistory opens or creates the root-pointer database in directory.
func OpenHistory(directory string) (*History, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, err
	}
	h := &History{db: db}
	// A malformed last-block record is not fatal: the history remains
	// readable per block, only the shortcut is lost.
	if _, _, err := h.LastBlock(); err != nil {
		log.Printf("WARNING: history in %s has a corrupt last-block record; %v", directory, err)
	}
	return h, nil
}

// Close releases the underlying LevelDB instance.
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores the root pointer of the given block and advances the
// last-block shortcut.
func (h *History) Record(block uint64, root trie.NodeId, hash [32]byte) error {
	record := make([]byte, rootRecordLen)
	binary.LittleEndian.PutUint64(record[:8], uint64(root))
	copy(record[8:], hash[:])

	batch := new(leveldb.Batch)
	batch.Put(rootKey(block), record)
	var blockBytes [8]byte
	binary.BigEndian.PutUint64(blockBytes[:], block)
	batch.Put([]byte{lastBlockKey}, blockBytes[:])
	return h.db.Write(batch, nil)
}

// RootOf looks up the root pointer recorded for block. found is false
// when the block was never committed through this history.
func (h *History) RootOf(block uint64) (trie.NodeId, [32]byte, bool, error) {
	record, err := h.db.Get(rootKey(block), nil)
	if err == leveldb.ErrNotFound {
		return trie.EmptyId, [32]byte{}, false, nil
	}
	if err != nil {
		return trie.EmptyId, [32]byte{}, false, err
	}
	if len(record) != rootRecordLen {
		return trie.EmptyId, [32]byte{}, false, fmt.Errorf("triedb: root record of block %d has %d bytes, want %d", block, len(record), rootRecordLen)
	}
	var hash [32]byte
	copy(hash[:], record[8:])
	return trie.NodeId(binary.LittleEndian.Uint64(record[:8])), hash, true, nil
}

// LastBlock reports the highest block number recorded so far.
func (h *History) LastBlock() (uint64, bool, error) {
	record, err := h.db.Get([]byte{lastBlockKey}, nil)
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if len(record) != 8 {
		return 0, false, fmt.Errorf("triedb: last-block record has %d bytes, want 8", len(record))
	}
	return binary.BigEndian.Uint64(record), true, nil
}

func rootKey(block uint64) []byte {
	key := make([]byte, 9)
	key[0] = rootKeyPrefix
	binary.BigEndian.PutUint64(key[1:], block)
	return key
}
