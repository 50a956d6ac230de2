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
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/byksy/paprika/pagestore"
	"github.com/byksy/paprika/trie"
)

func blockKey(seed uint64) [trie.KeyLength]byte {
	var key [trie.KeyLength]byte
	binary.BigEndian.PutUint64(key[24:], seed)
	return key
}

func blockValue(b byte) []byte {
	return bytes.Repeat([]byte{b}, ValueLength)
}

func TestSetAndGetFixedSizeValues(t *testing.T) {
	db, err := Open(pagestore.New(), Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	key := blockKey(1)
	if err := db.Set(key, blockValue(7)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found, err := db.TryGet(key)
	if err != nil || !found {
		t.Fatalf("get: (%v,%v)", found, err)
	}
	if !bytes.Equal(got, blockValue(7)) {
		t.Fatalf("value = %x, want %x", got, blockValue(7))
	}
}

func TestSetRejectsWrongValueLength(t *testing.T) {
	db, err := Open(pagestore.New(), Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Set(blockKey(1), []byte("short")); !errors.Is(err, trie.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCommitBlockRecordsHistory(t *testing.T) {
	db, err := Open(pagestore.New(), Config{Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for block := uint64(1); block <= 3; block++ {
		batch, err := db.Begin()
		if err != nil {
			t.Fatalf("begin block %d: %v", block, err)
		}
		if err := batch.Set(blockKey(block), blockValue(byte(block))); err != nil {
			t.Fatalf("set block %d: %v", block, err)
		}
		if err := db.CommitBlock(batch, block, trie.SealUpdatable); err != nil {
			t.Fatalf("commit block %d: %v", block, err)
		}
	}

	last, found, err := db.history.LastBlock()
	if err != nil || !found || last != 3 {
		t.Fatalf("last block = (%d,%v,%v), want (3,true,nil)", last, found, err)
	}

	// Every recorded root still resolves against the backing store, and
	// each one sees exactly the keys committed up to its block.
	for block := uint64(1); block <= 3; block++ {
		for probe := uint64(1); probe <= 3; probe++ {
			v, found, err := db.TryGetAt(block, blockKey(probe))
			if err != nil {
				t.Fatalf("get block %d key %d: %v", block, probe, err)
			}
			if wantFound := probe <= block; found != wantFound {
				t.Fatalf("block %d key %d: found=%v, want %v", block, probe, found, wantFound)
			}
			if found && !bytes.Equal(v, blockValue(byte(probe))) {
				t.Fatalf("block %d key %d: value %x", block, probe, v)
			}
		}
	}
}

func TestRecordedRootHashMatchesEngine(t *testing.T) {
	db, err := Open(pagestore.New(), Config{Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	batch, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := batch.Set(blockKey(1), blockValue(1)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.CommitBlock(batch, 1, trie.SealUpdatable); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_, recorded, found, err := db.history.RootOf(1)
	if err != nil || !found {
		t.Fatalf("root of block 1: (%v,%v)", found, err)
	}
	current, err := trie.RootHash(db.Engine().Store(), db.Engine().Root())
	if err != nil {
		t.Fatalf("root hash: %v", err)
	}
	if recorded != current {
		t.Fatalf("recorded hash %x differs from engine hash %x", recorded, current)
	}
}

func TestTryGetAtUnknownBlockMisses(t *testing.T) {
	db, err := Open(pagestore.New(), Config{Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, found, err := db.TryGetAt(42, blockKey(1)); err != nil || found {
		t.Fatalf("unknown block: (%v,%v), want clean miss", found, err)
	}
}

func TestTryGetAtWithoutHistoryFails(t *testing.T) {
	db, err := Open(pagestore.New(), Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, _, err := db.TryGetAt(1, blockKey(1)); !errors.Is(err, trie.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
