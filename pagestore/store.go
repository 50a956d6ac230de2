// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package pagestore provides a minimal, in-memory implementation of
// trie.BackingStore: an append-oriented arena over fixed 4 KiB pages.
//
// A production backing medium would be a memory-mapped file with
// msync/fsync durability and history-aware garbage collection, owned
// by a wider database layer this package does not attempt to
// reproduce. What is provided here is a faithful stand-in for that
// contract: fixed-size pages, sequential allocation, and file-epoch
// boundaries, without the memory-mapping or on-disk persistence
// machinery.
package pagestore

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/byksy/paprika/trie"
)

// PageSize is the fixed page size this arena allocates in.
const PageSize = 4096

// lengthPrefixSize is the size, in bytes, of the length header this
// store writes ahead of every node payload so Read can recover its
// length without a separate index.
const lengthPrefixSize = 4

// DefaultSegmentPages is the number of pages grouped into one simulated
// file epoch; IsSameFile compares two ids by the epoch their page falls
// into, mirroring how a multi-segment backing file would.
const DefaultSegmentPages = 256

// Store is an in-memory, page-addressed arena implementing
// trie.BackingStore.
type Store struct {
	mu           sync.Mutex
	pages        [][]byte
	cursor       int // next free byte offset within the current (last) page
	segmentPages int
	freedCount   int
}

// New creates an empty Store using DefaultSegmentPages as its simulated
// file-epoch size.
func New() *Store {
	return NewWithSegmentSize(DefaultSegmentPages)
}

// NewWithSegmentSize creates an empty Store with a custom number of
// pages per simulated file epoch, primarily useful for exercising
// IsSameFile-driven slot-cache behavior in tests.
func NewWithSegmentSize(segmentPages int) *Store {
	if segmentPages < 1 {
		segmentPages = DefaultSegmentPages
	}
	s := &Store{segmentPages: segmentPages}
	s.pages = append(s.pages, make([]byte, PageSize))
	s.cursor = 0
	return s
}

func (s *Store) currentPage() int {
	return len(s.pages) - 1
}

// locate decodes an id into its page index and in-page byte offset.
func locate(id trie.NodeId) (page, offset int) {
	global := uint64(id) - 1
	return int(global / PageSize), int(global % PageSize)
}

// Read returns a mutable view of the node payload at id: a slice over
// this store's page array, writable in place by the NodeStore when
// permitted.
func (s *Store) Read(id trie.NodeId) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id.IsEmpty() {
		return nil, fmt.Errorf("pagestore: cannot read the empty id")
	}
	page, offset := locate(id)
	if page >= len(s.pages) || offset+lengthPrefixSize > PageSize {
		return nil, fmt.Errorf("pagestore: id %d out of range", id)
	}
	buf := s.pages[page]
	length := int(binary.LittleEndian.Uint32(buf[offset : offset+lengthPrefixSize]))
	end := offset + lengthPrefixSize + length
	if end > PageSize {
		return nil, fmt.Errorf("pagestore: id %d has a corrupt length prefix", id)
	}
	return buf[offset+lengthPrefixSize : end], nil
}

// Write allocates a new node for bytes, placing it in the current page
// if it fits or starting a fresh page otherwise, and returns its id.
func (s *Store) Write(bytes []byte) (trie.NodeId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	need := lengthPrefixSize + len(bytes)
	if need > PageSize {
		return trie.EmptyId, fmt.Errorf("%w: node of %d bytes exceeds the page size", trie.ErrOutOfSpace, len(bytes))
	}
	if s.cursor+need > PageSize {
		s.pages = append(s.pages, make([]byte, PageSize))
		s.cursor = 0
	}

	page := s.currentPage()
	offset := s.cursor
	buf := s.pages[page]
	binary.LittleEndian.PutUint32(buf[offset:offset+lengthPrefixSize], uint32(len(bytes)))
	copy(buf[offset+lengthPrefixSize:offset+lengthPrefixSize+len(bytes)], bytes)
	s.cursor += need

	global := uint64(page)*PageSize + uint64(offset)
	return trie.NodeId(global + 1), nil
}

// Update overwrites the payload at id in place and re-declares its
// length, so that later Read calls return exactly the new bytes. The
// bytes freed by a shrinking update are zeroed; they stay part of the
// slot's allocation but are no longer reachable through Read.
func (s *Store) Update(id trie.NodeId, bytes []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id.IsEmpty() {
		return fmt.Errorf("pagestore: cannot update the empty id")
	}
	page, offset := locate(id)
	if page >= len(s.pages) || offset+lengthPrefixSize > PageSize {
		return fmt.Errorf("pagestore: id %d out of range", id)
	}
	buf := s.pages[page]
	length := int(binary.LittleEndian.Uint32(buf[offset : offset+lengthPrefixSize]))
	end := offset + lengthPrefixSize + length
	if end > PageSize {
		return fmt.Errorf("pagestore: id %d has a corrupt length prefix", id)
	}
	if len(bytes) > length {
		return fmt.Errorf("pagestore: update of %d bytes exceeds the %d byte slot of id %d", len(bytes), length, id)
	}

	binary.LittleEndian.PutUint32(buf[offset:offset+lengthPrefixSize], uint32(len(bytes)))
	start := offset + lengthPrefixSize
	copy(buf[start:start+len(bytes)], bytes)
	for i := start + len(bytes); i < end; i++ {
		buf[i] = 0
	}
	return nil
}

// Free marks id's slot as reclaimed for bookkeeping purposes. This
// minimal arena does not reuse freed byte ranges; production backing
// stores would return the underlying page to a free-page list once all
// of its slots are freed.
func (s *Store) Free(id trie.NodeId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freedCount++
	return nil
}

// NextId returns the id the next Write call would hand out if its node
// fits into the current page; a node that does not fit starts a new page
// and receives a higher id.
func (s *Store) NextId() trie.NodeId {
	s.mu.Lock()
	defer s.mu.Unlock()
	global := uint64(s.currentPage())*PageSize + uint64(s.cursor)
	return trie.NodeId(global + 1)
}

// FlushFrom is a no-op for this in-memory arena; a durable backing
// store would fsync the pages covering (prevId, NextId()] here.
func (s *Store) FlushFrom(prevId trie.NodeId) error {
	return nil
}

// IsSameFile reports whether a and b fall within the same simulated
// file-epoch segment of pages.
func (s *Store) IsSameFile(a, b trie.NodeId) bool {
	pageA, _ := locate(a)
	pageB, _ := locate(b)
	return pageA/s.segmentPages == pageB/s.segmentPages
}

// FreedCount reports how many ids have been passed to Free, for tests
// and diagnostics.
func (s *Store) FreedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freedCount
}
